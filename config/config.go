package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ListenAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret string

	// SearchTimeout bounds each source adapter call and the artwork lookup.
	SearchTimeout time.Duration
	// SearchWorkers caps concurrent adapter calls within one search.
	SearchWorkers int
	// SearchMatchThreshold filters aggregation results when the query asks
	// for artist/title filtering.
	SearchMatchThreshold int

	// ReprocessInterval is the sweep period for pending search requests.
	ReprocessInterval time.Duration
	// ReprocessPageSize is the retry batch size per user.
	ReprocessPageSize int
	// ReprocessMatchThreshold is the minimum score a reprocessed top
	// candidate needs to count as found.
	ReprocessMatchThreshold int

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration string
// (e.g. "10s", "24h") or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "songhouse"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "songhouse"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret"),

		SearchTimeout:        getEnvDuration("SEARCH_TIMEOUT", 10*time.Second),
		SearchWorkers:        getEnvInt("SEARCH_WORKERS", 4),
		SearchMatchThreshold: getEnvInt("SEARCH_MATCH_THRESHOLD", 70),

		ReprocessInterval:       getEnvDuration("REPROCESS_INTERVAL", 24*time.Hour),
		ReprocessPageSize:       getEnvInt("REPROCESS_PAGE_SIZE", 20),
		ReprocessMatchThreshold: getEnvInt("REPROCESS_MATCH_THRESHOLD", 85),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
