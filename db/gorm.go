package db

import (
	"fmt"
	"log"
	"time"

	"songhouse/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Gorm is the shared GORM database handle.
var Gorm *gorm.DB

// ConnectGorm establishes the GORM database connection and configures the
// underlying pool.
func ConnectGorm(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	Gorm, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := Gorm.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to the database with GORM.")
	return nil
}

// CloseGorm closes the GORM database connection.
func CloseGorm() error {
	if Gorm == nil {
		return nil
	}
	sqlDB, err := Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate migrates the given models.
func AutoMigrate(models ...interface{}) error {
	if Gorm == nil {
		return fmt.Errorf("GORM database not initialized")
	}
	if err := Gorm.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	return nil
}
