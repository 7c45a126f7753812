package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"songhouse/cache"
	"songhouse/config"
	"songhouse/db"
	"songhouse/logger"
	"songhouse/model"
	"songhouse/notify"
	"songhouse/reprocess"
	"songhouse/repository"
	"songhouse/search"
	"songhouse/storage"
	"songhouse/track"

	"github.com/gorilla/mux"
)

// Options carries the externally implemented adapters injected at startup.
// Empty lists are valid: the engines then degrade to empty results.
type Options struct {
	Sources   []search.SourceAdapter
	Downloads []search.DownloadAdapter
	Artwork   search.ArtworkService
}

// Start wires the whole application and serves HTTP until SIGINT/SIGTERM.
func Start(opts Options) {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
	})

	if err := db.ConnectGorm(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGorm()
	if err := db.AutoMigrate(&model.SearchReprocess{}, &model.Track{}); err != nil {
		logger.Fatal("failed to migrate schema", logger.ErrorField(err))
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	store, err := storage.NewObjectStore(cfg)
	if err != nil {
		logger.Fatal("failed to connect to object storage", logger.ErrorField(err))
	}

	searchFacade := search.NewFacade(opts.Sources, opts.Artwork, search.FacadeConfig{
		AdapterTimeout: cfg.SearchTimeout,
		Workers:        cfg.SearchWorkers,
		MatchThreshold: cfg.SearchMatchThreshold,
	})
	downloadFacade := search.NewDownloadFacade(opts.Downloads, opts.Artwork)

	trackService := track.NewService(repository.NewTrackRepository(db.Gorm), store, downloadFacade)

	hub := notify.NewHub()
	publisher := reprocess.NewPublisher()
	publisher.Subscribe(reprocess.LoggingFoundListener{})
	publisher.Subscribe(hub)

	reprocessService := reprocess.NewService(
		repository.NewReprocessRepository(db.Gorm),
		cache.NewRedisResultCache(cache.RedisClient),
		searchFacade,
		trackService,
		publisher,
		reprocess.Config{
			PageSize:       cfg.ReprocessPageSize,
			MatchThreshold: cfg.ReprocessMatchThreshold,
		},
	)

	scheduler := reprocess.NewScheduler(reprocessService, cfg.ReprocessInterval)
	scheduler.Start()
	defer scheduler.Stop()

	handler := NewAPIHandler(searchFacade, trackService, reprocessService, scheduler, hub)
	router := newRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("http server listening", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", logger.ErrorField(err))
	}
}

func newRouter(handler *APIHandler, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware(cfg.JWTSecret))
	api.HandleFunc("/search", handler.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/tracks", handler.handleTracks).Methods(http.MethodGet)
	api.HandleFunc("/tracks/download", handler.handleDownload).Methods(http.MethodPost)
	api.HandleFunc("/reprocess/pending", handler.handlePending).Methods(http.MethodGet)
	api.HandleFunc("/reprocess/found", handler.handleFound).Methods(http.MethodGet)
	api.HandleFunc("/reprocess/downloaded", handler.handleDownloaded).Methods(http.MethodGet)
	api.HandleFunc("/reprocess/download", handler.handleReprocessDownload).Methods(http.MethodPost)
	api.HandleFunc("/reprocess/download-all", handler.handleReprocessDownloadAll).Methods(http.MethodPost)
	api.HandleFunc("/reprocess/{id:[0-9]+}/discard", handler.handleDiscard).Methods(http.MethodPost)
	api.HandleFunc("/reprocess/run", handler.handleReprocessRun).Methods(http.MethodPost)

	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware(cfg.JWTSecret))
	ws.HandleFunc("/notify", handler.handleNotify).Methods(http.MethodGet)

	return router
}
