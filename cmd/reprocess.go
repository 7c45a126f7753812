package cmd

import (
	"context"

	"songhouse/cache"
	"songhouse/config"
	"songhouse/db"
	"songhouse/logger"
	"songhouse/model"
	"songhouse/reprocess"
	"songhouse/repository"
	"songhouse/search"
	"songhouse/track"

	"github.com/spf13/cobra"
)

var reprocessUserID int64

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Run one reprocess sweep and exit",
	Long:  `Runs a single reprocessing pass over pending search requests, for all users or one user, without starting the server.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{Level: logger.LogLevel(cfg.LogLevel), OutputPath: cfg.LogPath})

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

		// A one-shot sweep runs with whatever adapters the embedding build
		// registers; with none, only the consistency repair and retry
		// accounting take effect.
		searchFacade := search.NewFacade(nil, nil, search.FacadeConfig{
			AdapterTimeout: cfg.SearchTimeout,
			Workers:        cfg.SearchWorkers,
			MatchThreshold: cfg.SearchMatchThreshold,
		})
		downloadFacade := search.NewDownloadFacade(nil, nil)
		trackService := track.NewService(repository.NewTrackRepository(db.Gorm), nil, downloadFacade)

		publisher := reprocess.NewPublisher()
		publisher.Subscribe(reprocess.LoggingFoundListener{})

		service := reprocess.NewService(
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

		ctx := context.Background()
		if reprocessUserID > 0 {
			found, err := service.Reprocess(ctx, reprocessUserID)
			if err != nil {
				logger.Fatal("reprocess failed", logger.ErrorField(err))
			}
			logger.Info("reprocess finished",
				logger.Int64("userId", reprocessUserID),
				logger.Int("found", found))
			return
		}
		if err := service.ReprocessAllUsers(ctx); err != nil {
			logger.Fatal("reprocess failed", logger.ErrorField(err))
		}
	},
}

func init() {
	reprocessCmd.Flags().Int64Var(&reprocessUserID, "user", 0, "reprocess only this user id")
	rootCmd.AddCommand(reprocessCmd)
}
