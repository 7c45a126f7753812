package cmd

import (
	"fmt"
	"log"

	"songhouse/cache"
	"songhouse/config"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the redis connection",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("redis: %s:%s, db %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		fmt.Println("redis connection ok")

		if err := cache.CloseRedis(); err != nil {
			log.Printf("error closing redis connection: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
