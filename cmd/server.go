package cmd

import (
	"songhouse/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Long:  `Starts the songhouse HTTP server: search aggregation, downloads and the background reprocess sweep.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Source/download adapters are deployment-specific and registered
		// here by the embedding build.
		server.Start(server.Options{})
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
