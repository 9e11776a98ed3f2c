package cmd

import (
	"github.com/emrgen/filesearch/internal/config"
	"github.com/emrgen/filesearch/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the console server",
	Run: func(cmd *cobra.Command, args []string) {
		server.NewServer(config.Load()).Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
