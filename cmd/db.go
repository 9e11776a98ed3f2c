package cmd

import (
	"github.com/emrgen/filesearch/internal/config"
	"github.com/emrgen/filesearch/internal/store"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the registry database",
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := store.Provide(config.Load().DatabaseURL); err != nil {
				panic(err)
			}
		},
	}

	return command
}
