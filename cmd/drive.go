package cmd

import (
	"fmt"

	"github.com/emrgen/filesearch/internal/config"
	"github.com/emrgen/filesearch/internal/gdrive"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "google drive auth commands",
}

func init() {
	rootCmd.AddCommand(driveCmd)
	driveCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	driveCmd.AddCommand(driveAuthCmd())
	driveCmd.AddCommand(driveTokenCmd())
}

func driveConfig() gdrive.Config {
	cfg := config.Load()
	return gdrive.Config{
		CredentialsFile: cfg.DriveCredentialsFile,
		TokenFile:       cfg.DriveTokenFile,
	}
}

func driveAuthCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "auth",
		Short: "print the drive consent url",
		Run: func(cmd *cobra.Command, args []string) {
			url, err := gdrive.AuthURL(driveConfig())
			if err != nil {
				logrus.Error(err)
				return
			}

			printField("Auth URL", url)
			fmt.Println("open the url, grant access, then run: filesearch drive token -c <code>")
		},
	}

	return command
}

func driveTokenCmd() *cobra.Command {
	var code string

	var required = []string{"code"}

	command := &cobra.Command{
		Use:     "token",
		Short:   "exchange the consent code for a token",
		Example: "filesearch drive token -c <code>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			if err := gdrive.Exchange(cmd.Context(), driveConfig(), code); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Info("drive token saved")
		},
	}

	command.Flags().StringVarP(&code, "code", "c", "", "consent code from the auth url (required)")
	command.Flags().SortFlags = false

	return command
}
