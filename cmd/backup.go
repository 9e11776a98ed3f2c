package cmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "registry backup commands",
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	backupCmd.AddCommand(createBackupCmd())
	backupCmd.AddCommand(listBackupsCmd())
}

func createBackupCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "create",
		Short: "create a registry backup",
		Run: func(cmd *cobra.Command, args []string) {
			info, err := newClient().CreateBackup(cmd.Context())
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("backup created: %s (%d bytes)", info.Name, info.SizeBytes)
		},
	}

	return command
}

func listBackupsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "list registry backups",
		Run: func(cmd *cobra.Command, args []string) {
			infos, err := newClient().ListBackups(cmd.Context())
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Name", "Size", "Created"})
			for _, info := range infos {
				table.Append([]string{
					info.Name,
					strconv.FormatInt(info.SizeBytes, 10),
					info.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}

			table.Render()
		},
	}

	return command
}
