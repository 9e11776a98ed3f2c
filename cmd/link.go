package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	v1 "github.com/emrgen/filesearch/apis/v1"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "sync link commands",
}

func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	linkCmd.AddCommand(createLinkCmd())
	linkCmd.AddCommand(listLinksCmd())
	linkCmd.AddCommand(getLinkCmd())
	linkCmd.AddCommand(syncLinkCmd())
	linkCmd.AddCommand(replaceLinkCmd())
	linkCmd.AddCommand(linkHistoryCmd())
	linkCmd.AddCommand(deleteLinkCmd())
}

func createLinkCmd() *cobra.Command {
	var kind string
	var reference string
	var storeID string
	var name string
	var mode string
	var interval int
	var metadata string
	var projectID string

	var required = []string{"kind", "ref", "store-id"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a sync link",
		Long:    `link a local file or a drive file to a store, the console keeps the document in step with the source`,
		Example: "filesearch link create -k local -r /data/notes.md -s <store-id> -m auto -i 30",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			req := &v1.CreateLinkRequest{
				SourceKind:          kind,
				SourceReference:     reference,
				DestinationStore:    storeID,
				DisplayName:         name,
				SyncMode:            mode,
				SyncIntervalMinutes: interval,
				ProjectID:           projectID,
			}
			if metadata != "" {
				var meta map[string]string
				if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
					logrus.Error("invalid metadata, expected a json object of strings")
					return
				}
				req.CustomMetadata = meta
			}

			link, err := newClient().CreateLink(cmd.Context(), req)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("link created with id: %s", link.ID)
		},
	}

	command.Flags().StringVarP(&kind, "kind", "k", "", "source kind, local or drive (required)")
	command.Flags().StringVarP(&reference, "ref", "r", "", "absolute file path or drive file id (required)")
	command.Flags().StringVarP(&storeID, "store-id", "s", "", "destination store id (required)")
	command.Flags().StringVarP(&name, "name", "n", "", "display name of the document")
	command.Flags().StringVarP(&mode, "mode", "m", "", "sync mode, manual or auto")
	command.Flags().IntVarP(&interval, "interval", "i", 0, "auto sync interval in minutes")
	command.Flags().StringVarP(&metadata, "metadata", "d", "", "custom metadata as a json object")
	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")

	command.Flags().SortFlags = false

	return command
}

func listLinksCmd() *cobra.Command {
	var projectID string

	command := &cobra.Command{
		Use:   "list",
		Short: "list sync links",
		Run: func(cmd *cobra.Command, args []string) {
			links, err := newClient().ListLinks(cmd.Context(), projectID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Kind", "Store", "Mode", "Version", "Status"})
			for _, link := range links {
				table.Append([]string{
					link.ID,
					link.DisplayName,
					link.SourceKind,
					link.DestinationStore,
					link.SyncMode,
					strconv.FormatInt(link.CurrentVersion, 10),
					link.Status,
				})
			}

			table.Render()
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id")
	command.Flags().SortFlags = false

	return command
}

func getLinkCmd() *cobra.Command {
	var linkID string

	var required = []string{"link-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a sync link",
		Example: "filesearch link get -l <link-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			link, err := newClient().GetLink(cmd.Context(), linkID)
			if err != nil {
				logrus.Error(err)
				return
			}

			printLink(link)
		},
	}

	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().SortFlags = false

	return command
}

func syncLinkCmd() *cobra.Command {
	var linkID string
	var force bool

	var required = []string{"link-id"}

	command := &cobra.Command{
		Use:     "sync",
		Short:   "sync a link now",
		Example: "filesearch link sync -l <link-id> --force",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			link, err := newClient().SyncLink(cmd.Context(), linkID, force)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("link %s synced, version %d, status %s", link.ID, link.CurrentVersion, link.Status)
		},
	}

	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().BoolVarP(&force, "force", "f", false, "sync even when the content is unchanged")
	command.Flags().SortFlags = false

	return command
}

func replaceLinkCmd() *cobra.Command {
	var linkID string
	var file string

	var required = []string{"link-id", "file"}

	command := &cobra.Command{
		Use:     "replace",
		Short:   "replace the linked document with a local file",
		Example: "filesearch link replace -l <link-id> -f ./notes.md",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			content, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			link, err := newClient().ReplaceFile(cmd.Context(), linkID, filepath.Base(file), content)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("link %s replaced, now version %d", link.ID, link.CurrentVersion)
		},
	}

	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "file to upload (required)")
	command.Flags().SortFlags = false

	return command
}

func linkHistoryCmd() *cobra.Command {
	var linkID string

	var required = []string{"link-id"}

	command := &cobra.Command{
		Use:     "history",
		Short:   "list the replaced versions of a link",
		Example: "filesearch link history -l <link-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			history, err := newClient().LinkHistory(cmd.Context(), linkID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Version", "Remote Document", "Replaced At"})
			for _, rec := range history.Records {
				table.Append([]string{
					strconv.FormatInt(rec.VersionNumber, 10),
					rec.RemoteDocumentID,
					rec.ReplacedAt.Format("2006-01-02 15:04:05"),
				})
			}

			table.Render()
			printField("Current Version", strconv.FormatInt(history.CurrentVersion, 10))
		},
	}

	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().SortFlags = false

	return command
}

func deleteLinkCmd() *cobra.Command {
	var linkID string
	var deleteFromStore bool

	var required = []string{"link-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a sync link",
		Example: "filesearch link delete -l <link-id> --delete-from-store",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			if err := newClient().DeleteLink(cmd.Context(), linkID, deleteFromStore); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("link %s deleted", linkID)
		},
	}

	command.Flags().StringVarP(&linkID, "link-id", "l", "", "link id (required)")
	command.Flags().BoolVarP(&deleteFromStore, "delete-from-store", "D", false, "also delete the remote document")
	command.Flags().SortFlags = false

	return command
}

func printLink(link *v1.Link) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Kind", "Store", "Mode", "Version", "Status"})
	table.Append([]string{
		link.ID,
		link.SourceKind,
		link.DestinationStore,
		link.SyncMode,
		strconv.FormatInt(link.CurrentVersion, 10),
		link.Status,
	})
	table.Render()

	printField("Name", link.DisplayName)
	printField("Reference", link.SourceReference)
	if link.CurrentRemoteDocumentID != "" {
		printField("Remote Document", link.CurrentRemoteDocumentID)
	}
	if link.LastSyncedAt != nil {
		printField("Last Synced", link.LastSyncedAt.Format("2006-01-02 15:04:05"))
	}
	if link.ErrorMessage != "" {
		printField("Error", link.ErrorMessage)
	}
}
