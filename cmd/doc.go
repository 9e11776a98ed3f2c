package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "document commands",
}

func init() {
	rootCmd.AddCommand(docCmd)
	docCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	docCmd.AddCommand(uploadDocCmd())
	docCmd.AddCommand(listDocsCmd())
	docCmd.AddCommand(getDocCmd())
	docCmd.AddCommand(deleteDocCmd())
}

func uploadDocCmd() *cobra.Command {
	var storeID string
	var file string
	var name string
	var metadata string

	var required = []string{"store-id", "file"}

	command := &cobra.Command{
		Use:     "upload",
		Short:   "upload a document to a store",
		Example: "filesearch doc upload -s <store-id> -f ./notes.md -n notes",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			content, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			if name == "" {
				name = filepath.Base(file)
			}

			var meta map[string]string
			if metadata != "" {
				if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
					logrus.Error("invalid metadata, expected a json object of strings")
					return
				}
			}

			doc, err := newClient().UploadDocument(cmd.Context(), storeID, name, content, meta)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document uploaded with id: %s", doc.ID)
		},
	}

	command.Flags().StringVarP(&storeID, "store-id", "s", "", "store id (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "file to upload (required)")
	command.Flags().StringVarP(&name, "name", "n", "", "display name, defaults to the file name")
	command.Flags().StringVarP(&metadata, "metadata", "d", "", "custom metadata as a json object")
	command.Flags().SortFlags = false

	return command
}

func listDocsCmd() *cobra.Command {
	var storeID string

	var required = []string{"store-id"}

	command := &cobra.Command{
		Use:   "list",
		Short: "list documents in a store",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			docs, err := newClient().ListDocuments(cmd.Context(), storeID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Size", "Created"})
			for _, doc := range docs {
				table.Append([]string{
					doc.ID,
					doc.DisplayName,
					strconv.FormatInt(doc.SizeBytes, 10),
					doc.CreateTime,
				})
			}

			table.Render()
		},
	}

	command.Flags().StringVarP(&storeID, "store-id", "s", "", "store id (required)")
	command.Flags().SortFlags = false

	return command
}

func getDocCmd() *cobra.Command {
	var storeID string
	var docID string

	var required = []string{"store-id", "doc-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a document",
		Example: "filesearch doc get -s <store-id> -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			doc, err := newClient().GetDocument(cmd.Context(), storeID, docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Size", "Created"})
			table.Append([]string{
				doc.ID,
				doc.DisplayName,
				strconv.FormatInt(doc.SizeBytes, 10),
				doc.CreateTime,
			})
			table.Render()

			if len(doc.Metadata) > 0 {
				raw, err := json.Marshal(doc.Metadata)
				if err == nil {
					printField("Metadata", string(raw))
				}
			}
		},
	}

	command.Flags().StringVarP(&storeID, "store-id", "s", "", "store id (required)")
	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().SortFlags = false

	return command
}

func deleteDocCmd() *cobra.Command {
	var storeID string
	var docID string

	var required = []string{"store-id", "doc-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a document",
		Example: "filesearch doc delete -s <store-id> -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			if err := newClient().DeleteDocument(cmd.Context(), storeID, docID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document %s deleted", docID)
		},
	}

	command.Flags().StringVarP(&storeID, "store-id", "s", "", "store id (required)")
	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().SortFlags = false

	return command
}
