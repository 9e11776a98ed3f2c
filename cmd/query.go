package cmd

import (
	"fmt"
	"os"
	"strconv"

	v1 "github.com/emrgen/filesearch/apis/v1"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(queryCmd())
}

func queryCmd() *cobra.Command {
	var storeID string
	var query string
	var topK int

	var required = []string{"store-id", "query"}

	command := &cobra.Command{
		Use:     "query",
		Short:   "query a store",
		Example: `filesearch query -s <store-id> -q "rollout plan" -k 3`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			result, err := newClient().Query(cmd.Context(), storeID, &v1.QueryRequest{
				Query: query,
				TopK:  topK,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"#", "Document", "Score", "Content"})
			for i, chunk := range result.Chunks {
				name := chunk.DocumentName
				if name == "" {
					name = chunk.DocumentID
				}
				table.Append([]string{
					strconv.Itoa(i + 1),
					name,
					fmt.Sprintf("%.3f", chunk.Score),
					snippet(chunk.Content, 60),
				})
			}

			table.Render()
		},
	}

	command.Flags().StringVarP(&storeID, "store-id", "s", "", "store id (required)")
	command.Flags().StringVarP(&query, "query", "q", "", "query text (required)")
	command.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to return")
	command.Flags().SortFlags = false

	return command
}

func snippet(content string, max int) string {
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}
