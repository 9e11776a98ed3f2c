package cmd

import (
	"os"
	"strconv"

	"github.com/emrgen/filesearch"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(auditCmd())
}

func auditCmd() *cobra.Command {
	var action string
	var resourceType string
	var resourceID string
	var limit int

	command := &cobra.Command{
		Use:     "audit",
		Short:   "list audit records",
		Example: "filesearch audit -a link.synced -n 20",
		Run: func(cmd *cobra.Command, args []string) {
			records, err := newClient().ListAudit(cmd.Context(), filesearch.AuditQuery{
				Action:       action,
				ResourceType: resourceType,
				ResourceID:   resourceID,
				Limit:        limit,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Action", "Resource", "OK", "Time"})
			for _, rec := range records {
				resource := rec.ResourceType
				if rec.ResourceID != "" {
					resource += "/" + rec.ResourceID
				}
				table.Append([]string{
					strconv.FormatUint(uint64(rec.ID), 10),
					rec.Action,
					resource,
					strconv.FormatBool(rec.Success),
					rec.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}

			table.Render()
		},
	}

	command.Flags().StringVarP(&action, "action", "a", "", "filter by action")
	command.Flags().StringVarP(&resourceType, "resource-type", "t", "", "filter by resource type")
	command.Flags().StringVarP(&resourceID, "resource-id", "r", "", "filter by resource id")
	command.Flags().IntVarP(&limit, "limit", "n", 0, "number of records to return")
	command.Flags().SortFlags = false

	return command
}
