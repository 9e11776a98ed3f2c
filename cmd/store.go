package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "document store commands",
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	storeCmd.AddCommand(createStoreCmd())
	storeCmd.AddCommand(listStoresCmd())
	storeCmd.AddCommand(getStoreCmd())
	storeCmd.AddCommand(deleteStoreCmd())
}

func createStoreCmd() *cobra.Command {
	var name string

	var required = []string{"name"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a store",
		Example: "filesearch store create -n <name>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			store, err := newClient().CreateStore(cmd.Context(), name)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("store created with id: %s", store.ID)
		},
	}

	command.Flags().StringVarP(&name, "name", "n", "", "display name of the store (required)")
	command.Flags().SortFlags = false

	return command
}

func listStoresCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "list stores",
		Run: func(cmd *cobra.Command, args []string) {
			stores, err := newClient().ListStores(cmd.Context())
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Documents", "Created"})
			for _, store := range stores {
				table.Append([]string{
					store.ID,
					store.DisplayName,
					strconv.FormatInt(store.DocumentCount, 10),
					store.CreateTime,
				})
			}

			table.Render()
		},
	}

	return command
}

func getStoreCmd() *cobra.Command {
	var storeID string

	var required = []string{"store-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a store",
		Example: "filesearch store get -s <store-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			store, err := newClient().GetStore(cmd.Context(), storeID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Documents", "Created"})
			table.Append([]string{
				store.ID,
				store.DisplayName,
				strconv.FormatInt(store.DocumentCount, 10),
				store.CreateTime,
			})
			table.Render()
		},
	}

	command.Flags().StringVarP(&storeID, "store-id", "s", "", "store id (required)")
	command.Flags().SortFlags = false

	return command
}

func deleteStoreCmd() *cobra.Command {
	var storeID string
	var force bool

	var required = []string{"store-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a store",
		Example: "filesearch store delete -s <store-id> --force",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			if err := newClient().DeleteStore(cmd.Context(), storeID, force); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("store %s deleted", storeID)
		},
	}

	command.Flags().StringVarP(&storeID, "store-id", "s", "", "store id (required)")
	command.Flags().BoolVarP(&force, "force", "f", false, "delete even when sync links target the store")
	command.Flags().SortFlags = false

	return command
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if cmd.Flag(required).Changed == false {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		return true
	}

	return false
}
