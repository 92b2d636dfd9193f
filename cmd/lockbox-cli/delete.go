package main

import (
	"os"

	"github.com/lockbox-storage/lockbox/clientcli"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <file-id> [file-id...]",
	Short: "Delete files from the server",
	Long: `Delete one or more files by record id.

Ids are printed by upload, list and search. Files owned by someone else
report not found.

Examples:
  lockbox-cli delete 5b0a3c2e-8f5d-4d8e-9d55-0d7e3c1f2a10
  lockbox-cli delete -q $(lockbox-cli search draft --json | jq -r '.items[].id')`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{IDs: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
