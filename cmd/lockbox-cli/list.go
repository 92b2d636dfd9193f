package main

import (
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your files",
	Long: `List every file owned by the token's user, oldest first.

Examples:
  lockbox-cli list
  lockbox-cli list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search your files by name",
	Long: `Find files whose name contains the query, ignoring case.

Examples:
  lockbox-cli search invoice
  lockbox-cli search .PDF --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context())
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}
