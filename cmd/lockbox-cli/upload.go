package main

import (
	"os"

	"github.com/lockbox-storage/lockbox/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadRecursive   bool
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Upload files to the server",
	Long: `Upload files to the server.

Files are stored under their base name. The server only accepts allowed
media types (images, PDF and MP4 by default).

Examples:
  lockbox-cli upload ./scan.pdf
  lockbox-cli upload -r ./photos/
  lockbox-cli upload --content-type image/png ./screenshot`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath:   args[0],
		ContentType: uploadContentType,
		Recursive:   uploadRecursive,
	})
	if err != nil && len(results) == 0 {
		return err
	}

	if fmtErr := getFormatter().FormatUpload(os.Stdout, results); fmtErr != nil {
		return fmtErr
	}
	if err != nil {
		return err
	}

	for i := range results {
		if results[i].Err != nil {
			return &exitError{code: 1}
		}
	}

	return nil
}
