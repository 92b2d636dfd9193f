package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/config"
)

var addCmd = &cobra.Command{
	Use:   "add --user <id> [flags] <file1> [file2] ...",
	Short: "Import local files for a user",
	Long: `Import local files into lockbox on behalf of a user.

Each file goes through the same upload path as the API: the content type is
taken from the file extension and must be on the upload allow-list. Files are
stored under their base name.

Examples:
  # Add a single file for alice
  lockbox add --user alice /path/to/photo.png

  # Add every file below a directory
  lockbox add --user alice -r /path/to/scans

  # Skip files alice already has a record for
  lockbox add --user alice --no-clobber /path/to/report.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addUser      string
	addRecursive bool
	addNoClobber bool
	addQuiet     bool
)

func init() {
	addCmd.Flags().StringVarP(&addUser, "user", "u", "", "user id that will own the files")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "recursively add directories")
	addCmd.Flags().BoolVarP(&addNoClobber, "no-clobber", "n", false, "skip files the user already has a record for")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	_ = addCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(addCmd)
}

// fileEntry represents a local file and the name it is stored under.
type fileEntry struct {
	sourcePath string
	fileName   string
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if !lockbox.IsValidCallerID(addUser) {
		return fmt.Errorf("invalid user id: %q", addUser)
	}

	// Collect files from all arguments
	var files []fileEntry
	for _, arg := range args {
		entries, collectErr := collectFiles(arg, addRecursive)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, entries...)
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	b, err := openBackends(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	existing := map[string]bool{}
	if addNoClobber {
		records, listErr := b.service.List(ctx, addUser)
		if listErr != nil {
			return fmt.Errorf("list files of %s: %w", addUser, listErr)
		}
		for _, r := range records {
			existing[r.FileName] = true
		}
	}

	added := 0
	skipped := 0

	for _, entry := range files {
		if existing[entry.fileName] {
			skipped++
			if !addQuiet {
				slog.Info("skipped (exists)", "file_name", entry.fileName)
			}
			continue
		}

		f, openErr := os.Open(entry.sourcePath)
		if openErr != nil {
			return fmt.Errorf("open %s: %w", entry.sourcePath, openErr)
		}

		contentType := detectContentType(entry.sourcePath)

		record, uploadErr := b.service.Upload(ctx, lockbox.UploadInput{
			CallerID:    addUser,
			FileName:    entry.fileName,
			ContentType: contentType,
			Content:     f,
		})
		_ = f.Close()

		if uploadErr != nil {
			return fmt.Errorf("add %s: %w", entry.sourcePath, uploadErr)
		}

		added++
		if addNoClobber {
			existing[entry.fileName] = true
		}
		if !addQuiet {
			slog.Info("added", "id", record.ID, "key", record.StorageKey, "content_type", contentType)
		}
	}

	slog.Info("add complete", "added", added, "skipped", skipped)
	return nil
}

// collectFiles gathers files from a path, optionally recursively.
// Every file is stored under its base name.
func collectFiles(path string, recursive bool) ([]fileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []fileEntry{{sourcePath: path, fileName: filepath.Base(path)}}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to add recursively)", path)
	}

	var entries []fileEntry
	walkErr := filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		entries = append(entries, fileEntry{
			sourcePath: walkPath,
			fileName:   d.Name(),
		})
		return nil
	})

	if walkErr != nil {
		return nil, walkErr
	}

	return entries, nil
}

// detectContentType determines the MIME type from a file's extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
