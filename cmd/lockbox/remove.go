package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove --user <id> [flags] <file-id> [file-id] ...",
	Short: "Remove files of a user",
	Long: `Delete files on behalf of a user. The blob is removed from the object
store and the record from the index, exactly as DELETE /api/files/{id} does.

Examples:
  # Remove by record id
  lockbox remove --user alice 3f1c2a9e-8d4b-4c1e-9f0a-2b7d6e5c4a31

  # Remove every record of alice named report.pdf
  lockbox remove --user alice --name report.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var (
	removeUser   string
	removeByName bool
	removeQuiet  bool
)

func init() {
	removeCmd.Flags().StringVarP(&removeUser, "user", "u", "", "user id that owns the files")
	removeCmd.Flags().BoolVar(&removeByName, "name", false, "treat arguments as file names and remove every matching record")
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-file output")
	_ = removeCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	ids, err := resolveIDs(args)
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	if removeByName {
		ids, err = idsByName(ctx, b.service, removeUser, args)
		if err != nil {
			return err
		}
	}

	removed := 0
	notFound := 0

	for _, id := range ids {
		deleteErr := b.service.Delete(ctx, removeUser, id)
		if errors.Is(deleteErr, lockbox.ErrNotFound) || errors.Is(deleteErr, lockbox.ErrUnauthorized) {
			notFound++
			if !removeQuiet {
				slog.Warn("not found", "id", id)
			}
			continue
		}
		if deleteErr != nil {
			return fmt.Errorf("remove %s: %w", id, deleteErr)
		}
		removed++
		if !removeQuiet {
			slog.Info("removed", "id", id)
		}
	}

	slog.Info("remove complete", "removed", removed, "not_found", notFound)
	return nil
}

func resolveIDs(args []string) ([]uuid.UUID, error) {
	if removeByName {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid file id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// idsByName returns the ids of every record of userID whose file name is one
// of names.
func idsByName(ctx context.Context, service *lockbox.Service, userID string, names []string) ([]uuid.UUID, error) {
	records, err := service.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", userID, err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var ids []uuid.UUID
	for _, r := range records {
		if wanted[r.FileName] {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}
