package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lockbox-storage/lockbox"
	"github.com/lockbox-storage/lockbox/config"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Find records without blobs and blobs without records",
	Long: `Compare the metadata index with the object store.

A failed upload can leave a blob that no record refers to, and a failed
delete can leave a record whose blob is gone. This command reports both.
With --repair it deletes orphan blobs and dangling records.

Objects and records younger than --grace are skipped so uploads in flight
are not reported.`,
	RunE: runReconcile,
}

var (
	reconcileRepair   bool
	reconcileGrace    time.Duration
	reconcilePageSize int
	reconcileJSON     bool
)

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileRepair, "repair", false, "delete orphan blobs and records whose blob is missing")
	reconcileCmd.Flags().DurationVar(&reconcileGrace, "grace", 5*time.Minute, "skip records and blobs younger than this")
	reconcileCmd.Flags().IntVar(&reconcilePageSize, "page-size", 500, "index records read per page")
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	b, err := openBackends(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	slog.Info("starting reconcile", "repair", reconcileRepair, "grace", reconcileGrace)

	report, err := b.service.Reconcile(ctx, lockbox.ReconcileOptions{
		Repair:      reconcileRepair,
		PageSize:    reconcilePageSize,
		GracePeriod: reconcileGrace,
	})
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if reconcileJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, r := range report.MissingBlobs {
		slog.Warn("record without blob", "id", r.ID, "user_id", r.UserID, "key", r.StorageKey)
	}
	for _, key := range report.OrphanBlobs {
		slog.Warn("blob without record", "key", key)
	}

	slog.Info("reconcile complete",
		"records_scanned", report.RecordsScanned,
		"blobs_scanned", report.BlobsScanned,
		"missing_blobs", len(report.MissingBlobs),
		"orphan_blobs", len(report.OrphanBlobs),
		"repaired", report.Repaired,
	)
	return nil
}
