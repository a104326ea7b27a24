package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/communityambulance/mtrepair/internal/core/config"
	"github.com/communityambulance/mtrepair/internal/infra/storage/sqlite"
)

var resetHistoryCmd = &cobra.Command{
	Use:   "reset-history",
	Short: "Delete all recorded repair attempts",
	Run:   runResetHistory,
}

func init() {
	rootCmd.AddCommand(resetHistoryCmd)
}

func runResetHistory(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.History.Path == "" {
		fmt.Println("No history database configured, nothing to reset.")
		return
	}

	ctx := context.Background()
	db, err := sqlite.NewDB(ctx, cfg.History.Path)
	if err != nil {
		slog.Error("Failed to open history database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	// Everything finished before "now plus a beat" is everything.
	removed, err := sqlite.NewHistoryRepo(db).DeleteOlderThan(ctx, time.Now().Add(time.Minute))
	if err != nil {
		slog.Error("Failed to reset history", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Removed %d recorded attempts\n", removed)
}
