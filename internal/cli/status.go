package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/communityambulance/mtrepair/internal/core/config"
	"github.com/communityambulance/mtrepair/internal/infra/logging"
	"github.com/communityambulance/mtrepair/internal/infra/storage/sqlite"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the service is logging and what it has repaired",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if path, err := logging.FindPointer(cfg.Logging.CandidateDirs); err == nil {
		fmt.Printf("Service log: %s\n\n", path)
	} else {
		fmt.Println("Service log: not found (service may never have run)")
		fmt.Println()
	}

	if cfg.History.Path == "" {
		fmt.Println("No history database configured.")
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

	summary, err := sqlite.NewHistoryRepo(db).Summary(ctx)
	if err != nil {
		slog.Error("Failed to query history", "error", err)
		os.Exit(1)
	}
	if len(summary) == 0 {
		fmt.Println("No repair attempts recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "KIND\tOUTCOME\tCOUNT\tLAST ATTEMPT")
	for _, row := range summary {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			row.Kind, row.Outcome, row.Count, row.LastAttempt.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}
