// Command deskctl is the driver's terminal client: search a billing, confirm
// the delivered products, enter trip details and record payments.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/satheeshds/driverdesk/auth"
	"github.com/satheeshds/driverdesk/backend"
	"github.com/satheeshds/driverdesk/config"
	"github.com/satheeshds/driverdesk/db"
	"github.com/satheeshds/driverdesk/logging"
	"github.com/satheeshds/driverdesk/payment"
	"github.com/satheeshds/driverdesk/store"
	"github.com/satheeshds/driverdesk/workflow"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "deskctl:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Desk.UserID == "" {
		return fmt.Errorf("DESK_USER_ID is required")
	}
	loc, err := parseLocation(cfg.Desk.Location)
	if err != nil {
		return err
	}

	// The terminal owns stdout, so logs go to a file
	logFile, err := tea.LogToFile("deskctl.log", "")
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logging.New(logFile, cfg.Log.Level, "text"))

	database, err := db.Open(db.Options{Driver: cfg.DB.Driver, Path: cfg.DB.Path, URL: cfg.DB.URL})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	st := store.New(database)

	basis, err := payment.ParseBasis(cfg.Payment.StatusBasis)
	if err != nil {
		return err
	}
	upstream := backend.New(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout)
	mgr := workflow.NewManager(workflow.Deps{
		Upstream:     upstream,
		Snapshots:    st,
		Abandons:     st,
		StartTimeout: cfg.Backend.Timeout,
	}, nil)

	ctx := context.Background()

	// Flush abandon signals left over from an earlier session
	retry := workflow.NewAbandonWorker(st, upstream, cfg.Workflow.AbandonRetryInterval, cfg.Workflow.AbandonBatchSize, nil)
	if sent := retry.ProcessBatch(ctx); sent > 0 {
		slog.Info("resent queued abandon signals", "count", sent)
	}

	machine, err := mgr.Session(ctx, auth.Identity{UserID: cfg.Desk.UserID, Name: cfg.Desk.UserName})
	if err != nil {
		return err
	}

	p := tea.NewProgram(newModel(ctx, machine, upstream, basis, cfg.Workflow.SuggestionMinChars, loc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return mgr.Drain(drainCtx)
}
