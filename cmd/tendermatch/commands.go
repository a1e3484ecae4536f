package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/poiesic/tendermatch"
	"github.com/poiesic/tendermatch/config"
	"github.com/poiesic/tendermatch/embedding"
	"github.com/poiesic/tendermatch/metrics"
	"github.com/urfave/cli/v2"
)

// openDatabase opens the configured backend and, when metrics_addr is set,
// starts serving /metrics. The returned cleanup stops the server and closes
// the database.
func openDatabase(c *cli.Context) (*tendermatch.Database, func(), error) {
	cfg := configFrom(c)

	var manager *metrics.Manager
	var server *http.Server
	if cfg.MetricsAddr != "" {
		manager = metrics.NewManager()
		mux := http.NewServeMux()
		mux.Handle("/metrics", manager.Handler())
		server = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
	}

	db, err := tendermatch.OpenDatabase(c.Context, cfg,
		tendermatch.WithMetrics(manager),
		tendermatch.WithLogger(slog.Default()),
	)
	if err != nil {
		if server != nil {
			server.Close()
		}
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	cleanup := func() {
		if server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}
		if err := db.Close(); err != nil {
			slog.Warn("failed to close database", "err", err)
		}
	}
	return db, cleanup, nil
}

func printHeader(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "Backend: %s\n", cfg.Backend)
	switch cfg.Backend {
	case config.BackendBadger:
		fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DBPath)
	case config.BackendPostgres:
		fmt.Fprintln(os.Stderr, "Database: postgres")
	}
	fmt.Fprintln(os.Stderr)
}

func scoreCommand(c *cli.Context) error {
	db, cleanup, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer cleanup()
	printHeader(configFrom(c))

	engine, err := db.NewEngine()
	if err != nil {
		return err
	}
	stats, err := engine.Run(c.Context)
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Scored %d of %d profiles against %d tenders\n",
		stats.ProfilesScored, stats.Profiles, stats.Tenders)
	fmt.Fprintf(os.Stderr, "Scores written: %d, skipped pairs: %d, keyword hits: %d (%s)\n",
		stats.ScoresWritten, stats.TendersSkipped, stats.KeywordHits, stats.Duration.Round(time.Millisecond))
	return nil
}

func rescoreCommand(c *cli.Context) error {
	db, cleanup, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer cleanup()
	printHeader(configFrom(c))

	rescorer, err := db.NewRescorer()
	if err != nil {
		return err
	}
	stats, err := rescorer.Run(c.Context)
	if err != nil {
		return fmt.Errorf("rescoring failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Rescored %d of %d users (%d failed), boosts applied: %d (%s)\n",
		stats.UsersApplied, stats.Users, stats.UsersFailed, stats.BoostsApplied, stats.Duration.Round(time.Millisecond))
	return nil
}

func runCommand(c *cli.Context) error {
	db, cleanup, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer cleanup()
	printHeader(configFrom(c))

	report, err := db.Run(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Scores written: %d, boosts applied: %d\n",
		report.Scoring.ScoresWritten, report.Rescoring.BoostsApplied)
	return nil
}

func embedCommand(c *cli.Context) error {
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	db, cleanup, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := configFrom(c)
	printHeader(cfg)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(os.Stderr)

	backfiller, err := db.NewBackfiller(nil,
		embedding.WithProgress(os.Stderr),
		embedding.WithReportInterval(c.Int("report-interval")),
	)
	if err != nil {
		return err
	}
	stats, err := backfiller.Run(c.Context)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Embedded %d of %d tenders, %d without text, %d failed batches\n",
		stats.Embedded, stats.Missing, stats.WithoutText, stats.FailedBatches)
	return nil
}

func topCommand(c *cli.Context) error {
	if c.Int("limit") <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	db, cleanup, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer cleanup()

	scores, err := db.Store().TopForUser(c.Context, c.String("user"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to read scores: %w", err)
	}
	if len(scores) == 0 {
		fmt.Fprintf(os.Stderr, "No scores for user %s\n", c.String("user"))
		return nil
	}
	for i, s := range scores {
		fmt.Fprintf(c.App.Writer, "%3d. %-40s %6.2f\n", i+1, s.TenderID, s.Score)
	}
	return nil
}
