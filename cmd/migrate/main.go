package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/portfolio/internal/config"
	"github.com/Skotchmaster/portfolio/internal/migrations"
	"github.com/Skotchmaster/portfolio/pkg/db"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or inspect the portfolio database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	withProvider := func(run func(ctx context.Context, p *goose.Provider) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p, closeDB, err := openProvider(ctx, logLevel)
			if err != nil {
				return err
			}
			defer closeDB()
			return run(ctx, p)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withProvider(func(ctx context.Context, p *goose.Provider) error {
			results, err := p.Up(ctx)
			for _, r := range results {
				fmt.Printf("applied %d (%s)\n", r.Source.Version, r.Duration.Round(time.Millisecond))
			}
			return err
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: withProvider(func(ctx context.Context, p *goose.Provider) error {
			r, err := p.Down(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("rolled back %d\n", r.Source.Version)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: withProvider(func(ctx context.Context, p *goose.Provider) error {
			statuses, err := p.Status(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT")
			for _, s := range statuses {
				applied := "-"
				if !s.AppliedAt.IsZero() {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", s.Source.Version, s.State, applied)
			}
			return w.Flush()
		}),
	})
	return cmd
}

// openProvider connects with lib/pq for postgres and through gorm's sqlite
// driver otherwise.
func openProvider(ctx context.Context, logLevel string) (*goose.Provider, func(), error) {
	cfg, err := config.LoadDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(logLevel).With("service", "migrate")

	var (
		sqlDB   *sql.DB
		dialect string
	)
	switch strings.ToLower(cfg.Driver) {
	case "", db.DriverPostgres:
		dialect = migrations.DialectPostgres
		sqlDB, err = sql.Open("postgres", cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
	default:
		gdb, err := db.Open(ctx, cfg.Driver, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		dialect = gdb.Dialector.Name()
		if sqlDB, err = gdb.DB(); err != nil {
			return nil, nil, err
		}
	}

	p, err := migrations.NewProvider(dialect, sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	return p, func() { _ = sqlDB.Close() }, nil
}
