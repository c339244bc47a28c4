// Command migrate manages the fiscal database schema.
//
//	migrate up                 apply pending migrations
//	migrate down               roll back every migration
//	migrate steps -1           roll back one migration
//	migrate goto 2             migrate to version 2
//	migrate version            print the current version
//	migrate force 2            mark version 2 as applied (clears dirty state)
//	migrate create add_index   write a new empty migration pair
//	migrate list               list migrations on disk
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/mestresdocafe/backend/internal/infrastructure/config"
	"github.com/mestresdocafe/backend/internal/infrastructure/logger"
	"github.com/mestresdocafe/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

type options struct {
	configFile string
	dir        string
	logLevel   string
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the fiscal database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "read migrations from this directory instead of the embedded set")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		withMigrator(opts, &cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs},
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		withMigrator(opts, &cobra.Command{Use: "down", Short: "Roll back all migrations", Args: cobra.NoArgs},
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		withMigrator(opts, &cobra.Command{Use: "steps N", Short: "Apply N migrations (negative rolls back)", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q: %w", args[0], err)
				}
				return m.Steps(n)
			}),
		withMigrator(opts, &cobra.Command{Use: "goto VERSION", Short: "Migrate to a specific version", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return m.GoTo(uint(v))
			}),
		withMigrator(opts, &cobra.Command{Use: "force VERSION", Short: "Set the version without running migrations", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return m.Force(v)
			}),
		withMigrator(opts, &cobra.Command{Use: "version", Short: "Print the current schema version", Args: cobra.NoArgs},
			func(m *migration.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version: %d dirty: %t\n", version, dirty)
				return nil
			}),
		createCmd(opts),
		listCmd(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *options) logger() (*zap.Logger, error) {
	return logger.New(config.LogConfig{Level: o.logLevel, Format: "console", Output: "stdout"})
}

func (o *options) source() migration.Source {
	if o.dir != "" {
		return migration.DirSource(o.dir)
	}
	return migration.EmbeddedSource()
}

func (o *options) authoringDir() string {
	if o.dir != "" {
		return o.dir
	}
	return defaultMigrationsDir
}

// withMigrator opens the database for commands that touch the schema
func withMigrator(opts *options, cmd *cobra.Command, run func(*migration.Migrator, []string) error) *cobra.Command {
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		log, err := opts.logger()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		cfg, err := config.LoadFile(opts.configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to reach database %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
		}

		m, err := migration.New(db, opts.source(), log)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := m.Close(); cerr != nil {
				log.Warn("Failed to close migrator", zap.Error(cerr))
			}
		}()

		log.Info("Migration command started",
			zap.String("command", cmd.Name()),
			zap.String("database", cfg.Database.DBName),
			zap.Bool("embedded", opts.dir == ""),
		)
		return run(m, args)
	}
	return cmd
}

func createCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME [DESCRIPTION]",
		Short: "Write a new empty migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.Create(opts.authoringDir(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Printf("created %s\ncreated %s\n", mf.UpPath, mf.DownPath)
			return nil
		},
	}
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations on disk",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			names, err := migration.List(opts.authoringDir())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no migrations found")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}
