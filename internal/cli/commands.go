package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dhima/change-monitor/internal/events"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/dhima/change-monitor/internal/models"
	"github.com/dhima/change-monitor/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultWindowDays = 30

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	viper   *viper.Viper
	config  *Config
}

// NewRootCommand builds the changelog command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "changelog",
		Short: "Inspect and maintain the URL change log",
		Long: `changelog records, queries and prunes the change events kept by the change monitor.

Supported storage backends:
  - file     : newline-delimited JSON file (default)
  - sqlite   : SQLite database file
  - mysql    : MySQL database
  - postgres : PostgreSQL database

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (CHANGELOG_*)
  - Configuration file (~/.changelog.yaml or ./.changelog.yaml)
  - Default values (lowest priority)`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := InitConfig(a.cfgFile)
			if err != nil {
				return err
			}
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			a.viper = v
			a.config = GetConfig(v)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.changelog.yaml)")
	flags.String("backend", "file", "storage backend: file, sqlite, mysql or postgres")
	flags.String("log-path", "changes.log", "change log file used by the file backend")
	flags.String("database-url", "", "DSN used by the SQL backends")
	flags.StringP("output", "o", "text", "output format: text or json")
	flags.String("log-level", "warn", "diagnostic log level")

	root.AddCommand(a.recordCommand(), a.queryCommand(), a.pruneCommand(), a.inventoryCommand())
	return root
}

// withService opens the configured store, runs fn and closes the store.
func (a *app) withService(ctx context.Context, fn func(*events.Service, OutputFormat) error) error {
	format, err := parseFormat(a.config.OutputFormat)
	if err != nil {
		return err
	}

	logger, err := logging.NewLoggerWithOptions(logging.Options{
		Environment: "development",
		Level:       a.config.LogLevel,
		Encoding:    "console",
		Component:   "cli",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logging.Flush(logger) }()

	handle, err := storage.Open(ctx, a.config.Backend, a.config.LogPath, a.config.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()

	return fn(events.NewService(handle.Store, nil, logger.Zap()), format)
}

// windowDays reads --days, which CHANGELOG_DAYS or the config file may also set.
func (a *app) windowDays() int {
	return a.viper.GetInt("days")
}

func (a *app) recordCommand() *cobra.Command {
	var req models.RecordChangeRequest
	var added, removed int

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append one change event",
		Example: `  changelog record --url https://example.com/robots.txt --email ops@example.com --lines-added 3
  changelog record --url https://example.com/ads.txt --email ops@example.com --status sent --check-type scheduled`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Timestamp == "" {
				req.Timestamp = time.Now().UTC().Format(time.RFC3339)
			}
			if cmd.Flags().Changed("lines-added") {
				req.LinesAdded = &added
			}
			if cmd.Flags().Changed("lines-removed") {
				req.LinesRemoved = &removed
			}

			return a.withService(cmd.Context(), func(svc *events.Service, format OutputFormat) error {
				event, err := svc.RecordChange(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeEvent(cmd.OutOrStdout(), format, event)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Timestamp, "timestamp", "", "ISO-8601 time of the change (default now)")
	f.StringVar(&req.ResourceURL, "url", "", "monitored resource URL")
	f.StringVar(&req.NotifyTarget, "email", "", "notification target")
	f.IntVar(&added, "lines-added", 0, "number of added lines")
	f.IntVar(&removed, "lines-removed", 0, "number of removed lines")
	f.StringVar(&req.DiffPreview, "diff-preview", "", "short diff excerpt")
	f.StringVar(&req.DeliveryStatus, "status", "", "delivery status: pending, sent or failed")
	f.StringVar(&req.CheckKind, "check-type", "", "check kind, e.g. manual or scheduled")
	return cmd
}

func (a *app) queryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Short:   "List change events inside the retention window",
		Example: `  changelog query --days 7 -o json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *events.Service, format OutputFormat) error {
				result, err := svc.QueryWindow(cmd.Context(), a.windowDays())
				if err != nil {
					return err
				}
				return writeQuery(cmd.OutOrStdout(), format, result)
			})
		},
	}
	cmd.Flags().Int("days", defaultWindowDays, "retention window in days")
	return cmd
}

func (a *app) pruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove change events older than the retention window",
		Long: `Remove change events older than the retention window.
Lines that cannot be parsed are never removed.`,
		Example: `  changelog prune --days 90`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *events.Service, format OutputFormat) error {
				result, err := svc.PruneWindow(cmd.Context(), a.windowDays())
				if err != nil {
					return err
				}
				return writePrune(cmd.OutOrStdout(), format, result)
			})
		},
	}
	cmd.Flags().Int("days", defaultWindowDays, "retention window in days")
	return cmd
}

func (a *app) inventoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Count stored entries, including malformed lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *events.Service, format OutputFormat) error {
				inv, err := svc.Inventory(cmd.Context())
				if err != nil {
					return err
				}
				return writeInventory(cmd.OutOrStdout(), format, inv)
			})
		},
	}
}
