package cli

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/saree-crm/saree-crm/internal/app"
	"github.com/saree-crm/saree-crm/internal/platform/db"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Driver    string
	DSN       string
	RedisAddr string

	config *app.Config
}

// NewRootCommand creates the root command for sareectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "sareectl",
		Short:         "Administrative tasks for the saree shop records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("driver") {
				cfg.DBDriver = opts.Driver
			}
			if flags.Changed("db") {
				cfg.DBDSN = opts.DSN
			}
			if flags.Changed("redis") {
				cfg.RedisAddr = opts.RedisAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every change to stderr")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "store driver (sqlite3|pgx), overrides SAREE_DB_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.DSN, "db", "", "store location, overrides SAREE_DB")
	cmd.PersistentFlags().StringVar(&opts.RedisAddr, "redis", "", "redis address, overrides REDIS_ADDR")

	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewJobsCommand(opts))

	return cmd
}

func (o *RootOptions) openStore(ctx context.Context) (*sql.DB, db.Dialect, error) {
	return db.New(ctx, o.config.DBDriver, o.config.DBDSN)
}

func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
