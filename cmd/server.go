package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/table-booker/internal/auth"
	"github.com/example/table-booker/internal/booking"
	"github.com/example/table-booker/internal/config"
	"github.com/example/table-booker/internal/db"
	"github.com/example/table-booker/internal/migrate"
	"github.com/example/table-booker/internal/profile"
	"github.com/example/table-booker/internal/scheduler"
	"github.com/example/table-booker/internal/slots"
	"github.com/example/table-booker/internal/watch"
	"github.com/example/table-booker/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI + watch scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := cfg.RequireCookieKeys(); err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			watchRepo := watch.NewRepo(d)
			profiles := profile.NewStore(d)

			api := newAPIClient(cfg, log)
			resolver := slots.NewResolver(api, log)
			submitter := booking.NewSubmitter(api, profiles, log)

			s := &scheduler.Scheduler{
				Repo:      watchRepo,
				Resolver:  resolver,
				Submitter: submitter,
				Interval:  cfg.PollInterval,
				Log:       log,
			}
			go func() { _ = s.Run(ctx) }()

			ws := &web.Server{
				Auth:      authStore,
				Watches:   watchRepo,
				API:       api,
				Resolver:  resolver,
				Submitter: submitter,
				BaseURL:   cfg.BaseURL,
				Log:       log,
			}
			log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
