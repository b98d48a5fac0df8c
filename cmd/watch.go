package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/table-booker/internal/config"
	"github.com/example/table-booker/internal/db"
	"github.com/example/table-booker/internal/migrate"
	"github.com/example/table-booker/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage slot watches (booked by the server's scheduler)",
	}
	cmd.AddCommand(newWatchCreateCmd())
	cmd.AddCommand(newWatchListCmd())
	return cmd
}

func newWatchCreateCmd() *cobra.Command {
	var (
		userID          int64
		name            string
		branchID        string
		tableID         string
		dateStr         string
		slot            string
		customerName    string
		customerPhone   string
		guests          int
		notes           string
		windowHours     int
		intervalSeconds int
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a watch that books a slot once it frees up",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := migrate.Up(ctx, d); err != nil {
				return err
			}

			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}

			now := time.Now().UTC()
			w := watch.Watch{
				UserID:        userID,
				Name:          name,
				BranchID:      branchID,
				TableID:       tableID,
				Date:          date,
				TimeSlot:      slot,
				CustomerName:  customerName,
				CustomerPhone: customerPhone,
				GuestCount:    guests,
				Notes:         notes,
				WindowStartAt: now,
				WindowEndAt:   now.Add(time.Duration(windowHours) * time.Hour),
				IntervalSec:   intervalSeconds,
			}
			if err := w.Validate(); err != nil {
				return err
			}

			id, err := watch.NewRepo(d).Create(ctx, w)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created watch id=%d window_end_utc=%s\n", id, w.WindowEndAt.Format(time.RFC3339))
			return nil
		},
	}

	c.Flags().Int64Var(&userID, "user-id", 0, "user id (from DB)")
	c.Flags().StringVar(&name, "name", "", "watch name")
	c.Flags().StringVar(&branchID, "branch-id", "", "branch id")
	c.Flags().StringVar(&tableID, "table-id", "", "table id")
	c.Flags().StringVar(&dateStr, "date", "", "reservation date YYYY-MM-DD")
	c.Flags().StringVar(&slot, "slot", "", `wanted time slot, e.g. "07:00 PM - 08:00 PM"`)
	c.Flags().StringVar(&customerName, "customer-name", "", "customer name")
	c.Flags().StringVar(&customerPhone, "customer-phone", "", "customer phone")
	c.Flags().IntVar(&guests, "guests", 2, "guest count")
	c.Flags().StringVar(&notes, "notes", "", "special requests")
	c.Flags().IntVar(&windowHours, "window-hours", 24, "attempt window length in hours, starting now")
	c.Flags().IntVar(&intervalSeconds, "interval-seconds", 60, "retry interval seconds")

	_ = c.MarkFlagRequired("user-id")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("branch-id")
	_ = c.MarkFlagRequired("table-id")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("slot")
	_ = c.MarkFlagRequired("customer-name")
	_ = c.MarkFlagRequired("customer-phone")
	return c
}

func newWatchListCmd() *cobra.Command {
	var userID int64
	c := &cobra.Command{
		Use:   "list",
		Short: "List watches for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			ws, err := watch.NewRepo(d).ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			for _, w := range ws {
				fmt.Fprintf(os.Stdout, "id=%d name=%q table=%s date=%s slot=%q status=%s\n",
					w.ID, w.Name, w.TableID, w.Date.Format("2006-01-02"), w.TimeSlot, w.Status)
			}
			return nil
		},
	}
	c.Flags().Int64Var(&userID, "user-id", 0, "user id")
	_ = c.MarkFlagRequired("user-id")
	return c
}
