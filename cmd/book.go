package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/table-booker/internal/booking"
	"github.com/example/table-booker/internal/config"
	"github.com/example/table-booker/internal/db"
	"github.com/example/table-booker/internal/migrate"
	"github.com/example/table-booker/internal/profile"
)

func newBookCmd() *cobra.Command {
	var (
		branchID   string
		tableID    string
		dateStr    string
		slot       string
		name       string
		phone      string
		guests     int
		notes      string
		customerID string
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Book a table slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}
			log := newLogger(cfg)

			// the profile store is optional here: without a reachable
			// database the ladder simply runs without a saved customer id
			var dir booking.CustomerDirectory
			if d, derr := db.Open(context.Background(), cfg.DatabaseURL); derr == nil {
				defer d.Close()
				if merr := migrate.Up(cmd.Context(), d); merr == nil {
					dir = profile.NewStore(d)
				} else {
					log.Debug().Err(merr).Msg("profile store unavailable")
				}
			}

			api := newAPIClient(cfg, log)
			submitter := booking.NewSubmitter(api, dir, log)

			rec, err := submitter.Submit(cmd.Context(), booking.FormInput{
				CustomerName:    name,
				PhoneNumber:     phone,
				NumberOfGuests:  guests,
				BookingDate:     date,
				TimeSlot:        slot,
				SpecialRequests: notes,
				TableID:         tableID,
				BranchID:        branchID,
				CustomerID:      customerID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "booked reservation id=%s table=%s slot=%q date=%s\n", rec.ID, tableID, slot, dateStr)
			return nil
		},
	}

	c.Flags().StringVar(&branchID, "branch-id", "", "branch id")
	c.Flags().StringVar(&tableID, "table-id", "", "table id")
	c.Flags().StringVar(&dateStr, "date", "", "date YYYY-MM-DD")
	c.Flags().StringVar(&slot, "slot", "", `time slot, e.g. "07:00 PM - 08:00 PM"`)
	c.Flags().StringVar(&name, "name", "", "customer name")
	c.Flags().StringVar(&phone, "phone", "", "customer phone")
	c.Flags().IntVar(&guests, "guests", 2, "guest count")
	c.Flags().StringVar(&notes, "notes", "", "special requests")
	c.Flags().StringVar(&customerID, "customer-id", "", "known remote customer id")

	_ = c.MarkFlagRequired("branch-id")
	_ = c.MarkFlagRequired("table-id")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("slot")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("phone")
	return c
}
