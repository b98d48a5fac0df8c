package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/table-booker/internal/config"
	"github.com/example/table-booker/internal/slots"
)

func newSlotsCmd() *cobra.Command {
	var tableID, dateStr string

	c := &cobra.Command{
		Use:   "slots",
		Short: "Show slot availability for a table on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}

			api := newAPIClient(cfg, newLogger(cfg))
			resolver := slots.NewResolver(api, newLogger(cfg))

			res := resolver.Resolve(cmd.Context(), tableID, date)
			for _, s := range slots.Catalog {
				mark := "free"
				if res.Taken(s.Value) {
					mark = "booked"
				}
				fmt.Fprintf(os.Stdout, "%-22s %s\n", s.Label, mark)
			}
			return nil
		},
	}

	c.Flags().StringVar(&tableID, "table-id", "", "table id")
	c.Flags().StringVar(&dateStr, "date", "", "date YYYY-MM-DD")
	_ = c.MarkFlagRequired("table-id")
	_ = c.MarkFlagRequired("date")
	return c
}
