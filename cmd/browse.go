package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/table-booker/internal/config"
)

func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Browse restaurant branches",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			api := newAPIClient(cfg, newLogger(cfg))
			branches, err := api.Branches(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range branches {
				fmt.Fprintf(os.Stdout, "id=%s name=%q address=%q\n", b.ID, b.Name, b.Address)
			}
			return nil
		},
	}
	cmd.AddCommand(list)
	return cmd
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Browse tables at a branch",
	}

	var branchID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tables for a branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			api := newAPIClient(cfg, newLogger(cfg))
			tables, err := api.Tables(cmd.Context(), branchID)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintf(os.Stdout, "id=%s number=%s capacity=%d location=%q\n", t.ID, t.Number, t.Capacity, t.Location)
			}
			return nil
		},
	}
	list.Flags().StringVar(&branchID, "branch-id", "", "branch id")
	_ = list.MarkFlagRequired("branch-id")
	cmd.AddCommand(list)
	return cmd
}
