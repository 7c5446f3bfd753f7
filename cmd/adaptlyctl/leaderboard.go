package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"adaptlyAPI/internal/storage"
)

func newLeaderboardCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank the identities stored on this device by xp",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}
			path, err := opts.localPath()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			store, err := storage.OpenLocal(ctx, storage.LocalConfig{Path: path})
			if err != nil {
				return err
			}
			defer store.Close()

			rows, total, err := store.TopByXP(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, muted.Render("no ledgers on this device yet"))
				return nil
			}

			t := newTable("#", "Identity", "Level", "XP")
			for i, row := range rows {
				name := row.OwnerID
				if row.Username != "" {
					name = row.Username
				}
				t.Row(strconv.Itoa(i+1), name, strconv.Itoa(row.Level), strconv.FormatInt(row.XP, 10))
			}
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, muted.Render(fmt.Sprintf("%d ranked", total)))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows to show")
	return cmd
}
