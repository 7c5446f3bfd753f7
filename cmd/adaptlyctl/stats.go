package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"adaptlyAPI/internal/achievement"
	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/storage"
	"adaptlyAPI/internal/streak"
	"adaptlyAPI/services"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <identity-id>",
		Short: "Show the stats view for an identity stored on this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			catalog, err := achievement.Default()
			if err != nil {
				return err
			}

			id := identityFor(args[0])
			clk := clock.System{Location: time.Local}
			sessions := services.NewSessionManager(store, nil, clk)
			ledger := services.NewLedgerService(sessions, clk)
			us, err := services.NewStatsService(ledger, sessions, clk, time.Local, catalog.Len()).Get(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderStats(id, us.XP, us.Level, us.XPIntoLevel, us.XPToNextLevel, [][2]string{
				{"Tasks completed", strconv.Itoa(us.TasksCompleted)},
				{"Focus sessions", strconv.Itoa(us.FocusSessionsCompleted)},
				{"Mood entries", strconv.Itoa(us.MoodEntries)},
				{"Task streak", streakLine(us.TaskStreak)},
				{"Mood streak", streakLine(us.MoodStreak)},
				{"Login streak", streakLine(us.LoginStreak)},
				{"Achievements", fmt.Sprintf("%d / %d", us.AchievementsCount, us.AchievementsTotal)},
			}))
			return nil
		},
	}
}

func identityFor(id string) identity.Identity {
	if identity.IsGuestID(id) {
		return identity.Guest(id)
	}
	return identity.Account(id)
}

func streakLine(s streak.Summary) string {
	return fmt.Sprintf("%d current, %d best", s.CurrentStreak, s.LongestStreak)
}

func renderStats(id identity.Identity, xp int64, level int, into, toNext int64, rows [][2]string) string {
	var b strings.Builder
	b.WriteString(title.Render(fmt.Sprintf("%s %s", id.Kind, id.ID)))
	b.WriteString("\n")
	b.WriteString(gold.Render(fmt.Sprintf("Level %d", level)))
	b.WriteString(muted.Render(fmt.Sprintf("  %d xp, %d into level, %d to next", xp, into, toNext)))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Width(18).Foreground(cMuted)
	for _, r := range rows {
		b.WriteString(label.Render(r[0]))
		b.WriteString(r[1])
		b.WriteString("\n")
	}
	return panel.Render(strings.TrimRight(b.String(), "\n"))
}
