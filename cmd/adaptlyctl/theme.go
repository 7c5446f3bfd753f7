package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"adaptlyAPI/internal/achievement"
)

var (
	cPrimary = lipgloss.Color("63")
	cGood    = lipgloss.Color("42")
	cBad     = lipgloss.Color("196")
	cMuted   = lipgloss.Color("244")
	cGold    = lipgloss.Color("220")
)

var (
	title = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	muted = lipgloss.NewStyle().Foreground(cMuted)
	gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

var tierColors = map[achievement.Tier]lipgloss.Color{
	achievement.TierBronze:    lipgloss.Color("130"),
	achievement.TierSilver:    lipgloss.Color("250"),
	achievement.TierGold:      cGold,
	achievement.TierPlatinum:  lipgloss.Color("153"),
	achievement.TierDiamond:   lipgloss.Color("45"),
	achievement.TierLegendary: lipgloss.Color("205"),
}

func tierStyle(t achievement.Tier) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(tierColors[t])
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(muted).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
