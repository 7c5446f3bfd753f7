package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"adaptlyAPI/internal/achievement"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the achievement catalog",
	}
	cmd.AddCommand(newCatalogListCmd(), newCatalogValidateCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var category, tier string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != "" && !achievement.Category(category).Valid() {
				return fmt.Errorf("unknown category %q", category)
			}
			if tier != "" && !achievement.Tier(tier).Valid() {
				return fmt.Errorf("unknown tier %q", tier)
			}

			catalog, err := achievement.Default()
			if err != nil {
				return err
			}

			t := newTable("ID", "Title", "Category", "Tier", "Condition", "XP")
			shown := 0
			for _, d := range catalog.All() {
				if category != "" && string(d.Category) != category {
					continue
				}
				if tier != "" && string(d.Tier) != tier {
					continue
				}
				t.Row(d.ID, d.Title, string(d.Category), tierStyle(d.Tier).Render(string(d.Tier)), describeCondition(d.Condition), strconv.FormatInt(d.XPReward, 10))
				shown++
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, muted.Render(fmt.Sprintf("%d of %d entries, catalog %s", shown, catalog.Len(), catalog.Version)))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only show this category")
	cmd.Flags().StringVar(&tier, "tier", "", "only show this tier")
	return cmd
}

func describeCondition(c achievement.Condition) string {
	s := fmt.Sprintf("%s >= %d", c.Type, c.Value)
	if c.Timeframe != achievement.TimeframeNone {
		s += " (" + string(c.Timeframe) + ")"
	}
	return s
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Expand and validate the built-in catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := achievement.Default()
			if err != nil {
				return err
			}

			counts := catalog.Counts()
			t := newTable("Category", "Entries")
			for _, c := range catalog.Categories() {
				t.Row(string(c), strconv.Itoa(counts[c]))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, good.Render(fmt.Sprintf("catalog %s is valid: %d entries", catalog.Version, catalog.Len())))
			return nil
		},
	}
}
