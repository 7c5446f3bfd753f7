package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"adaptlyAPI/internal/config"
)

const Version = "0.3.0"

type options struct {
	dbPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "adaptlyctl",
		Short:         "Operator tools for the ADaptly gamification service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to the device database (defaults to LOCAL_DB_PATH)")

	root.AddCommand(
		newCatalogCmd(),
		newStatsCmd(opts),
		newLeaderboardCmd(opts),
		newSchemaCmd(),
	)
	return root
}

// localPath resolves the device database from the flag or the config.
func (o *options) localPath() (string, error) {
	if o.dbPath != "" {
		return o.dbPath, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.LocalDBPath, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bad.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
