// Package cli wires the secondbrain commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/infra/config"
)

// globalConfig holds the loaded configuration for all commands.
var globalConfig config.Config

// NewRoot builds the root command.
func NewRoot() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "secondbrain",
		Short: "Chat-driven personal knowledge manager",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			globalConfig = cfg
			app.SetLogger(app.NewStderrLogger(os.Stderr, app.ParseLevel(cfg.LogLevel)))
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to setting.yml")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newNotesCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
