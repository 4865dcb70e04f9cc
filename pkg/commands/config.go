package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethpandaops/autorel/pkg/config"
	"github.com/ethpandaops/autorel/pkg/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command
func NewConfigCommand(log logrus.FieldLogger, global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Create, view and validate the .autorel.yaml configuration.`,
	}

	cmd.AddCommand(newConfigInitCommand(log, global))

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(global.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			cfg.GitHubToken = redact(cfg.GitHubToken)

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), string(data))

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(global.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := cfg.Validate(); err != nil {
				ui.Error(fmt.Sprintf("Configuration is invalid: %v", err))

				return err
			}

			ui.Success("Configuration is valid")
			ui.Detail("Commit types", fmt.Sprintf("%d", len(cfg.CommitTypes)))

			for _, b := range cfg.Branches {
				channel := b.PrereleaseChannel
				if channel == "" {
					channel = "stable"
				}

				ui.Detail("Branch "+b.Name, channel)
			}

			return nil
		},
	})

	return cmd
}

func newConfigInitCommand(log logrus.FieldLogger, global *GlobalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := global.ConfigPath

			if _, err := os.Stat(path); err == nil && !force {
				log.WithField("path", path).Warn("configuration file already exists")

				ok, err := ui.Confirm(fmt.Sprintf("Overwrite %s?", path))
				if err != nil {
					if errors.Is(err, ui.ErrPromptCancelled) {
						return nil
					}

					return err
				}

				if !ok {
					ui.Info("Initialization cancelled")

					return nil
				}
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}

			ui.Success(fmt.Sprintf("Wrote %s", path))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file without asking")

	return cmd
}

func redact(token string) string {
	if token == "" {
		return ""
	}

	return "<redacted>"
}
