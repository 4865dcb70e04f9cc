package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/autorel/pkg/commands"
	"github.com/ethpandaops/autorel/pkg/config"
	"github.com/ethpandaops/autorel/pkg/ui"
	"github.com/ethpandaops/autorel/pkg/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func init() {
	version.Version = buildVersion
	version.Commit = buildCommit
	version.Date = buildDate
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	// Logs are hidden by default and only shown when --verbose is enabled
	logWriter := ui.NewConditionalWriter(os.Stderr, false)
	log := logrus.New()
	log.SetOutput(logWriter)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	rootCmd := &cobra.Command{
		Use:           "autorel",
		Short:         "Automated semantic releases from conventional commits",
		Long:          `autorel computes the next semantic version from conventional commits, then tags, releases and publishes it.`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		global   commands.GlobalOptions
		logLevel string
		envFile  string
	)

	rootCmd.PersistentFlags().StringVarP(&global.ConfigPath, "config", "c", config.DefaultFile, "Path to config file, relative to --dir")
	rootCmd.PersistentFlags().StringVar(&global.Dir, "dir", ".", "Repository directory")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded if present, relative to --dir")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "Enable verbose output (show all logs)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}

		log.SetLevel(level)
		logWriter.SetEnabled(global.Verbose)

		global.ConfigPath = global.ResolvePath(global.ConfigPath)
		envFile = global.ResolvePath(envFile)

		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		return nil
	}

	rootCmd.AddCommand(commands.NewReleaseCommand(log, &global))
	rootCmd.AddCommand(commands.NewNextCommand(log, &global))
	rootCmd.AddCommand(commands.NewConfigCommand(log, &global))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("Command failed")
		ui.Error(err.Error())
		os.Exit(1)
	}
}
