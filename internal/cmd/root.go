// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ocelotbuild/ocelot/internal/config"
	"github.com/ocelotbuild/ocelot/internal/output"
)

var (
	// Global flags
	configFlag     string
	verboseFlag    bool
	timestampsFlag bool

	// Resolved configuration (loaded during PersistentPreRunE)
	ocelotConfig *config.Config
)

// NewRootCmd creates the root command for the ocelot CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ocelot",
		Short:         "Custom OpenTelemetry Collector Lambda layer toolkit",
		Long:          `ocelot builds, publishes, and reports on custom OpenTelemetry Collector AWS Lambda layers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: OCELOT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", false, "Include timestamps in log output")

	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewPublishCmd())
	rootCmd.AddCommand(NewDeleteCmd())
	rootCmd.AddCommand(NewReportCmd())
	rootCmd.AddCommand(NewReleaseNotesCmd())
	rootCmd.AddCommand(NewReleaseInfoCmd())
	rootCmd.AddCommand(NewMatricesCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals(cmd *cobra.Command) error {
	logCfg := output.LogConfig{Verbose: verboseFlag}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	}
	output.SetupLogging(logCfg)

	cfg, err := config.NewLoader().LoadWithDefaults(configFlag)
	if err != nil {
		return err
	}
	ocelotConfig = cfg

	output.Debug("initialized CLI",
		"config", configFlag,
		"upstreamRepo", cfg.UpstreamRepo,
		"upstreamRef", cfg.UpstreamRef,
		"regions", len(cfg.Regions),
	)
	return nil
}

// GetConfig returns the loaded ocelot configuration.
func GetConfig() *config.Config {
	if ocelotConfig == nil {
		return (&config.Config{}).WithDefaults()
	}
	return ocelotConfig
}
