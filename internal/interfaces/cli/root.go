package cli

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"minu.io/hub/internal/application/services"
	"minu.io/hub/internal/infrastructure/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	HubService      *services.HubService
	SettingsService *services.SettingsService
	ConfigService   *services.ConfigurationService
	ConfigRepo      *config.CompositeConfigRepository
	MainContainer   interface{} // Will be set to *di.Container, avoiding circular import
}

// NewRootCommand represents the base command when called without any subcommands.
// A bare `hub` launches the dashboard.
func NewRootCommand(container *CLIContainer) *cobra.Command {
	dashboardCmd := NewDashboardCommand(container)

	var rootCmd = &cobra.Command{
		Use:   "hub",
		Short: "Minu Hub - Realtime Alert Aggregation and Notification Dispatch",
		Long: `Minu Hub aggregates the realtime alert streams of the Minu services
into one terminal dashboard and dispatches desktop notifications.

It subscribes to the alert stream, keeps a bounded in-memory feed of
issues and events, and lets you filter, group, read and bulk-delete
alerts without leaving the terminal.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Apply configuration overrides from flags
			if err := applyConfigurationOverrides(cmd, container); err != nil {
				return fmt.Errorf("failed to apply configuration overrides: %w", err)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashboardCmd.RunE(dashboardCmd, args)
		},
	}

	// Set custom version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default is $HOME/.config/minu-hub/config.yaml)")
	rootCmd.PersistentFlags().String("api-key", "", "API key for the Minu backend")
	rootCmd.PersistentFlags().String("api-endpoint", "", "Backend REST API base URL")
	rootCmd.PersistentFlags().String("stream-url", "", "Realtime alert stream URL (ws:// or wss://)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(NewSettingsCommand(container))
	rootCmd.AddCommand(NewConfigCommand(container))
	rootCmd.AddCommand(NewHistoryCommand(container))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// configOverrider is the slice of the main container the flag overrides
// need; asserted at runtime to avoid the circular import.
type configOverrider interface {
	ApplyConfigPathOverride(path string) error
	ApplyAPIEndpointOverride(endpoint string) error
	ApplyAPIKeyOverride(apiKey string) error
	ApplyStreamURLOverride(streamURL string) error
	ApplyLogLevelOverride(level string) error
}

// applyConfigurationOverrides applies configuration overrides from command line flags
func applyConfigurationOverrides(cmd *cobra.Command, container *CLIContainer) error {
	overrider, ok := container.MainContainer.(configOverrider)
	if !ok {
		// Silently continue if container doesn't support overrides
		return nil
	}

	// Config file first so later flag overrides win over its contents
	if cmd.Flags().Changed("config") {
		path, _ := cmd.Flags().GetString("config")
		if err := overrider.ApplyConfigPathOverride(path); err != nil {
			return fmt.Errorf("failed to override config path: %w", err)
		}
	}

	if cmd.Flags().Changed("api-endpoint") {
		endpoint, _ := cmd.Flags().GetString("api-endpoint")
		if err := overrider.ApplyAPIEndpointOverride(endpoint); err != nil {
			return fmt.Errorf("failed to override API endpoint: %w", err)
		}
	}

	if cmd.Flags().Changed("api-key") {
		apiKey, _ := cmd.Flags().GetString("api-key")
		if err := overrider.ApplyAPIKeyOverride(apiKey); err != nil {
			return fmt.Errorf("failed to override API key: %w", err)
		}
	}

	if cmd.Flags().Changed("stream-url") {
		streamURL, _ := cmd.Flags().GetString("stream-url")
		if err := overrider.ApplyStreamURLOverride(streamURL); err != nil {
			return fmt.Errorf("failed to override stream URL: %w", err)
		}
	}

	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		if err := overrider.ApplyLogLevelOverride(level); err != nil {
			return fmt.Errorf("failed to override log level: %w", err)
		}
	}

	if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
		if err := overrider.ApplyLogLevelOverride("debug"); err != nil {
			return fmt.Errorf("failed to enable debug logging: %w", err)
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(container *CLIContainer) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
