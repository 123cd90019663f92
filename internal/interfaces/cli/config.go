package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"minu.io/hub/internal/application/ports"
)

// NewConfigCommand creates the config command
func NewConfigCommand(container *CLIContainer) *cobra.Command {
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage configuration settings for the Minu Hub.

This command allows you to view, change and validate configuration
values such as the stream URL, the API endpoint and the notifier
command.`,
	}

	configCmd.AddCommand(NewConfigShowCommand(container))
	configCmd.AddCommand(NewConfigSetCommand(container))
	configCmd.AddCommand(NewConfigValidateCommand(container))
	configCmd.AddCommand(NewConfigPathCommand(container))

	return configCmd
}

// NewConfigShowCommand creates the show subcommand
func NewConfigShowCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := container.ConfigRepo.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			printConfig(config)

			return nil
		},
	}
}

func printConfig(config *ports.Configuration) {
	fmt.Println("Current Configuration:")
	fmt.Printf("Stream URL: %s\n", config.StreamURL)
	fmt.Printf("API Endpoint: %s\n", config.APIEndpoint)
	fmt.Printf("API Key: %s\n", maskAPIKey(config.APIKey))
	fmt.Printf("Buffer Size: %d\n", config.BufferSize)
	fmt.Printf("Group By: %s\n", orUnset(config.GroupBy))
	fmt.Printf("Notify Command: %s\n", orUnset(config.NotifyCommand))
	fmt.Printf("Webhook URL: %s\n", orUnset(config.WebhookURL))
	fmt.Printf("Notify Rate: %s\n", formatNotifyRate(config.NotifyRatePerMinute))
	fmt.Printf("Log Level: %s\n", config.LogLevel)
	fmt.Printf("Debug: %t\n", config.Debug)
}

// maskAPIKey masks the API key for display
func maskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
}

func orUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

func formatNotifyRate(perMinute int) string {
	if perMinute <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d/min", perMinute)
}

// NewConfigSetCommand creates the set subcommand
func NewConfigSetCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration value",
		Long: `Change one configuration value and save the file.

Keys:
  stream-url       realtime alert stream URL (ws:// or wss://)
  api-endpoint     backend REST API base URL
  api-key          API key for stream and REST API
  buffer-size      feed buffer capacity
  group-by         initial grouping mode (service, date, severity or flat)
  notify-command   desktop notifier executable (empty disables)
  webhook-url      notification webhook URL (empty disables)
  notify-rate      desktop notifications per minute (0 = unlimited)
  log-level        debug, info, warn or error
  debug            true or false

Examples:
  hub config set api-key mk_live_f3a9...
  hub config set buffer-size 300
  hub config set notify-command notify-send`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := container.ConfigRepo.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			if err := setConfigValue(config, args[0], args[1]); err != nil {
				return err
			}

			if err := container.ConfigService.SaveConfiguration(cmd.Context(), config); err != nil {
				return err
			}

			fmt.Printf("✅ %s updated\n", args[0])
			return nil
		},
	}
}

// setConfigValue applies one key=value mutation to the configuration
func setConfigValue(config *ports.Configuration, key, value string) error {
	switch key {
	case "stream-url":
		config.StreamURL = value
	case "api-endpoint":
		config.APIEndpoint = value
	case "api-key":
		config.APIKey = value
	case "buffer-size":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid buffer size %q: %w", value, err)
		}
		config.BufferSize = size
	case "group-by":
		mode, err := ParseGroupFlag(value)
		if err != nil {
			return err
		}
		config.GroupBy = mode.String()
	case "notify-command":
		config.NotifyCommand = value
	case "webhook-url":
		config.WebhookURL = value
	case "notify-rate":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid notify rate %q: %w", value, err)
		}
		config.NotifyRatePerMinute = rate
	case "log-level":
		config.LogLevel = value
	case "debug":
		debug, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid debug value %q: %w", value, err)
		}
		config.Debug = debug
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return nil
}

// NewConfigValidateCommand creates the validate subcommand
func NewConfigValidateCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and backend connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(container)
		},
	}
}

// runConfigValidate checks the merged configuration and, when an API
// key is present, probes the backend.
func runConfigValidate(container *CLIContainer) error {
	fmt.Println("🔍 Minu Hub Configuration Check")
	fmt.Println("")

	fmt.Print("Checking configuration... ")
	config, err := container.ConfigRepo.Load()
	if err != nil {
		fmt.Println("❌ Failed")
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	fmt.Println("✅ Configuration valid")

	if config.APIKey == "" {
		fmt.Println("")
		fmt.Println("No API key configured; skipping backend connectivity test.")
		fmt.Println("Set one with 'hub config set api-key <key>' to use the live stream.")
	} else {
		fmt.Print("Testing backend connectivity... ")
		if err := testBackendConnection(container); err != nil {
			fmt.Println("❌ Failed")
			return fmt.Errorf("backend connectivity test failed: %w\n\nPlease check:\n- Your API key is correct\n- Your internet connection\n- The API endpoint is accessible", err)
		}
		fmt.Println("✅ Backend reachable")
	}

	fmt.Println("")
	fmt.Println("Configuration Summary:")
	fmt.Println("─────────────────────")
	printConfig(config)

	fmt.Println("")
	fmt.Println("✅ Validation completed successfully")
	return nil
}

// backendProber is the slice of the main container the connectivity
// test needs; asserted at runtime to avoid the circular import.
type backendProber interface {
	ProbeBackend() error
}

func testBackendConnection(container *CLIContainer) error {
	prober, ok := container.MainContainer.(backendProber)
	if !ok {
		return fmt.Errorf("backend probe not available")
	}
	return prober.ProbeBackend()
}

// NewConfigPathCommand creates the path subcommand
func NewConfigPathCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := container.ConfigRepo.GetConfigPath()
			fmt.Printf("Configuration file path: %s\n", path)
			return nil
		},
	}
}
