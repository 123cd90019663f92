package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"minu.io/hub/internal/application/commands"
	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
)

// NewSettingsCommand creates the settings command
func NewSettingsCommand(container *CLIContainer) *cobra.Command {
	var settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Manage notification settings",
		Long: `Manage which alerts raise notifications.

Notifications can be muted per service and per severity; muting is
opt-out, so anything without an explicit rule stays enabled. Desktop
notifications and sound are global toggles.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(container)
		},
	}

	settingsCmd.AddCommand(NewSettingsShowCommand(container))
	settingsCmd.AddCommand(NewSettingsSetCommand(container))
	settingsCmd.AddCommand(NewSettingsServicesCommand(container))
	settingsCmd.AddCommand(NewSettingsResetCommand(container))

	return settingsCmd
}

// NewSettingsShowCommand creates the show subcommand
func NewSettingsShowCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current notification settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(container)
		},
	}
}

func runSettingsShow(container *CLIContainer) error {
	settings, err := container.SettingsService.Current()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	printSettings(settings)
	fmt.Printf("\nSettings file: %s\n", container.SettingsService.Path())
	return nil
}

func printSettings(settings notification.Settings) {
	fmt.Println("Notification Settings:")
	fmt.Printf("Desktop notifications: %s\n", onOff(settings.EnableBrowserNotifications))
	fmt.Printf("Sound: %s\n", onOff(settings.EnableSound))

	if muted := mutedServices(settings); len(muted) > 0 {
		fmt.Printf("Muted services: %s\n", joinServiceIDs(muted))
	} else {
		fmt.Println("Muted services: (none)")
	}

	if muted := mutedSeverities(settings); len(muted) > 0 {
		fmt.Print("Muted severities: ")
		for i, severity := range muted {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(severity.String())
		}
		fmt.Println()
	} else {
		fmt.Println("Muted severities: (none)")
	}
}

// NewSettingsSetCommand creates the set subcommand
func NewSettingsSetCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "set <scope> [key] <on|off>",
		Short: "Change one notification setting",
		Long: `Change one notification setting.

Scopes:
  browser            global desktop notification toggle
  sound              global sound toggle
  service <id>       per-service notifications
  severity <level>   per-severity notifications (critical, high, medium, low)

Examples:
  hub settings set browser on
  hub settings set sound off
  hub settings set service minu-find off
  hub settings set severity low off`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := args[0]
			key := ""
			state := args[len(args)-1]
			if len(args) == 3 {
				key = args[1]
			}

			enabled, err := parseToggle(state)
			if err != nil {
				return err
			}

			updated, err := container.SettingsService.Update(commands.NewUpdateSettingsCommand(scope, key, enabled))
			if err != nil {
				return fmt.Errorf("failed to update settings: %w", err)
			}

			if key != "" {
				fmt.Printf("✅ %s notifications for %s turned %s\n", scope, key, onOff(enabled))
			} else {
				fmt.Printf("✅ %s turned %s\n", scope, onOff(enabled))
			}
			printSettings(updated)
			return nil
		},
	}
}

// NewSettingsServicesCommand creates the services subcommand
func NewSettingsServicesCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List per-service notification rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := container.SettingsService.Current()
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			if len(settings.ServiceNotifications) == 0 {
				fmt.Println("No per-service rules; all services notify.")
				return nil
			}

			fmt.Println("Per-service notification rules:")
			for _, service := range sortedServiceKeys(settings.ServiceNotifications) {
				fmt.Printf("  %-20s %s\n", service.DisplayName(), onOff(settings.ServiceNotifications[service]))
			}
			fmt.Println("Services without a rule notify by default.")
			return nil
		},
	}
}

// NewSettingsResetCommand creates the reset subcommand
func NewSettingsResetCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default notification settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := container.SettingsService.Reset()
			if err != nil {
				return fmt.Errorf("failed to reset settings: %w", err)
			}

			fmt.Println("✅ Notification settings reset to defaults")
			printSettings(settings)
			return nil
		},
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

// mutedServices lists the services with an explicit off rule, sorted
func mutedServices(settings notification.Settings) []stream.ServiceID {
	muted := make([]stream.ServiceID, 0, len(settings.ServiceNotifications))
	for service, enabled := range settings.ServiceNotifications {
		if !enabled {
			muted = append(muted, service)
		}
	}
	sort.Slice(muted, func(i, j int) bool { return muted[i] < muted[j] })
	return muted
}

// mutedSeverities lists the severities with an explicit off rule, in
// priority order.
func mutedSeverities(settings notification.Settings) []stream.Severity {
	muted := make([]stream.Severity, 0, len(settings.SeverityNotifications))
	for _, severity := range stream.Severities() {
		if enabled, ok := settings.SeverityNotifications[severity]; ok && !enabled {
			muted = append(muted, severity)
		}
	}
	return muted
}

func sortedServiceKeys(rules map[stream.ServiceID]bool) []stream.ServiceID {
	keys := make([]stream.ServiceID, 0, len(rules))
	for service := range rules {
		keys = append(keys, service)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func joinServiceIDs(services []stream.ServiceID) string {
	out := ""
	for i, service := range services {
		if i > 0 {
			out += ", "
		}
		out += service.String()
	}
	return out
}
