package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/infrastructure/notifications"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand(container *CLIContainer) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently dispatched notifications",
		Long: `Show the notification dispatch trail, newest first.

Every notification the hub dispatches is appended to a local JSONL log;
this command reads it back without touching the backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if config, err := container.ConfigRepo.Load(); err == nil {
				path = config.HistoryPath
			}

			records, err := notifications.ReadHistory(path, limit)
			if err != nil {
				return fmt.Errorf("failed to read notification history: %w", err)
			}

			if len(records) == 0 {
				fmt.Println("No notifications dispatched yet.")
				return nil
			}

			printHistory(records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records to show (0 = all)")

	return cmd
}

func printHistory(records []ports.HistoryRecord) {
	fmt.Printf("%-16s %-9s %-16s %-40s %s\n", "WHEN", "SEVERITY", "SERVICE", "TITLE", "CHANNELS")
	for _, record := range records {
		severity := record.Severity
		if severity == "" {
			severity = record.Kind
		}
		fmt.Printf("%-16s %-9s %-16s %-40s %s\n",
			record.DispatchedAt.Format("Jan 02 15:04:05"),
			severity,
			truncateString(record.ServiceID, 16),
			truncateString(record.Title, 40),
			historyChannels(record),
		)
	}
}

// historyChannels names the channels one dispatch reached
func historyChannels(record ports.HistoryRecord) string {
	channels := "toast"
	if record.Desktop {
		channels += "+desktop"
	}
	if record.Sound {
		channels += "+sound"
	}
	return channels
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("hub version %s\n", Version)
			fmt.Printf("Build time: %s\n", BuildTime)
			fmt.Printf("Go version: %s\n", goVersion())
			return nil
		},
	}
}
