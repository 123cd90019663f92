package notifications

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/notification"
)

// defaultCommandTimeout bounds one notifier command run. Slow or hung
// notifier binaries must never stall the dispatch path.
const defaultCommandTimeout = 5 * time.Second

// CommandNotifier raises desktop notifications by running a configured
// command once per notification, e.g. notify-send or a user script. The
// decision is passed both as trailing arguments (title, body) and as
// HUB_NOTIFY_* environment variables for scripts that want structure.
type CommandNotifier struct {
	executable string
	args       []string
	timeout    time.Duration
	logger     ports.LoggingGateway
}

// NewCommandNotifier creates a notifier from a command line string. The
// first field is the executable, the rest are leading arguments.
func NewCommandNotifier(command string, logger ports.LoggingGateway) *CommandNotifier {
	fields := strings.Fields(command)

	notifier := &CommandNotifier{
		timeout: defaultCommandTimeout,
		logger:  logger,
	}
	if len(fields) > 0 {
		notifier.executable = fields[0]
		notifier.args = fields[1:]
	}

	return notifier
}

// RequestPermission probes whether the configured command exists on PATH
func (n *CommandNotifier) RequestPermission(ctx context.Context) error {
	if n.executable == "" {
		return fmt.Errorf("no notifier command configured: %w", ports.ErrPermissionDenied)
	}

	if _, err := exec.LookPath(n.executable); err != nil {
		return fmt.Errorf("notifier command %q not found: %w", n.executable, ports.ErrPermissionDenied)
	}

	return nil
}

// Show runs the notifier command for one decision
func (n *CommandNotifier) Show(ctx context.Context, decision notification.Decision) error {
	if n.executable == "" {
		return fmt.Errorf("no notifier command configured: %w", ports.ErrPermissionDenied)
	}

	runCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	args := append(append([]string(nil), n.args...), decision.Title, decision.Body)
	cmd := exec.CommandContext(runCtx, n.executable, args...)
	cmd.Env = append(os.Environ(), decisionEnvironment(decision)...)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notifier command failed: %w", err)
	}

	return nil
}

// Name identifies the backing channel for logs
func (n *CommandNotifier) Name() string {
	return "command"
}

// decisionEnvironment exports one decision as HUB_NOTIFY_* variables
func decisionEnvironment(decision notification.Decision) []string {
	return []string{
		"HUB_NOTIFY_ITEM_ID=" + decision.ItemID.Value(),
		"HUB_NOTIFY_SERVICE=" + decision.ServiceID.String(),
		"HUB_NOTIFY_KIND=" + decision.Kind.String(),
		"HUB_NOTIFY_SEVERITY=" + decision.Severity.String(),
		"HUB_NOTIFY_TITLE=" + decision.Title,
		"HUB_NOTIFY_BODY=" + decision.Body,
		"HUB_NOTIFY_SOUND=" + strconv.FormatBool(decision.PlaySound),
	}
}
