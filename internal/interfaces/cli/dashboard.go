package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"minu.io/hub/internal/application/commands"
	"minu.io/hub/internal/application/services"
	"minu.io/hub/internal/core/connection"
	"minu.io/hub/internal/core/feed"
	"minu.io/hub/internal/core/grouping"
	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
)

// How long a toast stays on screen before the tick sweeps it away.
const toastVisibleFor = 6 * time.Second

// DashboardFlags holds command-line flags for the dashboard command
type DashboardFlags struct {
	Replay      string
	Demo        bool
	BufferSize  int
	GroupBy     string
	Filters     FilterFlags
	RefreshRate time.Duration
}

// HubOptions selects the stream source and buffer capacity for one
// dashboard run. Zero values keep the configured defaults.
type HubOptions struct {
	ReplayPath string
	Demo       bool
	BufferSize int
}

// hubRebuilder is the slice of the main container the dashboard needs
// when flags ask for a non-default stream source; asserted at runtime
// to avoid the circular import.
type hubRebuilder interface {
	RebuildHubService(opts HubOptions) (*services.HubService, error)
}

// NewDashboardCommand creates the dashboard command
func NewDashboardCommand(container *CLIContainer) *cobra.Command {
	flags := &DashboardFlags{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live terminal dashboard for the Minu alert feed",
		Long: `Launch the full-screen terminal dashboard on the realtime alert feed.

The dashboard shows the buffered issues and events ranked by priority,
with keyboard controls for filtering, grouping, reading, selecting and
bulk-deleting alerts. Desktop notifications keep firing while it runs.

Examples:
  hub dashboard                        # Connect to the configured stream
  hub dashboard --demo                 # Synthetic local stream, no backend
  hub dashboard --replay capture.jsonl # Replay a recorded stream
  hub dashboard --group-by severity    # Start grouped by severity
  hub dashboard --service minu-find    # Only alerts from one service
  hub dashboard --severity critical --severity high`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(container, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Replay, "replay", "", "Replay a JSONL capture file instead of connecting")
	cmd.Flags().BoolVar(&flags.Demo, "demo", false, "Generate a synthetic demo stream, no backend needed")
	cmd.Flags().IntVar(&flags.BufferSize, "buffer-size", 0, "Feed buffer capacity (default from config)")
	cmd.Flags().StringVar(&flags.GroupBy, "group-by", "", "Initial grouping mode (service, date, severity or flat)")
	cmd.Flags().StringSliceVar(&flags.Filters.Services, "service", nil, "Show only alerts from these services")
	cmd.Flags().StringSliceVar(&flags.Filters.Severities, "severity", nil, "Show only issues with these severities")
	cmd.Flags().StringSliceVar(&flags.Filters.EventTypes, "type", nil, "Show only events of these types")
	cmd.Flags().DurationVar(&flags.RefreshRate, "refresh", time.Second, "Refresh rate for the clock and toast expiry")

	return cmd
}

// runDashboard wires one dashboard run and hands control to Bubble Tea
func runDashboard(container *CLIContainer, flags *DashboardFlags) error {
	criteria, err := ParseFilterFlags(flags.Filters)
	if err != nil {
		return err
	}

	// The --group-by flag wins over the configured default; an explicit
	// "flat" suppresses a configured mode.
	groupBy := flags.GroupBy
	if groupBy == "" && container.ConfigRepo != nil {
		if cfg, cfgErr := container.ConfigRepo.Load(); cfgErr == nil {
			groupBy = cfg.GroupBy
		}
	}
	groupMode, err := ParseGroupFlag(groupBy)
	if err != nil {
		return err
	}

	hub := container.HubService
	if flags.Replay != "" || flags.Demo || flags.BufferSize > 0 {
		rebuilder, ok := container.MainContainer.(hubRebuilder)
		if !ok {
			return fmt.Errorf("stream source selection is not supported by this build")
		}
		hub, err = rebuilder.RebuildHubService(HubOptions{
			ReplayPath: flags.Replay,
			Demo:       flags.Demo,
			BufferSize: flags.BufferSize,
		})
		if err != nil {
			return fmt.Errorf("failed to configure stream source: %w", err)
		}
	}
	if hub == nil {
		return fmt.Errorf("hub service not initialized")
	}

	sessionConfig := feed.DefaultConfig()
	if flags.BufferSize > 0 {
		sessionConfig.Capacity = flags.BufferSize
	}
	startCmd := commands.NewStartStreamCommand(sessionConfig)
	startCmd.GroupMode = groupMode.String()
	startCmd.ReplayFile = flags.Replay
	startCmd.Demo = flags.Demo

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hub.Start(ctx, startCmd); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	defer hub.Stop()

	if !criteria.IsDefault() {
		if err := hub.UpdateCriteria(criteria); err != nil {
			return fmt.Errorf("failed to apply filters: %w", err)
		}
	}

	model := newDashboardModel(hub, flags, groupMode)
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}

	return nil
}

// feedRow is one renderable line of the feed table: either a group
// header or an item.
type feedRow struct {
	isHeader bool
	group    grouping.AlertGroup
	item     *stream.Item
}

// dashboardModel holds the state for the Bubble Tea dashboard
type dashboardModel struct {
	hub   *services.HubService
	flags *DashboardFlags

	groupMode       grouping.Mode
	expandOverrides map[string]bool

	rows   []feedRow
	cursor int

	showDetail bool
	detail     *stream.Item
	viewport   viewport.Model

	toast        *notification.Decision
	toastShownAt time.Time
	decisions    int

	connState  connection.State
	connReason string

	notice       string
	windowWidth  int
	windowHeight int
	err          error
}

// newDashboardModel creates a new dashboard model
func newDashboardModel(hub *services.HubService, flags *DashboardFlags, groupMode grouping.Mode) dashboardModel {
	m := dashboardModel{
		hub:             hub,
		flags:           flags,
		groupMode:       groupMode,
		expandOverrides: make(map[string]bool),
		viewport:        viewport.New(0, 0),
	}
	m.syncFromHub()
	return m
}

// Init implements the Bubble Tea init method
func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		listenForUpdates(m.hub.Updates()),
	)
}

// Update implements the Bubble Tea update method
func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.toast != nil && time.Since(m.toastShownAt) > toastVisibleFor {
			m.toast = nil
		}
		m.connState, m.connReason = m.hub.ConnectionState()
		return m, m.tickCmd()

	case feedUpdatedMsg:
		m.syncFromHub()
		return m, listenForUpdates(m.hub.Updates())

	case deleteDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Delete failed, selection kept: %v", msg.err)
		} else {
			m.notice = fmt.Sprintf("Deleted %d alerts", msg.count)
		}
		m.syncFromHub()
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// handleKey routes one keypress. With the detail pane open most keys
// scroll the viewport; in the table they drive the feed.
func (m dashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "q" || key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showDetail {
		switch key {
		case "esc", "enter", "backspace":
			m.showDetail = false
			m.detail = nil
			return m, nil
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "g":
		m.groupMode = cycleGroupMode(m.groupMode)
		m.expandOverrides = make(map[string]bool)
		m.rebuildRows()

	case "enter":
		row, ok := m.currentRow()
		if !ok {
			break
		}
		if row.isHeader {
			m.expandOverrides[row.group.Key] = !m.isExpanded(row.group)
			m.rebuildRows()
			break
		}
		if item, found := m.hub.OpenDetail(row.item.ID()); found {
			m.openDetail(item)
		}

	case "r":
		if row, ok := m.currentRow(); ok && !row.isHeader {
			m.hub.MarkRead(row.item.ID())
			m.syncFromHub()
		}

	case "R":
		marked := m.hub.MarkAllRead()
		m.notice = fmt.Sprintf("Marked %d alerts read", marked)
		m.syncFromHub()

	case " ":
		if row, ok := m.currentRow(); ok && !row.isHeader {
			m.hub.ToggleSelect(row.item.ID())
			m.syncFromHub()
		}

	case "d":
		if m.hub.SelectionSize() == 0 {
			m.notice = "Nothing selected; use [space] to select alerts first"
			break
		}
		return m, m.deleteSelectedCmd()

	case "c":
		m.hub.Reconnect()
		m.connState, m.connReason = m.hub.ConnectionState()

	case "i":
		m.toggleKind(true)

	case "e":
		m.toggleKind(false)

	case "o":
		m.jumpToLastNotified()

	case "esc":
		m.notice = ""
	}

	return m, nil
}

// View implements the Bubble Tea view method
func (m dashboardModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit", m.err)
	}
	if m.windowWidth == 0 {
		return "Starting dashboard..."
	}

	sections := []string{m.renderHeader()}
	if toast := m.renderToast(); toast != "" {
		sections = append(sections, toast)
	}
	if m.showDetail {
		sections = append(sections, m.renderDetail())
	} else {
		sections = append(sections, m.renderFeedTable())
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// syncFromHub pulls the current feed, connection and toast state
func (m *dashboardModel) syncFromHub() {
	m.connState, m.connReason = m.hub.ConnectionState()
	m.rebuildRows()

	if stats := m.hub.Dispatched(); stats.Decisions > m.decisions {
		m.decisions = stats.Decisions
		if decision, ok := m.hub.LastDecision(); ok {
			m.toast = &decision
			m.toastShownAt = time.Now()
		}
	}
}

// rebuildRows flattens the filtered feed into renderable rows, applying
// the grouping mode and the per-group expansion overrides.
func (m *dashboardModel) rebuildRows() {
	items := m.hub.FilteredItems()
	rows := make([]feedRow, 0, len(items))

	if m.groupMode == GroupModeFlat {
		for _, item := range items {
			rows = append(rows, feedRow{item: item})
		}
	} else {
		for _, group := range grouping.Group(items, m.groupMode, time.Now()) {
			rows = append(rows, feedRow{isHeader: true, group: group})
			if m.isExpanded(group) {
				for _, item := range group.Items {
					rows = append(rows, feedRow{item: item})
				}
			}
		}
	}

	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// isExpanded resolves a group's effective expansion: an explicit user
// toggle wins, otherwise the group's default applies.
func (m *dashboardModel) isExpanded(group grouping.AlertGroup) bool {
	if expanded, ok := m.expandOverrides[group.Key]; ok {
		return expanded
	}
	return group.Expanded
}

func (m *dashboardModel) currentRow() (feedRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return feedRow{}, false
	}
	return m.rows[m.cursor], true
}

// toggleKind flips one of the two kind toggles on the active criteria
func (m *dashboardModel) toggleKind(issues bool) {
	criteria := m.hub.Criteria()
	if issues {
		criteria.EnableIssues = !criteria.EnableIssues
	} else {
		criteria.EnableEvents = !criteria.EnableEvents
	}
	if err := m.hub.UpdateCriteria(criteria); err != nil {
		m.notice = fmt.Sprintf("Filter update failed: %v", err)
		return
	}
	m.rebuildRows()
}

// openDetail switches to the detail pane for one item
func (m *dashboardModel) openDetail(item *stream.Item) {
	m.detail = item
	m.showDetail = true
	m.viewport.SetContent(renderItemDetail(item, m.viewport.Width))
	m.viewport.GotoTop()
}

// jumpToLastNotified opens the most recently notified item and moves
// the cursor onto its row.
func (m *dashboardModel) jumpToLastNotified() {
	decision, ok := m.hub.LastDecision()
	if !ok {
		m.notice = "No notifications dispatched yet"
		return
	}
	m.toast = nil

	item, found := m.hub.OpenDetail(decision.ItemID)
	if !found {
		m.notice = "Notified alert is no longer buffered"
		return
	}

	m.syncFromHub()
	for i, row := range m.rows {
		if !row.isHeader && row.item.ID() == item.ID() {
			m.cursor = i
			break
		}
	}
	m.openDetail(item)
}

// renderHeader renders the title line, connection status and counters
func (m dashboardModel) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render("Minu Hub")

	display := connection.Display(m.connState)
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(display.DotColor)).Render("●")
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(display.TextColor)).Render(display.Label)
	status := dot + " " + label
	if m.connState == connection.StateError && m.connReason != "" {
		status += lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Render("  " + truncateString(m.connReason, 40))
	}

	line1 := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", status)

	groupLabel := "flat"
	if m.groupMode != GroupModeFlat {
		groupLabel = m.groupMode.String()
	}
	criteria := m.hub.Criteria()
	kinds := kindIndicator(criteria.EnableIssues, criteria.EnableEvents)

	line2 := fmt.Sprintf("Unread: %d | Buffered: %d | Selected: %d | Group: %s | Showing: %s | %s",
		m.hub.UnreadCount(),
		len(m.hub.Items()),
		m.hub.SelectionSize(),
		groupLabel,
		kinds,
		time.Now().Format("15:04:05"),
	)

	divider := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(strings.Repeat("─", max(m.windowWidth, 1)))

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2, divider)
}

// renderFeedTable renders the grouped or flat feed rows around the cursor
func (m dashboardModel) renderFeedTable() string {
	if len(m.rows) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Render("\n  No alerts match the current filters. Waiting for stream activity...\n")
	}

	maxRows := m.windowHeight - 8
	if maxRows < 1 {
		maxRows = 1
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := start + maxRows
	if end > len(m.rows) {
		end = len(m.rows)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := m.rows[i]

		var line string
		if row.isHeader {
			line = renderGroupHeader(row.group, m.isExpanded(row.group))
		} else {
			line = m.renderItemRow(row.item)
		}

		if i == m.cursor {
			line = lipgloss.NewStyle().Background(lipgloss.Color("237")).Render(line)
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderItemRow formats one item line: severity badge, unread and
// selection markers, service, title and age.
func (m dashboardModel) renderItemRow(item *stream.Item) string {
	unread := " "
	if !item.IsRead() {
		unread = "●"
	}
	selected := " "
	if m.hub.IsSelected(item.ID()) {
		selected = "▸"
	}

	titleWidth := m.windowWidth - 44
	if titleWidth < 16 {
		titleWidth = 16
	}

	return fmt.Sprintf("%s%s %s %-16s %-*s %6s",
		selected,
		unread,
		severityBadge(item),
		truncateString(item.ServiceID().DisplayName(), 16),
		titleWidth,
		truncateString(item.Title(), titleWidth),
		formatAge(item.ReceivedAt(), time.Now()),
	)
}

// renderGroupHeader formats one group header line
func renderGroupHeader(group grouping.AlertGroup, expanded bool) string {
	marker := "▸"
	if expanded {
		marker = "▾"
	}
	header := fmt.Sprintf("%s %s (%d", marker, group.Label, group.Count)
	if group.UnreadCount > 0 {
		header += fmt.Sprintf(", %d new", group.UnreadCount)
	}
	header += ")"

	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("110")).
		Render(header)
}

// renderDetail renders the detail pane inside a bordered viewport
func (m dashboardModel) renderDetail() string {
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return frame.Render(m.viewport.View())
}

// renderToast renders the transient notification overlay line
func (m dashboardModel) renderToast() string {
	if m.toast == nil {
		return ""
	}

	label := m.toast.Kind.String()
	color := lipgloss.Color("110")
	if m.toast.Severity != "" {
		label = m.toast.Severity.String()
		color = severityColor(m.toast.Severity)
	}

	text := fmt.Sprintf("🔔 [%s] %s: %s", label, m.toast.ServiceID.DisplayName(), m.toast.Title)
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("  (o: open)")

	return lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Render(truncateString(text, max(m.windowWidth-12, 20))) + hint
}

// renderFooter renders the notice line and the control instructions
func (m dashboardModel) renderFooter() string {
	divider := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(strings.Repeat("─", max(m.windowWidth, 1)))

	controls := "Controls: [↑↓] Navigate | [enter] Detail/Expand | [space] Select | [r] Read | [R] All read | [d] Delete | [g] Group | [i/e] Issues/Events | [c] Reconnect | [o] Last alert | [q] Quit"
	if m.showDetail {
		controls = "Controls: [↑↓] Scroll | [esc] Back | [q] Quit"
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render(controls)

	if m.notice != "" {
		notice := lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")).
			Render(m.notice)
		return lipgloss.JoinVertical(lipgloss.Left, divider, notice, footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, divider, footer)
}

// tickMsg is sent every refresh interval
type tickMsg time.Time

// tickCmd creates a tick command
func (m dashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.flags.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// feedUpdatedMsg is sent when the hub service signals a state change
type feedUpdatedMsg struct{}

// errMsg is sent when an error occurs
type errMsg struct {
	err error
}

// deleteDoneMsg is sent when an async bulk delete finishes
type deleteDoneMsg struct {
	count int
	err   error
}

// listenForUpdates waits for the next hub change signal
func listenForUpdates(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return feedUpdatedMsg{}
	}
}

// deleteSelectedCmd runs the bulk delete off the UI goroutine
func (m dashboardModel) deleteSelectedCmd() tea.Cmd {
	count := m.hub.SelectionSize()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return deleteDoneMsg{count: count, err: m.hub.DeleteSelected(ctx)}
	}
}

// cycleGroupMode advances flat -> service -> date -> severity -> flat
func cycleGroupMode(mode grouping.Mode) grouping.Mode {
	switch mode {
	case GroupModeFlat:
		return grouping.ModeService
	case grouping.ModeService:
		return grouping.ModeDate
	case grouping.ModeDate:
		return grouping.ModeSeverity
	default:
		return GroupModeFlat
	}
}

// kindIndicator names the enabled kinds for the status line
func kindIndicator(issues, events bool) string {
	switch {
	case issues && events:
		return "issues+events"
	case issues:
		return "issues"
	case events:
		return "events"
	default:
		return "nothing"
	}
}

// severityBadge returns the fixed-width colored badge for an item
func severityBadge(item *stream.Item) string {
	severity, ok := item.Severity()
	if !ok {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("110")).
			Render(fmt.Sprintf("%-4s", "EVT"))
	}

	return lipgloss.NewStyle().
		Bold(severity.IsUrgent()).
		Foreground(severityColor(severity)).
		Render(fmt.Sprintf("%-4s", severityTag(severity)))
}

func severityTag(severity stream.Severity) string {
	switch severity {
	case stream.SeverityCritical:
		return "CRIT"
	case stream.SeverityHigh:
		return "HIGH"
	case stream.SeverityMedium:
		return "MED"
	default:
		return "LOW"
	}
}

func severityColor(severity stream.Severity) lipgloss.Color {
	switch severity {
	case stream.SeverityCritical:
		return lipgloss.Color("196")
	case stream.SeverityHigh:
		return lipgloss.Color("208")
	case stream.SeverityMedium:
		return lipgloss.Color("178")
	default:
		return lipgloss.Color("245")
	}
}

// renderItemDetail builds the detail pane body for one item
func renderItemDetail(item *stream.Item, width int) string {
	if item == nil {
		return ""
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(item.Title()),
		"",
		fmt.Sprintf("Service:   %s", item.ServiceID().DisplayName()),
		fmt.Sprintf("Kind:      %s", item.Kind()),
	}

	if issue, ok := item.Issue(); ok {
		lines = append(lines,
			fmt.Sprintf("Severity:  %s", issue.Severity),
			fmt.Sprintf("Status:    %s", issue.Status),
		)
		if issue.Description != "" {
			lines = append(lines, "", wrapText(issue.Description, max(width-2, 20)))
		}
	}
	if event, ok := item.Event(); ok {
		lines = append(lines, fmt.Sprintf("Type:      %s", event.EventType))
		if event.Message != "" {
			lines = append(lines, "", wrapText(event.Message, max(width-2, 20)))
		}
	}

	lines = append(lines,
		"",
		fmt.Sprintf("Created:   %s", item.CreatedAt().Format(time.RFC1123)),
		fmt.Sprintf("Received:  %s (%s ago)", item.ReceivedAt().Format("15:04:05"), formatAge(item.ReceivedAt(), time.Now())),
		fmt.Sprintf("ID:        %s", item.ID().Value()),
	)

	return strings.Join(lines, "\n")
}

// formatAge formats how long ago a timestamp was, compactly
func formatAge(t, now time.Time) string {
	age := now.Sub(t)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

// wrapText folds text at word boundaries to the given width
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if lineLen > 0 && lineLen+1+len(word) > width {
			b.WriteString("\n")
			lineLen = 0
		} else if i > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
