package notifications

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"minu.io/hub/internal/application/ports"
)

// historyScanBuffer sizes the read buffer for history lines. Dispatch
// records are small; the headroom covers hand-edited files.
const historyScanBuffer = 1024 * 1024

// HistoryLog appends dispatched notifications to a JSONL file, one
// record per line. The log is an audit trail: append-only, never
// rewritten.
type HistoryLog struct {
	mu   sync.Mutex
	path string
}

// NewHistoryLog creates a history log at the given path. An empty path
// selects the default location under the user state directory.
func NewHistoryLog(path string) *HistoryLog {
	if path == "" {
		path = defaultHistoryPath()
	}

	return &HistoryLog{path: path}
}

// Append records one dispatched notification
func (h *HistoryLog) Append(record ports.HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}

	return nil
}

// Path returns the location of the history file for display
func (h *HistoryLog) Path() string {
	return h.path
}

// ReadHistory returns up to limit records from a history file, newest
// first. A missing file yields an empty slice; lines that fail to parse
// are skipped so one corrupt record cannot hide the rest of the trail.
// A non-positive limit returns everything.
func ReadHistory(path string, limit int) ([]ports.HistoryRecord, error) {
	if path == "" {
		path = defaultHistoryPath()
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []ports.HistoryRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	var records []ports.HistoryRecord

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), historyScanBuffer)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record ports.HistoryRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	// Newest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// defaultHistoryPath returns the default history file path
func defaultHistoryPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".minu-hub-history.jsonl"
	}

	return filepath.Join(homeDir, ".local", "state", "minu-hub", "history.jsonl")
}
