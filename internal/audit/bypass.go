package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultDir holds the bypass log, relative to the repository root
const DefaultDir = ".semdiff"

// logName is the JSONL file bypass events are appended to
const logName = "bypass_log.jsonl"

// BypassEvent records a run skipped because a bypass label was active
type BypassEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Label     string    `json:"label"`
	Labels    []string  `json:"labels,omitempty"`
	Base      string    `json:"base,omitempty"`
	Head      string    `json:"head,omitempty"`
	Branch    string    `json:"branch,omitempty"`
	CommitSHA string    `json:"commit_sha,omitempty"`
}

// LogBypass appends event to <dir>/bypass_log.jsonl, creating dir if needed
func LogBypass(dir string, event BypassEvent) error {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, logName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open bypass log: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(event)
}

// ReadBypasses returns every event in <dir>/bypass_log.jsonl, oldest first
func ReadBypasses(dir string) ([]BypassEvent, error) {
	if dir == "" {
		dir = DefaultDir
	}
	f, err := os.Open(filepath.Join(dir, logName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bypass log: %w", err)
	}
	defer f.Close()

	var events []BypassEvent
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var event BypassEvent
		if err := decoder.Decode(&event); err != nil {
			return events, fmt.Errorf("malformed bypass log entry %d: %w", len(events)+1, err)
		}
		events = append(events, event)
	}
	return events, nil
}
