// pkg/report/report.go - per-session audit report.
//
// A Session accumulates the reconciled state snapshot and every apply/revert
// outcome for one run, then writes the summary next to the logs as JSON and
// YAML for external monitoring tools.

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/winforge/pkg/engine"
	"github.com/windowsadmins/winforge/pkg/logging"
)

// StateRecord is one task's reconciled status at snapshot time.
type StateRecord struct {
	Task   string `json:"task" yaml:"task"`
	Type   string `json:"type" yaml:"type"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ActionRecord is one apply or revert outcome.
type ActionRecord struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Task      string `json:"task" yaml:"task"`
	Action    string `json:"action" yaml:"action"` // Apply or Revert
	Success   bool   `json:"success" yaml:"success"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary aggregates a session's action outcomes.
type Summary struct {
	TotalActions int `json:"total_actions" yaml:"total_actions"`
	Applies      int `json:"applies" yaml:"applies"`
	Reverts      int `json:"reverts" yaml:"reverts"`
	Successes    int `json:"successes" yaml:"successes"`
	Failures     int `json:"failures" yaml:"failures"`
}

// Session is one run's report under construction.
type Session struct {
	SessionID string         `json:"session_id" yaml:"session_id"`
	Hostname  string         `json:"hostname" yaml:"hostname"`
	StartTime string         `json:"start_time" yaml:"start_time"`
	EndTime   string         `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	States    []StateRecord  `json:"states" yaml:"states"`
	Actions   []ActionRecord `json:"actions" yaml:"actions"`
	Summary   Summary        `json:"summary" yaml:"summary"`

	mu sync.Mutex
}

// NewSession starts a report. The session id follows the logger's when one
// is active so log lines and reports correlate.
func NewSession() *Session {
	id := logging.SessionID()
	if id == "" {
		id = uuid.New().String()
	}
	hostname, _ := os.Hostname()
	return &Session{
		SessionID: id,
		Hostname:  hostname,
		StartTime: time.Now().Format(time.RFC3339),
	}
}

// RecordStates replaces the report's state snapshot with the latest
// reconciliation result.
func (s *Session) RecordStates(states []engine.TaskState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.States = s.States[:0]
	for _, st := range states {
		rec := StateRecord{
			Task:   st.Task.Key(),
			Type:   st.Task.Type,
			Status: st.Status.String(),
		}
		if st.Err != nil {
			rec.Error = st.Err.Error()
		}
		s.States = append(s.States, rec)
	}
}

// RecordAction appends one apply/revert outcome and updates the summary.
func (s *Session) RecordAction(task, action string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := ActionRecord{
		Timestamp: time.Now().Format(time.RFC3339),
		Task:      task,
		Action:    action,
		Success:   err == nil,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.Actions = append(s.Actions, rec)

	s.Summary.TotalActions++
	switch action {
	case "Revert":
		s.Summary.Reverts++
	default:
		s.Summary.Applies++
	}
	if err == nil {
		s.Summary.Successes++
	} else {
		s.Summary.Failures++
	}
}

// Write finalizes the session and writes report.json and report.yaml into a
// per-session subdirectory of dir, so each run's audit trail is kept rather
// than overwritten by the next.
func (s *Session) Write(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EndTime = time.Now().Format(time.RFC3339)

	sessionDir := filepath.Join(dir, s.SessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	if err := s.writeJSON(filepath.Join(sessionDir, "report.json")); err != nil {
		return err
	}
	if err := s.writeYAML(filepath.Join(sessionDir, "report.yaml")); err != nil {
		return err
	}
	logging.Info("Session report written", "dir", sessionDir, "actions", s.Summary.TotalActions)
	return nil
}

func (s *Session) writeJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}

func (s *Session) writeYAML(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
