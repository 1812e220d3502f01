// Package transcript holds the conversation log written by the driver and
// read back by the analyzer, along with its on-disk JSON form.
package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Experiment is the fixed experiment name stamped into every log.
const Experiment = "Grok Attractor State"

// TimestampLayout is ISO-8601 local time with microseconds and no zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Instance names one side of the conversation.
type Instance string

const (
	InstanceA Instance = "A"
	InstanceB Instance = "B"
)

// Turn is one logged message. Records are never modified once appended.
type Turn struct {
	Turn     int      `json:"turn"`
	Instance Instance `json:"instance"`
	Message  string   `json:"message"`
}

// ErrorRecord captures the remote failure that ended a run.
type ErrorRecord struct {
	Turn    int    `json:"turn"`
	Message string `json:"message"`
}

// Log is the full record of one run.
type Log struct {
	Experiment   string       `json:"experiment"`
	Timestamp    string       `json:"timestamp"`
	Model        string       `json:"model"`
	MaxTurns     int          `json:"max_turns"`
	SystemPrompt string       `json:"system_prompt"`
	Conversation []Turn       `json:"conversation"`
	Error        *ErrorRecord `json:"error,omitempty"`
}

// New creates an empty log stamped with now.
func New(model string, maxTurns int, systemPrompt string, now time.Time) *Log {
	return &Log{
		Experiment:   Experiment,
		Timestamp:    now.Format(TimestampLayout),
		Model:        model,
		MaxTurns:     maxTurns,
		SystemPrompt: systemPrompt,
		Conversation: make([]Turn, 0),
	}
}

// Append adds a turn record.
func (l *Log) Append(t Turn) {
	l.Conversation = append(l.Conversation, t)
}

// Fail attaches the error that aborted the run at the given turn.
func (l *Log) Fail(turn int, err error) {
	l.Error = &ErrorRecord{Turn: turn, Message: err.Error()}
}

// Messages returns the message texts in log order.
func (l *Log) Messages() []string {
	out := make([]string, len(l.Conversation))
	for i, t := range l.Conversation {
		out[i] = t.Message
	}
	return out
}

// DefaultPath returns the timestamped file name used when no output path is given.
func DefaultPath(dir string, now time.Time) string {
	name := fmt.Sprintf("grok_conversation_%s.json", now.Format("20060102_150405"))
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// Save writes the log as indented JSON, replacing any previous content.
// The bytes land in a temporary file in the same directory which is then
// renamed over path, so readers never observe a partial write.
func Save(path string, l *Log) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(buf.Bytes())
	if werr == nil {
		werr = tmp.Sync()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmpName, 0o644)
	}
	if werr == nil {
		werr = os.Rename(tmpName, path)
	}
	if werr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write conversation: %w", werr)
	}
	return nil
}

// Load reads a log previously written by Save.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}
	if l.Conversation == nil {
		return nil, errors.New("conversation log has no conversation array")
	}
	return &l, nil
}
