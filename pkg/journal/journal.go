package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"copycat-api/pkg/actionplan"
)

// RunRecord captures one planning run for audit and replay debugging.
type RunRecord struct {
	Timestamp    time.Time           `json:"timestamp"`
	RunID        string              `json:"run_id"`
	SessionID    string              `json:"session_id"`
	Sequence     int                 `json:"sequence"`
	Source       string              `json:"source"`
	Model        string              `json:"model,omitempty"`
	PromptDigest string              `json:"prompt_digest,omitempty"`
	Prompt       string              `json:"prompt,omitempty"`
	Response     string              `json:"response"`
	Method       actionplan.Method   `json:"method"`
	Kept         []actionplan.Action `json:"kept"`
	Dropped      []actionplan.Action `json:"dropped,omitempty"`
	TotalTokens  int                 `json:"total_tokens,omitempty"`
	DurationMS   int64               `json:"duration_ms"`
	Success      bool                `json:"success"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

// Writer persists run records to a directory as JSON files.
type Writer struct {
	dir   string
	nowFn func() time.Time

	mu  sync.Mutex
	seq int
}

// NewWriter constructs a journal writer rooted at dir.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "journal"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", dir, err)
	}
	return &Writer{dir: dir, nowFn: time.Now}, nil
}

// Dir returns the directory records are written to.
func (w *Writer) Dir() string { return w.dir }

// WriteRun writes rec to a timestamped JSON file and returns its path.
func (w *Writer) WriteRun(rec *RunRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	rec.Sequence = seq
	if rec.Kept == nil {
		rec.Kept = []actionplan.Action{}
	}
	name := fmt.Sprintf("run_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadRun loads a record previously written by WriteRun.
func ReadRun(path string) (*RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("journal: decode %s: %w", path, err)
	}
	return &rec, nil
}
