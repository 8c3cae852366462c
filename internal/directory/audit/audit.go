// Package audit implements the append-only administrative audit trail. Every
// event is kept in an in-memory most-recent-first buffer for display and
// appended to two durable logs: a human-readable text line and a structured
// JSONL record. Events are never edited or removed through this package; log
// rotation is an operational concern outside the engine.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one immutable audit entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}

// Recorder is the write side of the trail, as seen by the directory service.
type Recorder interface {
	Record(ev Event) error
}

// Trail is the dual-written audit trail. BufferCap bounds only the in-memory
// buffer; the durable logs always receive every event.
type Trail struct {
	mu        sync.Mutex
	events    []Event // oldest first; Recent reads from the tail
	bufferCap int

	textPath  string
	jsonlPath string
}

// New creates (if needed) logsDir and opens a trail writing audit.log and
// audit.jsonl inside it. bufferCap <= 0 means an unbounded in-memory buffer.
func New(logsDir string, bufferCap int) (*Trail, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir logs dir: %w", err)
	}
	return &Trail{
		bufferCap: bufferCap,
		textPath:  filepath.Join(logsDir, "audit.log"),
		jsonlPath: filepath.Join(logsDir, "audit.jsonl"),
	}, nil
}

// Record pushes the event onto the in-memory buffer and appends it to both
// durable logs, synchronously, in that order. A bounded buffer may drop its
// oldest entry but the durable writes are never skipped.
func (t *Trail) Record(ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, ev)
	if t.bufferCap > 0 && len(t.events) > t.bufferCap {
		t.events = t.events[len(t.events)-t.bufferCap:]
	}

	line := fmt.Sprintf("[%s] action=%s actor=%s detail=%s\n",
		ev.Timestamp.Format(time.RFC3339), ev.Action, ev.Actor, ev.Detail)
	if err := appendLine(t.textPath, []byte(line)); err != nil {
		return fmt.Errorf("audit text append: %w", err)
	}

	structured, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("audit marshal: %w", err)
	}
	if err := appendLine(t.jsonlPath, append(structured, '\n')); err != nil {
		return fmt.Errorf("audit jsonl append: %w", err)
	}

	return nil
}

// Recent returns up to limit events, most recent first. limit <= 0 returns
// everything buffered.
func (t *Trail) Recent(limit int) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, 0, n)
	for i := len(t.events) - 1; i >= len(t.events)-n; i-- {
		out = append(out, t.events[i])
	}
	return out
}

func appendLine(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
