package telemetry

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// FileSink appends events to a local JSON-lines file. It is the only
// concrete sink shipped with the CLI; delivery to a remote collector is a
// caller concern behind the Sink interface.
type FileSink struct {
	mu   sync.Mutex
	path string
}

type fileSinkRecord struct {
	Time   time.Time         `json:"ts"`
	Name   string            `json:"event"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewFileSink creates a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Write appends the batch, one JSON object per line.
func (s *FileSink) Write(ctx context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, ev := range events {
		if err := enc.Encode(fileSinkRecord{Time: ev.Time, Name: ev.Name, Fields: ev.Fields}); err != nil {
			return err
		}
	}
	return nil
}
