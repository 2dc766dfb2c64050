package telemetry

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/halvard/colprofiler/internal/core/domain"
)

// fileTraceEntry is the NDJSON-serializable form of one TraceEvent.
type fileTraceEntry struct {
	Timestamp         string `json:"ts"`
	Pass              int    `json:"pass"`
	BatchSize         int    `json:"batch_size"`
	DistributionCount int    `json:"distribution_count"`
}

// FileTraceWriter writes every domain.TraceEvent of a run as NDJSON (one
// JSON object per line) to a file, for offline inspection of pass
// boundaries independent of the structured logger.
type FileTraceWriter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileTraceWriter opens (or creates) the file at path for append-only
// writing.
func NewFileTraceWriter(path string) (*FileTraceWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileTraceWriter{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Write implements domain.WithTrace's callback signature, so a
// FileTraceWriter can be passed directly as domain.WithTrace(w.Write).
func (w *FileTraceWriter) Write(ev domain.TraceEvent) {
	entry := fileTraceEntry{
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		Pass:              ev.Pass,
		BatchSize:         ev.BatchSize,
		DistributionCount: ev.DistributionCount,
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.enc.Encode(entry) // best-effort; a trace write never fails a run
}

func (w *FileTraceWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
