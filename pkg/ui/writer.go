package ui

import (
	"io"
	"sync"
)

// ConditionalWriter writes to the underlying writer only if enabled.
// It is safe for concurrent use.
type ConditionalWriter struct {
	mu      sync.Mutex
	writer  io.Writer
	enabled bool
}

// NewConditionalWriter creates a writer that only writes when enabled
func NewConditionalWriter(writer io.Writer, enabled bool) *ConditionalWriter {
	return &ConditionalWriter{
		writer:  writer,
		enabled: enabled,
	}
}

// Write implements io.Writer. Disabled writes are discarded but reported
// as successful.
func (w *ConditionalWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.enabled {
		return len(p), nil
	}

	return w.writer.Write(p)
}

// SetEnabled enables or disables writing
func (w *ConditionalWriter) SetEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.enabled = enabled
}

// IsEnabled returns whether writing is enabled
func (w *ConditionalWriter) IsEnabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.enabled
}
