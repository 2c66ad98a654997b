package donation

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// WriterSink prints each donation as a "key: data" line.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a WriterSink printing to w, or to stdout when w is nil.
func NewWriterSink(w io.Writer) *WriterSink {
	if w == nil {
		w = os.Stdout
	}
	return &WriterSink{w: w}
}

// Donate prints key and data.
func (s *WriterSink) Donate(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "%s: %s\n", key, data); err != nil {
		return fmt.Errorf("could not print donation %q: %v", key, err)
	}
	return nil
}

// Close does nothing.
func (s *WriterSink) Close() error {
	return nil
}
