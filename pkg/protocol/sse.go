package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DoneSentinel is the payload of the terminal "done" record that closes
// every stream, success or failure.
const DoneSentinel = "[DONE]"

// SSEWriter encodes protocol events as a text event stream: one named
// event plus one JSON data line per record, blank-line separated.
type SSEWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSEWriter wraps an io.Writer. If the writer also implements
// http.Flusher each record is flushed immediately so callers see events
// while the run is still in flight.
func NewSSEWriter(w io.Writer) *SSEWriter {
	sw := &SSEWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// Write encodes one event.
func (s *SSEWriter) Write(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Done writes the terminal sentinel record.
func (s *SSEWriter) Done() error {
	if _, err := fmt.Fprintf(s.w, "event: done\ndata: %s\n\n", DoneSentinel); err != nil {
		return fmt.Errorf("failed to write done sentinel: %w", err)
	}

	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
