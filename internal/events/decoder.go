package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strings"

	"anygent/internal/logging"
)

// DataPrefix marks a line that carries one JSON-encoded event
const DataPrefix = "data: "

// Stats counts what the decoder did with the lines it saw
type Stats struct {
	Decoded int
	Dropped int
	Skipped int
}

// Decoder turns a byte stream into a sequence of events. It is finite and not restartable.
type Decoder struct {
	r     *bufio.Reader
	stats Stats
}

// NewDecoder creates a decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next event. It returns io.EOF once the stream is exhausted.
// Lines without the data prefix are skipped and lines with malformed JSON are
// dropped; neither is an error.
func (d *Decoder) Next() (Event, error) {
	for {
		line, err := d.r.ReadString('\n')
		if line != "" {
			if ev, ok := d.decodeLine(line); ok {
				return ev, nil
			}
		}
		if err != nil {
			return Event{}, err
		}
	}
}

// All returns the remaining events as a lazy sequence. A non-EOF read error is
// yielded once as the final element.
func (d *Decoder) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Stats returns the line counters so far
func (d *Decoder) Stats() Stats {
	return d.stats
}

func (d *Decoder) decodeLine(line string) (Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, DataPrefix) {
		if line != "" {
			d.stats.Skipped++
		}
		return Event{}, false
	}

	var ev Event
	if err := json.Unmarshal([]byte(line[len(DataPrefix):]), &ev); err != nil {
		d.stats.Dropped++
		logging.Logger.Debug("Dropped malformed event line", "error", err, "length", len(line))
		return Event{}, false
	}

	d.stats.Decoded++
	return ev, true
}

// Stream decodes r on a separate goroutine and delivers events on the returned
// channel in arrival order. The event channel is closed when the stream ends;
// the error channel then carries at most one non-EOF error (including ctx.Err()
// when cancelled). Cancelling ctx does not interrupt a blocked Read; callers
// should tie r to ctx (as http.Request bodies are).
func Stream(ctx context.Context, r io.Reader) (<-chan Event, <-chan error) {
	eventCh := make(chan Event, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer close(eventCh)

		dec := NewDecoder(r)
		for ev, err := range dec.All() {
			if err != nil {
				errCh <- err
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return eventCh, errCh
}
