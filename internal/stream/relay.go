package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Delta is one incremental piece of a generated answer. A Delta with Err set
// terminates the stream.
type Delta struct {
	Text string
	Err  error
}

// ErrInterrupted marks a stream that failed mid-generation. The partial text
// produced before the failure is still returned.
var ErrInterrupted = errors.New("generation stream interrupted")

// Relay forwards deltas from the generation backend to sink in arrival
// order and accumulates the final text. On a mid-stream backend error it
// stops forwarding, returns the partial text and an error wrapping
// ErrInterrupted. On context cancellation it stops consuming immediately and
// returns the partial text with the context error.
func Relay(ctx context.Context, deltas <-chan Delta, sink io.Writer) (string, error) {
	var b strings.Builder
	flusher, _ := sink.(http.Flusher)

	for {
		select {
		case <-ctx.Done():
			return b.String(), ctx.Err()
		case d, ok := <-deltas:
			if !ok {
				return b.String(), nil
			}
			if d.Err != nil {
				return b.String(), fmt.Errorf("%w: %w", ErrInterrupted, d.Err)
			}
			if d.Text == "" {
				continue
			}
			b.WriteString(d.Text)
			if _, err := io.WriteString(sink, d.Text); err != nil {
				// Caller went away; stop consuming but keep what we have.
				return b.String(), fmt.Errorf("%w: %w", ErrInterrupted, err)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
