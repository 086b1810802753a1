package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"example.com/campaignai/internal/domain"
)

// DoneSentinel is the payload of the final frame of a complete stream.
const DoneSentinel = "[DONE]"

// Encoder writes `data: <payload>\n\n` frames and flushes after each one.
type Encoder struct {
	w     io.Writer
	flush func() error
}

// NewEncoder returns an Encoder over w. flush may be nil.
func NewEncoder(w io.Writer, flush func() error) *Encoder {
	return &Encoder{w: w, flush: flush}
}

func (e *Encoder) Event(ev domain.StreamEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	return e.frame(b)
}

func (e *Encoder) Done() error { return e.frame([]byte(DoneSentinel)) }

func (e *Encoder) frame(payload []byte) error {
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if e.flush != nil {
		return e.flush()
	}
	return nil
}

// Pipe forwards events to enc until the channel closes, then writes the DONE
// frame. observe, when set, sees every event after it was written. A done
// ctx suppresses the DONE frame and is returned as the error.
func Pipe(ctx context.Context, enc *Encoder, events <-chan domain.StreamEvent, observe func(domain.StreamEvent)) error {
	for ev := range events {
		if err := enc.Event(ev); err != nil {
			return err
		}
		if observe != nil {
			observe(ev)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return enc.Done()
}

// Decode reads frames from r and passes each decoded event to fn. done
// reports whether the DONE frame was seen; reading stops there.
func Decode(r io.Reader, fn func(domain.StreamEvent) error) (done bool, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		if line != "" {
			if strings.HasPrefix(line, "data: ") {
				data.WriteString(strings.TrimPrefix(line, "data: "))
			}
			continue
		}
		if data.Len() == 0 {
			continue
		}
		payload := data.String()
		data.Reset()
		if payload == DoneSentinel {
			return true, nil
		}
		var ev domain.StreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return false, fmt.Errorf("decode event: %w", err)
		}
		if fn != nil {
			if err := fn(ev); err != nil {
				return false, err
			}
		}
	}
	return false, sc.Err()
}
