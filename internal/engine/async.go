package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/CargoFit/internal/model"
)

// MessageKind tags messages on the asynchronous optimization channel.
type MessageKind string

const (
	MessageProgress MessageKind = "PROGRESS"
	MessageResult   MessageKind = "RESULT"
	MessageError    MessageKind = "ERROR"
)

// Message is one update from an asynchronous run. Exactly one RESULT or
// ERROR message ends every run.
type Message struct {
	Kind     MessageKind
	Progress float64 // percent, PROGRESS only
	Result   *model.PlacementResult
	Err      error
}

// Terminal reports whether the message ends the run.
func (m Message) Terminal() bool {
	return m.Kind == MessageResult || m.Kind == MessageError
}

// progressBuffer is the number of progress messages that may queue up
// before further updates are dropped.
const progressBuffer = 16

// Start runs the optimizer in its own goroutine and streams progress on the
// returned channel. Progress updates never block the optimizer: when the
// consumer falls behind they are dropped. The terminal message always fits
// in the buffer, and the channel is closed after it.
func Start(ctx context.Context, req model.Request, settings model.Settings) <-chan Message {
	ch := make(chan Message, progressBuffer+1)

	go func() {
		defer close(ch)

		var terminal Message
		defer func() {
			if r := recover(); r != nil {
				terminal = Message{Kind: MessageError, Err: fmt.Errorf("optimizer panic: %v", r)}
			}
			ch <- terminal
		}()

		// Single producer: keeping one slot free guarantees the terminal send.
		progress := func(pct float64) {
			if len(ch) < cap(ch)-1 {
				ch <- Message{Kind: MessageProgress, Progress: pct}
			}
		}

		result, err := New(settings).OptimizeWithProgress(ctx, req, progress)
		if err != nil {
			terminal = Message{Kind: MessageError, Err: err}
			return
		}
		terminal = Message{Kind: MessageResult, Result: &result}
	}()

	return ch
}
