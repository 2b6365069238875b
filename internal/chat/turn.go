package chat

import (
	"context"
	"sync"
	"time"

	"github.com/guilhermegouw/hiwar/internal/transport"
)

// Outcome is how a turn ended.
type Outcome string

// Turn outcomes.
const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeCancelled Outcome = "cancelled"
)

// Result describes a finished turn.
type Result struct {
	Outcome Outcome
	// Text is the bot message committed to the transcript, if any.
	Text string
	// Err is the transport error, context.DeadlineExceeded for a
	// timeout, or context.Canceled for a cancelled turn.
	Err error
}

// Turn is one request/reply exchange in flight.
type Turn struct {
	id        uint64
	sessionID string
	started   time.Time
	cancel    context.CancelFunc

	// stream is guarded by the controller mutex.
	stream transport.Stream

	once   sync.Once
	done   chan struct{}
	result Result
}

func newTurn(id uint64, sessionID string, started time.Time, cancel context.CancelFunc) *Turn {
	return &Turn{
		id:        id,
		sessionID: sessionID,
		started:   started,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// ID returns the turn number, unique within a controller.
func (t *Turn) ID() uint64 {
	return t.id
}

// SessionID returns the session the turn belongs to.
func (t *Turn) SessionID() string {
	return t.sessionID
}

// Done is closed when the turn has ended.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Result waits for the turn to end and returns how it ended.
func (t *Turn) Result() Result {
	<-t.done
	return t.result
}

func (t *Turn) finish(r Result) {
	t.once.Do(func() {
		t.result = r
		close(t.done)
	})
}
