// Package transport opens the per-turn server stream a chat reply
// arrives on.
package transport

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF means the connection ended before the server sent
	// its end event.
	ErrUnexpectedEOF = errors.New("stream ended without end event")
	// ErrClosed is returned by Recv after Close.
	ErrClosed = errors.New("stream closed")
)

// Request is one user turn sent to the server.
type Request struct {
	Message          string
	CurrentSessionID string
}

// Transport opens a stream for a single turn.
type Transport interface {
	Open(ctx context.Context, req Request) (Stream, error)
}

// Stream delivers the text fragments of one reply.
//
// Recv returns the next fragment. It returns io.EOF once the server has
// signalled the end of the reply; any other error means the turn
// failed. Close aborts the stream and unblocks a pending Recv; it is
// safe to call more than once and from another goroutine.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// StatusError is returned by Open when the server refuses the request.
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// ServerError is a named error event received mid-stream.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server error: " + e.Message
}
