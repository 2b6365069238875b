// Package chat implements the chat session controller: it owns the live
// transcript, runs one streamed turn at a time against a transport, and
// keeps the session store in step.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/guilhermegouw/hiwar/internal/debug"
	"github.com/guilhermegouw/hiwar/internal/events"
	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/message"
	"github.com/guilhermegouw/hiwar/internal/pubsub"
	"github.com/guilhermegouw/hiwar/internal/session"
	"github.com/guilhermegouw/hiwar/internal/telemetry"
	"github.com/guilhermegouw/hiwar/internal/transport"
)

// DefaultStreamTimeout bounds every turn that never sees an end event.
const DefaultStreamTimeout = 300000 * time.Millisecond

const component = "chat"

var (
	// ErrEmptyMessage is returned for blank input. Nothing is sent.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while a turn is sending or streaming.
	ErrBusy = errors.New("a reply is still streaming")
	// ErrSessionNotFound is returned when an id is not in the store.
	ErrSessionNotFound = session.ErrNotFound
	// ErrEmptyTitle is returned by RenameSession for a blank title.
	ErrEmptyTitle = errors.New("title is empty")
	// ErrNothingToRegenerate is returned when the transcript does not end
	// with a bot reply to a user message.
	ErrNothingToRegenerate = errors.New("no reply to regenerate")
)

// Config wires a Controller to its collaborators.
type Config struct { //nolint:govet // fieldalignment: preserving logical field order
	Store     session.Store
	Transport transport.Transport
	Hub       *pubsub.Hub        // created when nil
	Metrics   *telemetry.Metrics // optional
	Catalog   i18n.Catalog

	// Timeout defaults to DefaultStreamTimeout.
	Timeout    time.Duration
	TitleLimit int
	Clock      func() time.Time
}

// Controller is the chat session controller. All methods are safe for
// concurrent use; operations are serialized.
type Controller struct { //nolint:govet // fieldalignment: preserving logical field order
	store      session.Store
	transport  transport.Transport
	hub        *pubsub.Hub
	metrics    *telemetry.Metrics
	catalog    i18n.Catalog
	timeout    time.Duration
	titleLimit int
	clock      func() time.Time

	mu      sync.Mutex
	state   State
	current session.Session
	active  *Turn
	turnSeq uint64
}

// New creates a controller holding a fresh, unsaved session.
func New(cfg Config) *Controller {
	c := &Controller{
		store:      cfg.Store,
		transport:  cfg.Transport,
		hub:        cfg.Hub,
		metrics:    cfg.Metrics,
		catalog:    cfg.Catalog,
		timeout:    cfg.Timeout,
		titleLimit: cfg.TitleLimit,
		clock:      cfg.Clock,
	}
	if c.hub == nil {
		c.hub = pubsub.NewHub()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultStreamTimeout
	}
	if c.titleLimit <= 0 {
		c.titleLimit = session.DefaultTitleLimit
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	c.current = c.freshSession()
	return c
}

// Hub returns the hub render signals are published on.
func (c *Controller) Hub() *pubsub.Hub {
	return c.hub
}

// State returns the current turn state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentSessionID returns the id of the session in view.
func (c *Controller) CurrentSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.ID
}

// Current returns a copy of the session in view.
func (c *Controller) Current() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// Transcript returns a copy of the committed messages. An in-progress
// reply is not part of it.
func (c *Controller) Transcript() []message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return message.Clone(c.current.Messages)
}

// Sessions returns the stored session list in store order.
func (c *Controller) Sessions(ctx context.Context) ([]session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readAll(ctx)
}

// SendMessage appends text as a user message, persists the session and
// starts streaming the reply. Blank text returns ErrEmptyMessage and a
// turn already in flight returns ErrBusy; neither changes any state.
func (c *Controller) SendMessage(ctx context.Context, text string) (*Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(ctx, text)
}

// Submit is the send button: it stops the reply in flight, or sends
// text when there is none. It returns a nil Turn when it stopped one.
func (c *Controller) Submit(ctx context.Context, text string) (*Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelLocked() {
		return nil, nil
	}
	return c.sendLocked(ctx, text)
}

// Regenerate drops the last bot reply and streams a new one for the
// user message before it.
func (c *Controller) Regenerate(ctx context.Context) (*Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, ErrBusy
	}
	msgs := c.current.Messages
	n := len(msgs)
	if n < 2 || !msgs[n-1].IsBot() || !msgs[n-2].IsUser() {
		return nil, ErrNothingToRegenerate
	}

	c.current.Messages = msgs[:n-1]
	c.publishChat(events.NewTranscriptResetEvent(c.current.ID))
	_ = c.persistLocked(ctx)

	return c.startLocked(ctx, msgs[n-2].Text), nil
}

// CancelStreaming aborts the turn in flight and discards its partial
// reply. It reports whether there was a turn to cancel.
func (c *Controller) CancelStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelLocked()
}

// Close cancels any turn in flight.
func (c *Controller) Close() {
	c.CancelStreaming()
}

// LoadSession saves the session in view when it has messages, then
// replaces the transcript with the stored session id. An unknown id
// returns ErrSessionNotFound and changes nothing.
func (c *Controller) LoadSession(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	idx := session.Find(list, id)
	if idx < 0 {
		return ErrSessionNotFound
	}
	target := list[idx]

	c.cancelLocked()
	if c.current.HasMessages() {
		if err := c.persistLocked(ctx); err != nil {
			return fmt.Errorf("saving current session: %w", err)
		}
	}
	if target.ID == c.current.ID {
		target = c.current
	}

	c.switchLocked(target.Clone())
	return nil
}

// DeleteSession removes id from the store. Deleting the session in view
// switches to the most recently created remaining session, or to a
// fresh one when none is left. An unknown id returns ErrSessionNotFound.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	list, ok := session.Remove(list, id)
	if !ok {
		return ErrSessionNotFound
	}

	isCurrent := id == c.current.ID
	if isCurrent {
		c.cancelLocked()
	}
	if err := c.writeAll(ctx, list); err != nil {
		return err
	}
	c.publishSession(events.NewSessionDeletedEvent(id))
	c.publishSession(events.NewSessionListChangedEvent(len(list)))
	debug.Event(component, "SessionDeleted", id)

	if !isCurrent {
		return nil
	}
	if next, ok := session.Newest(list); ok {
		c.switchLocked(next.Clone())
	} else {
		c.switchLocked(c.freshSession())
	}
	return nil
}

// NewSession saves the session in view when it has messages and starts
// an empty one. The new session reaches the store with its first
// message.
func (c *Controller) NewSession(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	if c.current.HasMessages() {
		_ = c.persistLocked(ctx)
	}
	c.switchLocked(c.freshSession())
	return c.current.ID
}

// RenameSession sets an explicit title. Renamed titles are never
// replaced by the derived one.
func (c *Controller) RenameSession(ctx context.Context, id, title string) error {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return ErrEmptyTitle
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	idx := session.Find(list, id)

	if id == c.current.ID {
		c.current.Title = title
		if idx >= 0 || c.current.HasMessages() {
			if err := c.persistLocked(ctx); err != nil {
				return err
			}
		}
		c.publishSession(events.NewSessionUpdatedEvent(id, title))
		return nil
	}

	if idx < 0 {
		return ErrSessionNotFound
	}
	list[idx].Title = title
	if err := c.writeAll(ctx, list); err != nil {
		return err
	}
	c.publishSession(events.NewSessionUpdatedEvent(id, title))
	c.publishSession(events.NewSessionListChangedEvent(len(list)))
	return nil
}

// ClearTranscript empties the session in view, keeping its id and title.
func (c *Controller) ClearTranscript(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	list, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	c.current.Messages = nil
	c.publishChat(events.NewTranscriptResetEvent(c.current.ID))
	if session.Find(list, c.current.ID) < 0 {
		return nil
	}
	return c.persistLocked(ctx)
}

// ClearHistory deletes every stored session and starts a fresh one.
func (c *Controller) ClearHistory(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	if err := c.writeAll(ctx, []session.Session{}); err != nil {
		return err
	}
	c.publishSession(events.NewSessionClearedEvent())
	c.publishSession(events.NewSessionListChangedEvent(0))
	c.switchLocked(c.freshSession())
	return nil
}

// ExportMarkdown renders the session in view as a markdown document.
func (c *Controller) ExportMarkdown() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return session.ExportMarkdown(c.current.Title, c.current.Messages, c.now(), c.catalog)
}

func (c *Controller) sendLocked(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if c.active != nil {
		return nil, ErrBusy
	}

	c.current.Messages = append(c.current.Messages, message.NewUser(text, c.now()))
	c.current.RefreshTitle(c.titleLimit)
	c.publishChat(events.NewMessageAppendedEvent(c.current.ID, c.turnSeq+1, string(message.TypeUser), text))
	// Store failures are logged; the in-memory transcript stays authoritative.
	_ = c.persistLocked(ctx)

	return c.startLocked(ctx, text), nil
}

// startLocked opens a turn for text. The caller has already put text in
// the transcript.
func (c *Controller) startLocked(ctx context.Context, text string) *Turn {
	c.turnSeq++
	turnCtx, cancel := context.WithTimeout(ctx, c.timeout)
	t := newTurn(c.turnSeq, c.current.ID, c.clock(), cancel)

	c.active = t
	c.state = StateSending
	debug.Event(component, "TurnStarted", fmt.Sprintf("turn=%d session=%s", t.id, t.sessionID))

	req := transport.Request{Message: text, CurrentSessionID: t.sessionID}
	go c.run(turnCtx, t, req)
	return t
}

// run drives one turn. It never touches controller state without
// checking that t is still the active turn.
func (c *Controller) run(ctx context.Context, t *Turn, req transport.Request) {
	defer t.cancel()

	stream, err := c.transport.Open(ctx, req)
	if err != nil {
		c.fail(ctx, t, "", err)
		return
	}
	defer func() { _ = stream.Close() }()

	if !c.attach(t, stream) {
		return
	}
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	var buf strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			c.complete(t, buf.String())
			return
		}
		if err != nil {
			c.fail(ctx, t, buf.String(), err)
			return
		}

		buf.WriteString(chunk)
		c.metrics.ChunkReceived()
		if !c.update(t, buf.String()) {
			return
		}
	}
}

func (c *Controller) attach(t *Turn, stream transport.Stream) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != t {
		return false
	}
	t.stream = stream
	c.state = StateStreaming
	c.publishChat(events.NewStreamStartedEvent(t.sessionID, t.id))
	return true
}

func (c *Controller) update(t *Turn, buffer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != t {
		return false
	}
	c.publishChat(events.NewMessageUpdatedEvent(t.sessionID, t.id, buffer))
	return true
}

func (c *Controller) complete(t *Turn, buffer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != t {
		return
	}
	c.state = StateCompleting
	if buffer != "" {
		c.commitLocked(t, buffer)
	}
	c.endLocked(t, Result{Outcome: OutcomeCompleted, Text: buffer})
}

func (c *Controller) fail(ctx context.Context, t *Turn, partial string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != t {
		return
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	// A cancelled caller is an abort, not a failure: nothing is committed.
	if errors.Is(err, context.Canceled) {
		c.cancelLocked()
		return
	}
	c.state = StateFailed

	outcome := OutcomeFailed
	if errors.Is(err, context.DeadlineExceeded) {
		outcome = OutcomeTimedOut
	}
	debug.Error(component, err, fmt.Sprintf("turn %d ended with %s", t.id, outcome))

	text := partial
	if text == "" {
		text = c.catalog.T(i18n.ConnectionError)
	}
	c.commitLocked(t, text)
	c.endLocked(t, Result{Outcome: outcome, Text: text, Err: err})
}

// commitLocked appends the bot reply and persists it. The store write
// must outlive the turn's context, which may already be done.
func (c *Controller) commitLocked(t *Turn, text string) {
	c.current.Messages = append(c.current.Messages, message.NewBot(text, c.now()))
	c.publishChat(events.NewMessageAppendedEvent(t.sessionID, t.id, string(message.TypeBot), text))
	_ = c.persistLocked(context.Background())
}

func (c *Controller) endLocked(t *Turn, r Result) {
	c.active = nil
	c.state = StateIdle
	c.publishChat(events.NewStreamFinishedEvent(t.sessionID, t.id, string(r.Outcome), r.Err))
	c.metrics.TurnFinished(string(r.Outcome), c.clock().Sub(t.started))
	debug.Event(component, "TurnFinished", fmt.Sprintf("turn=%d outcome=%s bytes=%d", t.id, r.Outcome, len(r.Text)))
	t.finish(r)
}

func (c *Controller) cancelLocked() bool {
	t := c.active
	if t == nil {
		return false
	}

	c.active = nil
	c.state = StateIdle
	t.cancel()
	if t.stream != nil {
		_ = t.stream.Close()
	}

	c.publishChat(events.NewStreamCancelledEvent(t.sessionID, t.id))
	c.metrics.TurnFinished(string(OutcomeCancelled), c.clock().Sub(t.started))
	debug.Event(component, "TurnCancelled", fmt.Sprintf("turn=%d", t.id))
	t.finish(Result{Outcome: OutcomeCancelled, Err: context.Canceled})
	return true
}

func (c *Controller) switchLocked(s session.Session) {
	c.current = s
	c.publishChat(events.NewTranscriptResetEvent(s.ID))
	c.publishSession(events.NewSessionSwitchedEvent(s.ID, s.Title))
	debug.Event(component, "SessionSwitched", s.ID)
}

// persistLocked writes the session in view into the stored list,
// inserting it at the front when it is not there yet.
func (c *Controller) persistLocked(ctx context.Context) error {
	list, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	isNew := session.Find(list, c.current.ID) < 0
	list = session.Upsert(list, c.current.Clone())
	if err := c.writeAll(ctx, list); err != nil {
		return err
	}

	if isNew {
		c.publishSession(events.NewSessionCreatedEvent(c.current.ID, c.current.Title))
	} else {
		c.publishSession(events.NewSessionUpdatedEvent(c.current.ID, c.current.Title))
	}
	c.publishSession(events.NewSessionListChangedEvent(len(list)))
	return nil
}

func (c *Controller) readAll(ctx context.Context) ([]session.Session, error) {
	list, err := c.store.ReadAll(ctx)
	if err != nil {
		c.metrics.StoreError("read")
		debug.Error(component, err, "reading sessions")
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	return list, nil
}

func (c *Controller) writeAll(ctx context.Context, list []session.Session) error {
	if err := c.store.WriteAll(ctx, list); err != nil {
		c.metrics.StoreError("write")
		debug.Error(component, err, "writing sessions")
		return fmt.Errorf("writing sessions: %w", err)
	}
	return nil
}

func (c *Controller) freshSession() session.Session {
	return session.New(c.catalog.T(i18n.NewChatTitle), c.now())
}

// now is the clock at the millisecond precision the store keeps.
func (c *Controller) now() time.Time {
	return c.clock().Truncate(time.Millisecond)
}

func (c *Controller) publishChat(e events.ChatEvent) {
	c.hub.Chat.Publish(chatEventType(e), e)
}

func (c *Controller) publishSession(e events.SessionEvent) {
	c.hub.Session.Publish(sessionEventType(e), e)
}

func chatEventType(e events.ChatEvent) pubsub.EventType {
	switch e.Type {
	case events.ChatMessageAppended:
		return pubsub.EventCreated
	case events.ChatStreamStarted:
		return pubsub.EventStarted
	case events.ChatStreamCancelled:
		return pubsub.EventCancelled
	case events.ChatStreamFinished:
		if e.Error != nil {
			return pubsub.EventFailed
		}
		return pubsub.EventCompleted
	default:
		return pubsub.EventUpdated
	}
}

func sessionEventType(e events.SessionEvent) pubsub.EventType {
	switch e.Type {
	case events.SessionEventCreated:
		return pubsub.EventCreated
	case events.SessionEventDeleted, events.SessionEventCleared:
		return pubsub.EventDeleted
	default:
		return pubsub.EventUpdated
	}
}
