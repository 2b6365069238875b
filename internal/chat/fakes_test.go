package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/message"
	"github.com/guilhermegouw/hiwar/internal/session"
	"github.com/guilhermegouw/hiwar/internal/transport"
)

const waitTimeout = 2 * time.Second

type step struct {
	chunk string
	err   error
}

// fakeStream replays the steps a test feeds it.
type fakeStream struct {
	steps     chan step
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		steps:  make(chan step, 32),
		closed: make(chan struct{}),
	}
}

func (s *fakeStream) Recv() (string, error) {
	select {
	case st := <-s.steps:
		return st.chunk, st.err
	case <-s.closed:
		return "", transport.ErrClosed
	}
}

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) send(chunks ...string) {
	for _, c := range chunks {
		s.steps <- step{chunk: c}
	}
}

func (s *fakeStream) end() {
	s.steps <- step{err: io.EOF}
}

func (s *fakeStream) fail(err error) {
	s.steps <- step{err: err}
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// fakeTransport hands out a fakeStream per Open and records requests.
type fakeTransport struct {
	mu       sync.Mutex
	requests []transport.Request
	openErr  error
	opens    atomic.Int32
	streams  chan *fakeStream
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{streams: make(chan *fakeStream, 8)}
}

func (f *fakeTransport) Open(_ context.Context, req transport.Request) (transport.Stream, error) {
	f.opens.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	err := f.openErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s := newFakeStream()
	f.streams <- s
	return s, nil
}

// next waits for the stream of the next opened turn.
func (f *fakeTransport) next(t *testing.T) *fakeStream {
	t.Helper()
	select {
	case s := <-f.streams:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("transport was never opened")
		return nil
	}
}

func (f *fakeTransport) lastRequest() transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// failingStore wraps a store and fails writes on demand.
type failingStore struct {
	session.Store
	failWrites atomic.Bool
}

var errDisk = errors.New("disk full")

func (s *failingStore) WriteAll(ctx context.Context, list []session.Session) error {
	if s.failWrites.Load() {
		return errDisk
	}
	return s.Store.WriteAll(ctx, list)
}

// testClock advances one millisecond per reading.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.UnixMilli(1700000000000)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type harness struct {
	c     *Controller
	store *session.MemoryStore
	tr    *fakeTransport
	cat   i18n.Catalog
}

func newHarness(t *testing.T, seed ...session.Session) *harness {
	t.Helper()
	return newHarnessWith(t, Config{}, seed...)
}

func newHarnessWith(t *testing.T, cfg Config, seed ...session.Session) *harness {
	t.Helper()
	h := &harness{
		store: session.NewMemoryStore(seed...),
		tr:    newFakeTransport(),
		cat:   i18n.New(i18n.English),
	}
	if cfg.Store == nil {
		cfg.Store = h.store
	}
	cfg.Transport = h.tr
	cfg.Catalog = h.cat
	if cfg.Clock == nil {
		cfg.Clock = newTestClock().Now
	}
	h.c = New(cfg)
	t.Cleanup(func() {
		h.c.Close()
		h.c.Hub().Shutdown()
	})
	return h
}

func (h *harness) stored(t *testing.T) []session.Session {
	t.Helper()
	list, err := h.store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return list
}

func result(t *testing.T, turn *Turn) Result {
	t.Helper()
	select {
	case <-turn.Done():
		return turn.Result()
	case <-time.After(waitTimeout):
		t.Fatal("turn did not finish")
		return Result{}
	}
}

func seedSession(id string, createdMs int64, msgs ...string) session.Session {
	s := session.Session{ID: id, Title: id, CreatedAt: time.UnixMilli(createdMs)}
	for i, text := range msgs {
		at := time.UnixMilli(createdMs + int64(i) + 1)
		if i%2 == 0 {
			s.Messages = append(s.Messages, message.NewUser(text, at))
		} else {
			s.Messages = append(s.Messages, message.NewBot(text, at))
		}
	}
	return s
}

func texts(msgs []message.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Type) + ":" + m.Text
	}
	return out
}
