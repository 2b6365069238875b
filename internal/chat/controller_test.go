package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/guilhermegouw/hiwar/internal/events"
	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/pubsub"
	"github.com/guilhermegouw/hiwar/internal/session"
)

func TestNewSession_TwiceDoesNotPersist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.c.NewSession(ctx)
	second := h.c.NewSession(ctx)

	if first == second {
		t.Errorf("NewSession() returned %q twice, want fresh ids", first)
	}
	if !strings.HasPrefix(second, "session_") {
		t.Errorf("NewSession() = %q, want session_ prefix", second)
	}
	if got := h.store.Writes(); got != 0 {
		t.Errorf("store writes = %d, want 0", got)
	}
	if got := len(h.stored(t)); got != 0 {
		t.Errorf("stored sessions = %d, want 0", got)
	}
	if h.c.CurrentSessionID() != second {
		t.Errorf("CurrentSessionID() = %q, want %q", h.c.CurrentSessionID(), second)
	}

	// The session is inserted with its first message, before the reply.
	turn, err := h.c.SendMessage(ctx, "hello")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	list := h.stored(t)
	if len(list) != 1 || list[0].ID != second {
		t.Fatalf("stored = %v, want only %q", list, second)
	}
	if got := texts(list[0].Messages); fmt.Sprint(got) != "[user:hello]" {
		t.Errorf("stored messages = %v, want [user:hello]", got)
	}

	stream.end()
	result(t, turn)
}

func TestSendMessage_CommitsChunksInOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	turn, err := h.c.SendMessage(ctx, "  مرحبا  ")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("أهلاً", " و", "سهلاً")
	stream.end()

	r := result(t, turn)
	if r.Outcome != OutcomeCompleted {
		t.Errorf("Outcome = %q, want %q", r.Outcome, OutcomeCompleted)
	}
	if r.Text != "أهلاً وسهلاً" {
		t.Errorf("Text = %q, want concatenated chunks", r.Text)
	}
	if r.Err != nil {
		t.Errorf("Err = %v, want nil", r.Err)
	}

	want := "[user:مرحبا bot:أهلاً وسهلاً]"
	if got := fmt.Sprint(texts(h.c.Transcript())); got != want {
		t.Errorf("Transcript() = %v, want %v", got, want)
	}
	list := h.stored(t)
	if len(list) != 1 {
		t.Fatalf("stored sessions = %d, want 1", len(list))
	}
	if got := fmt.Sprint(texts(list[0].Messages)); got != want {
		t.Errorf("stored messages = %v, want %v", got, want)
	}
	if list[0].Title != "مرحبا" {
		t.Errorf("Title = %q, want derived from first message", list[0].Title)
	}
	if h.c.State() != StateIdle {
		t.Errorf("State() = %v, want idle", h.c.State())
	}

	req := h.tr.lastRequest()
	if req.Message != "مرحبا" || req.CurrentSessionID != h.c.CurrentSessionID() {
		t.Errorf("request = %+v", req)
	}
}

func TestSendMessage_EmptyEndCommitsNothing(t *testing.T) {
	h := newHarness(t)

	turn, err := h.c.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	h.tr.next(t).end()

	r := result(t, turn)
	if r.Outcome != OutcomeCompleted || r.Text != "" {
		t.Errorf("Result() = %+v, want completed with no text", r)
	}
	if got := fmt.Sprint(texts(h.c.Transcript())); got != "[user:hi]" {
		t.Errorf("Transcript() = %v", got)
	}
}

func TestSendMessage_PartialOutputSurvivesError(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("connection reset")

	turn, err := h.c.SendMessage(context.Background(), "question")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("par", "tial")
	stream.fail(boom)

	r := result(t, turn)
	if r.Outcome != OutcomeFailed {
		t.Errorf("Outcome = %q, want %q", r.Outcome, OutcomeFailed)
	}
	if !errors.Is(r.Err, boom) {
		t.Errorf("Err = %v, want %v", r.Err, boom)
	}

	want := "[user:question bot:partial]"
	if got := fmt.Sprint(texts(h.c.Transcript())); got != want {
		t.Errorf("Transcript() = %v, want %v", got, want)
	}
	if got := fmt.Sprint(texts(h.stored(t)[0].Messages)); got != want {
		t.Errorf("stored = %v, want %v", got, want)
	}
}

func TestSendMessage_ErrorWithoutOutputCommitsErrorText(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		drive func(t *testing.T, h *harness)
	}{
		{
			name:  "open fails",
			setup: func(h *harness) { h.tr.openErr = errors.New("connection refused") },
			drive: func(*testing.T, *harness) {},
		},
		{
			name:  "stream fails before first chunk",
			setup: func(*harness) {},
			drive: func(t *testing.T, h *harness) { h.tr.next(t).fail(errors.New("reset")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			turn, err := h.c.SendMessage(context.Background(), "hi")
			if err != nil {
				t.Fatalf("SendMessage() error = %v", err)
			}
			tt.drive(t, h)

			r := result(t, turn)
			errText := h.cat.T(i18n.ConnectionError)
			if r.Outcome != OutcomeFailed || r.Text != errText {
				t.Errorf("Result() = %+v, want failed with %q", r, errText)
			}
			want := fmt.Sprint([]string{"user:hi", "bot:" + errText})
			if got := fmt.Sprint(texts(h.c.Transcript())); got != want {
				t.Errorf("Transcript() = %v, want %v", got, want)
			}
			if got := fmt.Sprint(texts(h.stored(t)[0].Messages)); got != want {
				t.Errorf("stored = %v, want %v", got, want)
			}
			if h.c.State() != StateIdle {
				t.Errorf("State() = %v, want idle", h.c.State())
			}
		})
	}
}

func TestSendMessage_RejectsWhileStreaming(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	turn, err := h.c.SendMessage(ctx, "first")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("a")

	if _, err := h.c.SendMessage(ctx, "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("SendMessage() while streaming error = %v, want ErrBusy", err)
	}
	if got := h.tr.opens.Load(); got != 1 {
		t.Errorf("transport opens = %d, want 1", got)
	}
	if got := fmt.Sprint(texts(h.c.Transcript())); got != "[user:first]" {
		t.Errorf("Transcript() = %v, want the rejected message absent", got)
	}
	if !h.c.State().Busy() {
		t.Errorf("State() = %v, want busy", h.c.State())
	}

	stream.end()
	result(t, turn)

	if _, err := h.c.SendMessage(ctx, "second"); err != nil {
		t.Errorf("SendMessage() after end error = %v", err)
	}
	h.tr.next(t).end()
}

func TestSendMessage_RejectsBlank(t *testing.T) {
	h := newHarness(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := h.c.SendMessage(context.Background(), text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("SendMessage(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}
	if got := h.tr.opens.Load(); got != 0 {
		t.Errorf("transport opens = %d, want 0", got)
	}
	if len(h.c.Transcript()) != 0 || h.store.Writes() != 0 {
		t.Error("blank input changed state")
	}
}

func TestSendMessage_TimeoutKeepsPartial(t *testing.T) {
	h := newHarnessWith(t, Config{Timeout: 50 * time.Millisecond})

	turn, err := h.c.SendMessage(context.Background(), "slow")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("half")

	r := result(t, turn)
	if r.Outcome != OutcomeTimedOut {
		t.Errorf("Outcome = %q, want %q", r.Outcome, OutcomeTimedOut)
	}
	if !errors.Is(r.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want context.DeadlineExceeded", r.Err)
	}
	if r.Text != "half" {
		t.Errorf("Text = %q, want partial", r.Text)
	}
	if !stream.isClosed() {
		t.Error("stream not closed after timeout")
	}
}

func TestSendMessage_TimeoutWithoutOutput(t *testing.T) {
	h := newHarnessWith(t, Config{Timeout: 30 * time.Millisecond})

	turn, err := h.c.SendMessage(context.Background(), "slow")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	h.tr.next(t)

	r := result(t, turn)
	if r.Outcome != OutcomeTimedOut || r.Text != h.cat.T(i18n.ConnectionError) {
		t.Errorf("Result() = %+v, want timed out with error text", r)
	}
}

func TestDefaultTimeout(t *testing.T) {
	h := newHarness(t)
	if h.c.timeout != 300000*time.Millisecond {
		t.Errorf("timeout = %v, want 300000ms", h.c.timeout)
	}
}

func TestCancelStreaming_DiscardsPartial(t *testing.T) {
	h := newHarness(t)

	if h.c.CancelStreaming() {
		t.Error("CancelStreaming() with no turn = true")
	}

	turn, err := h.c.SendMessage(context.Background(), "stop me")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("partial")

	if !h.c.CancelStreaming() {
		t.Fatal("CancelStreaming() = false, want true")
	}
	r := result(t, turn)
	if r.Outcome != OutcomeCancelled || r.Text != "" {
		t.Errorf("Result() = %+v, want cancelled with no text", r)
	}
	if !stream.isClosed() {
		t.Error("stream not closed by cancel")
	}
	if h.c.State() != StateIdle {
		t.Errorf("State() = %v, want idle", h.c.State())
	}

	// The abandoned goroutine must not commit anything late.
	time.Sleep(20 * time.Millisecond)
	want := "[user:stop me]"
	if got := fmt.Sprint(texts(h.c.Transcript())); got != want {
		t.Errorf("Transcript() = %v, want %v", got, want)
	}
	if got := fmt.Sprint(texts(h.stored(t)[0].Messages)); got != want {
		t.Errorf("stored = %v, want %v", got, want)
	}
}

func TestSendMessage_CallerCancelDiscardsPartial(t *testing.T) {
	h := newHarness(t)
	sub := h.c.Hub().Chat.Subscribe(t.Context())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	turn, err := h.c.SendMessage(ctx, "cancel me")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("half a rep")

	cancel()
	r := result(t, turn)
	if r.Outcome != OutcomeCancelled || r.Text != "" {
		t.Errorf("Result() = %+v, want cancelled with no text", r)
	}
	if !errors.Is(r.Err, context.Canceled) {
		t.Errorf("Result().Err = %v, want context.Canceled", r.Err)
	}
	if h.c.State() != StateIdle {
		t.Errorf("State() = %v, want idle", h.c.State())
	}

	want := "[user:cancel me]"
	if got := fmt.Sprint(texts(h.c.Transcript())); got != want {
		t.Errorf("Transcript() = %v, want %v", got, want)
	}
	if got := fmt.Sprint(texts(h.stored(t)[0].Messages)); got != want {
		t.Errorf("stored = %v, want %v", got, want)
	}

	var sawCancelled bool
	for {
		select {
		case e := <-sub:
			switch e.Payload.Type {
			case events.ChatStreamCancelled:
				sawCancelled = true
			case events.ChatMessageAppended:
				if e.Payload.MessageType == "bot" {
					t.Errorf("bot message appended after cancel: %q", e.Payload.Text)
				}
			}
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	if !sawCancelled {
		t.Error("no stream cancelled event")
	}
}

func TestSubmit_TogglesBetweenSendAndStop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	turn, err := h.c.Submit(ctx, "go")
	if err != nil || turn == nil {
		t.Fatalf("Submit() = %v, %v, want a turn", turn, err)
	}
	h.tr.next(t)

	stopped, err := h.c.Submit(ctx, "ignored")
	if err != nil || stopped != nil {
		t.Errorf("Submit() while streaming = %v, %v, want nil, nil", stopped, err)
	}
	if r := result(t, turn); r.Outcome != OutcomeCancelled {
		t.Errorf("Outcome = %q, want cancelled", r.Outcome)
	}
	if got := h.tr.opens.Load(); got != 1 {
		t.Errorf("transport opens = %d, want 1", got)
	}
}

func TestLoadSession_SavesCurrentFirst(t *testing.T) {
	old := seedSession("session_old", 1600000000000, "old question", "old answer")
	h := newHarness(t, old)
	ctx := context.Background()

	turn, err := h.c.SendMessage(ctx, "new question")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("unfinished")
	current := h.c.CurrentSessionID()

	if err := h.c.LoadSession(ctx, old.ID); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if r := result(t, turn); r.Outcome != OutcomeCancelled {
		t.Errorf("active turn Outcome = %q, want cancelled", r.Outcome)
	}

	if h.c.CurrentSessionID() != old.ID {
		t.Errorf("CurrentSessionID() = %q, want %q", h.c.CurrentSessionID(), old.ID)
	}
	if got := fmt.Sprint(texts(h.c.Transcript())); got != "[user:old question bot:old answer]" {
		t.Errorf("Transcript() = %v", got)
	}

	list := h.stored(t)
	idx := session.Find(list, current)
	if idx < 0 {
		t.Fatalf("previous session %q not saved", current)
	}
	if got := fmt.Sprint(texts(list[idx].Messages)); got != "[user:new question]" {
		t.Errorf("previous session messages = %v", got)
	}
}

func TestLoadSession_MissIsNoop(t *testing.T) {
	h := newHarness(t, seedSession("session_a", 1600000000000, "q", "a"))
	ctx := context.Background()

	if err := h.c.LoadSession(ctx, "session_a"); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	before := fmt.Sprint(texts(h.c.Transcript()))
	writes := h.store.Writes()

	if err := h.c.LoadSession(ctx, "session_missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("LoadSession(missing) error = %v, want ErrSessionNotFound", err)
	}
	if got := fmt.Sprint(texts(h.c.Transcript())); got != before {
		t.Errorf("Transcript() = %v, want unchanged %v", got, before)
	}
	if h.c.CurrentSessionID() != "session_a" {
		t.Errorf("CurrentSessionID() = %q, want unchanged", h.c.CurrentSessionID())
	}
	if h.store.Writes() != writes {
		t.Errorf("store writes = %d, want %d", h.store.Writes(), writes)
	}
}

func TestDeleteSession_PromotesNewest(t *testing.T) {
	h := newHarness(t,
		seedSession("session_mid", 1600000002000, "m"),
		seedSession("session_cur", 1600000001000, "c"),
		seedSession("session_new", 1600000003000, "n"),
		seedSession("session_old", 1600000000000, "o"),
	)
	ctx := context.Background()

	if err := h.c.LoadSession(ctx, "session_cur"); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if err := h.c.DeleteSession(ctx, "session_cur"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	if h.c.CurrentSessionID() != "session_new" {
		t.Errorf("CurrentSessionID() = %q, want session_new (newest)", h.c.CurrentSessionID())
	}
	if got := fmt.Sprint(texts(h.c.Transcript())); got != "[user:n]" {
		t.Errorf("Transcript() = %v", got)
	}
	list := h.stored(t)
	if len(list) != 3 || session.Find(list, "session_cur") >= 0 {
		t.Errorf("stored = %d sessions, want 3 without session_cur", len(list))
	}
}

func TestDeleteSession_LastCreatesFresh(t *testing.T) {
	h := newHarness(t, seedSession("session_only", 1600000000000, "q", "a"))
	ctx := context.Background()

	if err := h.c.LoadSession(ctx, "session_only"); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if err := h.c.DeleteSession(ctx, "session_only"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	id := h.c.CurrentSessionID()
	if id == "session_only" || id == "" {
		t.Errorf("CurrentSessionID() = %q, want a fresh id", id)
	}
	if len(h.c.Transcript()) != 0 {
		t.Errorf("Transcript() = %v, want empty", h.c.Transcript())
	}
	if h.c.Current().Title != h.cat.T(i18n.NewChatTitle) {
		t.Errorf("Title = %q, want placeholder", h.c.Current().Title)
	}
	if got := len(h.stored(t)); got != 0 {
		t.Errorf("stored sessions = %d, want 0", got)
	}
}

func TestDeleteSession_OtherKeepsCurrent(t *testing.T) {
	h := newHarness(t,
		seedSession("session_a", 1600000000000, "a"),
		seedSession("session_b", 1600000001000, "b"),
	)
	ctx := context.Background()

	if err := h.c.LoadSession(ctx, "session_a"); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if err := h.c.DeleteSession(ctx, "session_b"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if h.c.CurrentSessionID() != "session_a" {
		t.Errorf("CurrentSessionID() = %q, want session_a", h.c.CurrentSessionID())
	}
	if err := h.c.DeleteSession(ctx, "session_b"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("DeleteSession(again) error = %v, want ErrSessionNotFound", err)
	}
}

func TestRenameSession(t *testing.T) {
	h := newHarness(t, seedSession("session_a", 1600000000000, "a"))
	ctx := context.Background()

	if err := h.c.RenameSession(ctx, "session_a", "  Trip   plans "); err != nil {
		t.Fatalf("RenameSession() error = %v", err)
	}
	if got := h.stored(t)[0].Title; got != "Trip plans" {
		t.Errorf("stored Title = %q, want %q", got, "Trip plans")
	}
	if err := h.c.RenameSession(ctx, "session_missing", "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("RenameSession(missing) error = %v, want ErrSessionNotFound", err)
	}
	if err := h.c.RenameSession(ctx, "session_a", "   "); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("RenameSession(blank) error = %v, want ErrEmptyTitle", err)
	}

	// A renamed unsaved session keeps its title once it is stored.
	id := h.c.NewSession(ctx)
	if err := h.c.RenameSession(ctx, id, "Mine"); err != nil {
		t.Fatalf("RenameSession(current) error = %v", err)
	}
	if session.Find(h.stored(t), id) >= 0 {
		t.Error("renaming an empty session stored it")
	}
	turn, err := h.c.SendMessage(ctx, "a long first question that would become the title")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	h.tr.next(t).end()
	result(t, turn)

	list := h.stored(t)
	if got := list[session.Find(list, id)].Title; got != "Mine" {
		t.Errorf("Title = %q, want Mine", got)
	}
}

func TestTitleDerivedFromFirstMessage(t *testing.T) {
	h := newHarness(t)

	turn, err := h.c.SendMessage(context.Background(), "How do I configure the Redis backend for hiwar?")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	h.tr.next(t).end()
	result(t, turn)

	want := "How do I configure the Redis b..."
	if got := h.c.Current().Title; got != want {
		t.Errorf("Title = %q, want %q", got, want)
	}
}

func TestClearHistory(t *testing.T) {
	h := newHarness(t, seedSession("session_a", 1600000000000, "a"), seedSession("session_b", 1600000001000, "b"))
	ctx := context.Background()

	if err := h.c.LoadSession(ctx, "session_a"); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if err := h.c.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	if got := len(h.stored(t)); got != 0 {
		t.Errorf("stored sessions = %d, want 0", got)
	}
	if h.c.CurrentSessionID() == "session_a" || len(h.c.Transcript()) != 0 {
		t.Error("ClearHistory() did not reset the transcript")
	}
}

func TestClearTranscript(t *testing.T) {
	h := newHarness(t, seedSession("session_a", 1600000000000, "q", "a"))
	ctx := context.Background()

	if err := h.c.LoadSession(ctx, "session_a"); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if err := h.c.ClearTranscript(ctx); err != nil {
		t.Fatalf("ClearTranscript() error = %v", err)
	}
	if h.c.CurrentSessionID() != "session_a" {
		t.Errorf("CurrentSessionID() = %q, want session_a", h.c.CurrentSessionID())
	}
	list := h.stored(t)
	if len(list) != 1 || len(list[0].Messages) != 0 || list[0].Title != "session_a" {
		t.Errorf("stored = %+v, want session_a kept with no messages", list)
	}
}

func TestRegenerate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.c.Regenerate(ctx); !errors.Is(err, ErrNothingToRegenerate) {
		t.Errorf("Regenerate() on empty error = %v, want ErrNothingToRegenerate", err)
	}

	turn, err := h.c.SendMessage(ctx, "joke")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("bad joke")
	stream.end()
	result(t, turn)

	turn, err = h.c.Regenerate(ctx)
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if got := h.tr.lastRequest().Message; got != "joke" {
		t.Errorf("regenerated request = %q, want joke", got)
	}
	stream = h.tr.next(t)
	stream.send("good joke")
	stream.end()
	result(t, turn)

	want := "[user:joke bot:good joke]"
	if got := fmt.Sprint(texts(h.c.Transcript())); got != want {
		t.Errorf("Transcript() = %v, want %v", got, want)
	}
}

func TestStoreFailureDoesNotEscapeTurn(t *testing.T) {
	fs := &failingStore{Store: session.NewMemoryStore()}
	fs.failWrites.Store(true)
	h := newHarnessWith(t, Config{Store: fs})

	turn, err := h.c.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("there")
	stream.end()

	r := result(t, turn)
	if r.Outcome != OutcomeCompleted || r.Text != "there" {
		t.Errorf("Result() = %+v, want completed", r)
	}
	if got := fmt.Sprint(texts(h.c.Transcript())); got != "[user:hi bot:there]" {
		t.Errorf("Transcript() = %v", got)
	}
	if h.c.State() != StateIdle {
		t.Errorf("State() = %v, want idle", h.c.State())
	}
}

func TestRenderSignals(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chatCh := h.c.Hub().Chat.Subscribe(ctx)
	sessionCh := h.c.Hub().Session.Subscribe(ctx)

	turn, err := h.c.SendMessage(ctx, "hi")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	stream := h.tr.next(t)
	stream.send("a", "b")
	stream.end()
	result(t, turn)

	var got []string
	for len(got) < 6 {
		select {
		case ev := <-chatCh:
			p := ev.Payload
			got = append(got, fmt.Sprintf("%s:%s", p.Type, p.Text))
		case <-time.After(waitTimeout):
			t.Fatalf("received only %v", got)
		}
	}
	want := []string{
		"message_appended:hi",
		"stream_started:",
		"message_updated:a",
		"message_updated:ab",
		"message_appended:ab",
		"stream_finished:",
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("chat events = %v, want %v", got, want)
	}

	sawListChanged := false
	for !sawListChanged {
		select {
		case ev := <-sessionCh:
			if ev.Payload.Type == events.SessionEventListChanged && ev.Payload.Count == 1 {
				sawListChanged = true
			}
		case <-time.After(waitTimeout):
			t.Fatal("no session list change published")
		}
	}
}

func TestChatEventType(t *testing.T) {
	tests := []struct {
		ev   events.ChatEvent
		want pubsub.EventType
	}{
		{events.NewMessageAppendedEvent("s", 1, "user", "x"), pubsub.EventCreated},
		{events.NewMessageUpdatedEvent("s", 1, "x"), pubsub.EventUpdated},
		{events.NewStreamStartedEvent("s", 1), pubsub.EventStarted},
		{events.NewStreamCancelledEvent("s", 1), pubsub.EventCancelled},
		{events.NewStreamFinishedEvent("s", 1, "completed", nil), pubsub.EventCompleted},
		{events.NewStreamFinishedEvent("s", 1, "failed", errDisk), pubsub.EventFailed},
		{events.NewTranscriptResetEvent("s"), pubsub.EventUpdated},
	}
	for _, tt := range tests {
		if got := chatEventType(tt.ev); got != tt.want {
			t.Errorf("chatEventType(%s) = %q, want %q", tt.ev.Type, got, tt.want)
		}
	}
}

func TestExportMarkdown(t *testing.T) {
	h := newHarness(t, seedSession("session_a", 1600000000000, "q", "a"))
	ctx := context.Background()

	if _, err := h.c.ExportMarkdown(); !errors.Is(err, session.ErrNothingToExport) {
		t.Errorf("ExportMarkdown() on empty error = %v, want ErrNothingToExport", err)
	}
	if err := h.c.LoadSession(ctx, "session_a"); err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	md, err := h.c.ExportMarkdown()
	if err != nil {
		t.Fatalf("ExportMarkdown() error = %v", err)
	}
	if !strings.HasPrefix(md, "# session_a\n") {
		t.Errorf("ExportMarkdown() = %q, want title heading", md)
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateIdle:       "idle",
		StateSending:    "sending",
		StateStreaming:  "streaming",
		StateCompleting: "completing",
		StateFailed:     "failed",
		State(99):       "unknown",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
