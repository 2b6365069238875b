package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
)

const (
	eventEnd   = "end"
	eventError = "error"

	maxLineSize  = 1 << 20
	maxErrorBody = 4 << 10
)

// SSE opens turns as GET requests answered with text/event-stream.
type SSE struct {
	client  *http.Client
	headers map[string]string
	url     string
}

// Option configures an SSE transport.
type Option func(*SSE)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SSE) { s.client = c }
}

// WithHeaders adds headers to every request.
func WithHeaders(h map[string]string) Option {
	return func(s *SSE) {
		for k, v := range h {
			s.headers[k] = v
		}
	}
}

// NewSSE returns a transport streaming from streamURL.
func NewSSE(streamURL string, opts ...Option) *SSE {
	s := &SSE{
		client:  http.DefaultClient,
		headers: make(map[string]string),
		url:     streamURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open sends the turn and returns the reply stream.
func (s *SSE) Open(ctx context.Context, req Request) (Stream, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("parsing stream url: %w", err)
	}
	q := u.Query()
	q.Set("message", req.Message)
	q.Set("current_session_id", req.CurrentSessionID)
	q.Set("session_id", req.CurrentSessionID)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	for k, v := range s.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.client.Do(httpReq) //nolint:bodyclose // closed by the returned stream.
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &sseStream{body: resp.Body, scanner: scanner, cancel: cancel}, nil
}

// errorMessage extracts {"error": "..."} bodies and falls back to the
// trimmed text.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error"); msg.Exists() {
			return msg.String()
		}
	}
	return strings.TrimSpace(string(body))
}

type sseStream struct {
	body      io.ReadCloser
	cancel    context.CancelFunc
	scanner   *bufio.Scanner
	closeOnce sync.Once
	closed    atomic.Bool
	done      bool
}

func (s *sseStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	var (
		event   string
		data    []string
		hasData bool
	)
	for s.scanner.Scan() {
		line := strings.TrimSuffix(s.scanner.Text(), "\r")

		if line == "" {
			if !hasData && event == "" {
				continue
			}
			chunk, ok, err := s.dispatch(event, strings.Join(data, "\n"))
			event, data, hasData = "", data[:0], false
			if ok {
				return chunk, err
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data = append(data, value)
			hasData = true
		}
	}

	if s.closed.Load() {
		return "", ErrClosed
	}
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stream: %w", err)
	}
	return "", ErrUnexpectedEOF
}

// dispatch handles one complete event. The bool is false for events the
// client does not act on.
func (s *sseStream) dispatch(event, data string) (string, bool, error) {
	switch event {
	case "", "message":
		return decodeChunk(data), true, nil
	case eventEnd:
		s.done = true
		return "", true, io.EOF
	case eventError:
		return "", true, &ServerError{Message: decodeChunk(data)}
	default:
		return "", false, nil
	}
}

// decodeChunk unwraps chunks sent as JSON string literals and keeps
// anything else verbatim.
func decodeChunk(data string) string {
	if gjson.Valid(data) {
		if v := gjson.Parse(data); v.Type == gjson.String {
			return v.String()
		}
	}
	return data
}

func (s *sseStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		err = s.body.Close()
	})
	return err
}
