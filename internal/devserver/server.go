// Package devserver is a local stand-in for the chat server. It speaks
// the same text/event-stream format on /stream-chat but has no model:
// replies come from a Responder.
package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/telemetry"
)

// StreamPath is where the chat stream is served.
const StreamPath = "/stream-chat"

// Responder produces the chunks of a reply. A non-nil error is sent as
// an error event after the chunks.
type Responder func(ctx context.Context, message, sessionID string) ([]string, error)

// Options configures a Server.
type Options struct { //nolint:govet // fieldalignment: preserving logical field order
	Responder  Responder // defaults to Echo
	ChunkDelay time.Duration
	Logger     *zap.Logger
	Metrics    *telemetry.ServerMetrics
	Gatherer   prometheus.Gatherer // serves /metrics when set
}

// Server is the development stream server.
type Server struct {
	engine    *gin.Engine
	logger    *zap.Logger
	metrics   *telemetry.ServerMetrics
	responder Responder
	delay     time.Duration
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		responder: opts.Responder,
		delay:     opts.ChunkDelay,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.responder == nil {
		s.responder = Echo
	}

	r := gin.New()
	r.Use(zapLoggerMiddleware(s.logger), gin.Recovery(), metricsMiddleware(s.metrics))

	r.GET(StreamPath, s.streamChat)
	r.POST(StreamPath, s.streamChat)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(telemetry.Handler(opts.Gatherer)))
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting dev server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type streamRequest struct {
	Message          string `json:"message" form:"message"`
	SessionID        string `json:"session_id" form:"session_id"`
	CurrentSessionID string `json:"current_session_id" form:"current_session_id"`
}

func (s *Server) streamChat(c *gin.Context) {
	cat := i18n.New(i18n.MatchHeader(c.GetHeader("Accept-Language")))

	var req streamRequest
	var err error
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBindQuery(&req)
	}
	if err != nil {
		s.logger.Warn("invalid stream request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": cat.Tf(i18n.ServerError, err.Error())})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": cat.T(i18n.EnterMessage)})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.CurrentSessionID
	}

	ctx := c.Request.Context()
	chunks, replyErr := s.responder(ctx, req.Message, sessionID)

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for i, chunk := range chunks {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.delay):
			}
		}
		if err := writeEvent(c, "", encodeChunk(chunk)); err != nil {
			return
		}
		s.metrics.ChunkSent()
	}

	if replyErr != nil {
		s.logger.Warn("responder failed", zap.String("session_id", sessionID), zap.Error(replyErr))
		_ = writeEvent(c, "error", encodeChunk(cat.Tf(i18n.ServerError, replyErr.Error())))
		return
	}
	_ = writeEvent(c, "end", "complete")
}

func writeEvent(c *gin.Context, event, data string) error {
	if err := c.Request.Context().Err(); err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(c.Writer, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// encodeChunk writes chunk as a JSON string literal, leaving non-ASCII
// and HTML characters unescaped.
func encodeChunk(chunk string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(chunk)
	return strings.TrimSuffix(buf.String(), "\n")
}

// Echo replies with the message back, one word per chunk.
func Echo(_ context.Context, message, _ string) ([]string, error) {
	words := strings.Fields("echo: " + message)
	chunks := make([]string, len(words))
	for i, w := range words {
		if i < len(words)-1 {
			w += " "
		}
		chunks[i] = w
	}
	return chunks, nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func metricsMiddleware(m *telemetry.ServerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.FullPath() == StreamPath {
			m.Request(strconv.Itoa(c.Writer.Status()))
		}
	}
}
