package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jpalmerr/prewarm/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown, including in-flight warm batches.
	// Batches still running when it expires are abandoned.
	shutdownTimeout = 5 * time.Second

	// maxPayloadSize bounds the invocation payload accepted by POST /api/warm.
	maxPayloadSize = 1 << 20 // 1MB
)

// WarmFunc runs one warm invocation for a raw JSON payload and returns the
// HTTP status code and the value to encode as the response body.
type WarmFunc func(ctx context.Context, payload []byte) (statusCode int, body any)

// Server is the HTTP trigger for warm invocations.
//
// Server provides four endpoints:
//   - POST /api/warm: Runs a warm invocation for a {"filename", "cloudfront_url"} payload
//   - GET /api/outcomes: Returns the latest outcome per edge node as JSON
//   - GET /api/sse: Server-Sent Events stream of outcomes as nodes finish
//   - GET /healthz: Liveness probe
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	warm       WarmFunc
	httpServer *http.Server
	logger     *slog.Logger

	// warms tracks handleWarm calls still running.
	warms sync.WaitGroup
	done  chan struct{}
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store with the latest outcome per node
//   - port: TCP port to listen on
//   - warm: Function that runs a warm invocation
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, warm WarmFunc, logger *slog.Logger) *Server {
	return &Server{
		store:  st,
		port:   port,
		warm:   warm,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Done returns a channel that is closed once the server has shut down after
// its Start context was cancelled: the listener is closed and in-flight warm
// batches have finished, or shutdownTimeout has expired.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Routes returns the server's router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/warm", s.handleWarm)
		r.Get("/outcomes", s.handleOutcomes)
		r.Get("/sse", s.handleSSE)
	})

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server runs until the context is cancelled, then shuts
// down gracefully.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE streams end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
		s.waitForWarms(shutdownCtx)
	}()

	return nil
}

// waitForWarms blocks until every in-flight warm batch returns or ctx expires.
func (s *Server) waitForWarms(ctx context.Context) {
	drained := make(chan struct{})
	go func() {
		s.warms.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		s.logger.Warn("shutdown timed out with warm batches in flight",
			"timeout", shutdownTimeout.String(),
		)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleWarm runs a warm invocation.
//
// The batch is detached from the request's cancellation: a caller that hangs
// up does not abort warming for the remaining nodes.
func (s *Server) handleWarm(w http.ResponseWriter, r *http.Request) {
	s.warms.Add(1)
	defer s.warms.Done()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"}, s.logger)
			return
		}
		s.logger.Warn("failed to read warm payload", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"}, s.logger)
		return
	}

	status, body := s.warm(context.WithoutCancel(r.Context()), payload)
	writeJSON(w, status, body, s.logger)
}

// handleOutcomes returns the latest outcome per node as JSON.
func (s *Server) handleOutcomes(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, s.store.GetAll(), s.logger)
}

// handleSSE streams outcomes via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, outcome := range s.store.GetAll() {
		data, err := json.Marshal(outcome)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case outcome, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(outcome)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown (BaseContext)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
