package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"voxsearch/internal/domain"
	"voxsearch/internal/infra/breaker"
	"voxsearch/internal/infra/metrics"
)

const (
	maxBodyBytes = 64 << 10

	msgInvalidInput = "Invalid input text"
	msgProcessing   = "Error processing the request"
	msgUnavailable  = "Service temporarily unavailable"
)

// Processor turns user text into generated text.
type Processor interface {
	Process(ctx context.Context, text string) (string, error)
}

type Config struct {
	Addr           string
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
	TrustedProxies []string
}

type Server struct {
	cfg         Config
	relay       Processor
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
	mux         *http.ServeMux
	rateLimiter *RateLimiter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	running  bool
}

func NewServer(cfg Config, relay Processor, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 30
	}
	if cfg.RateWindow == 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	s := &Server{
		cfg:         cfg,
		relay:       relay,
		metrics:     m,
		gatherer:    gatherer,
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
	}
	s.rateLimiter.onReject = m.RateLimitedTotal.Inc
	trusted, err := ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Warn("ignoring trusted proxies", "error", err)
	}
	s.rateLimiter.trusted = trusted

	s.handle("POST /api/search", s.rateLimiter.Middleware(s.handleSearch(false)))
	s.handle("POST /gemini-1.5-flash", s.rateLimiter.Middleware(s.handleSearch(true)))
	s.handle("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return s
}

// Handler is the full middleware chain: CORS, request IDs, routes.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	return c.Handler(withRequestID(s.mux))
}

// Start binds the listen address and serves in the background. Bind
// failures are returned.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srv := s.server
	go func() {
		s.logger.Info("relay server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

// Addr is the bound address while running, or the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.listener = nil
	s.running = false
	return nil
}

type searchRequest struct {
	Text        *string `json:"text"`
	Input       *string `json:"input"`
	SubmittedAt any     `json:"submittedAt"`
	Timestamp   any     `json:"timestamp"`
}

type searchResponse struct {
	Result      string `json:"result"`
	Text        string `json:"text"`
	SubmittedAt any    `json:"submittedAt,omitempty"`
	RequestID   string `json:"requestId"`

	// legacy field names
	Input      string `json:"input,omitempty"`
	Timestamp  any    `json:"timestamp,omitempty"`
	AIResponse string `json:"aiResponse,omitempty"`
}

func (s *Server) handleSearch(legacy bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := RequestIDFrom(r.Context())
		logger := s.logger.With("request_id", requestID)

		var req searchRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			logger.Warn("decoding search request", "error", err)
			writeError(w, http.StatusBadRequest, msgInvalidInput)
			return
		}

		text := req.Text
		if text == nil {
			text = req.Input
		}
		if text == nil || strings.TrimSpace(*text) == "" {
			writeError(w, http.StatusBadRequest, msgInvalidInput)
			return
		}

		submittedAt := req.SubmittedAt
		if submittedAt == nil {
			submittedAt = req.Timestamp
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
		defer cancel()

		started := time.Now()
		result, err := s.relay.Process(ctx, *text)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrEmptySubmission):
				writeError(w, http.StatusBadRequest, msgInvalidInput)
			case errors.Is(err, breaker.ErrUnavailable):
				logger.Warn("generator unavailable", "error", err)
				writeError(w, http.StatusServiceUnavailable, msgUnavailable)
			default:
				logger.Error("processing search", "error", err)
				writeError(w, http.StatusInternalServerError, msgProcessing)
			}
			return
		}

		logger.Info("search processed", "chars", len(*text), "duration", time.Since(started))

		resp := searchResponse{
			Result:      result,
			Text:        *text,
			SubmittedAt: submittedAt,
			RequestID:   requestID,
		}
		if legacy {
			resp.Input = *text
			resp.Timestamp = submittedAt
			resp.AIResponse = result
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "running": running})
}

// handle registers h and counts its responses under the route pattern.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.HTTPRequestsTotal.WithLabelValues(method, path, fmt.Sprint(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
