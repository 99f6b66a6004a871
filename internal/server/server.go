// Package server exposes the order pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/banky/hl-agent/exchange"
	"github.com/banky/hl-agent/types"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Config struct {
	Exchange *exchange.Exchange
	// CORSOrigins are the allowed browser origins. Empty allows any.
	CORSOrigins []string
	Logger      *zap.Logger
	// Clock stamps responses. Defaults to time.Now.
	Clock func() time.Time
}

// Server handles the order, signing and balance endpoints
type Server struct {
	exchange *exchange.Exchange
	router   *mux.Router
	handler  http.Handler
	logger   *zap.Logger
	now      func() time.Time
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	s := &Server{
		exchange: cfg.Exchange,
		router:   mux.NewRouter(),
		logger:   logger,
		now:      now,
	}
	s.setupRoutes()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(s.router)

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/open", s.handleOpen).Methods(http.MethodPost)
	s.router.HandleFunc("/close", s.handleClose).Methods(http.MethodPost)
	s.router.HandleFunc("/sign", s.handleSign).Methods(http.MethodPost)
	s.router.HandleFunc("/balance/{address}", s.handleBalance).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler is the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	network := "testnet"
	if s.exchange.IsMainnet() {
		network = "mainnet"
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Network: network})
}

// ==============================
// Helpers
// ==============================

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return types.Errorf(types.KindInputValidation, "invalid JSON body: %s", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	kind := types.KindOf(err)

	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Info("request rejected", fields...)
	}

	respondJSON(w, status, errorResponse{
		Success: false,
		Error: errorBody{
			Kind:    string(kind),
			Message: types.MessageOf(err),
		},
	})
}

// statusFor maps an error kind to the HTTP status of the error response.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInputValidation), errors.Is(err, types.ErrZeroOrderSize):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrVenueRejected), errors.Is(err, types.ErrPriceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
