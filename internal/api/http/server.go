package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/infobot/infobot/internal/domain/payment"
	"github.com/infobot/infobot/internal/infrastructure/yookassa"
)

const maxBodyBytes = 1 << 20

// Resolver applies a provider webhook outcome to the payment state machine.
type Resolver interface {
	Resolve(ctx context.Context, kind payment.EventKind, paymentID string) error
}

// OriginChecker validates the network origin of a webhook call.
type OriginChecker interface {
	Contains(addr string) bool
}

// Server hosts the payment webhook.
type Server struct {
	resolver Resolver
	origins  OriginChecker
	prefix   string
	logger   zerolog.Logger
}

// NewServer creates the webhook server. prefix is the service route prefix,
// e.g. "/infobot".
func NewServer(resolver Resolver, origins OriginChecker, prefix string, logger zerolog.Logger) *Server {
	return &Server{
		resolver: resolver,
		origins:  origins,
		prefix:   prefix,
		logger:   logger.With().Str("component", "webhook").Logger(),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route(s.prefix, func(r chi.Router) {
		r.Post("/payment", s.handlePayment)
	})
	return r
}

// handlePayment reconciles one provider event. Untrusted origins are
// rejected before any state is read. A failed coordinator update returns a
// non-2xx status so the provider redelivers the event; error detail never
// reaches the caller.
func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !s.origins.Contains(ip) {
		s.logger.Warn().Str("ip", ip).Msg("webhook origin not trusted")
		respondError(w, http.StatusBadRequest, "INVALID_ORIGIN", "request origin is not trusted")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_EVENT", "unreadable request body")
		return
	}

	kind, paymentID, err := yookassa.ParseEvent(body)
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook event rejected")
		respondError(w, http.StatusBadRequest, "INVALID_EVENT", "unrecognized event")
		return
	}

	s.logger.Info().Str("event", string(kind)).Str("payment_id", paymentID).Msg("webhook event received")
	if err := s.resolver.Resolve(r.Context(), kind, paymentID); err != nil {
		s.logger.Error().Err(err).Str("payment_id", paymentID).Msg("webhook reconciliation failed")
		respondError(w, http.StatusInternalServerError, "RECONCILE_FAILED", "event not applied")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}
