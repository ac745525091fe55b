// Package http exposes the engine over webhooks: inbound SMS, the delayed
// inactivity callback and donor confirmations.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is the part of donorline.Engine the webhooks drive.
type Engine interface {
	HandleMessage(ctx context.Context, from, text string) (string, error)
	CheckInactivity(ctx context.Context, phone string) (bool, error)
	ConfirmDonor(ctx context.Context, name, amount, phone string) error
}

// Server holds the webhook handlers.
type Server struct {
	Engine  Engine
	Version string

	logger      *slog.Logger
	metrics     http.Handler
	twilioToken string
	publicURL   string
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts h (usually promhttp.Handler()) at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithTwilioSignature rejects inbound SMS whose X-Twilio-Signature does not
// match. publicURL is the externally visible base URL Twilio posts to.
func WithTwilioSignature(authToken, publicURL string) Option {
	return func(s *Server) {
		s.twilioToken = authToken
		s.publicURL = strings.TrimRight(publicURL, "/")
	}
}

// WithVersion is reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates the webhook router for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	server := &Server{
		Engine:  engine,
		Version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	validate, err := validateRequests(doc, server.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", server.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(validate)
		r.With(server.verifyTwilio).Post("/sms", server.ReceiveSMS)
		r.Post("/messagecollab", server.ReceiveMessageCollab)
		r.Post("/check-inactivity", server.CheckInactivity)
		r.Post("/send-donation-confirmation-to-donor", server.ConfirmDonor)
	})

	return r, nil
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>donorline webhooks</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type inboundSMS struct {
	From    string `mapstructure:"from"`
	Body    string `mapstructure:"body"`
	Message string `mapstructure:"message"`
	MID     string `mapstructure:"mId"`
}

type inactivityCheck struct {
	Phone string `mapstructure:"phone"`
}

type donorConfirmation struct {
	Name        string `mapstructure:"name"`
	Amount      string `mapstructure:"amount"`
	PhoneNumber string `mapstructure:"phoneNumber"`
}

// ReceiveSMS handles POST /api/sms.
func (s *Server) ReceiveSMS(w http.ResponseWriter, r *http.Request) {
	var in inboundSMS
	if err := decodePayload(r, &in); err != nil {
		s.logger.Warn("ReceiveSMS: invalid request body", logging.Err(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.handleInbound(w, r, in.From, in.Body)
}

// ReceiveMessageCollab handles POST /api/messagecollab.
func (s *Server) ReceiveMessageCollab(w http.ResponseWriter, r *http.Request) {
	var in inboundSMS
	if err := decodePayload(r, &in); err != nil {
		s.logger.Warn("ReceiveMessageCollab: invalid request body", logging.Err(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.MID != "" {
		s.logger.Debug("MessageCollab message received", slog.String("mId", in.MID))
	}
	s.handleInbound(w, r, in.From, in.Message)
}

func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request, from, body string) {
	from = strings.TrimSpace(from)
	body = strings.TrimSpace(body)
	if from == "" || body == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	if _, err := s.Engine.HandleMessage(r.Context(), from, body); err != nil {
		s.logger.Error("Inbound SMS failed", logging.Phone(from), logging.Err(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// CheckInactivity handles POST /api/check-inactivity.
func (s *Server) CheckInactivity(w http.ResponseWriter, r *http.Request) {
	var in inactivityCheck
	if err := decodePayload(r, &in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		http.Error(w, "Missing phone", http.StatusBadRequest)
		return
	}

	if _, err := s.Engine.CheckInactivity(r.Context(), phone); err != nil {
		s.logger.Error("Inactivity check failed", logging.Phone(phone), logging.Err(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ConfirmDonor handles POST /api/send-donation-confirmation-to-donor.
func (s *Server) ConfirmDonor(w http.ResponseWriter, r *http.Request) {
	var in donorConfirmation
	if err := decodePayload(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Amount) == "" || strings.TrimSpace(in.PhoneNumber) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing required fields: name, amount, phoneNumber"})
		return
	}

	err := s.Engine.ConfirmDonor(r.Context(), in.Name, in.Amount, in.PhoneNumber)
	var verr *validator.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid phone number format: " + verr.Reason})
		return
	case err != nil:
		s.logger.Error("Donor confirmation failed", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Confirmation sent successfully"})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
