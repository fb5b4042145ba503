package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ridezone/intakebot/internal/messaging"
	"github.com/ridezone/intakebot/internal/models"
	"github.com/ridezone/intakebot/internal/store"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Server wires the HTTP endpoints to the store and the inbound dispatcher.
type Server struct {
	store      store.Store
	dispatcher *messaging.Dispatcher
	httpServer *http.Server
}

// NewServer creates an API server.
func NewServer(st store.Store, dispatcher *messaging.Dispatcher, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{store: st, dispatcher: dispatcher}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Routes builds the request mux. Exposed so tests can drive handlers through
// httptest without binding a socket.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhooks/twilio", s.twilioWebhookHandler)
	mux.HandleFunc("/api/conversations", s.conversationsHandler)
	mux.HandleFunc("/api/conversations/", s.conversationHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until the context is canceled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API server shutdown failed: %w", err)
		}
		return nil
	}
}

// twilioWebhookHandler receives Twilio's form-encoded inbound SMS callback.
// The reply is sent out of band through the messaging service, so the TwiML
// response is always empty.
func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.twilioWebhookHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.twilioWebhookHandler: failed to parse form", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	msg := models.InboundMessage{
		From:       r.PostFormValue("From"),
		To:         r.PostFormValue("To"),
		Body:       r.PostFormValue("Body"),
		ReceivedAt: time.Now(),
	}
	if msg.From == "" || msg.To == "" {
		slog.Warn("Server.twilioWebhookHandler: missing From or To")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := s.dispatcher.HandleInbound(r.Context(), msg); err != nil {
		slog.Error("Server.twilioWebhookHandler: inbound handling failed", "error", err)
		// Twilio retries on 5xx. Processing errors here are not transient,
		// so acknowledge receipt and rely on logs for follow-up.
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("<Response></Response>")); err != nil {
		slog.Error("Server.twilioWebhookHandler: failed to write TwiML response", "error", err)
	}
}

// conversationsHandler lists conversations in a zone (GET) or opens a
// staff-initiated conversation (POST).
func (s *Server) conversationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		s.listConversations(w, r)
	case http.MethodPost:
		s.startStaffConversation(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	zoneID := r.URL.Query().Get("zone")
	if zoneID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("zone query parameter is required"))
		return
	}
	convs, err := s.store.ListConversations(zoneID)
	if err != nil {
		slog.Error("Server.listConversations: store error", "error", err, "zone", zoneID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list conversations"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(convs))
}

// startStaffConversationRequest is the POST /api/conversations payload.
type startStaffConversationRequest struct {
	Phone      string `json:"phone"`
	RideZoneID string `json:"ride_zone_id"`
	Body       string `json:"body"`
}

func (s *Server) startStaffConversation(w http.ResponseWriter, r *http.Request) {
	var req startStaffConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.startStaffConversation: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Phone == "" || req.RideZoneID == "" || req.Body == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("phone, ride_zone_id and body are required"))
		return
	}

	conv, err := s.dispatcher.StartStaffConversation(r.Context(), req.Phone, req.RideZoneID, req.Body)
	if err != nil {
		slog.Error("Server.startStaffConversation: failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start conversation"))
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(conv))
}

// conversationDetail is the GET /api/conversations/{id} result.
type conversationDetail struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []models.Message     `json:"messages"`
}

// conversationHandler returns one conversation with its message log.
func (s *Server) conversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	if id == "" || strings.Contains(id, "/") {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid conversation id"))
		return
	}

	conv, err := s.store.GetConversation(id)
	if err != nil {
		slog.Error("Server.conversationHandler: store error", "error", err, "conversation_id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get conversation"))
		return
	}
	if conv == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
		return
	}
	msgs, err := s.store.ListMessages(id)
	if err != nil {
		slog.Error("Server.conversationHandler: failed to list messages", "error", err, "conversation_id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list messages"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(conversationDetail{Conversation: conv, Messages: msgs}))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}
