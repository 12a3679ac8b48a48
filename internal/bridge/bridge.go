// Package bridge exposes the persona over HTTP for a hosted agent network.
// Each request carries one message and receives one sanitized reply.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"personabot/internal/logging"
	"personabot/internal/types"
)

// MessageRequest is the body of POST /api/message.
type MessageRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// MessageResponse is the reply to POST /api/message.
type MessageResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversation_id"`
	Capability     string `json:"capability,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Domain string `json:"domain"`
}

// Farewell is returned for exit commands; a bridge has no session to end.
const Farewell = "Até logo! Thanks for chatting with me! 👋"

// Config configures the bridge.
type Config struct {
	// Addr is the listen address, e.g. ":6000".
	Addr   string
	Domain string

	Responder types.Responder

	// InfoText renders help and about screens as plain text. Optional.
	InfoText func(types.InfoKind) string

	// RequestTimeout bounds one reply. Zero means no limit.
	RequestTimeout time.Duration
	// MaxBodyBytes bounds the request body. Defaults to 64 KiB.
	MaxBodyBytes int64
}

// Handler serves the bridge endpoints. Replies are produced one at a time.
type Handler struct {
	cfg Config
	sem chan struct{}
}

// NewHandler creates the HTTP handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Responder == nil {
		return nil, errors.New("bridge requires a responder")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	return &Handler{cfg: cfg, sem: make(chan struct{}, 1)}, nil
}

// Routes returns the mux with all routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/message", h.Message)
	mux.HandleFunc("GET /healthz", h.Health)
	return mux
}

// Message handles POST /api/message.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		h.writeError(w, http.StatusBadRequest, "empty_message", "message is required")
		return
	}
	convID := req.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}

	ctx := r.Context()
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	case <-ctx.Done():
		h.writeError(w, http.StatusServiceUnavailable, "canceled", ctx.Err().Error())
		return
	}

	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	timer := logging.StartTimer(logging.CategoryBridge, "message")
	reply, err := h.cfg.Responder.Respond(ctx, text)
	timer.Stop()
	if err != nil {
		logging.BridgeError("conversation %s: %v", convID, err)
		h.writeError(w, http.StatusBadGateway, "reply_failed", err.Error())
		return
	}

	out := MessageResponse{ConversationID: convID, Capability: reply.Capability}
	switch {
	case reply.Exit:
		out.Reply = Farewell
	case reply.Info != types.InfoNone:
		if h.cfg.InfoText != nil {
			out.Reply = h.cfg.InfoText(reply.Info)
		}
	default:
		out.Reply = reply.Text
	}
	logging.Bridge("conversation %s: replied with %d chars", convID, len(out.Reply))
	h.writeJSON(w, http.StatusOK, out)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Domain: h.cfg.Domain})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.BridgeError("failed to encode JSON response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// Server wraps the handler with an http.Server for lifecycle management.
type Server struct {
	handler  *Handler
	server   *http.Server
	listener net.Listener
}

// NewServer binds cfg.Addr and prepares the server.
func NewServer(cfg Config) (*Server, error) {
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	return &Server{
		handler:  handler,
		listener: listener,
		server: &http.Server{
			Handler:           handler.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
		},
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Serve runs until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Bridge("serving on %s for %s", s.Addr(), s.handler.cfg.Domain)
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Bridge("shutting down")
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

