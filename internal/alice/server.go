package alice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/avoronova/plainnews/common/trace"
	"github.com/avoronova/plainnews/internal/dates"
	"github.com/avoronova/plainnews/internal/dialog"
)

const defaultTurnTimeout = 4 * time.Second

// TurnHandler is what the server needs from the dialog layer.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionID string, newSession bool, utterance string, ent *dates.Entity) string
}

// ServerConfig holds webhook server tunables.
type ServerConfig struct {
	// Addr is the TCP address to listen on.
	Addr string
	// TurnTimeout bounds one turn; past it the server answers with the
	// apology instead of letting the platform give up on the request.
	// Defaults to 4 seconds.
	TurnTimeout time.Duration
}

// Server is the webhook HTTP server. GET / is the liveness probe; POST / is
// one dialog turn.
type Server struct {
	addr    string
	handler TurnHandler
	timeout time.Duration
	mux     *http.ServeMux
	server  *http.Server
}

// NewServer creates and configures the server (does not start it).
func NewServer(handler TurnHandler, cfg ServerConfig) *Server {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	mux := http.NewServeMux()
	s := &Server{
		addr:    cfg.Addr,
		handler: handler,
		timeout: cfg.TurnTimeout,
		mux:     mux,
	}
	mux.HandleFunc("/", s.handleRoot)
	return s
}

// ServeHTTP implements http.Handler so the server can be tested without a
// live network listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start begins listening in the background. Blocks until the listener is
// established so the caller knows the port is open before returning.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("webhook server: listen %s: %w", s.addr, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("webhook server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("webhook server stopped", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("webhook server shutdown error", "err", err)
		}
	}()

	return nil
}

// Stop shuts down the HTTP server.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Warn("webhook server shutdown error", "err", err)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "ok")
	case http.MethodPost:
		s.handleTurn(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTurn runs one dialog turn. Whatever goes wrong past decoding, the
// platform gets HTTP 200 with a spoken reply: a transport error would read
// to the user as the skill breaking mid-sentence.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("webhook: undecodable request", "err", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx := trace.WithID(r.Context(), trace.NewID())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		done <- s.runTurn(ctx, &req)
	}()

	var text string
	select {
	case text = <-done:
	case <-ctx.Done():
		slog.Warn("webhook: turn deadline exceeded",
			"turn", trace.FromContext(ctx),
			"session", req.Session.SessionID)
		text = dialog.PhraseApology
	}

	resp := Response{
		Response: Reply{Text: text, EndSession: false},
		Version:  req.Version,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("webhook: failed to encode response", "err", err)
	}
}

// runTurn calls the dialog layer, converting a panic into the apology so a
// single broken turn cannot take the request down with it.
func (s *Server) runTurn(ctx context.Context, req *Request) (text string) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("webhook: turn panicked",
				"turn", trace.FromContext(ctx),
				"session", req.Session.SessionID,
				"panic", p)
			text = dialog.PhraseApology
		}
	}()
	return s.handler.HandleTurn(ctx,
		req.Session.SessionID,
		req.Session.New,
		req.Request.OriginalUtterance,
		req.Request.DateEntity())
}
