// Package httpapi exposes the local control surface: status, manual sends,
// event simulation, gating control and logout. It is meant to be bound to
// localhost; there is no authentication layer.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zapzap/zapzap-assist/internal/assistant"
	"github.com/zapzap/zapzap-assist/internal/database"
	"github.com/zapzap/zapzap-assist/internal/whatsapp"
)

// EventInjector feeds simulated events into the inbound pipeline.
// Satisfied by whatsapp.SimSession.
type EventInjector interface {
	Inject(batch ...whatsapp.Event) bool
}

// Deps bundles the collaborators the control surface operates on.
type Deps struct {
	Addr       string
	Session    whatsapp.Session
	Store      database.Store
	GateKeeper *assistant.GateKeeper
	Sequencer  *assistant.Sequencer
	Injector   EventInjector
	Logger     *slog.Logger
}

// Server is the HTTP control surface.
type Server struct {
	deps    Deps
	log     *slog.Logger
	srv     *http.Server
	started time.Time
}

// NewServer builds the server and its routes.
func NewServer(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		deps:    deps,
		log:     log.With("component", "httpapi"),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /send", s.handleSend)
	mux.HandleFunc("POST /simulate", s.handleSimulate)
	mux.HandleFunc("POST /simulate-audio", s.handleSimulateAudio)
	mux.HandleFunc("POST /ai-settings", s.handleAISettings)
	mux.HandleFunc("POST /logout", s.handleLogout)

	s.srv = &http.Server{
		Addr:              deps.Addr,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Control surface listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	dbOK := s.deps.Store.Ping(r.Context()) == nil
	writeJSON(w, http.StatusOK, map[string]any{
		"connected":      s.deps.Session.Connected(),
		"database":       dbOK,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

type sendRequest struct {
	JID     string `json:"jid"`
	Message string `json:"message"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.JID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "jid and message are required")
		return
	}

	formatted := assistant.FormatReply(req.Message)
	if err := s.deps.Sequencer.Deliver(r.Context(), req.JID, formatted); err != nil {
		s.log.Error("Manual send failed", "jid", req.JID, "error", err)
		writeError(w, http.StatusBadGateway, "send failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": true})
}

type simulateRequest struct {
	JID      string `json:"jid"`
	Message  string `json:"message"`
	PushName string `json:"push_name"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.JID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "jid and message are required")
		return
	}

	ok := s.deps.Injector.Inject(whatsapp.Event{
		SenderJID: req.JID,
		PushName:  req.PushName,
		Kind:      whatsapp.KindText,
		Text:      req.Message,
	})
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "event loop not accepting events")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
}

type simulateAudioRequest struct {
	JID      string `json:"jid"`
	Path     string `json:"path"`
	PushName string `json:"push_name"`
}

func (s *Server) handleSimulateAudio(w http.ResponseWriter, r *http.Request) {
	var req simulateAudioRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.JID == "" || req.Path == "" {
		writeError(w, http.StatusBadRequest, "jid and path are required")
		return
	}

	ok := s.deps.Injector.Inject(whatsapp.Event{
		SenderJID: req.JID,
		PushName:  req.PushName,
		Kind:      whatsapp.KindAudio,
		AudioPath: req.Path,
	})
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "event loop not accepting events")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
}

type aiSettingsRequest struct {
	JID           string  `json:"jid"`
	Mode          string  `json:"mode"`
	DurationHours float64 `json:"duration_hours"`
}

func (s *Server) handleAISettings(w http.ResponseWriter, r *http.Request) {
	var req aiSettingsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.JID == "" || req.Mode == "" {
		writeError(w, http.StatusBadRequest, "jid and mode are required")
		return
	}

	pauseFor := time.Duration(req.DurationHours * float64(time.Hour))
	if err := s.deps.GateKeeper.SetMode(r.Context(), req.JID, req.Mode, pauseFor); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jid": req.JID, "mode": req.Mode})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.Logout(r.Context()); err != nil {
		s.log.Error("Logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
