// Package api provides the local HTTP control surface for a running lock.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"

	"curlock/internal/config"
	"curlock/internal/protocol"
)

// Server exposes status and unlock control over HTTP and WebSocket. It
// never performs the revert itself; it hands unlock requests to the
// controller's shutdown path through the onUnlock callback.
type Server struct {
	configMgr *config.Manager
	token     string
	status    func() protocol.StatusPayload
	onUnlock  func(origin string)
	wsMgr     *WSManager
}

// NewServer creates a new control API server. status supplies the current
// lock state for /api/status and new WebSocket clients; onUnlock is invoked
// once per accepted unlock request.
func NewServer(configMgr *config.Manager, status func() protocol.StatusPayload, onUnlock func(origin string)) *Server {
	s := &Server{
		configMgr: configMgr,
		status:    status,
		onUnlock:  onUnlock,
	}
	s.wsMgr = newWSManager(s)
	return s
}

// Start starts the API server on the specified port. The listener binds to
// loopback unless remote unlock is explicitly allowed in the config.
func (s *Server) Start(port int) error {
	cfg := s.configMgr.Get()
	s.token = cfg.General.APIToken

	// Start WebSocket Manager
	go s.wsMgr.start()

	host := "127.0.0.1"
	if cfg.General.AllowRemoteUnlock {
		host = "0.0.0.0"
		if s.token == "" {
			log.Println("WARNING: Remote unlock is enabled without an API token")
		}
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	log.Printf("Starting control API on %s", addr)

	// Explicitly tcp4 to avoid IPv6-only binding issues on Windows
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		log.Printf("ERROR: control API failed to listen on %s: %v", addr, err)
		log.Printf("Note: curlock keeps running; unlock via keyboard or tray still works.")
		return err
	}

	server := &http.Server{
		Handler: s.handler(),
	}

	// This is blocking
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("ERROR: control API stopped: %v", err)
		return err
	}
	return nil
}

// handler assembles the route table with middleware; split out so tests can
// drive the server without a listener.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/unlock", s.handleUnlock)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	return s.authMiddleware(s.recoverMiddleware(mux))
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		// If token is configured, verify it
		if s.token != "" {
			authHeader := r.Header.Get("Authorization")
			expectedAuth := "Bearer " + s.token

			if authHeader != expectedAuth {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status())
}

// handleUnlock handles POST /api/unlock
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log.Printf("API: Unlock requested from %s", r.RemoteAddr)
	s.onUnlock("api:" + r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// BroadcastProgress publishes unlock-sequence progress to WebSocket clients
func (s *Server) BroadcastProgress(matched, length int) {
	if s.wsMgr != nil {
		s.wsMgr.BroadcastProgress(matched, length)
	}
}

// BroadcastReverted announces the revert to WebSocket clients
func (s *Server) BroadcastReverted(reason string) {
	if s.wsMgr != nil {
		s.wsMgr.BroadcastReverted(reason)
	}
}
