// Package handlers exposes the local HTTP API the Electron renderer talks
// to. Everything here is loopback-only plumbing in front of the façade, the
// synchronizer and the backend proxies.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/1abama1/prokatgo/internal/auth"
	"github.com/1abama1/prokatgo/internal/backend"
	"github.com/1abama1/prokatgo/internal/contracts"
	"github.com/1abama1/prokatgo/internal/store"
	"github.com/1abama1/prokatgo/internal/sync"
	"github.com/1abama1/prokatgo/internal/websocket"
	"github.com/gorilla/mux"
)

// Router wraps the mux router and the services behind the local API.
type Router struct {
	*mux.Router

	contracts *contracts.Service
	api       *backend.Client
	refdata   *store.RefData
	engine    *sync.Engine
	monitor   *sync.Monitor
	hub       *websocket.Hub
	tokens    *auth.TokenStore
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(svc *contracts.Service, api *backend.Client, refdata *store.RefData, engine *sync.Engine, monitor *sync.Monitor, hub *websocket.Hub, tokens *auth.TokenStore) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		contracts: svc,
		api:       api,
		refdata:   refdata,
		engine:    engine,
		monitor:   monitor,
		hub:       hub,
		tokens:    tokens,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Status push channel for the renderer's sync indicator
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(r.hub, w, req)
	})

	// Contract routes
	routes := r.PathPrefix("/api").Subrouter()
	routes.HandleFunc("/contracts", r.createContract).Methods("POST")
	routes.HandleFunc("/contracts/active", r.listActiveContracts).Methods("GET")
	routes.HandleFunc("/contracts/{id}", r.updateContract).Methods("PUT")
	routes.HandleFunc("/contracts/{id}/close", r.closeContract).Methods("POST")
	routes.HandleFunc("/contracts/{id}/terminate", r.terminateContract).Methods("POST")

	// Directory routes (backend proxy with read-through cache)
	routes.HandleFunc("/clients", r.listClients).Methods("GET")
	routes.HandleFunc("/clients", r.createClient).Methods("POST")
	routes.HandleFunc("/clients/{id}", r.getClient).Methods("GET")
	routes.HandleFunc("/tools", r.listTools).Methods("GET")
	routes.HandleFunc("/tools", r.createTool).Methods("POST")
	routes.HandleFunc("/tools/{id}", r.getTool).Methods("GET")

	// Sync control
	routes.HandleFunc("/sync/status", r.getSyncStatus).Methods("GET")
	routes.HandleFunc("/sync/trigger", r.triggerSync).Methods("POST")
	routes.HandleFunc("/sync/online", r.setOnline).Methods("POST")

	// Auth routes
	routes.HandleFunc("/auth/login", r.login).Methods("POST")
	routes.HandleFunc("/auth/logout", r.logout).Methods("POST")
	routes.HandleFunc("/auth/session", r.session).Methods("GET")

	// Label printing
	routes.HandleFunc("/labels/tools", r.generateToolLabels).Methods("POST")

	return r
}

// healthCheck returns the health status of the local API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"server": "local",
	})
}

// broadcastStatus pushes the current sync status to all UI windows.
func (r *Router) broadcastStatus() {
	if r.hub == nil || r.engine == nil {
		return
	}
	status := r.engine.Status()
	status["type"] = "sync_status"
	r.hub.Broadcast(status)
}

func (r *Router) online() bool {
	return r.monitor == nil || r.monitor.IsOnline()
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
