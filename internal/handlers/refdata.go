package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/1abama1/prokatgo/internal/backend"
	"github.com/1abama1/prokatgo/internal/models"
	"github.com/gorilla/mux"
)

// listClients handles GET /api/clients: backend first, cache on failure.
func (r *Router) listClients(w http.ResponseWriter, req *http.Request) {
	if r.online() {
		clients, err := r.api.ListClients(req.Context())
		if err == nil {
			cached := make([]models.CachedClient, len(clients))
			for i, c := range clients {
				cached[i] = models.CachedClient{
					ID:       c.ID,
					FullName: c.FullName,
					Phone:    c.Phone,
					Passport: c.Passport,
					Problem:  c.Problem,
				}
			}
			if err := r.refdata.UpsertClients(cached); err != nil {
				log.Printf("⚠️  Could not refresh client cache: %v", err)
			}
			respondJSON(w, http.StatusOK, clients)
			return
		}
		log.Printf("⚠️  Client list fetch failed, serving cache: %v", err)
	}

	cached, err := r.refdata.ListClients()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cached)
}

// getClient handles GET /api/clients/{id}
func (r *Router) getClient(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	if r.online() {
		if client, err := r.api.GetClient(req.Context(), id); err == nil {
			respondJSON(w, http.StatusOK, client)
			return
		}
	}

	cached, err := r.refdata.GetClient(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cached == nil {
		respondError(w, http.StatusNotFound, "client not found")
		return
	}
	respondJSON(w, http.StatusOK, cached)
}

// createClient handles POST /api/clients. Directory writes have no offline
// path; the backend is the authority for client records.
func (r *Router) createClient(w http.ResponseWriter, req *http.Request) {
	var body backend.ClientInfo
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !r.online() {
		respondError(w, http.StatusServiceUnavailable, "client registration requires a reachable backend")
		return
	}

	created, err := r.api.CreateClient(req.Context(), body)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// listTools handles GET /api/tools: backend first, cache on failure.
func (r *Router) listTools(w http.ResponseWriter, req *http.Request) {
	if r.online() {
		tools, err := r.api.ListTools(req.Context())
		if err == nil {
			cached := make([]models.CachedTool, len(tools))
			for i, t := range tools {
				cached[i] = models.CachedTool{
					ID:            t.ID,
					Name:          t.Name,
					InventoryCode: t.InventoryCode,
					CategoryID:    t.CategoryID,
					DailyRate:     t.DailyRate,
					Status:        t.Status,
				}
			}
			if err := r.refdata.UpsertTools(cached); err != nil {
				log.Printf("⚠️  Could not refresh tool cache: %v", err)
			}
			respondJSON(w, http.StatusOK, tools)
			return
		}
		log.Printf("⚠️  Tool list fetch failed, serving cache: %v", err)
	}

	cached, err := r.refdata.ListTools()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cached)
}

// getTool handles GET /api/tools/{id}
func (r *Router) getTool(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	if r.online() {
		if tool, err := r.api.GetTool(req.Context(), id); err == nil {
			respondJSON(w, http.StatusOK, tool)
			return
		}
	}

	cached, err := r.refdata.GetTool(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cached == nil {
		respondError(w, http.StatusNotFound, "tool not found")
		return
	}
	respondJSON(w, http.StatusOK, cached)
}

// createTool handles POST /api/tools. Online-only, same as createClient.
func (r *Router) createTool(w http.ResponseWriter, req *http.Request) {
	var body backend.ToolInfo
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !r.online() {
		respondError(w, http.StatusServiceUnavailable, "tool registration requires a reachable backend")
		return
	}

	created, err := r.api.CreateTool(req.Context(), body)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func respondBackendError(w http.ResponseWriter, err error) {
	if backend.IsRejection(err) {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondError(w, http.StatusServiceUnavailable, err.Error())
}
