package handlers

import (
	"encoding/json"
	"net/http"
)

// getSyncStatus handles GET /api/sync/status
func (r *Router) getSyncStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.engine.Status())
}

// triggerSync handles POST /api/sync/trigger: requests a pass and returns
// immediately. The pass outcome arrives over the status websocket.
func (r *Router) triggerSync(w http.ResponseWriter, req *http.Request) {
	r.engine.RequestSync()
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "sync requested",
	})
}

// setOnline handles POST /api/sync/online: the renderer forwards the
// browser-level online/offline events here as reachability hints.
func (r *Router) setOnline(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	r.monitor.SetOnline(body.Online)
	r.broadcastStatus()
	respondJSON(w, http.StatusOK, map[string]bool{"online": body.Online})
}
