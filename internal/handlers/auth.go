package handlers

import (
	"encoding/json"
	"net/http"
)

// login handles POST /api/auth/login: exchanges credentials with the remote
// backend and persists the returned bearer token locally.
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Username == "" || body.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := r.api.Login(req.Context(), body.Username, body.Password)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	if err := r.tokens.Set(token); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

// logout handles POST /api/auth/logout
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	if err := r.tokens.Clear(); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

// session handles GET /api/auth/session
func (r *Router) session(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{
		"authenticated": r.tokens.Token() != "",
	})
}
