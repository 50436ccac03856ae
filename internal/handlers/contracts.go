package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/1abama1/prokatgo/internal/backend"
	"github.com/1abama1/prokatgo/internal/contracts"
	"github.com/gorilla/mux"
)

// contractRef splits the {id} path segment into whichever identifier space
// it belongs to: all-digits means a backend id, anything else a local id.
func contractRef(req *http.Request) (*int64, string) {
	raw := mux.Vars(req)["id"]
	if remoteID, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &remoteID, ""
	}
	return nil, raw
}

// createContract handles POST /api/contracts
func (r *Router) createContract(w http.ResponseWriter, req *http.Request) {
	var body backend.CreateContractRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ClientID == 0 || body.ToolID == 0 {
		respondError(w, http.StatusBadRequest, "clientId and toolId are required")
		return
	}

	record, err := r.contracts.Create(req.Context(), body)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	r.broadcastStatus()
	respondJSON(w, http.StatusCreated, record)
}

// updateContract handles PUT /api/contracts/{id}
func (r *Router) updateContract(w http.ResponseWriter, req *http.Request) {
	remoteID, localID := contractRef(req)

	var body backend.UpdateContractRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := r.contracts.Update(req.Context(), remoteID, localID, body)
	if err != nil {
		respondContractError(w, err)
		return
	}

	r.broadcastStatus()
	respondJSON(w, http.StatusOK, record)
}

// closeContract handles POST /api/contracts/{id}/close
func (r *Router) closeContract(w http.ResponseWriter, req *http.Request) {
	remoteID, localID := contractRef(req)

	var body backend.CloseContractRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := r.contracts.Close(req.Context(), remoteID, localID, body)
	if err != nil {
		respondContractError(w, err)
		return
	}

	r.broadcastStatus()
	respondJSON(w, http.StatusOK, record)
}

// terminateContract handles POST /api/contracts/{id}/terminate
func (r *Router) terminateContract(w http.ResponseWriter, req *http.Request) {
	remoteID, localID := contractRef(req)

	var body struct {
		Comment *string `json:"comment,omitempty"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := r.contracts.Terminate(req.Context(), remoteID, localID, body.Comment)
	if err != nil {
		respondContractError(w, err)
		return
	}

	r.broadcastStatus()
	respondJSON(w, http.StatusOK, record)
}

// listActiveContracts handles GET /api/contracts/active
func (r *Router) listActiveContracts(w http.ResponseWriter, req *http.Request) {
	listed, err := r.contracts.ListActive(req.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, listed)
}

func respondContractError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, contracts.ErrTerminateRequiresBackend):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
