package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/1abama1/prokatgo/internal/services/label"
)

// generateToolLabels handles POST /api/labels/tools: renders an A4 PDF of
// QR labels. The caller sends either explicit labels or tool ids to resolve
// from the local cache.
func (r *Router) generateToolLabels(w http.ResponseWriter, req *http.Request) {
	var body struct {
		ToolIDs []int64            `json:"toolIds,omitempty"`
		Labels  []label.ToolLabel  `json:"labels,omitempty"`
		Sheet   *label.SheetConfig `json:"sheet,omitempty"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	labels := body.Labels
	for _, id := range body.ToolIDs {
		tool, err := r.refdata.GetTool(id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if tool == nil {
			respondError(w, http.StatusNotFound, "tool not in local cache; refresh the tool list first")
			return
		}
		labels = append(labels, label.ToolLabel{
			ToolID:        tool.ID,
			Name:          tool.Name,
			InventoryCode: tool.InventoryCode,
		})
	}
	if len(labels) == 0 {
		respondError(w, http.StatusBadRequest, "no labels requested")
		return
	}

	sheet := label.DefaultSheetConfig()
	if body.Sheet != nil {
		sheet = *body.Sheet
	}

	pdf, err := label.GenerateSheet(sheet, labels)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="tool-labels.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
