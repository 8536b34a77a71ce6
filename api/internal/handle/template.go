package handle

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"math-templater/api/internal/apperr"
	"math-templater/api/internal/store"
)

// SaveRequest uses pointers so that a missing field is distinguishable from
// an empty one. Empty strings are accepted.
type SaveRequest struct {
	Template   *string `json:"template"`
	GradeLevel *string `json:"gradeLevel"`
	Unit       *string `json:"unit"`
	Topic      *string `json:"topic"`
	Difficulty *string `json:"difficulty"`
}

type SaveResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (req SaveRequest) record() (store.TemplateRecord, []string) {
	var missing []string
	get := func(name string, p *string) string {
		if p == nil {
			missing = append(missing, name)
			return ""
		}
		return *p
	}
	rec := store.TemplateRecord{
		Template:   get("template", req.Template),
		GradeLevel: get("gradeLevel", req.GradeLevel),
		Unit:       get("unit", req.Unit),
		Topic:      get("topic", req.Topic),
		Difficulty: get("difficulty", req.Difficulty),
	}
	return rec, missing
}

func (h *Handle) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "bad json: "+err.Error())
		return
	}
	rec, missing := req.record()
	if len(missing) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "missing fields: "+strings.Join(missing, ", "))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeouts.DB)
	defer cancel()
	id, err := h.store.Save(ctx, rec)
	if err != nil || id == "" {
		log.Printf("save-template: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to save template.")
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Message: "Template saved successfully.", ID: id})
}

func (h *Handle) GetTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeouts.DB)
	defer cancel()
	rec, err := h.store.Get(ctx, r.PathValue("id"))
	switch apperr.KindOf(err) {
	case apperr.KindUnknown:
		if err == nil {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	case apperr.KindNotFound:
		writeDetail(w, http.StatusNotFound, "Template not found.")
		return
	}
	log.Printf("get-template: %v", err)
	writeDetail(w, http.StatusInternalServerError, "Failed to read template.")
}
