package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"math-templater/api/internal/ocr"
	"math-templater/api/internal/store"
)

// TemplateGenerator turns problem text into a template.
type TemplateGenerator interface {
	Template(ctx context.Context, problem string) (string, error)
}

// TemplateStore persists and reads back templates.
type TemplateStore interface {
	Save(ctx context.Context, rec store.TemplateRecord) (string, error)
	Get(ctx context.Context, id string) (store.TemplateRecord, error)
}

type Timeouts struct {
	OCR      time.Duration
	Template time.Duration
	DB       time.Duration
}

type Handle struct {
	src      ocr.Source
	tmpl     TemplateGenerator
	store    TemplateStore
	timeouts Timeouts
}

func New(src ocr.Source, tmpl TemplateGenerator, st TemplateStore, t Timeouts) *Handle {
	if t.OCR <= 0 {
		t.OCR = 60 * time.Second
	}
	if t.Template <= 0 {
		t.Template = 60 * time.Second
	}
	if t.DB <= 0 {
		t.DB = 5 * time.Second
	}
	return &Handle{src: src, tmpl: tmpl, store: st, timeouts: t}
}

// Health always succeeds.
func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from the math templater"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
