package ocr

import (
	"context"
	"fmt"
	"strings"
)

// Source converts an uploaded image into raw problem text. One call makes a
// single recognition attempt.
type Source interface {
	Name() string
	Extract(ctx context.Context, image []byte) (string, error)
}

// Engines holds the configured backends; the active one is picked by name at
// startup.
type Engines struct {
	Tesseract Source
	OCRSpace  Source
	Gemini    Source
}

func (e *Engines) GetEngine(name string) (Source, error) {
	var src Source
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tesseract", "local", "":
		src = e.Tesseract
	case "ocrspace", "ocr.space", "remote":
		src = e.OCRSpace
	case "gemini":
		src = e.Gemini
	default:
		return nil, fmt.Errorf("unknown ocr backend %q; use 'tesseract', 'ocrspace' or 'gemini'", name)
	}
	if src == nil {
		return nil, fmt.Errorf("ocr backend %q is not configured", name)
	}
	return src, nil
}
