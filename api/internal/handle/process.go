package handle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"math-templater/api/internal/apperr"
	"math-templater/api/internal/ocr"
	"math-templater/api/internal/templater"
	"math-templater/api/internal/util"
)

const maxUpload = 10 << 20

const noProblemText = "No problem text provided."

// ProcessRequest is the JSON form of a process-problem call. ImageB64 may be
// raw base64 or a data URL.
type ProcessRequest struct {
	ProblemText string `json:"problem_text"`
	ImageB64    string `json:"image_b64"`
}

type ProcessResponse struct {
	Template string `json:"template"`
}

// ProcessProblem accepts multipart (file, problem_text), urlencoded or JSON
// input. An uploaded image takes precedence over text.
func (h *Handle) ProcessProblem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	text, image, err := readProblem(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "bad request: "+err.Error())
		return
	}

	if image != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeouts.OCR)
		text, err = h.src.Extract(ctx, image)
		cancel()
		if err != nil {
			code, detail := ocrFailure(err)
			log.Printf("process-problem: ocr=%s: %v", h.src.Name(), err)
			writeDetail(w, code, detail)
			return
		}
	}
	if strings.TrimSpace(text) == "" {
		writeDetail(w, http.StatusBadRequest, noProblemText)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeouts.Template)
	defer cancel()
	out, err := h.tmpl.Template(ctx, text)
	if err != nil {
		if errors.Is(err, templater.ErrEmptyProblem) {
			writeDetail(w, http.StatusBadRequest, noProblemText)
			return
		}
		log.Printf("process-problem: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Error generating template: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ProcessResponse{Template: out})
}

func ocrFailure(err error) (int, string) {
	if errors.Is(err, ocr.ErrEmptyText) {
		return http.StatusBadRequest, noProblemText
	}
	if apperr.KindOf(err) == apperr.KindInput {
		return http.StatusBadRequest, "Error processing image: " + err.Error()
	}
	return http.StatusBadGateway, "Error processing image: " + err.Error()
}

// readProblem returns the submitted text and, when an image was uploaded,
// its bytes.
func readProblem(r *http.Request) (string, []byte, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		var req ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", nil, err
		}
		if strings.TrimSpace(req.ImageB64) == "" {
			return req.ProblemText, nil, nil
		}
		img, _, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
		if err != nil {
			return "", nil, errors.New("bad image_b64")
		}
		return req.ProblemText, img, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return "", nil, err
		}
		text := r.FormValue("problem_text")
		f, fh, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return text, nil, nil
		}
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		// An empty file input posted by a browser form.
		if fh.Filename == "" && fh.Size == 0 {
			return text, nil, nil
		}
		img, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return text, img, nil
	default:
		if err := r.ParseForm(); err != nil {
			return "", nil, err
		}
		return r.PostFormValue("problem_text"), nil, nil
	}
}
