// Package ocrspace is the remote recognition backend (OCR.space parse API).
package ocrspace

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"math-templater/api/internal/ocr"
	"math-templater/api/internal/util"
)

const (
	op              = "ocrspace"
	DefaultEndpoint = "https://api.ocr.space/parse/image"
)

type Engine struct {
	APIKey   string
	Language string
	Endpoint string
	httpc    *http.Client
}

func New(apiKey, language, endpoint string, timeout time.Duration) *Engine {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{
		APIKey:   strings.TrimSpace(apiKey),
		Language: strings.TrimSpace(language),
		Endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

func (e *Engine) Name() string { return "ocrspace" }

type response struct {
	ParsedResults []struct {
		ParsedText        string   `json:"ParsedText"`
		ErrorMessage      Messages `json:"ErrorMessage"`
		FileParseExitCode int      `json:"FileParseExitCode"`
	} `json:"ParsedResults"`
	OCRExitCode           int      `json:"OCRExitCode"`
	IsErroredOnProcessing bool     `json:"IsErroredOnProcessing"`
	ErrorMessage          Messages `json:"ErrorMessage"`
	ErrorDetails          string   `json:"ErrorDetails"`
}

func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	if _, err := ocr.CheckImage(op, image); err != nil {
		return "", err
	}
	if e.APIKey == "" {
		return "", ocr.Recognition(op, fmt.Errorf("OCR_SPACE_API_KEY is empty"))
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mime := util.PickMIME("", "", image)
	fields := map[string]string{
		"apikey":      e.APIKey,
		"language":    e.Language,
		"base64Image": util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(image)),
		"scale":       "true",
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return "", ocr.Recognition(op, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", ocr.Recognition(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, &body)
	if err != nil {
		return "", ocr.Recognition(op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", ocr.Recognition(op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", ocr.Recognition(op, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(x))))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", ocr.Recognition(op, fmt.Errorf("bad JSON: %w", err))
	}
	if out.IsErroredOnProcessing {
		msg := out.ErrorMessage.String()
		if msg == "" {
			msg = out.ErrorDetails
		}
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", out.OCRExitCode)
		}
		return "", ocr.Processing(op, msg)
	}
	var failure string
	for _, r := range out.ParsedResults {
		if t := strings.TrimSpace(r.ParsedText); t != "" {
			return ocr.Finish(op, t)
		}
		// Per-image failures arrive with IsErroredOnProcessing=false.
		if failure == "" && (r.ErrorMessage.String() != "" || r.FileParseExitCode <= 0) {
			failure = r.ErrorMessage.String()
			if failure == "" {
				failure = fmt.Sprintf("file parse exit code %d", r.FileParseExitCode)
			}
		}
	}
	if failure != "" {
		return "", ocr.Processing(op, failure)
	}
	return ocr.Finish(op, "")
}

// Messages accepts the service's ErrorMessage in any of the shapes it sends:
// a string, a list of strings, or null.
type Messages []string

func (m *Messages) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*m = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != "" {
			*m = Messages{s}
		} else {
			*m = nil
		}
		return nil
	}
	// anything else carries no message
	*m = nil
	return nil
}

func (m Messages) String() string {
	return strings.TrimSpace(strings.Join(m, "; "))
}
