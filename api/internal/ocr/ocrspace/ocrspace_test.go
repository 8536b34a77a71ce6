package ocrspace

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"math-templater/api/internal/apperr"
	"math-templater/api/internal/ocr"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func serve(t *testing.T, status int, body string) *Engine {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		if got := r.FormValue("apikey"); got != "key" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.FormValue("language"); got != "eng" {
			t.Errorf("language = %q", got)
		}
		if got := r.FormValue("base64Image"); len(got) < 22 || got[:22] != "data:image/png;base64," {
			t.Errorf("base64Image prefix = %.22q", got)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New("key", "eng", srv.URL, 5*time.Second)
}

func TestExtract(t *testing.T) {
	body := `{"ParsedResults":[{"ParsedText":"  ","FileParseExitCode":1},
		{"ParsedText":"5. Ann has 3 pens.\r\n","ErrorMessage":"","FileParseExitCode":1}],
		"OCRExitCode":1,"IsErroredOnProcessing":false,"ErrorMessage":null}`
	got, err := serve(t, http.StatusOK, body).Extract(context.Background(), pngBytes(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if want := "5. Ann has 3 pens."; got != want {
		t.Fatalf("Extract() = %q, want %q", got, want)
	}
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		kind   apperr.Kind
	}{
		{
			name:   "processing error list",
			status: http.StatusOK,
			body:   `{"IsErroredOnProcessing":true,"OCRExitCode":3,"ErrorMessage":["Unable to recognize the file type"]}`,
			want:   ocr.ErrProcessing,
			kind:   apperr.KindExternal,
		},
		{
			name:   "processing error string",
			status: http.StatusOK,
			body:   `{"IsErroredOnProcessing":true,"ErrorMessage":"Timed out waiting for results"}`,
			want:   ocr.ErrProcessing,
			kind:   apperr.KindExternal,
		},
		{
			name:   "http status",
			status: http.StatusForbidden,
			body:   `The API key is invalid`,
			want:   ocr.ErrRecognition,
			kind:   apperr.KindExternal,
		},
		{
			name:   "bad json",
			status: http.StatusOK,
			body:   `<html>`,
			want:   ocr.ErrRecognition,
			kind:   apperr.KindExternal,
		},
		{
			name:   "per-image error",
			status: http.StatusOK,
			body:   `{"ParsedResults":[{"ParsedText":"","ErrorMessage":"Unable to recognize the file type","FileParseExitCode":-10}],"IsErroredOnProcessing":false}`,
			want:   ocr.ErrProcessing,
			kind:   apperr.KindExternal,
		},
		{
			name:   "per-image exit code only",
			status: http.StatusOK,
			body:   `{"ParsedResults":[{"ParsedText":"","FileParseExitCode":0}],"IsErroredOnProcessing":false}`,
			want:   ocr.ErrProcessing,
			kind:   apperr.KindExternal,
		},
		{
			name:   "empty text",
			status: http.StatusOK,
			body:   `{"ParsedResults":[{"ParsedText":"","FileParseExitCode":1}],"IsErroredOnProcessing":false}`,
			want:   ocr.ErrEmptyText,
			kind:   apperr.KindInput,
		},
		{
			name:   "missing results",
			status: http.StatusOK,
			body:   `{"IsErroredOnProcessing":false}`,
			want:   ocr.ErrEmptyText,
			kind:   apperr.KindInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := serve(t, tt.status, tt.body).Extract(context.Background(), pngBytes(t))
			if got != "" {
				t.Fatalf("Extract() = %q, want empty", got)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.want)
			}
			if k := apperr.KindOf(err); k != tt.kind {
				t.Fatalf("KindOf() = %v, want %v", k, tt.kind)
			}
		})
	}
}

func TestExtractRejectsCorruptImage(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := New("key", "eng", srv.URL, time.Second).Extract(context.Background(), []byte("GIF89a-broken"))
	if !errors.Is(err, ocr.ErrDecode) {
		t.Fatalf("Extract() error = %v, want ErrDecode", err)
	}
	if called {
		t.Fatal("service was called for an undecodable image")
	}
}

func TestExtractTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New("key", "eng", srv.URL, 5*time.Second).Extract(ctx, pngBytes(t))
	if !errors.Is(err, ocr.ErrRecognition) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Extract() error = %v", err)
	}
}
