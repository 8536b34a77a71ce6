package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"math-templater/api/internal/apperr"
	"math-templater/api/internal/handle"
	"math-templater/api/internal/store"
	"math-templater/api/internal/templater"
)

type nopSource struct{}

func (nopSource) Name() string                                   { return "nop" }
func (nopSource) Extract(context.Context, []byte) (string, error) { return "", nil }

type memStore struct{ recs map[string]store.TemplateRecord }

func (m *memStore) Save(_ context.Context, rec store.TemplateRecord) (string, error) {
	rec.ID = "id-1"
	m.recs[rec.ID] = rec
	return rec.ID, nil
}

func (m *memStore) Get(_ context.Context, id string) (store.TemplateRecord, error) {
	rec, ok := m.recs[id]
	if !ok {
		return rec, apperr.E(apperr.KindNotFound, "get template", store.ErrNotFound)
	}
	return rec, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := handle.New(nopSource{}, templater.New(nil, nil), &memStore{recs: map[string]store.TemplateRecord{}}, handle.Timeouts{})
	srv := httptest.NewServer(WithCORS([]string{"https://app.example"}, NewMux(h)))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoutes(t *testing.T) {
	srv := newServer(t)
	for _, path := range []string{"/health", "/api/py/helloFastApi", "/healthz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d", path, resp.StatusCode)
		}
	}

	for _, path := range []string{"/process-problem", "/api/py/process-problem"} {
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(`{"problem_text":"Add 2 and 3."}`))
		if err != nil {
			t.Fatal(err)
		}
		var out map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if out["template"] != "Add {X} and {Y}." {
			t.Errorf("POST %s = %d %v", path, resp.StatusCode, out)
		}
	}
}

func TestSaveAndReadBack(t *testing.T) {
	srv := newServer(t)
	body := `{"template":"Add {X} and {Y}.","gradeLevel":"1","unit":"u","topic":"t","difficulty":"d"}`
	resp, err := http.Post(srv.URL+"/api/py/save-template", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	var saved map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&saved)
	resp.Body.Close()
	if saved["id"] == "" {
		t.Fatalf("save response = %v", saved)
	}

	resp, err = http.Get(srv.URL + "/templates/" + saved["id"])
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var rec store.TemplateRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.Template != "Add {X} and {Y}." || rec.GradeLevel != "1" {
		t.Errorf("read back %+v", rec)
	}
}

func TestCORS(t *testing.T) {
	srv := newServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/save-template", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allow-origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); got != "content-type" {
		t.Errorf("allow-headers = %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin for unlisted origin = %q", got)
	}
}

func TestCORSWildcard(t *testing.T) {
	h := WithCORS([]string{"*"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestRunShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, addr, http.NotFoundHandler()) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(20 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
