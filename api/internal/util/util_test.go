package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"plain":                         "plain",
		"```\n5. Add {X}.\n```":         "5. Add {X}.",
		"```text\nAnn has {X} pens\n```": "Ann has {X} pens",
		"  Ann has {X} pens  ":          "Ann has {X} pens",
	}
	for in, want := range tests {
		if got := StripCodeFences(in); got != want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	b, mime, err := DecodeBase64MaybeDataURL("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeBase64MaybeDataURL() error = %v", err)
	}
	if string(b) != "hello" || mime != "image/png" {
		t.Fatalf("got %q %q", b, mime)
	}
	if _, _, err := DecodeBase64MaybeDataURL("%%%"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestPickMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	if got := PickMIME("", "", png); got != "image/png" {
		t.Fatalf("PickMIME(sniff) = %q", got)
	}
	if got := PickMIME("image/gif", "image/png", png); got != "image/gif" {
		t.Fatalf("PickMIME(explicit) = %q", got)
	}
	if got := PickMIME("", "image/webp", png); got != "image/webp" {
		t.Fatalf("PickMIME(hint) = %q", got)
	}
}

func TestLoadPrompt(t *testing.T) {
	if got, err := LoadPrompt("", "fallback"); err != nil || got != "fallback" {
		t.Fatalf("LoadPrompt(\"\") = %q, %v", got, err)
	}
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("  custom prompt \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := LoadPrompt(path, "fallback"); err != nil || got != "custom prompt" {
		t.Fatalf("LoadPrompt(file) = %q, %v", got, err)
	}
	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPrompt(empty, "fallback"); err == nil {
		t.Fatal("expected error for empty prompt file")
	}
}
