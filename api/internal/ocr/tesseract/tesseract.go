// Package tesseract is the in-process recognition backend built on gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"math-templater/api/internal/ocr"
)

const op = "tesseract"

type Engine struct {
	langs     []string
	newClient func() *gosseract.Client
}

// New builds the engine. lang is a tesseract language code list such as
// "eng" or "eng+fra".
func New(lang string) *Engine {
	var langs []string
	for _, l := range strings.FieldsFunc(lang, func(r rune) bool { return r == '+' || r == ',' }) {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &Engine{langs: langs, newClient: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Extract runs recognition on a fresh client. gosseract blocks without a
// context, so the call runs in a goroutine and the caller stops waiting when
// ctx is done.
func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	if _, err := ocr.CheckImage(op, image); err != nil {
		return "", err
	}
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := e.recognize(image)
		done <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ocr.Recognition(op, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", ocr.Recognition(op, r.err)
		}
		return ocr.Finish(op, r.text)
	}
}

func (e *Engine) recognize(image []byte) (string, error) {
	c := e.newClient()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(e.langs) > 0 {
		if err := c.SetLanguage(e.langs...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
