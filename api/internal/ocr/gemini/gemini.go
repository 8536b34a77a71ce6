// Package gemini is a recognition backend that transcribes the problem with a
// Gemini vision model.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"math-templater/api/internal/ocr"
	tgemini "math-templater/api/internal/templater/gemini"
	"math-templater/api/internal/util"
)

const op = "gemini ocr"

const transcribe = `Transcribe the math word problem in this image exactly as written.
Keep every number and word as it appears, including the problem number at the start if there is one.
Reply with the plain text only. If the image contains no readable text, reply with an empty message.`

type Engine struct {
	APIKey string
	Model  string
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(key),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	format, err := ocr.CheckImage(op, image)
	if err != nil {
		return "", err
	}
	if e.APIKey == "" {
		return "", ocr.Recognition(op, fmt.Errorf("GEMINI_API_KEY is empty"))
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", ocr.Recognition(op, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", ocr.Recognition(op, fmt.Errorf("model is nil"))
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}

	parts := []genai.Part{
		genai.Text(transcribe),
		&genai.Blob{MIMEType: util.PickMIME("", "image/"+format, image), Data: image},
	}

	// Retries cover transient 5xx responses.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return "", ocr.Recognition(op, ctx.Err())
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		return ocr.Finish(op, util.StripCodeFences(tgemini.FirstText(resp)))
	}
	return "", ocr.Recognition(op, lastErr)
}

func ptrFloat32(v float32) *float32 { return &v }
