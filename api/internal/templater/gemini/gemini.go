// Package gemini is a generative Stage 1 backend on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"math-templater/api/internal/apperr"
	"math-templater/api/internal/util"
)

type Generator struct {
	APIKey      string
	Model       string
	Instruction string
}

func New(apiKey, model, instruction string) *Generator {
	return &Generator{
		APIKey:      strings.TrimSpace(apiKey),
		Model:       strings.TrimSpace(model),
		Instruction: instruction,
	}
}

func (g *Generator) Name() string { return "gemini" }

func (g *Generator) Generate(ctx context.Context, problem string) (string, error) {
	if g.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", apperr.E(apperr.KindExternal, "gemini", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(g.Instruction)},
	}

	// Retries cover transient 5xx responses.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, genai.Text(problem))
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return "", apperr.E(apperr.KindExternal, "gemini", ctx.Err())
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := util.StripCodeFences(FirstText(resp))
		if txt == "" {
			return "", fmt.Errorf("gemini: empty response")
		}
		return txt, nil
	}
	return "", apperr.E(apperr.KindExternal, "gemini", lastErr)
}

// FirstText returns the first text part of the first candidate that has one.
func FirstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
