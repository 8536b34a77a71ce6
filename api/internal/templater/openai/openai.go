// Package openai is a generative Stage 1 backend on the chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"math-templater/api/internal/apperr"
	"math-templater/api/internal/util"
)

const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

type Generator struct {
	APIKey      string
	Model       string
	Instruction string
	Endpoint    string
	httpc       *http.Client
}

func New(key, model, instruction string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{
		APIKey:      key,
		Model:       model,
		Instruction: instruction,
		Endpoint:    DefaultEndpoint,
		httpc:       &http.Client{Timeout: timeout},
	}
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Generate(ctx context.Context, problem string) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is empty")
	}
	body := map[string]any{
		"model": g.Model,
		"messages": []any{
			map[string]any{"role": "system", "content": g.Instruction},
			map[string]any{"role": "user", "content": problem},
		},
		"temperature": 0,
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", apperr.E(apperr.KindExternal, "openai", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", apperr.E(apperr.KindExternal, "openai",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(x))))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", apperr.E(apperr.KindExternal, "openai", fmt.Errorf("bad JSON: %w", err))
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return util.StripCodeFences(raw.Choices[0].Message.Content), nil
}
