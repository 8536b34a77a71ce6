// Package app assembles the recognition source and templater selected by
// configuration. Both front ends (HTTP and Telegram) share it.
package app

import (
	"fmt"
	"log"

	"math-templater/api/internal/config"
	"math-templater/api/internal/ocr"
	geminiocr "math-templater/api/internal/ocr/gemini"
	"math-templater/api/internal/ocr/ocrspace"
	"math-templater/api/internal/ocr/tesseract"
	"math-templater/api/internal/templater"
	"math-templater/api/internal/templater/gemini"
	"math-templater/api/internal/templater/openai"
	"math-templater/api/internal/util"
)

type Pipeline struct {
	Source    ocr.Source
	Templater *templater.Templater
}

func Build(cfg *config.Config) (*Pipeline, error) {
	engines := ocr.Engines{
		Tesseract: tesseract.New(cfg.OCRLanguage),
	}
	if cfg.OCRSpaceAPIKey != "" {
		engines.OCRSpace = ocrspace.New(cfg.OCRSpaceAPIKey, cfg.OCRLanguage, cfg.OCRSpaceURL, cfg.OCRTimeout)
	}
	if cfg.GeminiAPIKey != "" {
		engines.Gemini = geminiocr.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	src, err := engines.GetEngine(cfg.OCRBackend)
	if err != nil {
		return nil, err
	}

	vocab, err := templater.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return nil, err
	}
	gen, err := generator(cfg, vocab)
	if err != nil {
		return nil, err
	}
	tp := templater.New(gen, vocab)

	log.Printf("pipeline: ocr=%s %s", src.Name(), tp)
	return &Pipeline{Source: src, Templater: tp}, nil
}

func generator(cfg *config.Config, vocab *templater.Vocabulary) (templater.Generator, error) {
	switch cfg.TemplateBackend {
	case "", "rules":
		return templater.NewRules(vocab), nil
	}
	instruction, err := util.LoadPrompt(cfg.PromptFile, templater.Instruction)
	if err != nil {
		return nil, err
	}
	switch cfg.TemplateBackend {
	case "gemini":
		return gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, instruction), nil
	case "openai":
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, instruction, cfg.TemplateTimeout), nil
	default:
		return nil, fmt.Errorf("unknown template generator %q", cfg.TemplateBackend)
	}
}
