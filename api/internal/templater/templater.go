// Package templater turns a math word problem into a template in which every
// concrete quantity is replaced by an ordered placeholder ({X}, {Y}, {Z}, ...).
//
// Templating runs in two stages. Generate produces a first pass, either with
// the deterministic scanner (Rules) or with a generative model. Validate then
// re-scans the result with the same classification rules and replaces any
// quantity that survived, continuing the placeholder sequence. Validate is
// idempotent.
package templater

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"math-templater/api/internal/apperr"
)

var (
	ErrEmptyProblem             = errors.New("no problem text provided")
	ErrTemplateGenerationFailed = errors.New("template generation failed")
)

// Generator is a Stage 1 backend.
type Generator interface {
	Name() string
	Generate(ctx context.Context, problem string) (string, error)
}

// Templater runs Generate then Validate. It holds no mutable state.
type Templater struct {
	gen   Generator
	vocab *Vocabulary
}

// New builds a Templater. A nil vocab means DefaultVocabulary; a nil gen
// means the deterministic Rules generator over that vocabulary.
func New(gen Generator, vocab *Vocabulary) *Templater {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if gen == nil {
		gen = NewRules(vocab)
	}
	return &Templater{gen: gen, vocab: vocab}
}

func (t *Templater) GeneratorName() string { return t.gen.Name() }

// Template runs both stages. Any failure is reported as
// ErrTemplateGenerationFailed with the cause chained; no partial output is
// returned.
func (t *Templater) Template(ctx context.Context, problem string) (string, error) {
	if strings.TrimSpace(problem) == "" {
		return "", apperr.E(apperr.KindInput, "template", ErrEmptyProblem)
	}
	generated, err := t.gen.Generate(ctx, problem)
	if err != nil {
		return "", failed("generate", t.gen.Name(), err)
	}
	if strings.TrimSpace(generated) == "" {
		return "", failed("generate", t.gen.Name(), errors.New("empty output"))
	}
	if err := ctx.Err(); err != nil {
		return "", failed("validate", t.gen.Name(), err)
	}
	return t.Validate(generated), nil
}

// Validate is Stage 2: it replaces any quantity left in s, numbering after
// the placeholders already present. Validate(Validate(s)) == Validate(s).
func (t *Templater) Validate(s string) string {
	out, _ := t.vocab.Replace(s)
	return out
}

func failed(stage, backend string, cause error) error {
	return apperr.Wrap(apperr.KindTemplate, stage+" ("+backend+")", ErrTemplateGenerationFailed, cause)
}

// Rules is the deterministic Stage 1 generator.
type Rules struct {
	vocab *Vocabulary
}

func NewRules(vocab *Vocabulary) *Rules {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Rules{vocab: vocab}
}

func (r *Rules) Name() string { return "rules" }

func (r *Rules) Generate(ctx context.Context, problem string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, _ := r.vocab.Number(problem)
	return out, nil
}

// Leftovers lists the quantities a scan still finds in s. An empty result
// means s satisfies the no-literal invariant.
func (t *Templater) Leftovers(s string) []Token {
	return t.vocab.Scan(s).Tokens
}

// String is used in startup logs.
func (t *Templater) String() string {
	return fmt.Sprintf("templater(generator=%s)", t.gen.Name())
}
