package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"math-templater/api/internal/apperr"
)

// TemplateRecord is a templated problem plus caller-supplied metadata.
// Metadata strings are stored as given; empty values are allowed.
type TemplateRecord struct {
	ID         string `json:"id,omitempty"`
	Template   string `json:"template"`
	GradeLevel string `json:"gradeLevel"`
	Unit       string `json:"unit"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// TemplateRepo is insert-only storage for TemplateRecords. Records are
// never updated.
type TemplateRepo struct {
	DB    *sql.DB
	newID func() string
}

func NewTemplateRepo(db *sql.DB) *TemplateRepo {
	return &TemplateRepo{DB: db, newID: uuid.NewString}
}

const schema = `
create table if not exists templates (
  id          uuid primary key,
  template    text not null,
  grade_level text not null default '',
  unit        text not null default '',
  topic       text not null default '',
  difficulty  text not null default '',
  created_at  timestamptz not null default now()
)`

// EnsureSchema creates the templates table when it is missing.
func (r *TemplateRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "ensure schema", ErrUnavailable, err)
	}
	return nil
}

// Save inserts rec and returns the new id. Any ID already on rec is ignored.
func (r *TemplateRepo) Save(ctx context.Context, rec TemplateRecord) (string, error) {
	const q = `
insert into templates (id, template, grade_level, unit, topic, difficulty)
values ($1,$2,$3,$4,$5,$6)
returning id::text`
	var id string
	err := r.DB.QueryRowContext(ctx, q, r.newID(),
		rec.Template, rec.GradeLevel, rec.Unit, rec.Topic, rec.Difficulty,
	).Scan(&id)
	if err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, "save template", ErrPersistFailed, err)
	}
	if strings.TrimSpace(id) == "" {
		return "", apperr.Wrap(apperr.KindPersistence, "save template", ErrPersistFailed, fmt.Errorf("no id returned"))
	}
	return id, nil
}

// Get reads a stored record back by id.
func (r *TemplateRepo) Get(ctx context.Context, id string) (TemplateRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return TemplateRecord{}, apperr.E(apperr.KindNotFound, "get template", ErrNotFound)
	}
	const q = `
select id::text, template, grade_level, unit, topic, difficulty
from templates
where id = $1`
	var rec TemplateRecord
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.Template, &rec.GradeLevel, &rec.Unit, &rec.Topic, &rec.Difficulty,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return TemplateRecord{}, apperr.E(apperr.KindNotFound, "get template", ErrNotFound)
	}
	if err != nil {
		return TemplateRecord{}, apperr.E(apperr.KindPersistence, "get template", err)
	}
	return rec, nil
}
