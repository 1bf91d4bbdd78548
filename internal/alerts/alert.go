// Package alerts defines the public alert resource served at /alertas.
package alerts

import (
	"strings"
	"time"

	"github.com/PabloPavan/alerta_api/internal/crud"
	"github.com/PabloPavan/alerta_api/internal/db"
	"github.com/PabloPavan/alerta_api/internal/validation"
)

const (
	SeverityHigh   = "alto"
	SeverityMedium = "medio"
	SeverityLow    = "baixo"
	SeverityInfo   = "informativo"
)

type Alert struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title" validate:"required,notblank"`
	Severity    string     `json:"severity" validate:"required,oneof=alto medio baixo informativo"`
	Source      string     `json:"source" validate:"required,notblank"`
	Description string     `json:"description" validate:"required,notblank"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

type Entity struct{}

func (Entity) Label() string { return "alert" }

func (Entity) Normalize(a *Alert) {
	a.Title = strings.TrimSpace(a.Title)
	a.Source = strings.TrimSpace(a.Source)
	a.Severity = NormalizeSeverity(a.Severity)
}

// NormalizeSeverity lower-cases s and folds the accented "médio".
func NormalizeSeverity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "médio" {
		return SeverityMedium
	}
	return s
}

func (Entity) Validate(a *Alert) error {
	return validation.Struct(a, validation.Messages{
		"Title":       {"*": "title is required"},
		"Description": {"*": "description is required"},
		"Source":      {"*": "source is required"},
		"Severity": {
			"required": "severity is required",
			"oneof":    "severity must be one of alto, medio, baixo, informativo",
		},
	}, "invalid alert")
}

func (Entity) PrepareCreate(a *Alert, now time.Time) {
	if a.PublishedAt == nil {
		a.PublishedAt = &now
	}
}

func (Entity) PrepareUpdate(existing, a *Alert, now time.Time) {
	if a.PublishedAt == nil {
		a.PublishedAt = existing.PublishedAt
	}
	if a.PublishedAt == nil {
		a.PublishedAt = &now
	}
}

var table = crud.Table[Alert]{
	Name:    "alerts",
	Columns: []string{"title", "severity", "source", "description", "published_at"},
	OrderBy: "published_at DESC, id DESC",
	ID:      func(a *Alert) *int64 { return &a.ID },
	Values: func(a *Alert) []any {
		return []any{a.Title, a.Severity, a.Source, a.Description, a.PublishedAt}
	},
	Fields: func(a *Alert) []any {
		return []any{&a.Title, &a.Severity, &a.Source, &a.Description, &a.PublishedAt}
	},
}

func NewRepository(base *db.Base) *crud.Repository[Alert] {
	return crud.NewRepository(base, table)
}

func NewService(store crud.Store[Alert]) *crud.Service[Alert] {
	return &crud.Service[Alert]{Store: store, Entity: Entity{}}
}
