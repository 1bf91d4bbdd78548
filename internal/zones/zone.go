// Package zones defines the risk map zones served at /mapas.
package zones

import (
	"strings"
	"time"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/crud"
	"github.com/PabloPavan/alerta_api/internal/db"
	"github.com/PabloPavan/alerta_api/internal/validation"
)

type Zone struct {
	ID                   int64     `json:"id"`
	Latitude             float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude            float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Radius               int       `json:"radius" validate:"gt=0"`
	RiskLevel            string    `json:"riskLevel" validate:"required,notblank"`
	Title                string    `json:"title" validate:"required,notblank"`
	Description          string    `json:"description" validate:"required,notblank"`
	Reason               string    `json:"reason"`
	LastUpdatedTimestamp time.Time `json:"lastUpdatedTimestamp"`
}

type Entity struct{}

func (Entity) Label() string { return "risk zone" }

func (Entity) Normalize(z *Zone) {
	z.Title = strings.TrimSpace(z.Title)
	z.RiskLevel = strings.TrimSpace(z.RiskLevel)
}

func (Entity) Validate(z *Zone) error {
	if z.Latitude == 0 && z.Longitude == 0 {
		return apperrors.New(apperrors.KindInvalidInput, "latitude and longitude are required")
	}
	return validation.Struct(z, validation.Messages{
		"Latitude":    {"*": "latitude out of range"},
		"Longitude":   {"*": "longitude out of range"},
		"Radius":      {"*": "radius must be greater than zero"},
		"RiskLevel":   {"*": "riskLevel is required"},
		"Title":       {"*": "title is required"},
		"Description": {"*": "description is required"},
	}, "invalid risk zone")
}

func (Entity) PrepareCreate(z *Zone, now time.Time) {
	z.LastUpdatedTimestamp = now
}

func (Entity) PrepareUpdate(existing, z *Zone, now time.Time) {
	z.LastUpdatedTimestamp = now
}

var table = crud.Table[Zone]{
	Name: "risk_zones",
	Columns: []string{
		"latitude", "longitude", "radius", "risk_level", "title",
		"description", "reason", "last_updated_timestamp",
	},
	OrderBy: "last_updated_timestamp DESC, id DESC",
	ID:      func(z *Zone) *int64 { return &z.ID },
	Values: func(z *Zone) []any {
		return []any{
			z.Latitude, z.Longitude, z.Radius, z.RiskLevel, z.Title,
			z.Description, z.Reason, z.LastUpdatedTimestamp,
		}
	},
	Fields: func(z *Zone) []any {
		return []any{
			&z.Latitude, &z.Longitude, &z.Radius, &z.RiskLevel, &z.Title,
			&z.Description, &z.Reason, &z.LastUpdatedTimestamp,
		}
	},
}

func NewRepository(base *db.Base) *crud.Repository[Zone] {
	return crud.NewRepository(base, table)
}

func NewService(store crud.Store[Zone]) *crud.Service[Zone] {
	return &crud.Service[Zone]{Store: store, Entity: Entity{}}
}
