// Package shelters defines the shelter resource served at /abrigos.
package shelters

import (
	"strings"
	"time"

	"github.com/PabloPavan/alerta_api/internal/crud"
	"github.com/PabloPavan/alerta_api/internal/db"
	"github.com/PabloPavan/alerta_api/internal/validation"
)

type Shelter struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name" validate:"required,notblank"`
	ImageURL        string   `json:"imageUrl"`
	Address         string   `json:"address" validate:"required,notblank"`
	Neighborhood    string   `json:"neighborhood" validate:"required,notblank"`
	CityState       string   `json:"cityState" validate:"required,notblank"`
	ZipCode         string   `json:"zipCode"`
	ContactPhone    string   `json:"contactPhone"`
	ContactEmail    string   `json:"contactEmail" validate:"omitempty,emailaddr"`
	CapacityStatus  string   `json:"capacityStatus" validate:"required,notblank"`
	ServicesOffered []string `json:"servicesOffered" validate:"required,notblankitems"`
	TargetAudience  string   `json:"targetAudience" validate:"required,notblank"`
	OperatingHours  string   `json:"operatingHours" validate:"required,notblank"`
	Observations    string   `json:"observations"`
	GoogleMapsURL   string   `json:"googleMapsUrl"`
}

type Entity struct{}

func (Entity) Label() string { return "shelter" }

func (Entity) Normalize(s *Shelter) {
	s.Name = strings.TrimSpace(s.Name)
	s.ContactEmail = strings.TrimSpace(s.ContactEmail)

	services := make([]string, 0, len(s.ServicesOffered))
	for _, svc := range s.ServicesOffered {
		if svc = strings.TrimSpace(svc); svc != "" {
			services = append(services, svc)
		}
	}
	s.ServicesOffered = services
}

func (Entity) Validate(s *Shelter) error {
	return validation.Struct(s, validation.Messages{
		"Name":            {"*": "name is required"},
		"Address":         {"*": "address is required"},
		"Neighborhood":    {"*": "neighborhood is required"},
		"CityState":       {"*": "cityState is required"},
		"CapacityStatus":  {"*": "capacityStatus is required"},
		"ServicesOffered": {"*": "at least one service must be offered"},
		"TargetAudience":  {"*": "targetAudience is required"},
		"OperatingHours":  {"*": "operatingHours is required"},
		"ContactEmail":    {"emailaddr": "invalid contactEmail"},
	}, "invalid shelter")
}

func (Entity) PrepareCreate(s *Shelter, now time.Time) {}

func (Entity) PrepareUpdate(existing, s *Shelter, now time.Time) {}

var table = crud.Table[Shelter]{
	Name: "shelters",
	Columns: []string{
		"name", "image_url", "address", "neighborhood", "city_state", "zip_code",
		"contact_phone", "contact_email", "capacity_status", "services_offered",
		"target_audience", "operating_hours", "observations", "google_maps_url",
	},
	OrderBy: "name, id",
	ID:      func(s *Shelter) *int64 { return &s.ID },
	Values: func(s *Shelter) []any {
		return []any{
			s.Name, s.ImageURL, s.Address, s.Neighborhood, s.CityState, s.ZipCode,
			s.ContactPhone, s.ContactEmail, s.CapacityStatus, s.ServicesOffered,
			s.TargetAudience, s.OperatingHours, s.Observations, s.GoogleMapsURL,
		}
	},
	Fields: func(s *Shelter) []any {
		return []any{
			&s.Name, &s.ImageURL, &s.Address, &s.Neighborhood, &s.CityState, &s.ZipCode,
			&s.ContactPhone, &s.ContactEmail, &s.CapacityStatus, &s.ServicesOffered,
			&s.TargetAudience, &s.OperatingHours, &s.Observations, &s.GoogleMapsURL,
		}
	},
}

func NewRepository(base *db.Base) *crud.Repository[Shelter] {
	return crud.NewRepository(base, table)
}

func NewService(store crud.Store[Shelter]) *crud.Service[Shelter] {
	return &crud.Service[Shelter]{Store: store, Entity: Entity{}}
}
