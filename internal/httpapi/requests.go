package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/reports"
	"github.com/PabloPavan/alerta_api/internal/users"
	"github.com/PabloPavan/alerta_api/internal/validation"
)

const maxJSONBody = 1 << 20

var errInvalidJSON = apperrors.New(apperrors.KindInvalidInput, "invalid json")

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.KindInvalidInput, "request body too large")
		}
		return errInvalidJSON
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidJSON
	}
	return nil
}

type ReportUpdateDTO struct {
	ReporterName *string `json:"reporterName"`
	EventType    string  `json:"eventType"`
	Description  string  `json:"description"`
	Location     string  `json:"location"`
	Status       string  `json:"status"`
	Severity     string  `json:"severity"`
	AdminNotes   *string `json:"adminNotes"`
	ImageURL     *string `json:"imageUrl"`
}

func (r *ReportUpdateDTO) Patch() *reports.Patch {
	return &reports.Patch{
		ReporterName: r.ReporterName,
		EventType:    r.EventType,
		Description:  r.Description,
		Location:     r.Location,
		Status:       r.Status,
		Severity:     r.Severity,
		AdminNotes:   r.AdminNotes,
		ImageURL:     r.ImageURL,
	}
}

type ReportStatusDTO struct {
	Status string `json:"status" validate:"required,notblank,max=64"`
}

func (r *ReportStatusDTO) Validate() error {
	return validation.Struct(r, validation.Messages{
		"Status": {
			"required": "status is required",
			"notblank": "status is required",
			"max":      "status is too long",
		},
	}, "invalid request")
}

type UserRegisterDTO struct {
	NomeCompleto       string   `json:"nomeCompleto"`
	Email              string   `json:"email"`
	Password           string   `json:"password"`
	LocationPreference string   `json:"locationPreference"`
	SubscribedAlerts   []string `json:"subscribedAlerts"`
}

func (r *UserRegisterDTO) Input() *users.RegisterInput {
	return &users.RegisterInput{
		NomeCompleto:       r.NomeCompleto,
		Email:              r.Email,
		Password:           r.Password,
		LocationPreference: r.LocationPreference,
		SubscribedAlerts:   r.SubscribedAlerts,
	}
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserUpdateDTO struct {
	NomeCompleto       string   `json:"nomeCompleto"`
	Email              string   `json:"email"`
	LocationPreference string   `json:"locationPreference"`
	SubscribedAlerts   []string `json:"subscribedAlerts"`
	Role               *string  `json:"role,omitempty"`
}

func (r *UserUpdateDTO) Input() *users.UpdateInput {
	return &users.UpdateInput{
		NomeCompleto:       r.NomeCompleto,
		Email:              r.Email,
		LocationPreference: r.LocationPreference,
		SubscribedAlerts:   r.SubscribedAlerts,
		Role:               r.Role,
	}
}

type PasswordChangeDTO struct {
	OldPassword string `json:"oldPassword" validate:"required,notblank"`
	NewPassword string `json:"newPassword" validate:"required,notblank,max=72"`
}

func (r *PasswordChangeDTO) Validate() error {
	return validation.Struct(r, validation.Messages{
		"OldPassword": {"*": "oldPassword and newPassword are required"},
		"NewPassword": {
			"required": "oldPassword and newPassword are required",
			"notblank": "oldPassword and newPassword are required",
			"max":      "password is too long",
		},
	}, "invalid request")
}
