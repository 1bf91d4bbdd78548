package reports

import (
	"time"

	"github.com/PabloPavan/alerta_api/internal/imagestore"
)

const (
	DefaultReporterName = "Anônimo"
	StatusNew           = "novo"
	SeverityUndefined   = "nao_definida"
)

type Report struct {
	ID           int64     `json:"id"`
	ReporterName string    `json:"reporterName"`
	EventType    string    `json:"eventType"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	ImageURL     *string   `json:"imageUrl"`
	UserID       *int64    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	Status       string    `json:"status"`
	Severity     string    `json:"severity"`
	AdminNotes   string    `json:"adminNotes"`
}

// Draft is a citizen submission. Image may be nil.
type Draft struct {
	ReporterName string
	EventType    string
	Description  string
	Location     string
	UserID       *int64
	Image        *imagestore.Upload
}

// Patch is a moderator edit. Nil pointers mean the field was absent.
type Patch struct {
	ReporterName *string
	EventType    string
	Description  string
	Location     string
	Status       string
	Severity     string
	AdminNotes   *string
	ImageURL     *string
}
