package httpapi

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/PabloPavan/alerta_api/internal/imagestore"
	"github.com/PabloPavan/alerta_api/internal/reports"
	"github.com/PabloPavan/alerta_api/internal/telemetry"
	"github.com/go-chi/chi/v5"
)

const defaultUploadMaxBytes = 10 << 20

type ReportsService interface {
	Submit(ctx context.Context, draft *reports.Draft) (*reports.Report, error)
	Get(ctx context.Context, id int64) (*reports.Report, error)
	List(ctx context.Context) ([]*reports.Report, error)
	Update(ctx context.Context, id int64, patch *reports.Patch) (*reports.Report, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*reports.Report, error)
	Delete(ctx context.Context, id int64) error
}

type ReportsHandler struct {
	Service        ReportsService
	MaxUploadBytes int64
}

// Create Report
// @Summary Submit report
// @Tags reportes
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param reporterName formData string false "reporter name"
// @Param eventType formData string true "event type"
// @Param description formData string true "description"
// @Param location formData string true "location"
// @Param userId formData int false "user id"
// @Param image formData file false "image"
// @Success 201 {object} reports.Report
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /reportes [post]
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultUploadMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	draft := &reports.Draft{
		ReporterName: r.FormValue("reporterName"),
		EventType:    r.FormValue("eventType"),
		Description:  r.FormValue("description"),
		Location:     r.FormValue("location"),
	}

	if raw := strings.TrimSpace(r.FormValue("userId")); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "invalid userId", http.StatusBadRequest)
			return
		}
		draft.UserID = &userID
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		http.Error(w, "invalid image", http.StatusBadRequest)
		return
	default:
		defer file.Close()
		draft.Image = uploadFrom(file, header)
	}

	report, err := h.Service.Submit(r.Context(), draft)
	if err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "report submitted",
		telemetry.LogString("event", "report.submitted"),
		telemetry.LogString("api.client", clientLabel(r.Context())),
		telemetry.LogInt64("report.id", report.ID),
		telemetry.LogString("report.event_type", report.EventType),
		telemetry.LogBool("report.has_image", report.ImageURL != nil),
	)

	writeJSON(w, http.StatusCreated, report)
}

// List Reports
// @Summary List reports, most recent first
// @Tags reportes
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} reports.Report
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /reportes [get]
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetByID Report
// @Summary Get report by id
// @Tags reportes
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "report id"
// @Success 200 {object} reports.Report
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /reportes/{id} [get]
func (h *ReportsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Get(r.Context(), pathID(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Update Report
// @Summary Update report (moderation)
// @Tags reportes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "report id"
// @Param body body ReportUpdateDTO true "report"
// @Success 200 {object} reports.Report
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /reportes/{id} [put]
func (h *ReportsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ReportUpdateDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	report, err := h.Service.Update(r.Context(), pathID(r), req.Patch())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// UpdateStatus Report
// @Summary Change report status
// @Tags reportes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "report id"
// @Param body body ReportStatusDTO true "status"
// @Success 200 {object} reports.Report
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /reportes/{id}/status [patch]
func (h *ReportsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req ReportStatusDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeAppError(w, err)
		return
	}

	report, err := h.Service.UpdateStatus(r.Context(), pathID(r), req.Status)
	if err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "report status changed",
		telemetry.LogString("event", "report.status_changed"),
		telemetry.LogString("api.client", clientLabel(r.Context())),
		telemetry.LogInt64("report.id", report.ID),
		telemetry.LogString("report.status", report.Status),
	)

	writeJSON(w, http.StatusOK, report)
}

// Delete Report
// @Summary Delete report and its image
// @Tags reportes
// @Security ApiKeyAuth
// @Param id path int true "report id"
// @Success 204
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /reportes/{id} [delete]
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), pathID(r)); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func uploadFrom(file multipart.File, header *multipart.FileHeader) *imagestore.Upload {
	return &imagestore.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}
}

// pathID returns the {id} URL parameter, or 0 when it is not an integer so
// the service reports it as invalid.
func pathID(r *http.Request) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
