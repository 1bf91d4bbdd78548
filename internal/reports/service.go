package reports

import (
	"context"
	"strings"
	"time"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/imagestore"
	"github.com/PabloPavan/alerta_api/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

type Store interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id int64) (*Report, error)
	List(ctx context.Context) ([]*Report, error)
	Update(ctx context.Context, r *Report) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type ImageStore interface {
	Save(up *imagestore.Upload) (string, error)
	Delete(url string) error
}

type Service struct {
	Store        Store
	Images       ImageStore
	Cache        Cache
	CacheTTL     time.Duration
	ListCacheTTL time.Duration
	// FillTimeout bounds a shared list read. Zero means DefaultFillTimeout.
	FillTimeout time.Duration
	Now         func() time.Time

	listFill singleflight.Group
}

const DefaultFillTimeout = 3 * time.Second

var errInvalidID = apperrors.New(apperrors.KindInvalidInput, "invalid id")

func (s *Service) Submit(ctx context.Context, draft *Draft) (*Report, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "reports store not configured")
	}
	if draft == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "report is required")
	}
	if blank(draft.EventType) || blank(draft.Description) || blank(draft.Location) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "eventType, description and location are required")
	}

	reporter := draft.ReporterName
	if blank(reporter) {
		reporter = DefaultReporterName
	}

	report := &Report{
		ReporterName: reporter,
		EventType:    draft.EventType,
		Description:  draft.Description,
		Location:     draft.Location,
		UserID:       draft.UserID,
		CreatedAt:    s.now(),
		Status:       StatusNew,
		Severity:     SeverityUndefined,
		AdminNotes:   "",
	}

	if !draft.Image.Empty() {
		if s.Images == nil {
			return nil, apperrors.New(apperrors.KindInternal, "image store not configured")
		}
		_, span := telemetry.StartSpan(ctx, "reports.save_image",
			attribute.Int64("image.size", draft.Image.Size),
		)
		url, err := s.Images.Save(draft.Image)
		span.End()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInvalidInput, "failed to store image", err)
		}
		report.ImageURL = &url
	}

	if err := s.Store.Create(ctx, report); err != nil {
		if report.ImageURL != nil {
			s.discardImage(ctx, *report.ImageURL, 0)
		}
		telemetry.LogError(ctx, "report create failed", telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to create report")
	}

	s.invalidate(ctx, 0)
	return report, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Report, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "reports store not configured")
	}
	if id <= 0 {
		return nil, errInvalidID
	}

	if s.Cache != nil {
		if cached, ok, err := s.Cache.GetByID(ctx, id); err == nil && ok {
			return cached, nil
		}
	}

	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil && s.CacheTTL > 0 {
		_ = s.Cache.SetByID(ctx, report, s.CacheTTL)
	}
	return report, nil
}

// List returns every report, most recent first. Concurrent cache misses share
// one storage read.
func (s *Service) List(ctx context.Context) ([]*Report, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "reports store not configured")
	}

	if s.Cache == nil {
		return s.listFromStore(ctx)
	}

	if cached, ok, err := s.Cache.GetList(ctx); err == nil && ok {
		return cached, nil
	}

	v, err, _ := s.listFill.Do("all", func() (any, error) {
		// Waiters share this read, so it outlives the caller that started it.
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fillTimeout())
		defer cancel()

		list, err := s.listFromStore(fillCtx)
		if err != nil {
			return nil, err
		}
		if s.ListCacheTTL > 0 {
			_ = s.Cache.SetList(fillCtx, list, s.ListCacheTTL)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Report), nil
}

func (s *Service) Update(ctx context.Context, id int64, patch *Patch) (*Report, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "reports store not configured")
	}
	if id <= 0 {
		return nil, errInvalidID
	}
	if patch == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "report is required")
	}
	if blank(patch.EventType) || blank(patch.Description) || blank(patch.Location) ||
		blank(patch.Status) || blank(patch.Severity) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "eventType, description, location, status and severity are required")
	}

	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	report.EventType = patch.EventType
	report.Description = patch.Description
	report.Location = patch.Location
	report.Status = patch.Status
	report.Severity = patch.Severity

	report.AdminNotes = ""
	if patch.AdminNotes != nil {
		report.AdminNotes = *patch.AdminNotes
	}
	if patch.ReporterName != nil && !blank(*patch.ReporterName) {
		report.ReporterName = *patch.ReporterName
	}

	oldImage := deref(report.ImageURL)
	newImage := ""
	if patch.ImageURL != nil {
		newImage = strings.TrimSpace(*patch.ImageURL)
	}
	report.ImageURL = nil
	if newImage != "" {
		report.ImageURL = &newImage
	}

	if err := s.Store.Update(ctx, report); err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "report not found")
		}
		telemetry.LogError(ctx, "report update failed", telemetry.LogInt64("report.id", id), telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to update report")
	}

	if oldImage != "" && oldImage != newImage {
		s.discardImage(ctx, oldImage, id)
	}
	s.invalidate(ctx, id)

	return report, nil
}

// UpdateStatus changes only the status of a report.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Report, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "reports store not configured")
	}
	if id <= 0 {
		return nil, errInvalidID
	}
	if blank(status) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "status is required")
	}

	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Store.UpdateStatus(ctx, id, status); err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "report not found")
		}
		telemetry.LogError(ctx, "report status update failed", telemetry.LogInt64("report.id", id), telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to update report status")
	}
	report.Status = status
	s.invalidate(ctx, id)
	return report, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "reports store not configured")
	}
	if id <= 0 {
		return errInvalidID
	}

	report, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if report.ImageURL != nil {
		s.discardImage(ctx, *report.ImageURL, id)
	}

	if err := s.Store.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "report not found")
		}
		telemetry.LogError(ctx, "report delete failed", telemetry.LogInt64("report.id", id), telemetry.LogErr(err))
		return apperrors.New(apperrors.KindInternal, "failed to delete report")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*Report, error) {
	report, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "report not found")
		}
		telemetry.LogError(ctx, "report load failed", telemetry.LogInt64("report.id", id), telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to load report")
	}
	return report, nil
}

func (s *Service) fillTimeout() time.Duration {
	if s.FillTimeout > 0 {
		return s.FillTimeout
	}
	return DefaultFillTimeout
}

func (s *Service) listFromStore(ctx context.Context) ([]*Report, error) {
	list, err := s.Store.List(ctx)
	if err != nil {
		telemetry.LogError(ctx, "report list failed", telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to list reports")
	}
	if list == nil {
		list = []*Report{}
	}
	return list, nil
}

// discardImage removes a stored image. Failures are logged and dropped.
func (s *Service) discardImage(ctx context.Context, url string, reportID int64) {
	if s.Images == nil || url == "" {
		return
	}
	if err := s.Images.Delete(url); err != nil {
		telemetry.LogWarn(ctx, "report image cleanup failed",
			telemetry.LogInt64("report.id", reportID),
			telemetry.LogString("image.url", url),
			telemetry.LogErr(err),
		)
	}
}

// invalidate drops the cached list and, when id > 0, the cached report.
func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.Cache == nil {
		return
	}
	if id > 0 {
		_ = s.Cache.DeleteByID(ctx, id)
	}
	_ = s.Cache.DeleteList(ctx)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
