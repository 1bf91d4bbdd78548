package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PabloPavan/alerta_api/internal/alerts"
	"github.com/PabloPavan/alerta_api/internal/apikeys"
	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/imagestore"
	"github.com/PabloPavan/alerta_api/internal/reports"
	"github.com/PabloPavan/alerta_api/internal/shelters"
	"github.com/PabloPavan/alerta_api/internal/users"
	"github.com/PabloPavan/alerta_api/internal/zones"
)

const testKey = "web-secret"

type pingStub struct{ err error }

func (p pingStub) Ping(ctx context.Context) error { return p.err }

type reportsStub struct {
	submitFn       func(ctx context.Context, d *reports.Draft) (*reports.Report, error)
	getFn          func(ctx context.Context, id int64) (*reports.Report, error)
	updateStatusFn func(ctx context.Context, id int64, status string) (*reports.Report, error)
	deleteFn       func(ctx context.Context, id int64) error
}

func (s *reportsStub) Submit(ctx context.Context, d *reports.Draft) (*reports.Report, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, d)
	}
	return &reports.Report{ID: 1}, nil
}

func (s *reportsStub) Get(ctx context.Context, id int64) (*reports.Report, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, apperrors.New(apperrors.KindNotFound, "report not found")
}

func (s *reportsStub) List(ctx context.Context) ([]*reports.Report, error) {
	return []*reports.Report{}, nil
}

func (s *reportsStub) Update(ctx context.Context, id int64, p *reports.Patch) (*reports.Report, error) {
	return &reports.Report{ID: id, EventType: p.EventType}, nil
}

func (s *reportsStub) UpdateStatus(ctx context.Context, id int64, status string) (*reports.Report, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, id, status)
	}
	return &reports.Report{ID: id, Status: status}, nil
}

func (s *reportsStub) Delete(ctx context.Context, id int64) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type usersStub struct {
	loginFn          func(ctx context.Context, in *users.LoginInput) (*users.User, error)
	changePasswordFn func(ctx context.Context, id int64, oldPassword, newPassword string) error
}

func (s *usersStub) Register(ctx context.Context, in *users.RegisterInput) (*users.User, error) {
	return &users.User{ID: 1, NomeCompleto: in.NomeCompleto, Email: in.Email}, nil
}

func (s *usersStub) Login(ctx context.Context, in *users.LoginInput) (*users.User, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, in)
	}
	return nil, users.ErrInvalidCredentials
}

func (s *usersStub) Get(ctx context.Context, id int64) (*users.User, error) {
	return &users.User{ID: id}, nil
}

func (s *usersStub) List(ctx context.Context) ([]*users.User, error) {
	return []*users.User{}, nil
}

func (s *usersStub) Update(ctx context.Context, id int64, in *users.UpdateInput) (*users.User, error) {
	return &users.User{ID: id}, nil
}

func (s *usersStub) Delete(ctx context.Context, id int64) error { return nil }

func (s *usersStub) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	if s.changePasswordFn != nil {
		return s.changePasswordFn(ctx, id, oldPassword, newPassword)
	}
	return nil
}

type resourceStub[T any] struct {
	created *T
	deleted int64
}

func (s *resourceStub[T]) Create(ctx context.Context, v *T) (*T, error) {
	s.created = v
	return v, nil
}

func (s *resourceStub[T]) Get(ctx context.Context, id int64) (*T, error) {
	if id <= 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid id")
	}
	return nil, apperrors.New(apperrors.KindNotFound, "not found")
}

func (s *resourceStub[T]) List(ctx context.Context) ([]*T, error) { return []*T{}, nil }

func (s *resourceStub[T]) Update(ctx context.Context, id int64, v *T) (*T, error) { return v, nil }

func (s *resourceStub[T]) Delete(ctx context.Context, id int64) error {
	s.deleted = id
	return nil
}

type fixture struct {
	handler  http.Handler
	reports  *reportsStub
	users    *usersStub
	shelters *resourceStub[shelters.Shelter]
	images   *imagestore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	images, err := imagestore.New(filepath.Join(t.TempDir(), "imgs"), "/uploads/report-images")
	if err != nil {
		t.Fatalf("image store: %v", err)
	}

	f := &fixture{
		reports:  &reportsStub{},
		users:    &usersStub{},
		shelters: &resourceStub[shelters.Shelter]{},
		images:   images,
	}
	f.handler = NewRouter(&App{
		Health:       &HealthHandler{DB: pingStub{}},
		Reports:      &ReportsHandler{Service: f.reports, MaxUploadBytes: 1 << 20},
		Users:        &UsersHandler{Service: f.users},
		Shelters:     &ResourceHandler[shelters.Shelter]{Service: f.shelters},
		Alerts:       &ResourceHandler[alerts.Alert]{Service: &resourceStub[alerts.Alert]{}},
		Zones:        &ResourceHandler[zones.Zone]{Service: &resourceStub[zones.Zone]{}},
		Images:       &ImagesHandler{Store: images},
		ImageBaseURL: images.BaseURL(),
		APIKeys:      apikeys.NewKeyring(map[string]string{apikeys.ClientWeb: testKey, apikeys.ClientMobile: "mobile-secret"}),
	})
	return f
}

func (f *fixture) do(method, path string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("X-API-Key", testKey)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["db"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	f := newFixture(t)

	for _, key := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/reportes", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("key %q: unexpected status %d", key, rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != "API Key is missing or invalid" {
			t.Fatalf("unexpected body: %q", rec.Body.String())
		}
	}

	rec := f.do(http.MethodGet, "/reportes", nil, map[string]string{"X-API-Key": "mobile-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("mobile key rejected: %d", rec.Code)
	}
}

func TestCreateReportMultipart(t *testing.T) {
	f := newFixture(t)

	var got *reports.Draft
	var gotImage string
	f.reports.submitFn = func(ctx context.Context, d *reports.Draft) (*reports.Report, error) {
		got = d
		if d.Image != nil {
			b, _ := io.ReadAll(d.Image.Content)
			gotImage = string(b)
		}
		return &reports.Report{ID: 7, EventType: d.EventType, Status: reports.StatusNew}, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("eventType", "flood")
	_ = mw.WriteField("description", "water rising")
	_ = mw.WriteField("location", "Main St")
	_ = mw.WriteField("userId", "42")
	part, _ := mw.CreateFormFile("image", "photo.jpg")
	_, _ = part.Write([]byte("jpeg-bytes"))
	_ = mw.Close()

	rec := f.do(http.MethodPost, "/reportes", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if got == nil || got.EventType != "flood" || got.Location != "Main St" {
		t.Fatalf("unexpected draft: %+v", got)
	}
	if got.UserID == nil || *got.UserID != 42 {
		t.Fatalf("unexpected user id: %v", got.UserID)
	}
	if got.Image == nil || got.Image.Filename != "photo.jpg" || gotImage != "jpeg-bytes" {
		t.Fatalf("unexpected image: %+v %q", got.Image, gotImage)
	}

	var resp reports.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != 7 || resp.Status != reports.StatusNew {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateReportRejectsBadUserID(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("eventType", "flood")
	_ = mw.WriteField("userId", "abc")
	_ = mw.Close()

	rec := f.do(http.MethodPost, "/reportes", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestCreateReportRejectsNonMultipart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/reportes", strings.NewReader(`{"eventType":"flood"}`),
		map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestReportErrorsMapToStatus(t *testing.T) {
	f := newFixture(t)

	var seen int64 = -1
	f.reports.getFn = func(ctx context.Context, id int64) (*reports.Report, error) {
		seen = id
		if id <= 0 {
			return nil, apperrors.New(apperrors.KindInvalidInput, "invalid report id")
		}
		return nil, apperrors.New(apperrors.KindNotFound, "report not found")
	}

	rec := f.do(http.MethodGet, "/reportes/abc", nil, nil)
	if rec.Code != http.StatusBadRequest || seen != 0 {
		t.Fatalf("non numeric id: status=%d seen=%d", rec.Code, seen)
	}

	rec = f.do(http.MethodGet, "/reportes/99", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	f.reports.deleteFn = func(ctx context.Context, id int64) error {
		return apperrors.Wrap(apperrors.KindInternal, "failed to delete report", errors.New("pq: secret detail"))
	}
	rec = f.do(http.MethodDelete, "/reportes/1", nil, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("internal detail leaked: %q", rec.Body.String())
	}
}

func TestUpdateReportStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPatch, "/reportes/3/status", jsonBody(t, map[string]string{"status": "em_analise"}), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp reports.Report
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ID != 3 || resp.Status != "em_analise" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = f.do(http.MethodPatch, "/reportes/3/status", jsonBody(t, map[string]string{"status": "  "}), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank status: unexpected status %d", rec.Code)
	}

	rec = f.do(http.MethodPatch, "/reportes/3/status", strings.NewReader("{"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: unexpected status %d", rec.Code)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodDelete, "/reportes/5", nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("reportes: unexpected status %d", rec.Code)
	}
	if rec := f.do(http.MethodDelete, "/abrigos/8", nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("abrigos: unexpected status %d", rec.Code)
	}
	if f.shelters.deleted != 8 {
		t.Fatalf("unexpected deleted id: %d", f.shelters.deleted)
	}
}

func TestResourceCreate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/abrigos", jsonBody(t, map[string]any{
		"name":            "Ginásio",
		"servicesOffered": []string{"abrigo"},
	}), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if f.shelters.created == nil || f.shelters.created.Name != "Ginásio" {
		t.Fatalf("unexpected created shelter: %+v", f.shelters.created)
	}

	rec = f.do(http.MethodGet, "/mapas/0", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	rec = f.do(http.MethodGet, "/alertas/4", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestLoginFailuresAreUnauthorized(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/usuarios/login", jsonBody(t, LoginDTO{Email: "a@x.com", Password: "nope"}), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "invalid email or password" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}

	f.users.loginFn = func(ctx context.Context, in *users.LoginInput) (*users.User, error) {
		return nil, apperrors.RateLimit("too many login attempts", 30*time.Second)
	}
	rec = f.do(http.MethodPost, "/usuarios/login", jsonBody(t, LoginDTO{Email: "a@x.com", Password: "nope"}), nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("unexpected Retry-After: %q", rec.Header().Get("Retry-After"))
	}

	f.users.loginFn = func(ctx context.Context, in *users.LoginInput) (*users.User, error) {
		return &users.User{ID: 9, Email: in.Email, PasswordHash: "hash"}, nil
	}
	rec = f.do(http.MethodPost, "/usuarios/login", jsonBody(t, LoginDTO{Email: "a@x.com", Password: "secret"}), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash serialized: %s", rec.Body.String())
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)

	var gotID int64
	f.users.changePasswordFn = func(ctx context.Context, id int64, oldPassword, newPassword string) error {
		gotID = id
		if oldPassword != "old-secret" {
			return apperrors.New(apperrors.KindInvalidInput, "current password is incorrect")
		}
		return nil
	}

	rec := f.do(http.MethodPut, "/usuarios/4/senha",
		jsonBody(t, PasswordChangeDTO{OldPassword: "old-secret", NewPassword: "new-secret"}), nil)
	if rec.Code != http.StatusNoContent || gotID != 4 {
		t.Fatalf("unexpected status %d id %d", rec.Code, gotID)
	}

	rec = f.do(http.MethodPut, "/usuarios/4/senha",
		jsonBody(t, PasswordChangeDTO{OldPassword: "other", NewPassword: "new-secret"}), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	rec = f.do(http.MethodPut, "/usuarios/4/senha", jsonBody(t, PasswordChangeDTO{OldPassword: "old-secret"}), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing new password: unexpected status %d", rec.Code)
	}
}

func TestImagesArePublic(t *testing.T) {
	f := newFixture(t)

	url, err := f.images.Save(&imagestore.Upload{Filename: "a.png", Size: 3, Content: strings.NewReader("png")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "png" {
		t.Fatalf("unexpected image response: %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/uploads/report-images/missing.png", nil)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status for missing image: %d", rec.Code)
	}
}

func TestAPIKeyMiddlewareRecordsClient(t *testing.T) {
	keys := apikeys.NewKeyring(map[string]string{apikeys.ClientWeb: "w", apikeys.ClientMobile: "m"})

	var seen string
	h := APIKeyMiddleware(keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientLabel(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "m")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != apikeys.ClientMobile {
		t.Fatalf("unexpected client: %q", seen)
	}

	if got := clientLabel(context.Background()); got != "unknown" {
		t.Fatalf("unexpected default label: %q", got)
	}
}
