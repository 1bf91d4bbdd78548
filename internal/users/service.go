package users

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/password"
	"github.com/PabloPavan/alerta_api/internal/telemetry"
	"github.com/PabloPavan/alerta_api/internal/validation"
	"go.opentelemetry.io/otel/attribute"
)

type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// RateLimiter throttles login attempts per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type Service struct {
	Store            Store
	PasswordHasher   func(plain string) (string, error)
	PasswordVerifier func(plain, hash string) bool
	LoginLimiter     RateLimiter
	Now              func() time.Time
}

const minPasswordLen = 6

var errInvalidID = apperrors.New(apperrors.KindInvalidInput, "invalid user id")

func (s *Service) Register(ctx context.Context, in *RegisterInput) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if in == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "nomeCompleto, email and password are required")
	}
	if err := validation.Struct(in, validation.Messages{
		"NomeCompleto": {"*": "nomeCompleto, email and password are required"},
		"Email": {
			"required":  "nomeCompleto, email and password are required",
			"notblank":  "nomeCompleto, email and password are required",
			"emailaddr": "invalid email",
		},
		"Password": {
			"required": "nomeCompleto, email and password are required",
			"notblank": "nomeCompleto, email and password are required",
			"min":      "password must have at least 6 characters",
			"max":      "password is too long",
		},
		"LocationPreference": {"max": "locationPreference is too long"},
		"SubscribedAlerts":   {"*": "invalid subscribedAlerts"},
	}, "invalid request"); err != nil {
		return nil, err
	}
	if password.TooLong(in.Password) {
		return nil, password.ErrTooLong
	}

	email := normalizeEmail(in.Email)
	existing, err := s.Store.GetByEmail(ctx, email)
	if err != nil && !IsNotFound(err) {
		telemetry.LogError(ctx, "user lookup by email failed", telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to create user")
	}
	if existing != nil {
		return nil, errEmailInUse
	}

	_, span := telemetry.StartSpan(ctx, "users.hash_password")
	hash, err := s.hasher()(in.Password)
	span.End()
	if err != nil {
		return nil, hashFailure(err)
	}

	u := &User{
		NomeCompleto:       in.NomeCompleto,
		Email:              email,
		PasswordHash:       hash,
		LocationPreference: in.LocationPreference,
		SubscribedAlerts:   normalizeAlerts(in.SubscribedAlerts),
		Role:               RoleUser,
		CreatedAt:          s.now(),
	}

	createCtx, span := telemetry.StartSpan(ctx, "users.create",
		attribute.String("user.email", u.Email),
	)
	err = s.Store.Create(createCtx, u)
	span.End()
	if err != nil {
		if IsEmailTaken(err) {
			return nil, errEmailInUse
		}
		telemetry.LogError(ctx, "user create failed", telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to create user")
	}

	return scrub(u), nil
}

// Login verifies credentials. Unknown email and wrong password both yield
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in *LoginInput) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if in == nil || validation.Blank(in.Email) || validation.Blank(in.Password) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "email and password are required")
	}

	email := normalizeEmail(in.Email)

	if s.LoginLimiter != nil {
		allowed, retryAfter, err := s.LoginLimiter.Allow(ctx, "login:"+email)
		if err != nil {
			telemetry.LogWarn(ctx, "login rate limiter unavailable", telemetry.LogErr(err))
		} else if !allowed {
			return nil, apperrors.RateLimit("too many login attempts", retryAfter)
		}
	}

	u, err := s.Store.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		telemetry.LogError(ctx, "user lookup by email failed", telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to login")
	}

	_, span := telemetry.StartSpan(ctx, "users.verify_password")
	ok := s.verifier()(in.Password, u.PasswordHash)
	span.End()
	if !ok {
		telemetry.LogWarn(ctx, "login failed",
			telemetry.LogString("event", "user.login_failed"),
			telemetry.LogInt64("user.id", u.ID),
		)
		return nil, ErrInvalidCredentials
	}

	return scrub(u), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if id <= 0 {
		return nil, errInvalidID
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return scrub(u), nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}

	list, err := s.Store.List(ctx)
	if err != nil {
		telemetry.LogError(ctx, "user list failed", telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to list users")
	}
	out := make([]*User, 0, len(list))
	for _, u := range list {
		out = append(out, scrub(u))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, in *UpdateInput) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if id <= 0 {
		return nil, errInvalidID
	}
	if in == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "nomeCompleto and email are required")
	}
	if err := validation.Struct(in, validation.Messages{
		"NomeCompleto": {"*": "nomeCompleto and email are required"},
		"Email": {
			"required":  "nomeCompleto and email are required",
			"notblank":  "nomeCompleto and email are required",
			"emailaddr": "invalid email",
		},
		"LocationPreference": {"max": "locationPreference is too long"},
		"SubscribedAlerts":   {"*": "invalid subscribedAlerts"},
		"Role":               {"max": "role is too long"},
	}, "invalid request"); err != nil {
		return nil, err
	}

	role := RoleUser
	if in.Role != nil {
		role = ParseUserRole(*in.Role)
	}

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if email != u.Email {
		other, err := s.Store.GetByEmail(ctx, email)
		if err != nil && !IsNotFound(err) {
			telemetry.LogError(ctx, "user lookup by email failed", telemetry.LogErr(err))
			return nil, apperrors.New(apperrors.KindInternal, "failed to update user")
		}
		if other != nil && other.ID != id {
			return nil, errEmailInUse
		}
	}

	u.NomeCompleto = in.NomeCompleto
	u.Email = email
	u.LocationPreference = in.LocationPreference
	u.SubscribedAlerts = normalizeAlerts(in.SubscribedAlerts)
	u.Role = role

	if err := s.Store.Update(ctx, u); err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		if IsEmailTaken(err) {
			return nil, errEmailInUse
		}
		telemetry.LogError(ctx, "user update failed", telemetry.LogInt64("user.id", id), telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to update user")
	}

	return scrub(u), nil
}

// Delete removes the account. Reports filed by the user keep their userId.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if id <= 0 {
		return errInvalidID
	}

	if err := s.Store.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "user not found")
		}
		telemetry.LogError(ctx, "user delete failed", telemetry.LogInt64("user.id", id), telemetry.LogErr(err))
		return apperrors.New(apperrors.KindInternal, "failed to delete user")
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if id <= 0 {
		return errInvalidID
	}
	if validation.Blank(oldPassword) || validation.Blank(newPassword) {
		return apperrors.New(apperrors.KindInvalidInput, "oldPassword and newPassword are required")
	}
	if len([]rune(newPassword)) < minPasswordLen {
		return apperrors.New(apperrors.KindInvalidInput, "password must have at least 6 characters")
	}
	if password.TooLong(newPassword) {
		return password.ErrTooLong
	}

	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.verifier()(oldPassword, u.PasswordHash) {
		return apperrors.New(apperrors.KindInvalidInput, "old password is incorrect")
	}

	hash, err := s.hasher()(newPassword)
	if err != nil {
		return hashFailure(err)
	}
	if err := s.Store.UpdatePassword(ctx, id, hash); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "user not found")
		}
		telemetry.LogError(ctx, "password update failed", telemetry.LogInt64("user.id", id), telemetry.LogErr(err))
		return apperrors.New(apperrors.KindInternal, "failed to update password")
	}

	telemetry.LogInfo(ctx, "user password changed",
		telemetry.LogString("event", "user.password_changed"),
		telemetry.LogInt64("user.id", id),
	)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*User, error) {
	u, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		telemetry.LogError(ctx, "user load failed", telemetry.LogInt64("user.id", id), telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to load user")
	}
	return u, nil
}

// hashFailure keeps input errors from the hasher and hides the rest.
func hashFailure(err error) error {
	if apperrors.KindOf(err) == apperrors.KindInvalidInput {
		return err
	}
	return apperrors.New(apperrors.KindInternal, "failed to process password")
}

func (s *Service) hasher() func(string) (string, error) {
	if s.PasswordHasher != nil {
		return s.PasswordHasher
	}
	return password.Hash
}

func (s *Service) verifier() func(string, string) bool {
	if s.PasswordVerifier != nil {
		return s.PasswordVerifier
	}
	return password.Verify
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// scrub returns a copy of u without the password hash.
func scrub(u *User) *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	if out.SubscribedAlerts == nil {
		out.SubscribedAlerts = []string{}
	}
	return &out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeAlerts trims, de-duplicates and sorts alert tags.
func normalizeAlerts(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
