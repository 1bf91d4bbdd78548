package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/password"
	"github.com/jackc/pgx/v5/pgconn"
)

type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]User

	createFn func(ctx context.Context, u *User) error
	listFn   func(ctx context.Context) ([]*User, error)

	passwordUpdates int
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]User{}}
}

func (m *memStore) Create(ctx context.Context, u *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	m.rows[u.ID] = *u
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) List(ctx context.Context) ([]*User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*User, 0, len(m.rows))
	for _, u := range m.rows {
		u := u
		out = append(out, &u)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[u.ID]
	if !ok {
		return ErrNotFound
	}
	next := *u
	next.PasswordHash = cur.PasswordHash
	m.rows[u.ID] = next
	return nil
}

func (m *memStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	m.passwordUpdates++
	u.PasswordHash = hash
	m.rows[id] = u
	return nil
}

func (m *memStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type limiterStub struct {
	allowFn func(ctx context.Context, key string) (bool, time.Duration, error)
	keys    []string
}

func (l *limiterStub) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	if l.allowFn != nil {
		return l.allowFn(ctx, key)
	}
	return true, 0, nil
}

// newService swaps bcrypt for a reversible fake hasher.
func newService(store Store) *Service {
	return &Service{
		Store: store,
		PasswordHasher: func(plain string) (string, error) {
			return "hashed:" + plain, nil
		},
		PasswordVerifier: func(plain, hash string) bool {
			return hash == "hashed:"+plain
		},
	}
}

func register(t *testing.T, svc *Service, name, email, pass string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), &RegisterInput{NomeCompleto: name, Email: email, Password: pass})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	return u
}

func TestRegisterAnaScenario(t *testing.T) {
	store := newMemStore()
	svc := newService(store)

	_, err := svc.Register(context.Background(), &RegisterInput{NomeCompleto: "Ana", Email: "Ana@X.com", Password: "12345"})
	assertKind(t, err, apperrors.KindInvalidInput)
	if len(store.rows) != 0 {
		t.Fatal("nothing should be persisted for a short password")
	}

	u := register(t, svc, "Ana", "Ana@X.com", "123456")
	if u.Email != "ana@x.com" {
		t.Fatalf("unexpected email: %s", u.Email)
	}
	stored := store.rows[u.ID]
	if stored.Email != "ana@x.com" {
		t.Fatalf("unexpected stored email: %s", stored.Email)
	}
	if stored.PasswordHash != "hashed:123456" {
		t.Fatalf("unexpected stored hash: %s", stored.PasswordHash)
	}
	if u.PasswordHash != "" {
		t.Fatal("returned user must not carry the hash")
	}
	if u.Role != RoleUser {
		t.Fatalf("unexpected role: %s", u.Role)
	}
	if u.SubscribedAlerts == nil || len(u.SubscribedAlerts) != 0 {
		t.Fatalf("expected empty alerts, got %v", u.SubscribedAlerts)
	}
	if u.CreatedAt.IsZero() {
		t.Fatal("expected createdAt")
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name string
		in   *RegisterInput
		msg  string
	}{
		{"nil", nil, "nomeCompleto, email and password are required"},
		{"blank name", &RegisterInput{NomeCompleto: " ", Email: "a@b.com", Password: "123456"}, "nomeCompleto, email and password are required"},
		{"blank email", &RegisterInput{NomeCompleto: "A", Email: "", Password: "123456"}, "nomeCompleto, email and password are required"},
		{"blank password", &RegisterInput{NomeCompleto: "A", Email: "a@b.com", Password: "   "}, "nomeCompleto, email and password are required"},
		{"bad email", &RegisterInput{NomeCompleto: "A", Email: "a@b", Password: "123456"}, "invalid email"},
		{"short password", &RegisterInput{NomeCompleto: "A", Email: "a@b.com", Password: "12345"}, "password must have at least 6 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(newMemStore())
			_, err := svc.Register(context.Background(), tc.in)
			assertKind(t, err, apperrors.KindInvalidInput)
			if err.Error() != tc.msg {
				t.Fatalf("unexpected message: %q", err.Error())
			}
		})
	}
}

func TestRegisterDuplicateEmailIgnoresCase(t *testing.T) {
	svc := newService(newMemStore())
	register(t, svc, "Ana", "ana@x.com", "123456")

	_, err := svc.Register(context.Background(), &RegisterInput{NomeCompleto: "Other", Email: "  ANA@X.COM ", Password: "abcdef"})
	assertKind(t, err, apperrors.KindInvalidInput)
	if err.Error() != "email already in use" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestRegisterUniqueViolationIsBadRequest(t *testing.T) {
	store := newMemStore()
	store.createFn = func(ctx context.Context, u *User) error {
		return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	svc := newService(store)

	_, err := svc.Register(context.Background(), &RegisterInput{NomeCompleto: "A", Email: "a@b.com", Password: "123456"})
	assertKind(t, err, apperrors.KindInvalidInput)
}

func TestEmailTakenInStoreIsBadRequest(t *testing.T) {
	store := newMemStore()
	store.createFn = func(ctx context.Context, u *User) error {
		return ErrEmailTaken
	}
	svc := newService(store)
	_, err := svc.Register(context.Background(), &RegisterInput{NomeCompleto: "Ana", Email: "ana@x.com", Password: "123456"})
	assertKind(t, err, apperrors.KindInvalidInput)
	if err.Error() != "email already in use" {
		t.Fatalf("unexpected message: %v", err)
	}

	if !IsEmailTaken(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})) {
		t.Fatal("expected constraint violation to count as taken")
	}
	if IsEmailTaken(errors.New("boom")) {
		t.Fatal("unrelated error must not count as taken")
	}
}

func TestRegisterNormalizesAlerts(t *testing.T) {
	svc := newService(newMemStore())

	u, err := svc.Register(context.Background(), &RegisterInput{
		NomeCompleto:     "Ana",
		Email:            "ana@x.com",
		Password:         "123456",
		SubscribedAlerts: []string{"flood", " fire ", "flood", "", "alto"},
	})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	want := []string{"alto", "fire", "flood"}
	if strings.Join(u.SubscribedAlerts, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected alerts: %v", u.SubscribedAlerts)
	}
}

func TestRegisterWithBcrypt(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store}

	u := register(t, svc, "Ana", "ana@x.com", "123456")
	stored := store.rows[u.ID]
	if !password.Verify("123456", stored.PasswordHash) {
		t.Fatal("stored hash must verify with bcrypt")
	}

	logged, err := svc.Login(context.Background(), &LoginInput{Email: "ANA@x.com", Password: "123456"})
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if logged.PasswordHash != "" {
		t.Fatal("login must scrub the hash")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newService(newMemStore())
	register(t, svc, "Ana", "ana@x.com", "123456")

	_, wrongPass := svc.Login(context.Background(), &LoginInput{Email: "ana@x.com", Password: "wrong-pass"})
	_, unknown := svc.Login(context.Background(), &LoginInput{Email: "nobody@x.com", Password: "123456"})

	if !errors.Is(wrongPass, ErrInvalidCredentials) || !errors.Is(unknown, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v and %v", wrongPass, unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPass.Error(), unknown.Error())
	}
	assertKind(t, wrongPass, apperrors.KindInvalidInput)
	assertKind(t, unknown, apperrors.KindInvalidInput)
}

func TestLoginRequiresCredentials(t *testing.T) {
	svc := newService(newMemStore())

	_, err := svc.Login(context.Background(), nil)
	assertKind(t, err, apperrors.KindInvalidInput)

	_, err = svc.Login(context.Background(), &LoginInput{Email: "a@b.com", Password: " "})
	assertKind(t, err, apperrors.KindInvalidInput)
}

func TestLoginRateLimited(t *testing.T) {
	svc := newService(newMemStore())
	register(t, svc, "Ana", "ana@x.com", "123456")

	limiter := &limiterStub{allowFn: func(ctx context.Context, key string) (bool, time.Duration, error) {
		return false, 30 * time.Second, nil
	}}
	svc.LoginLimiter = limiter

	_, err := svc.Login(context.Background(), &LoginInput{Email: "Ana@X.com", Password: "123456"})
	assertKind(t, err, apperrors.KindRateLimited)

	var appErr *apperrors.Error
	errors.As(err, &appErr)
	if appErr.RetryAfter != 30*time.Second {
		t.Fatalf("unexpected retry after: %s", appErr.RetryAfter)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "login:ana@x.com" {
		t.Fatalf("unexpected limiter keys: %v", limiter.keys)
	}
}

func TestLoginLimiterErrorFailsOpen(t *testing.T) {
	svc := newService(newMemStore())
	register(t, svc, "Ana", "ana@x.com", "123456")
	svc.LoginLimiter = &limiterStub{allowFn: func(ctx context.Context, key string) (bool, time.Duration, error) {
		return false, 0, errors.New("redis down")
	}}

	if _, err := svc.Login(context.Background(), &LoginInput{Email: "ana@x.com", Password: "123456"}); err != nil {
		t.Fatalf("login error: %v", err)
	}
}

func TestGetAndListScrubHash(t *testing.T) {
	svc := newService(newMemStore())
	a := register(t, svc, "Ana", "ana@x.com", "123456")
	register(t, svc, "Bia", "bia@x.com", "123456")

	got, err := svc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.PasswordHash != "" {
		t.Fatal("get must scrub the hash")
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("unexpected list size: %d", len(list))
	}
	for _, u := range list {
		if u.PasswordHash != "" {
			t.Fatalf("list entry %d carries a hash", u.ID)
		}
	}

	_, err = svc.Get(context.Background(), 0)
	assertKind(t, err, apperrors.KindInvalidInput)
	_, err = svc.Get(context.Background(), 99)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestListStorageFailure(t *testing.T) {
	store := newMemStore()
	store.listFn = func(ctx context.Context) ([]*User, error) {
		return nil, errors.New("connection reset")
	}
	_, err := newService(store).List(context.Background())
	assertKind(t, err, apperrors.KindInternal)
}

func TestUpdateUser(t *testing.T) {
	store := newMemStore()
	svc := newService(store)
	a := register(t, svc, "Ana", "ana@x.com", "123456")
	register(t, svc, "Bia", "bia@x.com", "123456")

	admin := " admin "
	updated, err := svc.Update(context.Background(), a.ID, &UpdateInput{
		NomeCompleto:       "Ana Souza",
		Email:              "Ana.Souza@X.com",
		LocationPreference: "Centro",
		SubscribedAlerts:   []string{"flood", "flood"},
		Role:               &admin,
	})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if updated.Email != "ana.souza@x.com" || updated.NomeCompleto != "Ana Souza" || updated.Role != RoleAdmin {
		t.Fatalf("unexpected user: %+v", updated)
	}
	if len(updated.SubscribedAlerts) != 1 {
		t.Fatalf("unexpected alerts: %v", updated.SubscribedAlerts)
	}
	if store.rows[a.ID].PasswordHash != "hashed:123456" {
		t.Fatal("update must not touch the password hash")
	}

	updated, err = svc.Update(context.Background(), a.ID, &UpdateInput{NomeCompleto: "Ana", Email: "ana.souza@x.com"})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if updated.Role != RoleUser {
		t.Fatalf("absent role must default to user, got %s", updated.Role)
	}
}

func TestUpdateUserValidation(t *testing.T) {
	svc := newService(newMemStore())
	a := register(t, svc, "Ana", "ana@x.com", "123456")
	register(t, svc, "Bia", "bia@x.com", "123456")
	ctx := context.Background()

	_, err := svc.Update(ctx, 0, &UpdateInput{NomeCompleto: "A", Email: "a@b.com"})
	assertKind(t, err, apperrors.KindInvalidInput)

	_, err = svc.Update(ctx, a.ID, nil)
	assertKind(t, err, apperrors.KindInvalidInput)

	_, err = svc.Update(ctx, a.ID, &UpdateInput{NomeCompleto: "", Email: "a@b.com"})
	assertKind(t, err, apperrors.KindInvalidInput)

	_, err = svc.Update(ctx, a.ID, &UpdateInput{NomeCompleto: "A", Email: "not-an-email"})
	assertKind(t, err, apperrors.KindInvalidInput)

	long := strings.Repeat("r", 65)
	_, err = svc.Update(ctx, a.ID, &UpdateInput{NomeCompleto: "A", Email: "a@b.com", Role: &long})
	assertKind(t, err, apperrors.KindInvalidInput)

	_, err = svc.Update(ctx, 99, &UpdateInput{NomeCompleto: "A", Email: "a@b.com"})
	assertKind(t, err, apperrors.KindNotFound)

	_, err = svc.Update(ctx, a.ID, &UpdateInput{NomeCompleto: "A", Email: "BIA@x.com"})
	assertKind(t, err, apperrors.KindInvalidInput)

	if _, err := svc.Update(ctx, a.ID, &UpdateInput{NomeCompleto: "A", Email: "ANA@x.com"}); err != nil {
		t.Fatalf("keeping own email must succeed: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	store := newMemStore()
	svc := newService(store)
	a := register(t, svc, "Ana", "ana@x.com", "123456")

	assertKind(t, svc.Delete(context.Background(), 0), apperrors.KindInvalidInput)
	assertKind(t, svc.Delete(context.Background(), 42), apperrors.KindNotFound)

	if err := svc.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatal("expected user removed")
	}
}

func TestChangePassword(t *testing.T) {
	store := newMemStore()
	svc := newService(store)
	a := register(t, svc, "Ana", "ana@x.com", "123456")
	ctx := context.Background()

	assertKind(t, svc.ChangePassword(ctx, 0, "123456", "abcdef"), apperrors.KindInvalidInput)
	assertKind(t, svc.ChangePassword(ctx, a.ID, "", "abcdef"), apperrors.KindInvalidInput)
	assertKind(t, svc.ChangePassword(ctx, a.ID, "123456", " "), apperrors.KindInvalidInput)
	assertKind(t, svc.ChangePassword(ctx, a.ID, "123456", "abc"), apperrors.KindInvalidInput)
	assertKind(t, svc.ChangePassword(ctx, 77, "123456", "abcdef"), apperrors.KindNotFound)
	assertKind(t, svc.ChangePassword(ctx, a.ID, "wrong", "abcdef"), apperrors.KindInvalidInput)
	if store.passwordUpdates != 0 {
		t.Fatal("no update expected on failures")
	}

	if err := svc.ChangePassword(ctx, a.ID, "123456", "abcdef"); err != nil {
		t.Fatalf("change password error: %v", err)
	}
	if store.rows[a.ID].PasswordHash != "hashed:abcdef" {
		t.Fatalf("unexpected hash: %s", store.rows[a.ID].PasswordHash)
	}
	if store.rows[a.ID].NomeCompleto != "Ana" {
		t.Fatal("change password must not touch other fields")
	}

	if _, err := svc.Login(ctx, &LoginInput{Email: "ana@x.com", Password: "abcdef"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPasswordsOverBcryptLimitAreRejected(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store}
	ctx := context.Background()

	for name, pass := range map[string]string{
		"ascii 73 bytes":     strings.Repeat("a", 73),
		"multibyte 50 runes": strings.Repeat("é", 50),
	} {
		t.Run("register "+name, func(t *testing.T) {
			_, err := svc.Register(ctx, &RegisterInput{NomeCompleto: "Ana", Email: "ana@x.com", Password: pass})
			assertKind(t, err, apperrors.KindInvalidInput)
			if !errors.Is(err, password.ErrTooLong) {
				t.Fatalf("expected ErrTooLong, got: %v", err)
			}
		})
	}
	if len(store.rows) != 0 {
		t.Fatal("no user expected")
	}

	fake := newService(store)
	a := register(t, fake, "Ana", "ana@x.com", "123456")
	fake.PasswordHasher = nil
	for name, pass := range map[string]string{
		"ascii 80 bytes":     strings.Repeat("a", 80),
		"multibyte 40 runes": strings.Repeat("é", 40),
	} {
		t.Run("change "+name, func(t *testing.T) {
			err := fake.ChangePassword(ctx, a.ID, "123456", pass)
			assertKind(t, err, apperrors.KindInvalidInput)
		})
	}
	if store.passwordUpdates != 0 {
		t.Fatal("no password update expected")
	}
}

func TestHasherInputErrorsStayBadRequest(t *testing.T) {
	svc := newService(newMemStore())
	svc.PasswordHasher = func(string) (string, error) { return "", password.ErrTooLong }
	_, err := svc.Register(context.Background(), &RegisterInput{NomeCompleto: "Ana", Email: "ana@x.com", Password: "123456"})
	assertKind(t, err, apperrors.KindInvalidInput)

	svc.PasswordHasher = func(string) (string, error) { return "", errors.New("boom") }
	_, err = svc.Register(context.Background(), &RegisterInput{NomeCompleto: "Ana", Email: "ana@x.com", Password: "123456"})
	assertKind(t, err, apperrors.KindInternal)
}

func TestParseUserRole(t *testing.T) {
	if r := ParseUserRole("  "); r != RoleUser {
		t.Fatalf("blank role: %v", r)
	}
	if r := ParseUserRole(" admin "); r != RoleAdmin {
		t.Fatalf("admin role: %v", r)
	}
	if r := ParseUserRole("Coordenador"); r != UserRole("Coordenador") {
		t.Fatalf("free-form role: %v", r)
	}
}

func TestUpdateKeepsFreeFormRole(t *testing.T) {
	svc := newService(newMemStore())
	a := register(t, svc, "Ana", "ana@x.com", "123456")

	role := "voluntario"
	u, err := svc.Update(context.Background(), a.ID, &UpdateInput{NomeCompleto: "Ana", Email: "ana@x.com", Role: &role})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if u.Role != "voluntario" {
		t.Fatalf("unexpected role: %s", u.Role)
	}
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error kind %s", kind)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got: %v", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("unexpected kind: %s", appErr.Kind)
	}
}
