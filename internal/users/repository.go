package users

import (
	"context"

	"github.com/PabloPavan/alerta_api/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

const (
	userColumns = `id, nome_completo, email, password_hash, location_preference, subscribed_alerts, role, created_at`

	sqlUserInsert = `INSERT INTO users (nome_completo, email, password_hash, location_preference, subscribed_alerts, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	sqlUserEmailTaken = `SELECT EXISTS (
			SELECT 1 FROM users WHERE email = $1 AND id <> $2
		)`

	sqlUserGetByEmail = `SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	sqlUserGetByID = `SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	sqlUserList = `SELECT ` + userColumns + `
		FROM users
		ORDER BY nome_completo, id`

	sqlUserUpdate = `UPDATE users
		SET nome_completo = $1, email = $2, location_preference = $3, subscribed_alerts = $4, role = $5
		WHERE id = $6`

	sqlUserUpdatePassword = `UPDATE users
		SET password_hash = $1
		WHERE id = $2`

	sqlUserDelete = `DELETE FROM users
		WHERE id = $1`
)

// Create inserts u after checking, in the same transaction, that no other
// account holds its email. A concurrent insert still fails on users_email_key.
func (r *Repository) Create(ctx context.Context, u *User) error {
	return r.base.InTx(ctx, func(ctx context.Context, q db.Queryer) error {
		if err := emailFree(ctx, q, u.Email, 0); err != nil {
			return err
		}
		return q.QueryRow(ctx, sqlUserInsert,
			u.NomeCompleto,
			u.Email,
			u.PasswordHash,
			u.LocationPreference,
			u.SubscribedAlerts,
			string(u.Role),
			u.CreatedAt,
		).Scan(&u.ID)
	})
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	return r.one(r.base.Q().QueryRow(ctx, sqlUserGetByEmail, email))
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	return r.one(r.base.Q().QueryRow(ctx, sqlUserGetByID, id))
}

func (r *Repository) List(ctx context.Context) ([]*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlUserList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, u *User) error {
	return r.base.InTx(ctx, func(ctx context.Context, q db.Queryer) error {
		if err := emailFree(ctx, q, u.Email, u.ID); err != nil {
			return err
		}
		tag, err := q.Exec(ctx, sqlUserUpdate,
			u.NomeCompleto,
			u.Email,
			u.LocationPreference,
			u.SubscribedAlerts,
			string(u.Role),
			u.ID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlUserUpdatePassword, hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlUserDelete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func emailFree(ctx context.Context, q db.Queryer, email string, exceptID int64) error {
	var taken bool
	if err := q.QueryRow(ctx, sqlUserEmailTaken, email, exceptID).Scan(&taken); err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

func (r *Repository) one(row pgx.Row) (*User, error) {
	u, err := scanUser(row)
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	if err := row.Scan(
		&u.ID,
		&u.NomeCompleto,
		&u.Email,
		&u.PasswordHash,
		&u.LocationPreference,
		&u.SubscribedAlerts,
		&role,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = UserRole(role)
	if u.SubscribedAlerts == nil {
		u.SubscribedAlerts = []string{}
	}
	return &u, nil
}
