package reports

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
	reportColumns = `id, reporter_name, event_type, description, location, image_url, user_id,
		created_at, status, severity, admin_notes`

	sqlReportInsert = `INSERT INTO reports (reporter_name, event_type, description, location, image_url,
		user_id, created_at, status, severity, admin_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;`

	sqlReportSelectByID = `SELECT ` + reportColumns + `
		FROM reports
		WHERE id = $1;`

	sqlReportList = `SELECT ` + reportColumns + `
		FROM reports
		ORDER BY created_at DESC, id DESC;`

	sqlReportUpdate = `UPDATE reports
		SET reporter_name = $1, event_type = $2, description = $3, location = $4,
			image_url = $5, status = $6, severity = $7, admin_notes = $8
		WHERE id = $9;`

	sqlReportUpdateStatus = `UPDATE reports
		SET status = $1
		WHERE id = $2;`

	sqlReportDelete = `DELETE FROM reports
		WHERE id = $1;`
)

func (r *Repository) Create(ctx context.Context, rep *Report) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	return r.base.Q().QueryRow(ctx, sqlReportInsert,
		rep.ReporterName,
		rep.EventType,
		rep.Description,
		rep.Location,
		rep.ImageURL,
		rep.UserID,
		rep.CreatedAt,
		rep.Status,
		rep.Severity,
		rep.AdminNotes,
	).Scan(&rep.ID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Report, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rep, err := scanReport(r.base.Q().QueryRow(ctx, sqlReportSelectByID, id))
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *Repository) List(ctx context.Context) ([]*Report, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlReportList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Report, 0, 32)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, rep *Report) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlReportUpdate,
		rep.ReporterName,
		rep.EventType,
		rep.Description,
		rep.Location,
		rep.ImageURL,
		rep.Status,
		rep.Severity,
		rep.AdminNotes,
		rep.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlReportUpdateStatus, status, id)
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

	tag, err := r.base.Q().Exec(ctx, sqlReportDelete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(
		&rep.ID,
		&rep.ReporterName,
		&rep.EventType,
		&rep.Description,
		&rep.Location,
		&rep.ImageURL,
		&rep.UserID,
		&rep.CreatedAt,
		&rep.Status,
		&rep.Severity,
		&rep.AdminNotes,
	)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
