package crud

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloPavan/alerta_api/internal/db"
	"github.com/jackc/pgx/v5"
)

// Table maps T onto a table with a BIGSERIAL "id" primary key.
type Table[T any] struct {
	Name    string
	Columns []string
	OrderBy string
	// ID points at the id field of v.
	ID func(v *T) *int64
	// Values returns the column values of v in Columns order.
	Values func(v *T) []any
	// Fields returns scan targets for Columns, in order, excluding id.
	Fields func(v *T) []any
}

type Repository[T any] struct {
	base  *db.Base
	table Table[T]

	sqlInsert string
	sqlGet    string
	sqlList   string
	sqlUpdate string
	sqlDelete string
}

func NewRepository[T any](base *db.Base, table Table[T]) *Repository[T] {
	cols := strings.Join(table.Columns, ", ")
	placeholders := make([]string, len(table.Columns))
	sets := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	order := table.OrderBy
	if order == "" {
		order = "id"
	}

	return &Repository[T]{
		base:  base,
		table: table,
		sqlInsert: fmt.Sprintf("INSERT INTO %s (%s)\n\t\tVALUES (%s)\n\t\tRETURNING id;",
			table.Name, cols, strings.Join(placeholders, ", ")),
		sqlGet:  fmt.Sprintf("SELECT id, %s\n\t\tFROM %s\n\t\tWHERE id = $1;", cols, table.Name),
		sqlList: fmt.Sprintf("SELECT id, %s\n\t\tFROM %s\n\t\tORDER BY %s;", cols, table.Name, order),
		sqlUpdate: fmt.Sprintf("UPDATE %s\n\t\tSET %s\n\t\tWHERE id = $%d;",
			table.Name, strings.Join(sets, ", "), len(table.Columns)+1),
		sqlDelete: fmt.Sprintf("DELETE FROM %s\n\t\tWHERE id = $1;", table.Name),
	}
}

func (r *Repository[T]) Create(ctx context.Context, v *T) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	return r.base.Q().QueryRow(ctx, r.sqlInsert, r.table.Values(v)...).Scan(r.table.ID(v))
}

func (r *Repository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	v, err := r.scan(r.base.Q().QueryRow(ctx, r.sqlGet, id))
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Repository[T]) List(ctx context.Context) ([]*T, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, r.sqlList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*T, 0, 16)
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository[T]) Update(ctx context.Context, id int64, v *T) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	args := append(r.table.Values(v), id)
	tag, err := r.base.Q().Exec(ctx, r.sqlUpdate, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	*r.table.ID(v) = id
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, r.sqlDelete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository[T]) scan(row pgx.Row) (*T, error) {
	v := new(T)
	dest := append([]any{r.table.ID(v)}, r.table.Fields(v)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return v, nil
}
