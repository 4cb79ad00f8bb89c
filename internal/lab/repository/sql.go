package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-audit/backend/internal/db"
	"inventory-audit/backend/internal/lab/domain"
)

// SQLRepository persists labs in the SQLite or Postgres store.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns a lab repository that uses the given db for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// GetByID returns the lab for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*domain.Lab, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT id, name, location FROM labs WHERE id = ?`), id)
	l, err := scanLab(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lab: %w", err)
	}
	return l, nil
}

// List returns every lab ordered by name.
func (r *SQLRepository) List(ctx context.Context) ([]*domain.Lab, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, location FROM labs ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list labs: %w", err)
	}
	defer rows.Close()

	out := []*domain.Lab{}
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lab: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list labs: %w", err)
	}
	return out, nil
}

// GetOrCreateByName inserts the lab if no row holds name yet, then reads it back.
// The insert relies on the UNIQUE(name) constraint, so concurrent callers with the same new
// name end up sharing one row; exactly one of them sees created == true.
func (r *SQLRepository) GetOrCreateByName(ctx context.Context, name string) (*domain.Lab, bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO labs (name) VALUES (?) ON CONFLICT (name) DO NOTHING`), name)
	if err != nil {
		return nil, false, fmt.Errorf("insert lab: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert lab: %w", err)
	}

	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT id, name, location FROM labs WHERE name = ?`), name)
	l, err := scanLab(row)
	if err != nil {
		return nil, false, fmt.Errorf("resolve lab %q: %w", name, err)
	}
	return l, affected == 1, nil
}

// Create inserts l with its location and sets l.ID.
func (r *SQLRepository) Create(ctx context.Context, l *domain.Lab) error {
	loc := sql.NullString{}
	if l.Location != nil {
		loc = sql.NullString{String: *l.Location, Valid: true}
	}
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`INSERT INTO labs (name, location) VALUES (?, ?) RETURNING id`),
		l.Name, loc,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("create lab: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLab(s rowScanner) (*domain.Lab, error) {
	var (
		l   domain.Lab
		loc sql.NullString
	)
	if err := s.Scan(&l.ID, &l.Name, &loc); err != nil {
		return nil, err
	}
	if loc.Valid {
		v := loc.String
		l.Location = &v
	}
	return &l, nil
}
