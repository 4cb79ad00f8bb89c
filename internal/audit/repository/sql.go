package repository

import (
	"context"
	"database/sql"
	"fmt"

	"inventory-audit/backend/internal/audit/domain"
	"inventory-audit/backend/internal/db"
	itemdomain "inventory-audit/backend/internal/item/domain"
)

// SQLRepository persists audits in the SQLite or Postgres store.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns an audit repository that uses the given db for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// CreateWithItems inserts the audit, takes its id, then writes the items through one prepared
// statement. Everything commits together or not at all.
func (r *SQLRepository) CreateWithItems(ctx context.Context, a *domain.Audit, items []*itemdomain.Item) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		notes := sql.NullString{String: a.Notes, Valid: a.Notes != ""}
		err := tx.QueryRowContext(ctx,
			r.db.Rebind(`INSERT INTO audits (lab_id, audited_at, notes) VALUES (?, ?, ?) RETURNING id`),
			a.LabID, db.ToMillis(a.Date), notes,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("create audit: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, r.db.Rebind(
			`INSERT INTO items (audit_id, code, name, system_qty, physical_qty, status)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`))
		if err != nil {
			return fmt.Errorf("prepare item insert: %w", err)
		}
		defer stmt.Close()

		for i, it := range items {
			it.AuditID = a.ID
			if err := stmt.QueryRowContext(ctx,
				it.AuditID, it.Code, it.Name, nullInt(it.SystemQty), nullInt(it.PhysicalQty), it.Status,
			).Scan(&it.ID); err != nil {
				return fmt.Errorf("create item %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// ListByLab returns the lab's audits with item and mismatch counts, newest first.
func (r *SQLRepository) ListByLab(ctx context.Context, labID int64) ([]*domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		`SELECT a.id, a.lab_id, a.audited_at, a.notes,
		        COUNT(i.id),
		        COALESCE(SUM(CASE WHEN i.system_qty IS NOT NULL AND i.physical_qty IS NOT NULL
		                          AND i.system_qty <> i.physical_qty THEN 1 ELSE 0 END), 0)
		   FROM audits a
		   LEFT JOIN items i ON i.audit_id = a.id
		  WHERE a.lab_id = ?
		  GROUP BY a.id, a.lab_id, a.audited_at, a.notes
		  ORDER BY a.audited_at DESC, a.id DESC`), labID)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	out := []*domain.Summary{}
	for rows.Next() {
		var (
			s         domain.Summary
			auditedAt int64
			notes     sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.LabID, &auditedAt, &notes, &s.ItemCount, &s.Mismatched); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		s.Date = db.FromMillis(auditedAt)
		s.Notes = notes.String
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	return out, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
