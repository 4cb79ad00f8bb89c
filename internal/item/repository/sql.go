package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventory-audit/backend/internal/db"
	"inventory-audit/backend/internal/item/domain"
)

const searchSelect = `SELECT i.id, i.audit_id, i.code, i.name, i.system_qty, i.physical_qty, i.status,
       a.lab_id, l.name, a.audited_at
  FROM items i
  JOIN audits a ON a.id = i.audit_id
  JOIN labs l ON l.id = a.lab_id`

// SQLRepository reads items from the SQLite or Postgres store.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns an item repository that uses the given db.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// Search builds one WHERE clause from the supplied filters (AND-combined; absent filters add
// nothing) and orders by audit date descending, then audit id descending, then item id.
func (r *SQLRepository) Search(ctx context.Context, f domain.SearchFilter) ([]*domain.SearchRow, error) {
	if f.Limit <= 0 {
		return nil, errors.New("search limit must be positive")
	}
	query, args := buildSearch(f, r.db.Dialect)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.SearchRow, 0)
	for rows.Next() {
		var (
			row         domain.SearchRow
			name        sql.NullString
			status      sql.NullString
			systemQty   sql.NullInt64
			physicalQty sql.NullInt64
			auditedAt   int64
		)
		if err := rows.Scan(&row.ID, &row.AuditID, &row.Code, &name, &systemQty, &physicalQty, &status,
			&row.LabID, &row.LabName, &auditedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		row.Name = name.String
		row.Status = status.String
		row.SystemQty = nullableInt(systemQty)
		row.PhysicalQty = nullableInt(physicalQty)
		row.AuditDate = db.FromMillis(auditedAt)
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return out, nil
}

// buildSearch folds case on the column with the dialect's Unicode-aware lower and on the pattern
// with strings.ToLower, so accented capitals match on SQLite too.
func buildSearch(f domain.SearchFilter, dialect db.Dialect) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.LabID != nil {
		conds = append(conds, "a.lab_id = ?")
		args = append(args, *f.LabID)
	}
	if f.Status != "" {
		conds = append(conds, dialect.Lower("i.status")+` LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(f.Status))
	}
	if f.Query != "" {
		p := containsPattern(f.Query)
		conds = append(conds, "("+dialect.Lower("i.code")+` LIKE ? ESCAPE '\' OR `+dialect.Lower("i.name")+` LIKE ? ESCAPE '\')`)
		args = append(args, p, p)
	}
	if f.DateFrom != nil {
		conds = append(conds, "a.audited_at >= ?")
		args = append(args, db.ToMillis(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "a.audited_at <= ?")
		args = append(args, db.ToMillis(*f.DateTo))
	}

	var b strings.Builder
	b.WriteString(searchSelect)
	if len(conds) > 0 {
		b.WriteString("\n WHERE ")
		b.WriteString(strings.Join(conds, "\n   AND "))
	}
	b.WriteString("\n ORDER BY a.audited_at DESC, a.id DESC, i.id ASC\n LIMIT ?")
	args = append(args, f.Limit)
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern lower-cases s and wraps it for a substring LIKE, escaping LIKE metacharacters
// so user input matches literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
