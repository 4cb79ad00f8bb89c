package repository

import (
	"context"

	"inventory-audit/backend/internal/item/domain"
)

// Repository defines read access to items. Items are written together with their audit
// (see the audit repository).
type Repository interface {
	// Search returns at most filter.Limit rows matching every supplied filter, newest audit first.
	Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.SearchRow, error)
}
