package repository

import (
	"context"

	"inventory-audit/backend/internal/audit/domain"
	itemdomain "inventory-audit/backend/internal/item/domain"
)

// Repository defines persistence for audits and the items recorded under them.
type Repository interface {
	// CreateWithItems inserts a and every item (AuditID set to a's new id) in one transaction.
	// On success a.ID and each item's ID and AuditID are set.
	CreateWithItems(ctx context.Context, a *domain.Audit, items []*itemdomain.Item) error
	// ListByLab returns summaries of the lab's audits, newest first.
	ListByLab(ctx context.Context, labID int64) ([]*domain.Summary, error)
}
