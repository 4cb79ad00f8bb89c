package repository

import (
	"context"

	"inventory-audit/backend/internal/lab/domain"
)

// Repository defines persistence for labs.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Lab, error)
	List(ctx context.Context) ([]*domain.Lab, error)
	// GetOrCreateByName returns the lab named name, inserting it (name only) if absent.
	// created reports whether this call inserted the row.
	GetOrCreateByName(ctx context.Context, name string) (lab *domain.Lab, created bool, err error)
	Create(ctx context.Context, l *domain.Lab) error
}
