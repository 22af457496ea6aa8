package product

import (
	"context"

	"hardware-catalog/internal/domain"
)

// Repository is the catalog store access layer. Code uniqueness is enforced
// authoritatively here at write time; callers must treat any pre-check as
// advisory only.
type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Insert(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id int64, p domain.Product) (*domain.Product, error)
	SetImageRef(ctx context.Context, id int64, ref string) error
	Delete(ctx context.Context, id int64) error
	BulkInsertIgnoreDuplicates(ctx context.Context, rows []domain.Product) (int64, error)
	List(ctx context.Context, filter string, limit, offset int) ([]domain.Product, error)
	Count(ctx context.Context, filter string) (int, error)
}
