package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para Category (DIP).
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByName(ctx context.Context, companyID, name string) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Category, error)
	Delete(ctx context.Context, id string) error
}
