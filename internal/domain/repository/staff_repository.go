package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// StaffRepository define el puerto de persistencia para StaffAccount (DIP).
type StaffRepository interface {
	Create(ctx context.Context, staff *entity.StaffAccount) error
	GetByID(ctx context.Context, id string) (*entity.StaffAccount, error)
	// GetByLogin busca por móvil o email (sin distinguir mayúsculas en el email).
	GetByLogin(ctx context.Context, login string) (*entity.StaffAccount, error)
	Update(ctx context.Context, staff *entity.StaffAccount) error
	// ListByCompany lista cuentas; role vacío devuelve todas.
	ListByCompany(ctx context.Context, companyID, role string) ([]*entity.StaffAccount, error)
}
