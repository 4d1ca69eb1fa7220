package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Tx repositorios atados a una misma transacción.
type Tx struct {
	Events   repository.MovementEventRepository
	Products repository.ProductRepository
	Staff    repository.StaffRepository
	Stats    repository.StatsRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a ella.
// Cualquier error que no sea de dominio y escape de fn se devuelve como *domain.StorageError.
type TxRunner interface {
	// Run transacción de escritura: todo o nada. Los bloqueos tomados con
	// ProductRepository.GetForUpdate se liberan al terminar.
	Run(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// ReadOnly lectura sobre una instantánea consistente: nunca ve una operación a medias.
	ReadOnly(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
