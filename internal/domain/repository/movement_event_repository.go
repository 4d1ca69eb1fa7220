package repository

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// EventFilter filtros del historial de movimientos. Los campos vacíos no filtran.
type EventFilter struct {
	CompanyID string
	StaffID   string
	ProductID string
	Kinds     []entity.MovementKind
	From      *time.Time // inclusivo
	To        *time.Time // exclusivo
	Limit     int
	Offset    int
}

// MovementEventRepository es el Event Store: almacenamiento ordenado y solo de inserción
// de MovementEvent. No existe Update ni Delete.
//
// Las secuencias devueltas son finitas, en orden de inserción y se pueden recorrer
// más de una vez.
type MovementEventRepository interface {
	// Append asigna ID monotónico y CreatedAt, y los deja en ev.
	Append(ctx context.Context, ev *entity.MovementEvent) (int64, error)
	EventsFor(ctx context.Context, staffID, productID string) (iter.Seq[*entity.MovementEvent], error)
	EventsForStaff(ctx context.Context, staffID string) (iter.Seq[*entity.MovementEvent], error)
	// EventsInRange eventos de la empresa con start <= CreatedAt < end. Un extremo cero no acota.
	EventsInRange(ctx context.Context, companyID string, start, end time.Time) (iter.Seq[*entity.MovementEvent], error)
	// List historial paginado, del más reciente al más antiguo.
	List(ctx context.Context, filter EventFilter) ([]*entity.MovementEvent, error)
	Count(ctx context.Context, filter EventFilter) (int64, error)
}
