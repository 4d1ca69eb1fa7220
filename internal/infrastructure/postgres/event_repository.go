package postgres

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.MovementEventRepository = (*EventRepo)(nil)

var eventColumns = []string{
	"id", "operation_id", "company_id", "kind", "staff_id", "actor_id", "product_id",
	"quantity", "customer_name", "note", "created_at",
}

type eventRow struct {
	ID           int64     `db:"id"`
	OperationID  string    `db:"operation_id"`
	CompanyID    string    `db:"company_id"`
	Kind         string    `db:"kind"`
	StaffID      string    `db:"staff_id"`
	ActorID      *string   `db:"actor_id"`
	ProductID    string    `db:"product_id"`
	Quantity     int64     `db:"quantity"`
	CustomerName string    `db:"customer_name"`
	Note         string    `db:"note"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r eventRow) entity() (*entity.MovementEvent, error) {
	kind, err := entity.ParseMovementKind(r.Kind)
	if err != nil {
		return nil, fmt.Errorf("evento %d: %w", r.ID, err)
	}
	return &entity.MovementEvent{
		ID:           r.ID,
		OperationID:  r.OperationID,
		CompanyID:    r.CompanyID,
		Kind:         kind,
		StaffID:      r.StaffID,
		ActorID:      deref(r.ActorID),
		ProductID:    r.ProductID,
		Quantity:     r.Quantity,
		CustomerName: r.CustomerName,
		Note:         r.Note,
		CreatedAt:    r.CreatedAt,
	}, nil
}

// EventRepo Event Store sobre la tabla movement_events. Solo INSERT y SELECT.
type EventRepo struct {
	q Querier
}

// NewEventRepository pasar pool o tx.
func NewEventRepository(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

// Append inserta el evento; el id (BIGSERIAL) y created_at los asigna la base.
func (r *EventRepo) Append(ctx context.Context, ev *entity.MovementEvent) (int64, error) {
	if err := ev.Validate(); err != nil {
		return 0, domain.NewValidation("event", err.Error())
	}
	sql, args, err := psql.Insert("movement_events").
		Columns("operation_id", "company_id", "kind", "staff_id", "actor_id", "product_id",
			"quantity", "customer_name", "note").
		Values(ev.OperationID, ev.CompanyID, string(ev.Kind), ev.StaffID, nullable(ev.ActorID), ev.ProductID,
			ev.Quantity, ev.CustomerName, ev.Note).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert event: %w", err)
	}
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&ev.ID, &ev.CreatedAt); err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return ev.ID, nil
}

func (r *EventRepo) EventsFor(ctx context.Context, staffID, productID string) (iter.Seq[*entity.MovementEvent], error) {
	if !validID(staffID) || !validID(productID) {
		return slices.Values([]*entity.MovementEvent(nil)), nil
	}
	return r.seq(ctx, squirrel.Eq{"staff_id": staffID, "product_id": productID})
}

func (r *EventRepo) EventsForStaff(ctx context.Context, staffID string) (iter.Seq[*entity.MovementEvent], error) {
	if !validID(staffID) {
		return slices.Values([]*entity.MovementEvent(nil)), nil
	}
	return r.seq(ctx, squirrel.Eq{"staff_id": staffID})
}

func (r *EventRepo) EventsInRange(ctx context.Context, companyID string, start, end time.Time) (iter.Seq[*entity.MovementEvent], error) {
	where := squirrel.And{squirrel.Eq{"company_id": companyID}}
	if !start.IsZero() {
		where = append(where, squirrel.GtOrEq{"created_at": start})
	}
	if !end.IsZero() {
		where = append(where, squirrel.Lt{"created_at": end})
	}
	return r.seq(ctx, where)
}

// seq materializa el resultado en orden de inserción para que la secuencia se pueda
// recorrer varias veces y no retenga la conexión.
func (r *EventRepo) seq(ctx context.Context, where squirrel.Sqlizer) (iter.Seq[*entity.MovementEvent], error) {
	events, err := r.query(ctx, psql.Select(eventColumns...).From("movement_events").Where(where).OrderBy("id"))
	if err != nil {
		return nil, err
	}
	return slices.Values(events), nil
}

// List del más reciente al más antiguo.
func (r *EventRepo) List(ctx context.Context, filter repository.EventFilter) ([]*entity.MovementEvent, error) {
	where, ok := eventWhere(filter)
	if !ok {
		return []*entity.MovementEvent{}, nil
	}
	q := psql.Select(eventColumns...).From("movement_events").Where(where).OrderBy("id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return r.query(ctx, q)
}

func (r *EventRepo) Count(ctx context.Context, filter repository.EventFilter) (int64, error) {
	where, ok := eventWhere(filter)
	if !ok {
		return 0, nil
	}
	sql, args, err := psql.Select("COUNT(*)").From("movement_events").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count events: %w", err)
	}
	var n int64
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (r *EventRepo) query(ctx context.Context, q squirrel.SelectBuilder) ([]*entity.MovementEvent, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select events: %w", err)
	}
	var rows []eventRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	out := make([]*entity.MovementEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := row.entity()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// eventWhere ok=false cuando un id mal formado hace imposible cualquier coincidencia.
func eventWhere(f repository.EventFilter) (squirrel.And, bool) {
	where := squirrel.And{}
	if f.CompanyID != "" {
		where = append(where, squirrel.Eq{"company_id": f.CompanyID})
	}
	if f.StaffID != "" {
		if !validID(f.StaffID) {
			return nil, false
		}
		where = append(where, squirrel.Eq{"staff_id": f.StaffID})
	}
	if f.ProductID != "" {
		if !validID(f.ProductID) {
			return nil, false
		}
		where = append(where, squirrel.Eq{"product_id": f.ProductID})
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		where = append(where, squirrel.Eq{"kind": kinds})
	}
	if f.From != nil {
		where = append(where, squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		where = append(where, squirrel.Lt{"created_at": *f.To})
	}
	return where, true
}
