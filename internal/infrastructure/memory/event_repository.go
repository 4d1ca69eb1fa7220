package memory

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.MovementEventRepository = (*EventRepo)(nil)

// EventRepo Event Store en memoria: slice ordenado por ID, solo de inserción.
type EventRepo struct {
	b binding
}

// Append asigna ID y CreatedAt. Dentro de una transacción el evento queda pendiente y
// solo es visible para los demás tras el commit.
func (r *EventRepo) Append(_ context.Context, ev *entity.MovementEvent) (int64, error) {
	if err := r.b.writable(); err != nil {
		return 0, err
	}
	if err := ev.Validate(); err != nil {
		return 0, domain.NewValidation("event", err.Error())
	}
	ev.ID = r.b.s.nextID.Add(1)
	ev.CreatedAt = r.b.s.now()
	cp := *ev
	if r.b.t != nil {
		r.b.t.events = append(r.b.t.events, &cp)
		return ev.ID, nil
	}
	err := r.b.s.write(func(d *data) error {
		r.b.s.insertEvent(&cp)
		return nil
	})
	return ev.ID, err
}

func (r *EventRepo) EventsFor(_ context.Context, staffID, productID string) (iter.Seq[*entity.MovementEvent], error) {
	return r.collect(func(ev *entity.MovementEvent) bool {
		return ev.StaffID == staffID && ev.ProductID == productID
	}), nil
}

func (r *EventRepo) EventsForStaff(_ context.Context, staffID string) (iter.Seq[*entity.MovementEvent], error) {
	return r.collect(func(ev *entity.MovementEvent) bool { return ev.StaffID == staffID }), nil
}

func (r *EventRepo) EventsInRange(_ context.Context, companyID string, start, end time.Time) (iter.Seq[*entity.MovementEvent], error) {
	return r.collect(func(ev *entity.MovementEvent) bool {
		if ev.CompanyID != companyID {
			return false
		}
		if !start.IsZero() && ev.CreatedAt.Before(start) {
			return false
		}
		if !end.IsZero() && !ev.CreatedAt.Before(end) {
			return false
		}
		return true
	}), nil
}

// List del más reciente al más antiguo.
func (r *EventRepo) List(_ context.Context, filter repository.EventFilter) ([]*entity.MovementEvent, error) {
	var out []*entity.MovementEvent
	for ev := range r.collect(matches(filter)) {
		out = append(out, ev)
	}
	slices.Reverse(out)
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *EventRepo) Count(_ context.Context, filter repository.EventFilter) (int64, error) {
	var n int64
	for range r.collect(matches(filter)) {
		n++
	}
	return n, nil
}

// collect copia los eventos que cumplen keep (más los pendientes de la transacción) y
// devuelve una secuencia que se puede recorrer varias veces.
func (r *EventRepo) collect(keep func(*entity.MovementEvent) bool) iter.Seq[*entity.MovementEvent] {
	var out []*entity.MovementEvent
	r.b.r.read(func(d *data) {
		for _, ev := range d.events {
			if keep(ev) {
				cp := *ev
				out = append(out, &cp)
			}
		}
	})
	if r.b.t != nil {
		for _, ev := range r.b.t.events {
			if keep(ev) {
				cp := *ev
				out = append(out, &cp)
			}
		}
	}
	return slices.Values(out)
}

func matches(f repository.EventFilter) func(*entity.MovementEvent) bool {
	return func(ev *entity.MovementEvent) bool {
		switch {
		case f.CompanyID != "" && ev.CompanyID != f.CompanyID:
			return false
		case f.StaffID != "" && ev.StaffID != f.StaffID:
			return false
		case f.ProductID != "" && ev.ProductID != f.ProductID:
			return false
		case len(f.Kinds) > 0 && !slices.Contains(f.Kinds, ev.Kind):
			return false
		case f.From != nil && ev.CreatedAt.Before(*f.From):
			return false
		case f.To != nil && !ev.CreatedAt.Before(*f.To):
			return false
		}
		return true
	}
}
