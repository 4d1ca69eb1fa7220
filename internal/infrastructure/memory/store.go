// Package memory implementa los puertos de persistencia en memoria. Sirve para desarrollo
// (STORAGE_DRIVER=memory) y como respaldo de los tests de servicio; su contrato es el mismo
// que el de PostgreSQL.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

var errReadOnly = errors.New("memory: transacción de solo lectura")

// data estado completo. Las entidades guardadas nunca se modifican en sitio: cada escritura
// reemplaza el puntero por una copia nueva, así una instantánea puede compartirlas.
type data struct {
	products   map[string]*entity.Product
	categories map[string]*entity.Category
	staff      map[string]*entity.StaffAccount
	events     []*entity.MovementEvent // ordenados por ID
}

// Store almacenamiento en memoria.
//
// Las escrituras de una transacción se acumulan aparte y se aplican juntas bajo el lock de
// escritura al confirmar; las lecturas con ReadOnly trabajan sobre una copia tomada bajo el
// lock de lectura. Un lector nunca ve una operación a medias.
type Store struct {
	mu sync.RWMutex
	d  data

	nextID  atomic.Int64
	locks   keyedMutex
	now     func() time.Time
	timeout time.Duration
}

// Option configura el Store.
type Option func(*Store)

// WithTimeout límite de cada transacción (incluida la espera por bloqueos de producto).
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore crea un almacenamiento vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		d: data{
			products:   make(map[string]*entity.Product),
			categories: make(map[string]*entity.Category),
			staff:      make(map[string]*entity.StaffAccount),
		},
		now: time.Now,
	}
	s.locks.init()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Products repositorio fuera de transacción: cada escritura se aplica de inmediato.
func (s *Store) Products() *ProductRepo { return &ProductRepo{b: s.live()} }

// Categories repositorio de categorías fuera de transacción.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{b: s.live()} }

// Staff repositorio de cuentas fuera de transacción.
func (s *Store) Staff() *StaffRepo { return &StaffRepo{b: s.live()} }

// Events Event Store fuera de transacción.
func (s *Store) Events() *EventRepo { return &EventRepo{b: s.live()} }

// Stats consultas agregadas.
func (s *Store) Stats() *StatsRepo { return &StatsRepo{b: s.live()} }

func (s *Store) tx(b binding) inventory.Tx {
	return inventory.Tx{
		Events:   &EventRepo{b: b},
		Products: &ProductRepo{b: b},
		Staff:    &StaffRepo{b: b},
		Stats:    &StatsRepo{b: b},
	}
}

// Run ejecuta fn en una transacción de escritura.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	t := &txn{s: s, stock: make(map[string]int64)}
	defer t.release()

	if err := fn(ctx, s.tx(binding{s: s, r: s, t: t})); err != nil {
		return classify("run", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("commit", err)
	}
	s.commit(t)
	return nil
}

// ReadOnly ejecuta fn sobre una instantánea consistente.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	snap := s.snapshot()
	if err := fn(ctx, s.tx(binding{s: s, r: snap, ro: true})); err != nil {
		return classify("read", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &snapshot{d: data{
		products:   cloneMap(s.d.products),
		categories: cloneMap(s.d.categories),
		staff:      cloneMap(s.d.staff),
		events:     slices.Clone(s.d.events),
	}}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) commit(t *txn) {
	if len(t.stock) == 0 && len(t.events) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, stock := range t.stock {
		if p, ok := s.d.products[id]; ok {
			cp := *p
			cp.WarehouseStock = stock
			cp.UpdatedAt = now
			s.d.products[id] = &cp
		}
	}
	for _, ev := range t.events {
		s.insertEvent(ev)
	}
}

// insertEvent mantiene el orden por ID: dos transacciones concurrentes pueden confirmar en
// orden distinto al de sus IDs.
func (s *Store) insertEvent(ev *entity.MovementEvent) {
	i, _ := slices.BinarySearchFunc(s.d.events, ev.ID, func(e *entity.MovementEvent, id int64) int {
		switch {
		case e.ID < id:
			return -1
		case e.ID > id:
			return 1
		}
		return 0
	})
	s.d.events = slices.Insert(s.d.events, i, ev)
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.d)
}

func (s *Store) write(fn func(d *data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.d)
}

func (s *Store) live() binding { return binding{s: s, r: s} }

// classify deja pasar los errores de dominio; el resto es falla de almacenamiento.
func classify(op string, err error) error {
	if domain.IsDomainError(err) {
		return err
	}
	return domain.NewStorageError(op, err)
}

type reader interface {
	read(fn func(d *data))
}

type snapshot struct{ d data }

func (s *snapshot) read(fn func(d *data)) { fn(&s.d) }

// binding contexto de un repositorio: de dónde lee y, si está en una transacción, dónde escribe.
type binding struct {
	s  *Store
	r  reader
	t  *txn // nil fuera de transacción
	ro bool
}

func (b binding) writable() error {
	if b.ro {
		return errReadOnly
	}
	return nil
}

// txn escrituras pendientes y bloqueos de producto de una transacción.
type txn struct {
	s      *Store
	held   []string
	stock  map[string]int64
	events []*entity.MovementEvent
}

func (t *txn) lock(ctx context.Context, productID string) error {
	if slices.Contains(t.held, productID) {
		return nil
	}
	if err := t.s.locks.lock(ctx, productID); err != nil {
		return domain.NewStorageError("lock "+productID, err)
	}
	t.held = append(t.held, productID)
	return nil
}

func (t *txn) release() {
	for _, id := range t.held {
		t.s.locks.unlock(id)
	}
	t.held = nil
}

// keyedMutex exclusión mutua por clave. Cada candado es un canal de capacidad 1 para poder
// abandonar la espera cuando vence el contexto.
type keyedMutex struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func (k *keyedMutex) init() { k.slots = make(map[string]chan struct{}) }

func (k *keyedMutex) slot(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.slots[key] = ch
	}
	return ch
}

func (k *keyedMutex) lock(ctx context.Context, key string) error {
	select {
	case k.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *keyedMutex) unlock(key string) {
	<-k.slot(key)
}
