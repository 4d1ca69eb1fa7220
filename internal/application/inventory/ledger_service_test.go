package inventory_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const company = "co-1"

type fixture struct {
	store *memory.Store
	svc   *inventory.LedgerService
}

func newFixture(t *testing.T, opts ...inventory.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(memory.WithTimeout(2 * time.Second))

	for _, st := range []*entity.StaffAccount{
		{ID: "admin", CompanyID: company, Name: "Admin", Mobile: "3000000000", Role: entity.RoleAdmin},
		{ID: "s1", CompanyID: company, Name: "Ana", Mobile: "3000000001", Role: entity.RoleStaff},
		{ID: "s2", CompanyID: company, Name: "Luis", Mobile: "3000000002", Role: entity.RoleStaff},
		{ID: "x1", CompanyID: "co-2", Name: "Otra empresa", Mobile: "3000000003", Role: entity.RoleStaff},
	} {
		require.NoError(t, store.Staff().Create(ctx, st))
	}
	for _, p := range []*entity.Product{
		{ID: "p1", CompanyID: company, Name: "Roble natural", Barcode: "770001", SellingPrice: decimal.NewFromInt(40), WarehouseStock: 100},
		{ID: "p2", CompanyID: company, Name: "Zócalo PVC", Barcode: "770002", SellingPrice: decimal.NewFromInt(5), WarehouseStock: 50},
		{ID: "p3", CompanyID: company, Name: "Vinílico gris", Barcode: "770003", SellingPrice: decimal.NewFromInt(12), WarehouseStock: 4},
		{ID: "px", CompanyID: "co-2", Name: "Ajeno", Barcode: "990001", WarehouseStock: 10},
	} {
		require.NoError(t, store.Products().Create(ctx, p))
	}
	return &fixture{store: store, svc: inventory.NewLedgerService(store, logger.Nop(), opts...)}
}

func (f *fixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.WarehouseStock
}

func (f *fixture) holding(t *testing.T, staffID, productID string) int64 {
	t.Helper()
	inv, err := f.svc.StaffInventory(context.Background(), company, staffID)
	require.NoError(t, err)
	for _, it := range inv.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (f *fixture) eventCount(t *testing.T) int {
	t.Helper()
	seq, err := f.store.Events().EventsInRange(context.Background(), company, time.Time{}, time.Time{})
	require.NoError(t, err)
	n := 0
	for range seq {
		n++
	}
	return n
}

func transfer(staffID string, items ...inventory.LineItem) inventory.MovementInput {
	return inventory.MovementInput{CompanyID: company, ActorID: "admin", StaffID: staffID, Items: items}
}

func byStaff(staffID string, items ...inventory.LineItem) inventory.MovementInput {
	return inventory.MovementInput{CompanyID: company, ActorID: staffID, StaffID: staffID, Items: items}
}

func line(productID string, qty int64) inventory.LineItem {
	return inventory.LineItem{ProductID: productID, Quantity: qty}
}

func TestLedger_EscenarioCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Transfer(ctx, transfer("s1", line("p1", 30)))
	require.NoError(t, err)
	assert.NotEmpty(t, res.OperationID)
	assert.Len(t, res.EventIDs, 1)
	assert.Equal(t, int64(70), f.stock(t, "p1"))
	assert.Equal(t, int64(30), f.holding(t, "s1", "p1"))

	_, err = f.svc.Sell(ctx, byStaff("s1", line("p1", 10)))
	require.NoError(t, err)
	assert.Equal(t, int64(20), f.holding(t, "s1", "p1"))
	assert.Equal(t, int64(70), f.stock(t, "p1"), "la venta no toca la bodega")

	_, err = f.svc.ReturnToWarehouse(ctx, byStaff("s1", line("p1", 15)))
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.holding(t, "s1", "p1"))
	assert.Equal(t, int64(85), f.stock(t, "p1"))

	before := f.eventCount(t)
	_, err = f.svc.Sell(ctx, byStaff("s1", line("p1", 6)))
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, int64(5), insuf.Available)
	assert.Equal(t, int64(6), insuf.Requested)
	assert.Equal(t, "Roble natural", insuf.ProductName)
	assert.Equal(t, before, f.eventCount(t), "el rechazo no deja eventos")
	assert.Equal(t, int64(5), f.holding(t, "s1", "p1"))
	assert.Equal(t, int64(85), f.stock(t, "p1"))
}

func TestTransfer_AtomicoSiUnaLineaFalla(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transfer(ctx, transfer("s1", line("p2", 1000), line("p1", 1)))
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, "p2", insuf.ProductID)
	assert.Equal(t, int64(50), insuf.Available)

	assert.Equal(t, int64(100), f.stock(t, "p1"))
	assert.Equal(t, int64(50), f.stock(t, "p2"))
	assert.Zero(t, f.eventCount(t))
}

func TestTransfer_PrimeraFallaEnOrdenDeLineas(t *testing.T) {
	f := newFixture(t)

	// p3 (stock 4) va antes que el producto inexistente: se reporta p3 aunque "zz" falle también.
	_, err := f.svc.Transfer(context.Background(), transfer("s1", line("p3", 5), line("zz", 1)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.svc.Transfer(context.Background(), transfer("s1", line("zz", 1), line("p3", 5)))
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "zz", nf.ID)
}

func TestTransfer_LineasRepetidasSeValidanAcumuladas(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Transfer(context.Background(), transfer("s1", line("p3", 3), line("p3", 2)))
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, int64(1), insuf.Available)
	assert.Equal(t, int64(4), f.stock(t, "p3"))

	res, err := f.svc.Transfer(context.Background(), transfer("s1", line("p3", 3), line("p3", 1)))
	require.NoError(t, err)
	assert.Len(t, res.EventIDs, 2)
	assert.Zero(t, f.stock(t, "p3"))
	assert.Equal(t, int64(4), f.holding(t, "s1", "p3"))
}

func TestSell_LimiteExacto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Transfer(ctx, transfer("s1", line("p2", 7)))
	require.NoError(t, err)

	_, err = f.svc.Sell(ctx, byStaff("s1", line("p2", 8)))
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, int64(7), insuf.Available)
	assert.Equal(t, int64(8), insuf.Requested)

	_, err = f.svc.Sell(ctx, byStaff("s1", line("p2", 7)))
	require.NoError(t, err)
	assert.Zero(t, f.holding(t, "s1", "p2"))

	inv, err := f.svc.StaffInventory(ctx, company, "s1")
	require.NoError(t, err)
	assert.Empty(t, inv.Items, "los saldos en cero no se listan")
}

func TestSell_ClientePorDefecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Transfer(ctx, transfer("s1", line("p1", 2)))
	require.NoError(t, err)

	_, err = f.svc.Sell(ctx, byStaff("s1", line("p1", 1)))
	require.NoError(t, err)

	hist, err := f.svc.History(ctx, company, inventory.HistoryQuery{StaffID: "s1", Kind: entity.KindSale})
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, entity.DefaultCustomerName, hist.Items[0].CustomerName)
}

func TestJobReturn_SinLimite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.JobReturn(ctx, byStaff("s2", line("p1", 500)))
	require.NoError(t, err)
	assert.Len(t, res.EventIDs, 1)
	assert.Equal(t, int64(500), f.holding(t, "s2", "p1"))
	assert.Equal(t, int64(100), f.stock(t, "p1"), "la devolución de obra no toca la bodega")

	_, err = f.svc.JobReturn(ctx, byStaff("s2", line("nope", 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]inventory.MovementInput{
		"sin líneas":        transfer("s1"),
		"cantidad cero":     transfer("s1", line("p1", 0)),
		"cantidad negativa": transfer("s1", line("p1", 1), line("p2", -1)),
		"sin producto":      transfer("s1", line("", 1)),
		"sin staff":         transfer("", line("p1", 1)),
		"traslado sin admin": {
			CompanyID: company, StaffID: "s1", Items: []inventory.LineItem{line("p1", 1)},
		},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Transfer(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Zero(t, f.eventCount(t))
}

func TestLedger_StaffYProductoDeOtraEmpresa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transfer(ctx, transfer("x1", line("p1", 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Transfer(ctx, transfer("s1", line("px", 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Transfer(ctx, transfer("admin", line("p1", 1)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "un ADMIN no tiene saldo propio")
}

func TestLedger_SaldoNegativoSeRecorta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Venta insertada directamente en el Event Store, por fuera del servicio.
	ev, err := entity.NewMovementEvent(entity.KindSale, "manual", company, "s1", "s1", "p2", 3)
	require.NoError(t, err)
	_, err = f.store.Events().Append(ctx, ev)
	require.NoError(t, err)

	assert.Zero(t, f.holding(t, "s1", "p2"))

	_, err = f.svc.Sell(ctx, byStaff("s1", line("p2", 1)))
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Zero(t, insuf.Available)
}

func TestAdjustWarehouseStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.AdjustWarehouseStock(ctx, company, "p2", 80)
	require.NoError(t, err)
	assert.Equal(t, int64(80), p.WarehouseStock)
	assert.Equal(t, int64(80), f.stock(t, "p2"))

	_, err = f.svc.AdjustWarehouseStock(ctx, company, "p2", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.AdjustWarehouseStock(ctx, company, "px", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.eventCount(t), "el ajuste no genera eventos")
}

func TestTransfer_ConcurrenteNoSobregira(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 50
	var ok, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			staff := "s1"
			if i%2 == 1 {
				staff = "s2"
			}
			_, err := f.svc.Transfer(ctx, transfer(staff, line("p1", 3)))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(33), ok.Load())
	assert.Equal(t, int64(workers-33), rejected.Load())
	assert.Equal(t, int64(1), f.stock(t, "p1"))
	assert.Equal(t, int64(99), f.holding(t, "s1", "p1")+f.holding(t, "s2", "p1"))
}

func TestLector_NuncaVeOperacionesAMedias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			_, err := f.svc.Transfer(ctx, transfer("s1", line("p1", 1), line("p2", 1)))
			assert.NoError(t, err)
		}
		close(done)
	}()

	for {
		inv, err := f.svc.StaffInventory(ctx, company, "s1")
		require.NoError(t, err)
		counts := map[string]int64{}
		for _, it := range inv.Items {
			counts[it.ProductID] = it.Quantity
		}
		assert.Equal(t, counts["p1"], counts["p2"], "un traslado de dos líneas se ve completo o no se ve")

		select {
		case <-done:
			wg.Wait()
			assert.Equal(t, int64(20), f.holding(t, "s1", "p1"))
			return
		default:
		}
	}
}

func TestTransfer_TimeoutEsperandoBloqueo(t *testing.T) {
	store := memory.NewStore(memory.WithTimeout(50 * time.Millisecond))
	ctx := context.Background()
	require.NoError(t, store.Staff().Create(ctx, &entity.StaffAccount{ID: "s1", CompanyID: company, Name: "Ana", Role: entity.RoleStaff}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "p1", CompanyID: company, Name: "Roble", Barcode: "1", WarehouseStock: 10}))
	svc := inventory.NewLedgerService(store, logger.Nop())

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.Run(ctx, func(ctx context.Context, tx inventory.Tx) error {
			_, err := tx.Products.GetForUpdate(ctx, "p1")
			close(holding)
			<-release
			return err
		})
	}()
	<-holding

	_, err := svc.Transfer(ctx, transfer("s1", line("p1", 1)))
	close(release)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Temporary())
}

func TestJobReturn_CantidadSobreElTope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.JobReturn(ctx, byStaff("s1", line("p1", math.MaxInt64)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.JobReturn(ctx, byStaff("s1", line("p1", ledger.MaxQuantity+1)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.eventCount(t))
}

func TestJobReturn_SaldoQueDesbordaSeRechaza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Saldo cercano al máximo cargado directamente en el Event Store.
	big, err := entity.NewMovementEvent(entity.KindJobReturn, "manual", company, "s1", "s1", "p1", math.MaxInt64-10)
	require.NoError(t, err)
	_, err = f.store.Events().Append(ctx, big)
	require.NoError(t, err)
	before := f.eventCount(t)

	_, err = f.svc.JobReturn(ctx, byStaff("s1", line("p1", 11)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, before, f.eventCount(t))
	assert.Equal(t, int64(math.MaxInt64-10), f.holding(t, "s1", "p1"), "el saldo no da la vuelta a cero")

	_, err = f.svc.ReturnToWarehouse(ctx, byStaff("s1", line("p1", 5)))
	assert.NoError(t, err, "el saldo sigue disponible para devolver")
}

func TestReturnToWarehouse_BodegaQueDesbordaSeRechaza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transfer(ctx, transfer("s1", line("p1", 10)))
	require.NoError(t, err)
	_, err = f.svc.AdjustWarehouseStock(ctx, company, "p1", math.MaxInt64-5)
	require.NoError(t, err)
	before := f.eventCount(t)

	_, err = f.svc.ReturnToWarehouse(ctx, byStaff("s1", line("p1", 10)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(math.MaxInt64-5), f.stock(t, "p1"))
	assert.Equal(t, int64(10), f.holding(t, "s1", "p1"))
	assert.Equal(t, before, f.eventCount(t))
}

func TestReturnToWarehouse_AtomicoSiUnaLineaFalla(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transfer(ctx, transfer("s1", line("p1", 10), line("p2", 2)))
	require.NoError(t, err)
	before := f.eventCount(t)

	_, err = f.svc.ReturnToWarehouse(ctx, byStaff("s1", line("p1", 3), line("p2", 5)))
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, "p2", insuf.ProductID)
	assert.Equal(t, int64(2), insuf.Available)

	assert.Equal(t, before, f.eventCount(t))
	assert.Equal(t, int64(90), f.stock(t, "p1"), "la primera línea tampoco se aplica")
	assert.Equal(t, int64(48), f.stock(t, "p2"))
	assert.Equal(t, int64(10), f.holding(t, "s1", "p1"))
}

func TestSell_AtomicoConProductoDesconocido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transfer(ctx, transfer("s1", line("p1", 10)))
	require.NoError(t, err)
	before := f.eventCount(t)

	_, err = f.svc.Sell(ctx, byStaff("s1", line("p1", 4), line("nope", 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before, f.eventCount(t))
	assert.Equal(t, int64(10), f.holding(t, "s1", "p1"))
}

// ledgerTotals acumulado por producto de lo vendido y lo devuelto de obra en operaciones confirmadas.
type ledgerTotals struct {
	mu   sync.Mutex
	sold map[string]int64
	job  map[string]int64
}

func (lt *ledgerTotals) add(kind entity.MovementKind, items []inventory.LineItem) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	for _, it := range items {
		switch kind {
		case entity.KindSale:
			lt.sold[it.ProductID] += it.Quantity
		case entity.KindJobReturn:
			lt.job[it.ProductID] += it.Quantity
		}
	}
}

func randomOp(f *fixture, r *rand.Rand) (entity.MovementKind, func(context.Context) error, []inventory.LineItem) {
	staffs := []string{"s1", "s2"}
	products := []string{"p1", "p2", "p3"}
	staffID := staffs[r.IntN(len(staffs))]
	items := make([]inventory.LineItem, 1+r.IntN(3))
	for i := range items {
		items[i] = line(products[r.IntN(len(products))], 1+r.Int64N(15))
	}
	var (
		kind entity.MovementKind
		op   func(context.Context, inventory.MovementInput) (*inventory.OperationResult, error)
		in   = byStaff(staffID, items...)
	)
	switch r.IntN(4) {
	case 0:
		kind, op, in = entity.KindTransferIn, f.svc.Transfer, transfer(staffID, items...)
	case 1:
		kind, op = entity.KindSale, f.svc.Sell
	case 2:
		kind, op = entity.KindReturnToWarehouse, f.svc.ReturnToWarehouse
	default:
		kind, op = entity.KindJobReturn, f.svc.JobReturn
	}
	return kind, func(ctx context.Context) error {
		_, err := op(ctx, in)
		return err
	}, items
}

// assertConservation bodega + Σ saldos + vendido − devuelto de obra == stock inicial, por producto,
// y ningún saldo crudo negativo.
func assertConservation(t *testing.T, f *fixture, lt *ledgerTotals) {
	t.Helper()
	ctx := context.Background()
	initial := map[string]int64{"p1": 100, "p2": 50, "p3": 4}
	holdings := map[string]int64{}
	for _, staffID := range []string{"s1", "s2"} {
		seq, err := f.store.Events().EventsForStaff(ctx, staffID)
		require.NoError(t, err)
		inv := ledger.FullInventory(seq, staffID)
		assert.Empty(t, inv.Clamped, "saldo negativo para %s", staffID)
		for productID, q := range inv.Items {
			holdings[productID] += q
		}
	}
	for productID, want := range initial {
		got := f.stock(t, productID) + holdings[productID] + lt.sold[productID] - lt.job[productID]
		assert.Equal(t, want, got, "conservación de %s", productID)
		assert.GreaterOrEqual(t, f.stock(t, productID), int64(0))
	}
}

func TestLedger_SecuenciaAleatoriaConservaUnidades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := rand.New(rand.NewPCG(20240611, 7))
	lt := &ledgerTotals{sold: map[string]int64{}, job: map[string]int64{}}

	var committed int
	for i := range 400 {
		kind, run, items := randomOp(f, r)
		err := run(ctx)
		if err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientStock, "operación %d (%s)", i, kind)
			continue
		}
		committed++
		lt.add(kind, items)
		if i%50 == 0 {
			assertConservation(t, f, lt)
		}
	}
	assert.Positive(t, committed)
	assertConservation(t, f, lt)
}

func TestLedger_OperacionesMixtasConcurrentes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lt := &ledgerTotals{sold: map[string]int64{}, job: map[string]int64{}}

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*25)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewPCG(uint64(w), 99))
			for range 25 {
				kind, run, items := randomOp(f, r)
				if err := run(ctx); err != nil {
					if !errors.Is(err, domain.ErrInsufficientStock) {
						errs <- err
					}
					continue
				}
				lt.add(kind, items)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assertConservation(t, f, lt)
}
