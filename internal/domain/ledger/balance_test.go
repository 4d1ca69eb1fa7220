package ledger_test

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
)

func ev(kind entity.MovementKind, staffID, productID string, qty int64) *entity.MovementEvent {
	e, err := entity.NewMovementEvent(kind, "op-1", "co-1", staffID, "admin-1", productID, qty)
	if err != nil {
		panic(err)
	}
	return e
}

// replay suma firmada independiente de HoldingDelta, para contrastar.
func replay(events []*entity.MovementEvent, staffID, productID string) int64 {
	var in, ret, sold, job int64
	for _, e := range events {
		if e.StaffID != staffID || e.ProductID != productID {
			continue
		}
		switch e.Kind {
		case entity.KindTransferIn:
			in += e.Quantity
		case entity.KindReturnToWarehouse:
			ret += e.Quantity
		case entity.KindSale:
			sold += e.Quantity
		case entity.KindJobReturn:
			job += e.Quantity
		}
	}
	return max(0, in-ret-sold+job)
}

func TestStaffHolding_Conservacion(t *testing.T) {
	events := []*entity.MovementEvent{
		ev(entity.KindTransferIn, "s1", "p1", 30),
		ev(entity.KindSale, "s1", "p1", 10),
		ev(entity.KindTransferIn, "s2", "p1", 7),
		ev(entity.KindReturnToWarehouse, "s1", "p1", 15),
		ev(entity.KindJobReturn, "s1", "p1", 4),
		ev(entity.KindTransferIn, "s1", "p2", 3),
		ev(entity.KindSale, "s2", "p1", 7),
	}

	for _, pair := range [][2]string{{"s1", "p1"}, {"s1", "p2"}, {"s2", "p1"}, {"s2", "p2"}, {"s3", "p1"}} {
		h := ledger.StaffHolding(slices.Values(events), pair[0], pair[1])
		assert.Equal(t, replay(events, pair[0], pair[1]), h.Quantity, "par %v", pair)
		assert.False(t, h.Clamped())
	}

	assert.Equal(t, int64(9), ledger.StaffHolding(slices.Values(events), "s1", "p1").Quantity)
}

func TestStaffHolding_RecortaNegativos(t *testing.T) {
	// Venta insertada por fuera del servicio: saldo crudo -5.
	events := []*entity.MovementEvent{
		ev(entity.KindTransferIn, "s1", "p1", 5),
		ev(entity.KindSale, "s1", "p1", 10),
	}

	h := ledger.StaffHolding(slices.Values(events), "s1", "p1")
	assert.Equal(t, int64(0), h.Quantity)
	assert.Equal(t, int64(-5), h.Raw)
	assert.True(t, h.Clamped())
}

func TestFullInventory_OmiteCerosYNegativos(t *testing.T) {
	events := []*entity.MovementEvent{
		ev(entity.KindTransferIn, "s1", "p1", 10),
		ev(entity.KindTransferIn, "s1", "p2", 4),
		ev(entity.KindSale, "s1", "p2", 4),
		ev(entity.KindSale, "s1", "p3", 2),
		ev(entity.KindTransferIn, "s2", "p4", 8),
	}

	inv := ledger.FullInventory(slices.Values(events), "s1")
	assert.Equal(t, map[string]int64{"p1": 10}, inv.Items)
	assert.Equal(t, map[string]int64{"p3": -2}, inv.Clamped)
	assert.Equal(t, int64(10), inv.Total())

	// Lectura idempotente: sin escrituras, mismo resultado.
	again := ledger.FullInventory(slices.Values(events), "s1")
	assert.Equal(t, inv, again)
}

func TestFullInventory_StaffSinEventos(t *testing.T) {
	inv := ledger.FullInventory(slices.Values([]*entity.MovementEvent(nil)), "nadie")
	assert.Empty(t, inv.Items)
	assert.Zero(t, inv.Total())
}

func TestWarehouseSummary(t *testing.T) {
	products := []*entity.Product{
		{ID: "p1", Name: "Roble", WarehouseStock: 85},
		{ID: "p2", Name: "Nogal", WarehouseStock: 20},
	}
	events := []*entity.MovementEvent{
		ev(entity.KindTransferIn, "s1", "p1", 30),
		ev(entity.KindSale, "s1", "p1", 10),
		ev(entity.KindReturnToWarehouse, "s1", "p1", 15),
		ev(entity.KindJobReturn, "s1", "p1", 2),
	}

	rows := ledger.WarehouseSummary(products, slices.Values(events))
	require.Len(t, rows, 2)
	assert.Equal(t, ledger.ProductSummary{ProductID: "p1", Distributed: 30, Returned: 15, InWarehouse: 85}, rows[0])
	assert.Equal(t, ledger.ProductSummary{ProductID: "p2", InWarehouse: 20}, rows[1])

	totals := ledger.TotalsByProduct(slices.Values(events))
	assert.Equal(t, int64(7), totals["p1"].Outstanding())
	assert.Equal(t, int64(10), totals["p1"].Sold)
	assert.Equal(t, int64(2), totals["p1"].JobReturned)
}

func TestStaffHolding_NoDaLaVueltaANegativo(t *testing.T) {
	events := []*entity.MovementEvent{
		ev(entity.KindJobReturn, "s1", "p1", math.MaxInt64),
		ev(entity.KindJobReturn, "s1", "p1", 1),
	}

	h := ledger.StaffHolding(slices.Values(events), "s1", "p1")
	assert.Equal(t, int64(math.MaxInt64), h.Quantity)
	assert.False(t, h.Clamped())

	inv := ledger.FullInventory(slices.Values(events), "s1")
	assert.Equal(t, int64(math.MaxInt64), inv.Items["p1"])
	assert.Empty(t, inv.Clamped)

	totals := ledger.TotalsByProduct(slices.Values(events))
	assert.Equal(t, int64(math.MaxInt64), totals["p1"].JobReturned)
}
