// Package ledger contiene la lógica pura del ledger de mercancía: el cálculo de saldos
// a partir de los eventos y las validaciones previas a confirmar un movimiento.
//
// Nada aquí tiene efectos secundarios ni estado propio; todo se recalcula desde la
// secuencia de eventos, así que dos secuencias iguales producen siempre el mismo resultado.
package ledger

import (
	"iter"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Holding saldo de un staff para un producto.
// Raw es la suma sin recortar; Quantity nunca es negativa.
type Holding struct {
	Quantity int64
	Raw      int64
}

// Clamped indica que el saldo crudo era negativo y se recortó a cero. Solo ocurre si se
// insertaron eventos por fuera del Ledger Service; es una advertencia de integridad, no un error.
func (h Holding) Clamped() bool { return h.Raw < 0 }

// StaffHolding aplica TRANSFER_IN − RETURN_TO_WAREHOUSE − SALE + JOB_RETURN sobre los
// eventos del par (staffID, productID). Los eventos de otros pares se ignoran. La suma se
// satura en los extremos de int64: nunca da la vuelta a negativo.
func StaffHolding(events iter.Seq[*entity.MovementEvent], staffID, productID string) Holding {
	var raw int64
	for ev := range events {
		if ev.StaffID != staffID || ev.ProductID != productID {
			continue
		}
		raw = addSaturated(raw, ev.HoldingDelta())
	}
	return newHolding(raw)
}

func newHolding(raw int64) Holding {
	return Holding{Quantity: max(raw, 0), Raw: raw}
}

// Inventory saldo completo de un staff.
type Inventory struct {
	// Items producto → cantidad, solo con cantidad > 0. Los saldos en cero o negativos se omiten.
	Items map[string]int64
	// Clamped producto → saldo crudo, para los que quedaron negativos (advertencia de integridad).
	Clamped map[string]int64
}

// Total suma de unidades en poder del staff.
func (inv Inventory) Total() int64 {
	var total int64
	for _, q := range inv.Items {
		total = addSaturated(total, q)
	}
	return total
}

// FullInventory agrupa por producto los eventos de staffID.
func FullInventory(events iter.Seq[*entity.MovementEvent], staffID string) Inventory {
	raw := make(map[string]int64)
	for ev := range events {
		if ev.StaffID == staffID {
			raw[ev.ProductID] = addSaturated(raw[ev.ProductID], ev.HoldingDelta())
		}
	}
	inv := Inventory{Items: make(map[string]int64, len(raw))}
	for productID, q := range raw {
		switch {
		case q > 0:
			inv.Items[productID] = q
		case q < 0:
			if inv.Clamped == nil {
				inv.Clamped = make(map[string]int64)
			}
			inv.Clamped[productID] = q
		}
	}
	return inv
}

// ProductTotals acumulados del ledger por producto, sobre todos los staff.
type ProductTotals struct {
	Distributed int64 // Σ TRANSFER_IN
	Returned    int64 // Σ RETURN_TO_WAREHOUSE
	Sold        int64 // Σ SALE
	JobReturned int64 // Σ JOB_RETURN
}

// Outstanding unidades que el ledger ubica fuera de bodega y aún no vendidas.
func (t ProductTotals) Outstanding() int64 {
	out := addSaturated(t.Distributed, -t.Returned)
	out = addSaturated(out, -t.Sold)
	return addSaturated(out, t.JobReturned)
}

// TotalsByProduct suma cada tipo de evento por producto.
func TotalsByProduct(events iter.Seq[*entity.MovementEvent]) map[string]ProductTotals {
	out := make(map[string]ProductTotals)
	for ev := range events {
		t := out[ev.ProductID]
		switch ev.Kind {
		case entity.KindTransferIn:
			t.Distributed = addSaturated(t.Distributed, ev.Quantity)
		case entity.KindReturnToWarehouse:
			t.Returned = addSaturated(t.Returned, ev.Quantity)
		case entity.KindSale:
			t.Sold = addSaturated(t.Sold, ev.Quantity)
		case entity.KindJobReturn:
			t.JobReturned = addSaturated(t.JobReturned, ev.Quantity)
		}
		out[ev.ProductID] = t
	}
	return out
}

// ProductSummary fila del resumen de bodega.
// Distributed y Returned salen del ledger; InWarehouse es el contador materializado.
// Son vistas independientes y pueden cruzarse para verificar consistencia.
type ProductSummary struct {
	ProductID   string
	Distributed int64
	Returned    int64
	InWarehouse int64
}

// WarehouseSummary arma una fila por producto, en el orden recibido.
func WarehouseSummary(products []*entity.Product, events iter.Seq[*entity.MovementEvent]) []ProductSummary {
	totals := TotalsByProduct(events)
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		t := totals[p.ID]
		out = append(out, ProductSummary{
			ProductID:   p.ID,
			Distributed: t.Distributed,
			Returned:    t.Returned,
			InWarehouse: p.WarehouseStock,
		})
	}
	return out
}
