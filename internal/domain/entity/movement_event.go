package entity

import (
	"fmt"
	"time"
)

// MovementKind tipo de movimiento del ledger. Conjunto cerrado: cualquier otro valor es inválido.
type MovementKind string

const (
	KindTransferIn        MovementKind = "TRANSFER_IN"         // admin → staff
	KindSale              MovementKind = "SALE"                // staff → cliente
	KindReturnToWarehouse MovementKind = "RETURN_TO_WAREHOUSE" // staff → bodega
	KindJobReturn         MovementKind = "JOB_RETURN"          // cliente → staff (sobrante de obra)
)

// DefaultCustomerName nombre usado cuando una venta no indica cliente.
const DefaultCustomerName = "Customer"

// Kinds devuelve todos los tipos válidos, en orden estable.
func Kinds() []MovementKind {
	return []MovementKind{KindTransferIn, KindSale, KindReturnToWarehouse, KindJobReturn}
}

// ParseMovementKind valida un tipo recibido desde fuera (query string, fila de BD).
func ParseMovementKind(s string) (MovementKind, error) {
	k := MovementKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("tipo de movimiento desconocido: %q", s)
	}
	return k, nil
}

// Valid reporta si k pertenece al conjunto cerrado.
func (k MovementKind) Valid() bool {
	switch k {
	case KindTransferIn, KindSale, KindReturnToWarehouse, KindJobReturn:
		return true
	}
	return false
}

// HoldingSign efecto sobre el saldo del staff: +1 suma, -1 resta.
func (k MovementKind) HoldingSign() int64 {
	switch k {
	case KindTransferIn, KindJobReturn:
		return 1
	case KindSale, KindReturnToWarehouse:
		return -1
	}
	return 0
}

// WarehouseSign efecto sobre el stock de bodega: el traslado resta, la devolución suma.
// Ventas y devoluciones de obra no tocan la bodega.
func (k MovementKind) WarehouseSign() int64 {
	switch k {
	case KindTransferIn:
		return -1
	case KindReturnToWarehouse:
		return 1
	}
	return 0
}

// MovementEvent entrada del ledger. Inmutable una vez confirmada: las correcciones
// se registran como nuevos eventos, nunca editando o borrando.
type MovementEvent struct {
	ID           int64  // monotónico, lo asigna el Event Store
	OperationID  string // agrupa las líneas de una misma operación (transferId, returnId)
	CompanyID    string
	Kind         MovementKind
	StaffID      string // dueño del saldo afectado
	ActorID      string // quien ejecutó la operación (admin en traslados)
	ProductID    string
	Quantity     int64 // siempre positiva; el signo lo da Kind
	CustomerName string
	Note         string
	CreatedAt    time.Time
}

// NewMovementEvent construye un evento validando los campos requeridos por su tipo.
func NewMovementEvent(kind MovementKind, operationID, companyID, staffID, actorID, productID string, quantity int64) (*MovementEvent, error) {
	ev := &MovementEvent{
		OperationID: operationID,
		CompanyID:   companyID,
		Kind:        kind,
		StaffID:     staffID,
		ActorID:     actorID,
		ProductID:   productID,
		Quantity:    quantity,
	}
	if kind == KindSale {
		ev.CustomerName = DefaultCustomerName
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// Validate comprueba la forma del evento (no los saldos).
func (e *MovementEvent) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("evento: tipo %q inválido", e.Kind)
	}
	switch {
	case e.OperationID == "":
		return fmt.Errorf("evento %s: operation_id requerido", e.Kind)
	case e.CompanyID == "":
		return fmt.Errorf("evento %s: company_id requerido", e.Kind)
	case e.StaffID == "":
		return fmt.Errorf("evento %s: staff_id requerido", e.Kind)
	case e.ProductID == "":
		return fmt.Errorf("evento %s: product_id requerido", e.Kind)
	case e.Quantity <= 0:
		return fmt.Errorf("evento %s: cantidad debe ser positiva", e.Kind)
	}
	switch e.Kind {
	case KindTransferIn:
		if e.ActorID == "" {
			return fmt.Errorf("evento %s: actor_id (admin) requerido", e.Kind)
		}
	case KindSale:
		if e.CustomerName == "" {
			return fmt.Errorf("evento %s: customer_name requerido", e.Kind)
		}
	}
	return nil
}

// HoldingDelta variación firmada del saldo del staff.
func (e *MovementEvent) HoldingDelta() int64 { return e.Kind.HoldingSign() * e.Quantity }

// WarehouseDelta variación firmada del stock de bodega.
func (e *MovementEvent) WarehouseDelta() int64 { return e.Kind.WarehouseSign() * e.Quantity }
