package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto de piso (porcelanato, madera, vinílico...) del catálogo.
// WarehouseStock es el contador materializado de unidades en la bodega central; solo lo
// modifican las operaciones del ledger (traslado resta, devolución suma) y el ajuste de admin.
type Product struct {
	ID             string
	CompanyID      string
	CategoryID     string // vacío si no tiene categoría
	Name           string
	Size           string // ej. "24×24", "8×48"
	Barcode        string // único por empresa
	PurchasePrice  decimal.Decimal
	SellingPrice   decimal.Decimal
	WarehouseStock int64 // nunca negativo
	ImageURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StockValue valor de venta del stock en bodega (stock × precio de venta).
func (p *Product) StockValue() decimal.Decimal {
	return p.SellingPrice.Mul(decimal.NewFromInt(p.WarehouseStock))
}
