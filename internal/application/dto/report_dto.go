package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStatsDTO respuesta de GET /api/dashboard/stats.
type DashboardStatsDTO struct {
	TotalProducts      int64           `json:"total_products"`
	TotalStock         int64           `json:"total_stock"`
	LowStockCount      int64           `json:"low_stock_count"`
	StockValue         decimal.Decimal `json:"stock_value"`         // Σ stock × precio de venta
	RecentTransactions int64           `json:"recent_transactions"` // traslados + devoluciones (por operación)
}

// WarehouseReportRow fila del reporte de stock.
// StockQty e InWarehouse son el contador materializado; Distributed y Returned salen del ledger.
type WarehouseReportRow struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Barcode     string `json:"barcode"`
	Size        string `json:"size,omitempty"`
	StockQty    int64  `json:"stock_qty"`
	Distributed int64  `json:"distributed"`
	Returned    int64  `json:"returned"`
	InWarehouse int64  `json:"in_warehouse"`
}

// OperationItemDTO línea agregada de una operación.
type OperationItemDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"qty"`
}

// OperationReportRow una operación (traslado o devolución) con sus líneas.
type OperationReportRow struct {
	OperationID string             `json:"id"`
	StaffID     string             `json:"staff_id"`
	StaffName   string             `json:"staff_name"`
	Items       []OperationItemDTO `json:"items"`
	TotalQty    int64              `json:"total_qty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// LowStockRow producto con stock de bodega bajo el umbral.
type LowStockRow struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Barcode     string `json:"barcode"`
	StockQty    int64  `json:"stock_qty"`
	Threshold   int64  `json:"threshold"`
}

// ReportRangeRequest rango opcional de fechas (YYYY-MM-DD, fin inclusivo).
type ReportRangeRequest struct {
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}
