package dto

import "time"

// LineItemRequest línea de una operación del ledger.
type LineItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"qty" validate:"gt=0,lte=1000000000"`
}

// TransferRequest body de POST /api/ledger/transfers (admin → staff).
type TransferRequest struct {
	StaffID string            `json:"staff_id" validate:"required"`
	Items   []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Note    string            `json:"note" validate:"max=500"`
}

// SaleRequest body de POST /api/ledger/sales. StaffID solo lo usa un ADMIN que registra en nombre de un staff.
type SaleRequest struct {
	StaffID      string            `json:"staff_id,omitempty"`
	CustomerName string            `json:"customer_name" validate:"max=200"`
	Items        []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Note         string            `json:"note" validate:"max=500"`
}

// ReturnRequest body de POST /api/ledger/returns (staff → bodega).
type ReturnRequest struct {
	StaffID string            `json:"staff_id,omitempty"`
	Items   []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Note    string            `json:"note" validate:"max=500"`
}

// JobReturnRequest body de POST /api/ledger/job-returns (cliente → staff).
type JobReturnRequest struct {
	StaffID      string            `json:"staff_id,omitempty"`
	CustomerName string            `json:"customer_name" validate:"max=200"`
	Items        []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Note         string            `json:"note" validate:"max=500"`
}

// OperationResponse resultado de una operación confirmada.
// TransferID y ReturnID repiten OperationID según el tipo, por compatibilidad con los clientes.
type OperationResponse struct {
	OperationID    string    `json:"operation_id"`
	TransferID     string    `json:"transfer_id,omitempty"`
	ReturnID       string    `json:"return_id,omitempty"`
	Kind           string    `json:"kind"`
	TransactionIDs []int64   `json:"transaction_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

// InventoryItemDTO una línea del inventario de un staff.
type InventoryItemDTO struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Product   ProductResponse `json:"product"`
}

// StaffInventoryResponse inventario completo de un staff (solo saldos > 0).
type StaffInventoryResponse struct {
	StaffID    string             `json:"staff_id"`
	Items      []InventoryItemDTO `json:"items"`
	TotalUnits int64              `json:"total_units"`
}

// StaffStatsResponse tarjetas del panel del staff.
type StaffStatsResponse struct {
	ProductsTaken   int64 `json:"products_taken"`    // Σ TRANSFER_IN de hoy
	BalanceToReturn int64 `json:"balance_to_return"` // Σ saldos vigentes
	PendingReturns  int64 `json:"pending_returns"`   // siempre 0; se mantiene por compatibilidad
}

// HistoryRequest filtros de GET /api/ledger/history.
type HistoryRequest struct {
	PageRequest
	StaffID string `query:"staff_id"`
	Kind    string `query:"kind" validate:"omitempty,oneof=TRANSFER_IN SALE RETURN_TO_WAREHOUSE JOB_RETURN"`
	Start   string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End     string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

// MovementDTO fila del historial, del más reciente al más antiguo.
type MovementDTO struct {
	ID           int64     `json:"id"`
	OperationID  string    `json:"operation_id"`
	Kind         string    `json:"kind"`
	StaffID      string    `json:"staff_id"`
	StaffName    string    `json:"staff_name"`
	ActorID      string    `json:"actor_id,omitempty"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Barcode      string    `json:"barcode"`
	Quantity     int64     `json:"quantity"`
	CustomerName string    `json:"customer_name,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryResponse página del historial.
type HistoryResponse struct {
	Items []MovementDTO `json:"items"`
	Page  PageResponse  `json:"page"`
}
