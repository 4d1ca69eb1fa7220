package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required,min=1,max=200"`
	CategoryID    string          `json:"category_id" validate:"omitempty,uuid"`
	Size          string          `json:"size" validate:"max=50"`
	Barcode       string          `json:"barcode" validate:"required,min=1,max=64"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQty      int64           `json:"stock_qty" validate:"min=0"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock: se maneja vía ledger o ajuste).
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	CategoryID    *string          `json:"category_id" validate:"omitempty"`
	Size          *string          `json:"size" validate:"omitempty,max=50"`
	Barcode       *string          `json:"barcode" validate:"omitempty,min=1,max=64"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	ImageURL      *string          `json:"image_url" validate:"omitempty,url"`
}

// AdjustStockRequest body de PUT /api/products/:id/stock.
type AdjustStockRequest struct {
	StockQty *int64 `json:"stock_qty" validate:"required,min=0"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CategoryID    string          `json:"category_id,omitempty"`
	Size          string          `json:"size"`
	Barcode       string          `json:"barcode"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQty      int64           `json:"stock_qty"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CategoryRequest entrada para crear o renombrar una categoría.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductFromEntity mapea la entidad a la respuesta HTTP.
func ProductFromEntity(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		CategoryID:    p.CategoryID,
		Size:          p.Size,
		Barcode:       p.Barcode,
		PurchasePrice: p.PurchasePrice,
		SellingPrice:  p.SellingPrice,
		StockQty:      p.WarehouseStock,
		ImageURL:      p.ImageURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
