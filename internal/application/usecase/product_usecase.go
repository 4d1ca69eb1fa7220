package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. El stock de bodega solo se fija al crear;
// después cambia por operaciones del ledger o por el ajuste de admin.
type ProductUseCase struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	now        func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, categories repository.CategoryRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, categories: categories, now: time.Now}
}

// Create crea un nuevo producto con su stock inicial en bodega.
func (uc *ProductUseCase) Create(ctx context.Context, companyID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	barcode := strings.TrimSpace(in.Barcode)
	if barcode == "" {
		return nil, domain.NewValidation("barcode", "requerido")
	}
	if in.StockQty < 0 {
		return nil, domain.NewValidation("stock_qty", "no puede ser negativo")
	}
	if err := checkPrices(in.PurchasePrice, in.SellingPrice); err != nil {
		return nil, err
	}
	if err := uc.checkCategory(ctx, companyID, in.CategoryID); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByBarcode(ctx, companyID, barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := uc.now()
	product := &entity.Product{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		CategoryID:     in.CategoryID,
		Name:           strings.TrimSpace(in.Name),
		Size:           in.Size,
		Barcode:        barcode,
		PurchasePrice:  in.PurchasePrice,
		SellingPrice:   in.SellingPrice,
		WarehouseStock: in.StockQty,
		ImageURL:       in.ImageURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	out := dto.ProductFromEntity(product)
	return &out, nil
}

// GetByID obtiene un producto de la empresa. Un producto de otra empresa no existe para el llamador.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	product, err := uc.find(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	out := dto.ProductFromEntity(product)
	return &out, nil
}

// GetByBarcode lookup del lector de códigos de barras.
func (uc *ProductUseCase) GetByBarcode(ctx context.Context, companyID, barcode string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByBarcode(ctx, companyID, strings.TrimSpace(barcode))
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewNotFound("producto", barcode)
	}
	out := dto.ProductFromEntity(product)
	return &out, nil
}

// Update actualiza datos de catálogo. No permite modificar el stock.
func (uc *ProductUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.find(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.CategoryID != nil {
		if err := uc.checkCategory(ctx, companyID, *in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *in.CategoryID
	}
	if in.Size != nil {
		product.Size = *in.Size
	}
	if in.Barcode != nil {
		barcode := strings.TrimSpace(*in.Barcode)
		if barcode == "" {
			return nil, domain.NewValidation("barcode", "requerido")
		}
		if barcode != product.Barcode {
			other, err := uc.repo.GetByBarcode(ctx, companyID, barcode)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, domain.ErrDuplicate
			}
		}
		product.Barcode = barcode
	}
	if in.PurchasePrice != nil {
		product.PurchasePrice = *in.PurchasePrice
	}
	if in.SellingPrice != nil {
		product.SellingPrice = *in.SellingPrice
	}
	if err := checkPrices(product.PurchasePrice, product.SellingPrice); err != nil {
		return nil, err
	}
	if in.ImageURL != nil {
		product.ImageURL = *in.ImageURL
	}
	product.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	out := dto.ProductFromEntity(product)
	return &out, nil
}

// List lista productos por empresa con paginación y filtros opcionales.
func (uc *ProductUseCase) List(ctx context.Context, companyID string, filter repository.ProductFilter) (*dto.ProductListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.ProductFromEntity(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

// Delete elimina un producto sin movimientos.
func (uc *ProductUseCase) Delete(ctx context.Context, companyID, id string) error {
	if _, err := uc.find(ctx, companyID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *ProductUseCase) find(ctx context.Context, companyID, id string) (*entity.Product, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.CompanyID != companyID {
		return nil, domain.NewNotFound("producto", id)
	}
	return product, nil
}

func (uc *ProductUseCase) checkCategory(ctx context.Context, companyID, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	c, err := uc.categories.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil || c.CompanyID != companyID {
		return domain.NewNotFound("categoría", categoryID)
	}
	return nil
}

func checkPrices(purchase, selling decimal.Decimal) error {
	if purchase.IsNegative() {
		return domain.NewValidation("purchase_price", "no puede ser negativo")
	}
	if selling.IsNegative() {
		return domain.NewValidation("selling_price", "no puede ser negativo")
	}
	return nil
}
