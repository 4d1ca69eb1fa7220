package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

var productColumns = []string{
	"id", "company_id", "category_id", "name", "size", "barcode", "purchase_price",
	"selling_price", "warehouse_stock", "image_url", "created_at", "updated_at",
}

// productRow fila de products tal como la devuelve pgxscan.
type productRow struct {
	ID             string          `db:"id"`
	CompanyID      string          `db:"company_id"`
	CategoryID     *string         `db:"category_id"`
	Name           string          `db:"name"`
	Size           string          `db:"size"`
	Barcode        string          `db:"barcode"`
	PurchasePrice  decimal.Decimal `db:"purchase_price"`
	SellingPrice   decimal.Decimal `db:"selling_price"`
	WarehouseStock int64           `db:"warehouse_stock"`
	ImageURL       string          `db:"image_url"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (r productRow) entity() *entity.Product {
	return &entity.Product{
		ID:             r.ID,
		CompanyID:      r.CompanyID,
		CategoryID:     deref(r.CategoryID),
		Name:           r.Name,
		Size:           r.Size,
		Barcode:        r.Barcode,
		PurchasePrice:  r.PurchasePrice,
		SellingPrice:   r.SellingPrice,
		WarehouseStock: r.WarehouseStock,
		ImageURL:       r.ImageURL,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	sql, args, err := psql.Insert("products").
		Columns(productColumns...).
		Values(p.ID, p.CompanyID, nullable(p.CategoryID), p.Name, p.Size, p.Barcode, p.PurchasePrice,
			p.SellingPrice, p.WarehouseStock, p.ImageURL, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert product: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFound("categoría", p.CategoryID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, psql.Select(productColumns...).From("products").Where(squirrel.Eq{"id": id}))
}

// GetForUpdate igual que GetByID pero con SELECT ... FOR UPDATE: la fila queda bloqueada
// hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, psql.Select(productColumns...).From("products").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE"))
}

// GetByBarcode busca por código de barras dentro de la empresa.
func (r *ProductRepo) GetByBarcode(ctx context.Context, companyID, barcode string) (*entity.Product, error) {
	return r.getOne(ctx, psql.Select(productColumns...).From("products").
		Where(squirrel.Eq{"company_id": companyID, "barcode": barcode}))
}

func (r *ProductRepo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*entity.Product, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select product: %w", err)
	}
	var row productRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return row.entity(), nil
}

// Update modifica los datos de catálogo. warehouse_stock no se toca aquí.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	if !validID(p.ID) {
		return domain.NewNotFound("producto", p.ID)
	}
	sql, args, err := psql.Update("products").
		Set("category_id", nullable(p.CategoryID)).
		Set("name", p.Name).
		Set("size", p.Size).
		Set("barcode", p.Barcode).
		Set("purchase_price", p.PurchasePrice).
		Set("selling_price", p.SellingPrice).
		Set("image_url", p.ImageURL).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update product: %w", err)
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFound("categoría", p.CategoryID)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("producto", p.ID)
	}
	return nil
}

// SetWarehouseStock fija el contador de bodega. El CHECK (warehouse_stock >= 0) de la tabla
// respalda la validación del servicio.
func (r *ProductRepo) SetWarehouseStock(ctx context.Context, id string, stock int64) error {
	if !validID(id) {
		return domain.NewNotFound("producto", id)
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET warehouse_stock = $1, updated_at = now() WHERE id = $2`, stock, id)
	if err != nil {
		return fmt.Errorf("set warehouse stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("producto", id)
	}
	return nil
}

// ListByCompany lista productos de la empresa ordenados por nombre.
func (r *ProductRepo) ListByCompany(ctx context.Context, companyID string, filter repository.ProductFilter) ([]*entity.Product, error) {
	q := psql.Select(productColumns...).From("products").
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("name", "id")
	if filter.CategoryID != "" {
		if !validID(filter.CategoryID) {
			return []*entity.Product{}, nil
		}
		q = q.Where(squirrel.Eq{"category_id": filter.CategoryID})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where(squirrel.Or{squirrel.ILike{"name": like}, squirrel.ILike{"barcode": like}})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list products: %w", err)
	}
	var rows []productRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]*entity.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

// Delete elimina el producto. Si ya tiene movimientos en el ledger la FK lo impide y se
// devuelve ErrDuplicate (conflicto): el historial no se borra.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.NewNotFound("producto", id)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("producto con movimientos: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("producto", id)
	}
	return nil
}
