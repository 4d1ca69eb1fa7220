package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria. Dentro de una transacción solo SetWarehouseStock queda
// pendiente hasta el commit; el resto de escrituras de catálogo se aplican de inmediato.
type ProductRepo struct {
	b binding
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	return r.b.s.write(func(d *data) error {
		if _, ok := d.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		if barcodeTaken(d, product.CompanyID, product.Barcode, "") {
			return domain.ErrDuplicate
		}
		cp := *product
		d.products[product.ID] = &cp
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	r.b.r.read(func(d *data) {
		if p, ok := d.products[id]; ok {
			cp := *p
			out = &cp
		}
	})
	if out != nil && r.b.t != nil {
		if stock, ok := r.b.t.stock[id]; ok {
			out.WarehouseStock = stock
		}
	}
	return out, nil
}

// GetForUpdate toma el candado del producto hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if r.b.t != nil {
		if err := r.b.t.lock(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) GetByBarcode(ctx context.Context, companyID, barcode string) (*entity.Product, error) {
	var id string
	r.b.r.read(func(d *data) {
		for _, p := range d.products {
			if p.CompanyID == companyID && p.Barcode == barcode {
				id = p.ID
				return
			}
		}
	})
	if id == "" {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Update modifica los datos de catálogo; conserva el stock guardado.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	return r.b.s.write(func(d *data) error {
		cur, ok := d.products[product.ID]
		if !ok {
			return domain.NewNotFound("producto", product.ID)
		}
		if barcodeTaken(d, cur.CompanyID, product.Barcode, product.ID) {
			return domain.ErrDuplicate
		}
		cp := *product
		cp.CompanyID = cur.CompanyID
		cp.WarehouseStock = cur.WarehouseStock
		cp.CreatedAt = cur.CreatedAt
		d.products[product.ID] = &cp
		return nil
	})
}

func (r *ProductRepo) SetWarehouseStock(_ context.Context, id string, stock int64) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	if stock < 0 {
		return domain.NewValidation("stock_qty", "el stock de bodega no puede ser negativo")
	}
	if r.b.t != nil {
		r.b.t.stock[id] = stock
		return nil
	}
	return r.b.s.write(func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return domain.NewNotFound("producto", id)
		}
		cp := *p
		cp.WarehouseStock = stock
		cp.UpdatedAt = r.b.s.now()
		d.products[id] = &cp
		return nil
	})
}

func (r *ProductRepo) ListByCompany(_ context.Context, companyID string, filter repository.ProductFilter) ([]*entity.Product, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var list []*entity.Product
	r.b.r.read(func(d *data) {
		for _, p := range d.products {
			if p.CompanyID != companyID {
				continue
			}
			if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.Barcode), search) {
				continue
			}
			cp := *p
			list = append(list, &cp)
		}
	})
	if r.b.t != nil {
		for _, p := range list {
			if stock, ok := r.b.t.stock[p.ID]; ok {
				p.WarehouseStock = stock
			}
		}
	}
	slices.SortFunc(list, func(a, b *entity.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return paginate(list, filter.Limit, filter.Offset), nil
}

// Delete falla con conflicto si el producto ya tiene movimientos: el historial no se borra.
// Toma el candado del producto, así que espera a que confirme cualquier operación del ledger
// en curso sobre él y luego ve sus eventos.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	if r.b.t != nil {
		if err := r.b.t.lock(ctx, id); err != nil {
			return err
		}
		if slices.ContainsFunc(r.b.t.events, func(ev *entity.MovementEvent) bool { return ev.ProductID == id }) {
			return fmt.Errorf("producto con movimientos: %w", domain.ErrDuplicate)
		}
	} else {
		ctx, cancel := r.b.s.withTimeout(ctx)
		defer cancel()
		if err := r.b.s.locks.lock(ctx, id); err != nil {
			return domain.NewStorageError("lock "+id, err)
		}
		defer r.b.s.locks.unlock(id)
	}
	return r.b.s.write(func(d *data) error {
		if _, ok := d.products[id]; !ok {
			return domain.NewNotFound("producto", id)
		}
		if slices.ContainsFunc(d.events, func(ev *entity.MovementEvent) bool { return ev.ProductID == id }) {
			return fmt.Errorf("producto con movimientos: %w", domain.ErrDuplicate)
		}
		delete(d.products, id)
		return nil
	})
}

func barcodeTaken(d *data, companyID, barcode, exceptID string) bool {
	for _, p := range d.products {
		if p.ID != exceptID && p.CompanyID == companyID && p.Barcode == barcode {
			return true
		}
	}
	return false
}

// paginate limit <= 0 devuelve todo desde offset.
func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return nil
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
