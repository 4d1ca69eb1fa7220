package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo categorías en memoria.
type CategoryRepo struct {
	b binding
}

func (r *CategoryRepo) Create(_ context.Context, category *entity.Category) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	return r.b.s.write(func(d *data) error {
		if _, ok := d.categories[category.ID]; ok || categoryNameTaken(d, category.CompanyID, category.Name, "") {
			return domain.ErrDuplicate
		}
		cp := *category
		d.categories[category.ID] = &cp
		return nil
	})
}

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	var out *entity.Category
	r.b.r.read(func(d *data) {
		if c, ok := d.categories[id]; ok {
			cp := *c
			out = &cp
		}
	})
	return out, nil
}

func (r *CategoryRepo) GetByName(_ context.Context, companyID, name string) (*entity.Category, error) {
	var out *entity.Category
	r.b.r.read(func(d *data) {
		for _, c := range d.categories {
			if c.CompanyID == companyID && strings.EqualFold(c.Name, name) {
				cp := *c
				out = &cp
				return
			}
		}
	})
	return out, nil
}

func (r *CategoryRepo) Update(_ context.Context, category *entity.Category) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	return r.b.s.write(func(d *data) error {
		cur, ok := d.categories[category.ID]
		if !ok {
			return domain.NewNotFound("categoría", category.ID)
		}
		if categoryNameTaken(d, cur.CompanyID, category.Name, category.ID) {
			return domain.ErrDuplicate
		}
		cp := *category
		cp.CompanyID = cur.CompanyID
		cp.CreatedAt = cur.CreatedAt
		d.categories[category.ID] = &cp
		return nil
	})
}

func (r *CategoryRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Category, error) {
	var list []*entity.Category
	r.b.r.read(func(d *data) {
		for _, c := range d.categories {
			if c.CompanyID == companyID {
				cp := *c
				list = append(list, &cp)
			}
		}
	})
	slices.SortFunc(list, func(a, b *entity.Category) int { return cmp.Compare(a.Name, b.Name) })
	return list, nil
}

func (r *CategoryRepo) Delete(_ context.Context, id string) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	return r.b.s.write(func(d *data) error {
		if _, ok := d.categories[id]; !ok {
			return domain.NewNotFound("categoría", id)
		}
		delete(d.categories, id)
		for pid, p := range d.products {
			if p.CategoryID == id {
				cp := *p
				cp.CategoryID = ""
				d.products[pid] = &cp
			}
		}
		return nil
	})
}

func categoryNameTaken(d *data, companyID, name, exceptID string) bool {
	for _, c := range d.categories {
		if c.ID != exceptID && c.CompanyID == companyID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
