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

var _ repository.StaffRepository = (*StaffRepo)(nil)

// StaffRepo cuentas en memoria.
type StaffRepo struct {
	b binding
}

func (r *StaffRepo) Create(_ context.Context, staff *entity.StaffAccount) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	return r.b.s.write(func(d *data) error {
		if _, ok := d.staff[staff.ID]; ok || loginTaken(d, staff, "") {
			return domain.ErrDuplicate
		}
		cp := *staff
		d.staff[staff.ID] = &cp
		return nil
	})
}

func (r *StaffRepo) GetByID(_ context.Context, id string) (*entity.StaffAccount, error) {
	var out *entity.StaffAccount
	r.b.r.read(func(d *data) {
		if s, ok := d.staff[id]; ok {
			cp := *s
			out = &cp
		}
	})
	return out, nil
}

func (r *StaffRepo) GetByLogin(_ context.Context, login string) (*entity.StaffAccount, error) {
	login = strings.TrimSpace(login)
	var out *entity.StaffAccount
	r.b.r.read(func(d *data) {
		for _, s := range d.staff {
			if (s.Mobile != "" && s.Mobile == login) || (s.Email != "" && strings.EqualFold(s.Email, login)) {
				cp := *s
				out = &cp
				return
			}
		}
	})
	return out, nil
}

func (r *StaffRepo) Update(_ context.Context, staff *entity.StaffAccount) error {
	if err := r.b.writable(); err != nil {
		return err
	}
	return r.b.s.write(func(d *data) error {
		cur, ok := d.staff[staff.ID]
		if !ok {
			return domain.NewNotFound("staff", staff.ID)
		}
		if loginTaken(d, staff, staff.ID) {
			return domain.ErrDuplicate
		}
		cp := *staff
		cp.CompanyID = cur.CompanyID
		cp.CreatedAt = cur.CreatedAt
		d.staff[staff.ID] = &cp
		return nil
	})
}

func (r *StaffRepo) ListByCompany(_ context.Context, companyID, role string) ([]*entity.StaffAccount, error) {
	var list []*entity.StaffAccount
	r.b.r.read(func(d *data) {
		for _, s := range d.staff {
			if s.CompanyID == companyID && (role == "" || s.Role == role) {
				cp := *s
				list = append(list, &cp)
			}
		}
	})
	slices.SortFunc(list, func(a, b *entity.StaffAccount) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return list, nil
}

// loginTaken móvil y email son únicos en todo el sistema: identifican el login.
func loginTaken(d *data, staff *entity.StaffAccount, exceptID string) bool {
	for _, s := range d.staff {
		if s.ID == exceptID {
			continue
		}
		if staff.Mobile != "" && s.Mobile == staff.Mobile {
			return true
		}
		if staff.Email != "" && strings.EqualFold(s.Email, staff.Email) {
			return true
		}
	}
	return false
}
