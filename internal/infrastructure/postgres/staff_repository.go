package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StaffRepository = (*StaffRepo)(nil)

var staffColumns = []string{
	"id", "company_id", "name", "mobile", "email", "password_hash", "role", "created_at", "updated_at",
}

type staffRow struct {
	ID           string    `db:"id"`
	CompanyID    string    `db:"company_id"`
	Name         string    `db:"name"`
	Mobile       *string   `db:"mobile"`
	Email        *string   `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r staffRow) entity() *entity.StaffAccount {
	return &entity.StaffAccount{
		ID:           r.ID,
		CompanyID:    r.CompanyID,
		Name:         r.Name,
		Mobile:       deref(r.Mobile),
		Email:        deref(r.Email),
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// StaffRepo cuentas de staff y admin sobre PostgreSQL.
type StaffRepo struct {
	q Querier
}

// NewStaffRepository pasar pool o tx.
func NewStaffRepository(q Querier) *StaffRepo {
	return &StaffRepo{q: q}
}

func (r *StaffRepo) Create(ctx context.Context, s *entity.StaffAccount) error {
	sql, args, err := psql.Insert("staff_accounts").
		Columns(staffColumns...).
		Values(s.ID, s.CompanyID, s.Name, nullable(s.Mobile), nullable(s.Email), s.PasswordHash, s.Role, s.CreatedAt, s.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert staff: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert staff: %w", err)
	}
	return nil
}

func (r *StaffRepo) GetByID(ctx context.Context, id string) (*entity.StaffAccount, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *StaffRepo) GetByLogin(ctx context.Context, login string) (*entity.StaffAccount, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, nil
	}
	return r.getOne(ctx, squirrel.Or{
		squirrel.Eq{"mobile": login},
		squirrel.Expr("lower(email) = lower(?)", login),
	})
}

func (r *StaffRepo) getOne(ctx context.Context, where squirrel.Sqlizer) (*entity.StaffAccount, error) {
	sql, args, err := psql.Select(staffColumns...).From("staff_accounts").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select staff: %w", err)
	}
	var row staffRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return row.entity(), nil
}

func (r *StaffRepo) Update(ctx context.Context, s *entity.StaffAccount) error {
	if !validID(s.ID) {
		return domain.NewNotFound("staff", s.ID)
	}
	sql, args, err := psql.Update("staff_accounts").
		Set("name", s.Name).
		Set("mobile", nullable(s.Mobile)).
		Set("email", nullable(s.Email)).
		Set("password_hash", s.PasswordHash).
		Set("role", s.Role).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update staff: %w", err)
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("staff", s.ID)
	}
	return nil
}

func (r *StaffRepo) ListByCompany(ctx context.Context, companyID, role string) ([]*entity.StaffAccount, error) {
	q := psql.Select(staffColumns...).From("staff_accounts").
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("name", "id")
	if role != "" {
		q = q.Where(squirrel.Eq{"role": role})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list staff: %w", err)
	}
	var rows []staffRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	out := make([]*entity.StaffAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}
