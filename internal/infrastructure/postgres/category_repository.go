package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

type categoryRow struct {
	ID        string    `db:"id"`
	CompanyID string    `db:"company_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r categoryRow) entity() *entity.Category {
	c := entity.Category(r)
	return &c
}

// CategoryRepo categorías sobre PostgreSQL.
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository pasar pool o tx.
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO categories (id, company_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.CompanyID, c.Name, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByName sin distinguir mayúsculas, igual que el índice único.
func (r *CategoryRepo) GetByName(ctx context.Context, companyID, name string) (*entity.Category, error) {
	return r.getOne(ctx, squirrel.And{
		squirrel.Eq{"company_id": companyID},
		squirrel.Expr("lower(name) = lower(?)", name),
	})
}

func (r *CategoryRepo) getOne(ctx context.Context, where squirrel.Sqlizer) (*entity.Category, error) {
	sql, args, err := psql.Select("id", "company_id", "name", "created_at", "updated_at").
		From("categories").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select category: %w", err)
	}
	var row categoryRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return row.entity(), nil
}

func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	if !validID(c.ID) {
		return domain.NewNotFound("categoría", c.ID)
	}
	tag, err := r.q.Exec(ctx, `UPDATE categories SET name = $1, updated_at = $2 WHERE id = $3`,
		c.Name, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("categoría", c.ID)
	}
	return nil
}

func (r *CategoryRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Category, error) {
	var rows []categoryRow
	err := pgxscan.Select(ctx, r.q, &rows,
		`SELECT id, company_id, name, created_at, updated_at FROM categories WHERE company_id = $1 ORDER BY name`,
		companyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]*entity.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

// Delete los productos de la categoría quedan sin categoría (ON DELETE SET NULL).
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.NewNotFound("categoría", id)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("categoría", id)
	}
	return nil
}
