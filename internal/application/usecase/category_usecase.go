package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// CategoryUseCase CRUD de categorías. El nombre es único por empresa sin distinguir mayúsculas.
type CategoryUseCase struct {
	repo repository.CategoryRepository
}

func NewCategoryUseCase(repo repository.CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{repo: repo}
}

func (uc *CategoryUseCase) Create(ctx context.Context, companyID string, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidation("name", "requerido")
	}
	existing, err := uc.repo.GetByName(ctx, companyID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	c := &entity.Category{ID: uuid.New().String(), CompanyID: companyID, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

// Rename cambia el nombre de la categoría.
func (uc *CategoryUseCase) Rename(ctx context.Context, companyID, id string, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.find(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidation("name", "requerido")
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

// List categorías ordenadas por nombre.
func (uc *CategoryUseCase) List(ctx context.Context, companyID string) ([]dto.CategoryResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCategoryResponse(c))
	}
	return out, nil
}

// Delete borra la categoría; sus productos quedan sin categoría.
func (uc *CategoryUseCase) Delete(ctx context.Context, companyID, id string) error {
	if _, err := uc.find(ctx, companyID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *CategoryUseCase) find(ctx context.Context, companyID, id string) (*entity.Category, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.CompanyID != companyID {
		return nil, domain.NewNotFound("categoría", id)
	}
	return c, nil
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}
