package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StaffUseCase alta y consulta de cuentas (admin y staff).
type StaffUseCase struct {
	repo repository.StaffRepository
	cost int
}

// NewStaffUseCase construye el caso de uso. cost es el costo de bcrypt (0 = bcrypt.DefaultCost).
func NewStaffUseCase(repo repository.StaffRepository, cost int) *StaffUseCase {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &StaffUseCase{repo: repo, cost: cost}
}

// Create crea una cuenta: hashea password con bcrypt y persiste. Móvil y email son únicos globalmente
// porque el login no lleva empresa.
func (uc *StaffUseCase) Create(ctx context.Context, companyID string, in dto.CreateStaffRequest) (*dto.StaffResponse, error) {
	mobile := strings.TrimSpace(in.Mobile)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, domain.NewValidation("name", "requerido")
	case mobile == "" && email == "":
		return nil, domain.NewValidation("mobile", "móvil o email requerido")
	case len(in.Password) < 6:
		return nil, domain.NewValidation("password", "mínimo 6 caracteres")
	case !entity.ValidRole(in.Role):
		return nil, domain.NewValidation("role", "debe ser ADMIN o STAFF")
	}
	for _, login := range []string{mobile, email} {
		if login == "" {
			continue
		}
		existing, err := uc.repo.GetByLogin(ctx, login)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrDuplicate
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	staff := &entity.StaffAccount{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		Name:         strings.TrimSpace(in.Name),
		Mobile:       mobile,
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, staff); err != nil {
		return nil, err
	}
	return ToStaffResponse(staff), nil
}

// EnsureAdmin crea una cuenta ADMIN con ese login si todavía no existe. companyID vacío
// genera una empresa nueva. Devuelve la cuenta existente o la creada.
func (uc *StaffUseCase) EnsureAdmin(ctx context.Context, companyID, name, login, password string) (*dto.StaffResponse, bool, error) {
	login = strings.TrimSpace(login)
	existing, err := uc.repo.GetByLogin(ctx, login)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return ToStaffResponse(existing), false, nil
	}
	if companyID == "" {
		companyID = uuid.New().String()
	}
	in := dto.CreateStaffRequest{Name: name, Password: password, Role: entity.RoleAdmin}
	if strings.Contains(login, "@") {
		in.Email = login
	} else {
		in.Mobile = login
	}
	out, err := uc.Create(ctx, companyID, in)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Signup alta pública de una cuenta STAFF en companyID. El rol no se elige: un ADMIN solo lo
// crea otro ADMIN o el arranque. Sin companyID el registro está cerrado (ErrForbidden).
func (uc *StaffUseCase) Signup(ctx context.Context, companyID string, in dto.SignupRequest) (*dto.StaffResponse, error) {
	if companyID == "" {
		return nil, domain.ErrForbidden
	}
	return uc.Create(ctx, companyID, dto.CreateStaffRequest{
		Name:     in.Name,
		Mobile:   in.Mobile,
		Email:    in.Email,
		Password: in.Password,
		Role:     entity.RoleStaff,
	})
}

// List cuentas de la empresa; role vacío lista todas.
func (uc *StaffUseCase) List(ctx context.Context, companyID, role string) ([]dto.StaffResponse, error) {
	if role != "" && !entity.ValidRole(role) {
		return nil, domain.NewValidation("role", "debe ser ADMIN o STAFF")
	}
	list, err := uc.repo.ListByCompany(ctx, companyID, role)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StaffResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *ToStaffResponse(s))
	}
	return out, nil
}

// ToStaffResponse mapea la cuenta sin exponer el hash.
func ToStaffResponse(s *entity.StaffAccount) *dto.StaffResponse {
	return &dto.StaffResponse{
		ID:        s.ID,
		Name:      s.Name,
		Mobile:    s.Mobile,
		Email:     s.Email,
		Role:      s.Role,
		CreatedAt: s.CreatedAt,
	}
}
