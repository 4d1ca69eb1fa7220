package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login sin estado: verifica credenciales y emite un JWT.
type AuthUseCase struct {
	staffRepo repository.StaffRepository
	jwtCfg    JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(staffRepo repository.StaffRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{staffRepo: staffRepo, jwtCfg: jwtCfg}
}

// Login verifica móvil o email más password y genera el token. Usuario inexistente y password
// incorrecta devuelven el mismo ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" || in.Password == "" {
		return nil, domain.NewValidation("identifier", "identificador y contraseña requeridos")
	}
	user, err := uc.staffRepo.GetByLogin(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, jwt.Identity{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Name:      user.Name,
		Role:      user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		ID:    user.ID,
		Name:  user.Name,
		Role:  user.Role,
	}, nil
}
