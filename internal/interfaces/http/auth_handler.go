package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
)

// AuthHandler maneja login y autorregistro.
type AuthHandler struct {
	uc              *auth.AuthUseCase
	staffUC         *usecase.StaffUseCase
	signupCompanyID string
}

// NewAuthHandler construye el handler de auth. signupCompanyID vacío cierra el registro.
func NewAuthHandler(uc *auth.AuthUseCase, staffUC *usecase.StaffUseCase, signupCompanyID string) *AuthHandler {
	return &AuthHandler{uc: uc, staffUC: staffUC, signupCompanyID: signupCompanyID}
}

// Login godoc
// @Summary      Iniciar sesión
// @Description  Acepta móvil o email como identificador.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "identifier, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Signup godoc
// @Summary      Registrarse como staff
// @Description  Crea una cuenta STAFF en la empresa configurada. Móvil o email duplicado responde 409.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignupRequest  true  "name, mobile o email, password"
// @Success      201   {object}  dto.StaffResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var in dto.SignupRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.staffUC.Signup(c.UserContext(), h.signupCompanyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
