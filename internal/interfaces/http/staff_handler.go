package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
)

// StaffHandler administración de cuentas (solo ADMIN).
type StaffHandler struct {
	uc *usecase.StaffUseCase
}

// NewStaffHandler construye el handler.
func NewStaffHandler(uc *usecase.StaffUseCase) *StaffHandler {
	return &StaffHandler{uc: uc}
}

type staffListQuery struct {
	Role string `query:"role" validate:"omitempty,oneof=ADMIN STAFF"`
}

// List godoc
// @Summary      Listar cuentas de la empresa
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        role  query  string  false  "ADMIN o STAFF"
// @Success      200   {array}  dto.StaffResponse
// @Router       /api/users [get]
func (h *StaffHandler) List(c *fiber.Ctx) error {
	var q staffListQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), q.Role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear cuenta
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStaffRequest  true  "Datos de la cuenta"
// @Success      201   {object}  dto.StaffResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStaffRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
