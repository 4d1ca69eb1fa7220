package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
)

// CategoryHandler CRUD de categorías de producto.
type CategoryHandler struct {
	uc *usecase.CategoryUseCase
}

// NewCategoryHandler construye el handler.
func NewCategoryHandler(uc *usecase.CategoryUseCase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

// List godoc
// @Summary      Listar categorías
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CategoryResponse
// @Router       /api/categories [get]
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CategoryRequest  true  "Nombre"
// @Success      201   {object}  dto.CategoryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories [post]
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Rename godoc
// @Summary      Renombrar categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la categoría"
// @Param        body  body  dto.CategoryRequest  true  "Nuevo nombre"
// @Success      200   {object}  dto.CategoryResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [put]
func (h *CategoryHandler) Rename(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Rename(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar categoría
// @Description  Los productos de la categoría quedan sin categoría.
// @Tags         categories
// @Security     Bearer
// @Param        id   path  string  true  "ID de la categoría"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
