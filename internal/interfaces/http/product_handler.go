package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ProductHandler maneja las peticiones HTTP de productos (protegido).
type ProductHandler struct {
	uc     *usecase.ProductUseCase
	ledger *inventory.LedgerService
}

// NewProductHandler construye el handler. El ajuste de stock pasa por el ledger para
// compartir su bloqueo por producto.
func NewProductHandler(uc *usecase.ProductUseCase, ledger *inventory.LedgerService) *ProductHandler {
	return &ProductHandler{uc: uc, ledger: ledger}
}

type productListQuery struct {
	dto.PageRequest
	CategoryID string `query:"category_id"`
	Search     string `query:"q" validate:"max=100"`
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByBarcode godoc
// @Summary      Buscar producto por código de barras
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        barcode  path  string  true  "Código de barras"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/barcode/{barcode} [get]
func (h *ProductHandler) GetByBarcode(c *fiber.Ctx) error {
	out, err := h.uc.GetByBarcode(c.UserContext(), GetCompanyID(c), c.Params("barcode"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit        query  int     false  "Límite (default 50)"
// @Param        offset       query  int     false  "Offset"
// @Param        category_id  query  string  false  "Filtrar por categoría"
// @Param        q            query  string  false  "Buscar por nombre o código de barras"
// @Success      200  {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var q productListQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	q.DefaultPage()
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), repository.ProductFilter{
		CategoryID: q.CategoryID,
		Search:     q.Search,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Description  No modifica el stock; use PUT /api/products/{id}/stock.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AdjustStock godoc
// @Summary      Ajustar stock de bodega
// @Description  Fija el stock de bodega (reposición o corrección). No genera movimientos de ledger.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del producto"
// @Param        body  body  dto.AdjustStockRequest  true  "Nuevo stock"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [put]
func (h *ProductHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	p, err := h.ledger.AdjustWarehouseStock(c.UserContext(), GetCompanyID(c), c.Params("id"), *in.StockQty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProductFromEntity(p))
}

// Delete godoc
// @Summary      Eliminar producto
// @Description  Falla con 409 si el producto ya tiene movimientos.
// @Tags         products
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
