package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// LedgerHandler operaciones del ledger y consultas de saldos.
type LedgerHandler struct {
	svc *inventory.LedgerService
	now func() time.Time
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(svc *inventory.LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc, now: time.Now}
}

// Transfer godoc
// @Summary      Traslado de bodega a staff
// @Description  Todas las líneas se validan antes de escribir; si una falla no se registra ninguna.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "Clave de reintento"
// @Param        body             body    dto.TransferRequest  true   "staff_id e items"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ledger/transfers [post]
func (h *LedgerHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.svc.Transfer(c.UserContext(), inventory.MovementInput{
		CompanyID: GetCompanyID(c),
		ActorID:   GetUserID(c),
		StaffID:   in.StaffID,
		Items:     lineItems(in.Items),
		Note:      in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse(res))
}

// Sell godoc
// @Summary      Venta a cliente desde el inventario del staff
// @Description  Un STAFF vende de su propio saldo; un ADMIN debe indicar staff_id. No toca la bodega.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string           false  "Clave de reintento"
// @Param        body             body    dto.SaleRequest  true   "items y customer_name"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/sales [post]
func (h *LedgerHandler) Sell(c *fiber.Ctx) error {
	var in dto.SaleRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	staffID, err := targetStaff(c, in.StaffID)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.svc.Sell(c.UserContext(), inventory.MovementInput{
		CompanyID:    GetCompanyID(c),
		ActorID:      GetUserID(c),
		StaffID:      staffID,
		Items:        lineItems(in.Items),
		CustomerName: in.CustomerName,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse(res))
}

// ReturnToWarehouse godoc
// @Summary      Devolución de staff a bodega
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string             false  "Clave de reintento"
// @Param        body             body    dto.ReturnRequest  true   "items"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/returns [post]
func (h *LedgerHandler) ReturnToWarehouse(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	staffID, err := targetStaff(c, in.StaffID)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.svc.ReturnToWarehouse(c.UserContext(), inventory.MovementInput{
		CompanyID: GetCompanyID(c),
		ActorID:   GetUserID(c),
		StaffID:   staffID,
		Items:     lineItems(in.Items),
		Note:      in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse(res))
}

// JobReturn godoc
// @Summary      Sobrante de obra devuelto por el cliente al staff
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                false  "Clave de reintento"
// @Param        body             body    dto.JobReturnRequest  true   "items, customer_name, note"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/job-returns [post]
func (h *LedgerHandler) JobReturn(c *fiber.Ctx) error {
	var in dto.JobReturnRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	staffID, err := targetStaff(c, in.StaffID)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.svc.JobReturn(c.UserContext(), inventory.MovementInput{
		CompanyID:    GetCompanyID(c),
		ActorID:      GetUserID(c),
		StaffID:      staffID,
		Items:        lineItems(in.Items),
		CustomerName: in.CustomerName,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(operationResponse(res))
}

// StaffInventory godoc
// @Summary      Inventario en poder de un staff
// @Description  Solo productos con saldo positivo. Un STAFF solo puede consultar el suyo.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        staffId  path  string  true  "ID del staff"
// @Success      200  {object}  dto.StaffInventoryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/inventory/{staffId} [get]
func (h *LedgerHandler) StaffInventory(c *fiber.Ctx) error {
	staffID := c.Params("staffId")
	if GetRole(c) != entity.RoleAdmin && staffID != GetUserID(c) {
		return writeError(c, domain.ErrForbidden)
	}
	out, err := h.svc.StaffInventory(c.UserContext(), GetCompanyID(c), staffID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de movimientos
// @Description  Del más reciente al más antiguo. Un STAFF solo ve los suyos; end es inclusivo.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        staff_id  query  string  false  "Filtrar por staff (ADMIN)"
// @Param        kind      query  string  false  "TRANSFER_IN, SALE, RETURN_TO_WAREHOUSE o JOB_RETURN"
// @Param        start     query  string  false  "YYYY-MM-DD"
// @Param        end       query  string  false  "YYYY-MM-DD"
// @Param        limit     query  int     false  "Límite (default 50)"
// @Param        offset    query  int     false  "Offset"
// @Success      200  {object}  dto.HistoryResponse
// @Router       /api/ledger/history [get]
func (h *LedgerHandler) History(c *fiber.Ctx) error {
	q, err := historyQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.History(c.UserContext(), GetCompanyID(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MyStats godoc
// @Summary      Tarjetas del panel del staff autenticado
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StaffStatsResponse
// @Router       /api/ledger/me/stats [get]
func (h *LedgerHandler) MyStats(c *fiber.Ctx) error {
	out, err := h.svc.StaffStats(c.UserContext(), GetCompanyID(c), GetUserID(c), h.now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// targetStaff resuelve el dueño del saldo: un STAFF siempre opera sobre sí mismo,
// un ADMIN debe nombrarlo.
func targetStaff(c *fiber.Ctx, requested string) (string, error) {
	self := GetUserID(c)
	if GetRole(c) != entity.RoleAdmin {
		if requested != "" && requested != self {
			return "", domain.ErrForbidden
		}
		return self, nil
	}
	if requested == "" {
		return "", domain.NewValidation("staff_id", "staff_id requerido cuando opera un ADMIN")
	}
	return requested, nil
}

func historyQuery(c *fiber.Ctx) (inventory.HistoryQuery, error) {
	var in dto.HistoryRequest
	if err := parseQuery(c, &in); err != nil {
		return inventory.HistoryQuery{}, err
	}
	in.DefaultPage()
	staffID, err := historyStaff(c, in.StaffID)
	if err != nil {
		return inventory.HistoryQuery{}, err
	}
	from, to, err := dateRange(in.Start, in.End)
	if err != nil {
		return inventory.HistoryQuery{}, err
	}
	return inventory.HistoryQuery{
		StaffID: staffID,
		Kind:    entity.MovementKind(in.Kind),
		From:    from,
		To:      to,
		Limit:   in.Limit,
		Offset:  in.Offset,
	}, nil
}

func historyStaff(c *fiber.Ctx, requested string) (string, error) {
	if GetRole(c) == entity.RoleAdmin {
		return requested, nil
	}
	if requested != "" && requested != GetUserID(c) {
		return "", domain.ErrForbidden
	}
	return GetUserID(c), nil
}

// dateRange convierte fechas YYYY-MM-DD (UTC) en [from, to). end se incluye completo.
func dateRange(start, end string) (from, to *time.Time, err error) {
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return nil, nil, domain.NewValidation("start", "fecha inválida, use YYYY-MM-DD")
		}
		from = &t
	}
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return nil, nil, domain.NewValidation("end", "fecha inválida, use YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, domain.NewValidation("start", "start debe ser anterior o igual a end")
	}
	return from, to, nil
}

func lineItems(in []dto.LineItemRequest) []inventory.LineItem {
	out := make([]inventory.LineItem, len(in))
	for i, it := range in {
		out[i] = inventory.LineItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

func operationResponse(res *inventory.OperationResult) dto.OperationResponse {
	out := dto.OperationResponse{
		OperationID:    res.OperationID,
		Kind:           string(res.Kind),
		TransactionIDs: res.EventIDs,
		CreatedAt:      res.CreatedAt,
	}
	switch res.Kind {
	case entity.KindTransferIn:
		out.TransferID = res.OperationID
	case entity.KindReturnToWarehouse:
		out.ReturnID = res.OperationID
	}
	return out
}
