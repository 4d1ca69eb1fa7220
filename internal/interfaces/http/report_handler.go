package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/export"
)

// maxExportRows tope de filas del historial exportado a Excel.
const maxExportRows = 10000

// ReportHandler reportes de administración y exportaciones.
type ReportHandler struct {
	svc *inventory.LedgerService
	now func() time.Time
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *inventory.LedgerService) *ReportHandler {
	return &ReportHandler{svc: svc, now: time.Now}
}

type lowStockQuery struct {
	Threshold int64 `query:"threshold" validate:"min=0"`
}

// DashboardStats godoc
// @Summary      Estadísticas del dashboard
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardStatsDTO
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/dashboard/stats [get]
func (h *ReportHandler) DashboardStats(c *fiber.Ctx) error {
	out, err := h.svc.DashboardStats(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Stock godoc
// @Summary      Reporte de stock de bodega
// @Description  Por producto: stock actual, distribuido y devuelto según el ledger.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.WarehouseReportRow
// @Router       /api/reports/stock [get]
func (h *ReportHandler) Stock(c *fiber.Ctx) error {
	rows, err := h.svc.WarehouseReport(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

// Transfers godoc
// @Summary      Traslados agrupados por operación
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start  query  string  false  "YYYY-MM-DD"
// @Param        end    query  string  false  "YYYY-MM-DD (inclusivo)"
// @Success      200  {array}  dto.OperationReportRow
// @Router       /api/reports/transfers [get]
func (h *ReportHandler) Transfers(c *fiber.Ctx) error {
	from, to, err := reportRange(c)
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.svc.TransferReport(c.UserContext(), GetCompanyID(c), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

// Returns godoc
// @Summary      Devoluciones a bodega agrupadas por operación
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start  query  string  false  "YYYY-MM-DD"
// @Param        end    query  string  false  "YYYY-MM-DD (inclusivo)"
// @Success      200  {array}  dto.OperationReportRow
// @Router       /api/reports/returns [get]
func (h *ReportHandler) Returns(c *fiber.Ctx) error {
	from, to, err := reportRange(c)
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.svc.ReturnReport(c.UserContext(), GetCompanyID(c), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

// LowStock godoc
// @Summary      Productos con stock bajo
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        threshold  query  int  false  "Umbral (default el configurado)"
// @Success      200  {array}  dto.LowStockRow
// @Router       /api/reports/low-stock [get]
func (h *ReportHandler) LowStock(c *fiber.Ctx) error {
	var q lowStockQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	rows, err := h.svc.LowStock(c.UserContext(), GetCompanyID(c), q.Threshold)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

// StockPDF godoc
// @Summary      Reporte de stock en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/reports/stock.pdf [get]
func (h *ReportHandler) StockPDF(c *fiber.Ctx) error {
	report, err := h.stockReport(c)
	if err != nil {
		return writeError(c, err)
	}
	body, err := export.StockPDF(report)
	if err != nil {
		return writeError(c, err)
	}
	return h.attachment(c, "application/pdf", "stock", "pdf", body)
}

// StockXLSX godoc
// @Summary      Reporte de stock en Excel
// @Tags         reports
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  binary
// @Router       /api/reports/stock.xlsx [get]
func (h *ReportHandler) StockXLSX(c *fiber.Ctx) error {
	report, err := h.stockReport(c)
	if err != nil {
		return writeError(c, err)
	}
	body, err := export.StockXLSX(report)
	if err != nil {
		return writeError(c, err)
	}
	return h.attachment(c, export.ContentTypeXLSX, "stock", "xlsx", body)
}

// HistoryXLSX godoc
// @Summary      Historial de movimientos en Excel
// @Description  Acepta los mismos filtros que /api/ledger/history, sin paginación.
// @Tags         reports
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        staff_id  query  string  false  "Filtrar por staff"
// @Param        kind      query  string  false  "Tipo de movimiento"
// @Param        start     query  string  false  "YYYY-MM-DD"
// @Param        end       query  string  false  "YYYY-MM-DD"
// @Success      200  {file}  binary
// @Router       /api/reports/history.xlsx [get]
func (h *ReportHandler) HistoryXLSX(c *fiber.Ctx) error {
	q, err := historyQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	q.Limit, q.Offset = maxExportRows, 0
	page, err := h.svc.History(c.UserContext(), GetCompanyID(c), q)
	if err != nil {
		return writeError(c, err)
	}
	body, err := export.HistoryXLSX(page.Items)
	if err != nil {
		return writeError(c, err)
	}
	return h.attachment(c, export.ContentTypeXLSX, "historial", "xlsx", body)
}

func (h *ReportHandler) stockReport(c *fiber.Ctx) (export.StockReport, error) {
	rows, err := h.svc.WarehouseReport(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return export.StockReport{}, err
	}
	return export.StockReport{
		Title:             "Reporte de stock de bodega",
		GeneratedAt:       h.now(),
		LowStockThreshold: h.svc.LowStockThreshold(),
		Rows:              rows,
	}, nil
}

func (h *ReportHandler) attachment(c *fiber.Ctx, contentType, name, ext string, body []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-%s.%s"`, name, h.now().Format(dateLayout), ext))
	return c.Send(body)
}

func reportRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	var in dto.ReportRangeRequest
	if err := parseQuery(c, &in); err != nil {
		return nil, nil, err
	}
	return dateRange(in.Start, in.End)
}
