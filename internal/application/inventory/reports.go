package inventory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// HistoryQuery filtros del historial. StaffID vacío lista a todos los staff de la empresa.
type HistoryQuery struct {
	StaffID string
	Kind    entity.MovementKind // vacío = todos
	From    *time.Time          // inclusivo
	To      *time.Time          // exclusivo
	Limit   int
	Offset  int
}

// History historial de movimientos, del más reciente al más antiguo, con nombre y código de barras del producto.
func (s *LedgerService) History(ctx context.Context, companyID string, q HistoryQuery) (*dto.HistoryResponse, error) {
	filter := repository.EventFilter{
		CompanyID: companyID,
		StaffID:   q.StaffID,
		From:      q.From,
		To:        q.To,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if q.Kind != "" {
		filter.Kinds = []entity.MovementKind{q.Kind}
	}

	out := &dto.HistoryResponse{
		Items: []dto.MovementDTO{},
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		if q.StaffID != "" {
			if err := findStaff(ctx, tx, companyID, q.StaffID); err != nil {
				return err
			}
		}
		events, err := tx.Events.List(ctx, filter)
		if err != nil {
			return err
		}
		total, err := tx.Events.Count(ctx, filter)
		if err != nil {
			return err
		}
		out.Page.Total = total

		names, err := newNameCache(ctx, tx, companyID)
		if err != nil {
			return err
		}
		for _, ev := range events {
			p := names.product(ev.ProductID)
			out.Items = append(out.Items, dto.MovementDTO{
				ID:           ev.ID,
				OperationID:  ev.OperationID,
				Kind:         string(ev.Kind),
				StaffID:      ev.StaffID,
				StaffName:    names.staff(ev.StaffID),
				ActorID:      ev.ActorID,
				ProductID:    ev.ProductID,
				ProductName:  p.Name,
				Barcode:      p.Barcode,
				Quantity:     ev.Quantity,
				CustomerName: ev.CustomerName,
				Note:         ev.Note,
				CreatedAt:    ev.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransferReport traslados agrupados por operación, del más reciente al más antiguo.
func (s *LedgerService) TransferReport(ctx context.Context, companyID string, from, to *time.Time) ([]dto.OperationReportRow, error) {
	return s.operationReport(ctx, companyID, entity.KindTransferIn, from, to)
}

// ReturnReport devoluciones a bodega agrupadas por operación.
func (s *LedgerService) ReturnReport(ctx context.Context, companyID string, from, to *time.Time) ([]dto.OperationReportRow, error) {
	return s.operationReport(ctx, companyID, entity.KindReturnToWarehouse, from, to)
}

func (s *LedgerService) operationReport(ctx context.Context, companyID string, kind entity.MovementKind, from, to *time.Time) ([]dto.OperationReportRow, error) {
	rows := []dto.OperationReportRow{}
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		events, err := tx.Events.List(ctx, repository.EventFilter{
			CompanyID: companyID,
			Kinds:     []entity.MovementKind{kind},
			From:      from,
			To:        to,
		})
		if err != nil {
			return err
		}
		names, err := newNameCache(ctx, tx, companyID)
		if err != nil {
			return err
		}

		// events viene del más reciente al más antiguo; las líneas de una operación son contiguas.
		index := make(map[string]int)
		for _, ev := range events {
			i, ok := index[ev.OperationID]
			if !ok {
				i = len(rows)
				index[ev.OperationID] = i
				rows = append(rows, dto.OperationReportRow{
					OperationID: ev.OperationID,
					StaffID:     ev.StaffID,
					StaffName:   names.staff(ev.StaffID),
					CreatedAt:   ev.CreatedAt,
				})
			}
			row := &rows[i]
			row.TotalQty += ev.Quantity
			if j := slices.IndexFunc(row.Items, func(it dto.OperationItemDTO) bool { return it.ProductID == ev.ProductID }); j >= 0 {
				row.Items[j].Quantity += ev.Quantity
				continue
			}
			row.Items = append(row.Items, dto.OperationItemDTO{
				ProductID:   ev.ProductID,
				ProductName: names.product(ev.ProductID).Name,
				Quantity:    ev.Quantity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LowStock productos con stock de bodega menor que threshold (por defecto el umbral configurado),
// del más crítico al menos.
func (s *LedgerService) LowStock(ctx context.Context, companyID string, threshold int64) ([]dto.LowStockRow, error) {
	if threshold <= 0 {
		threshold = s.lowStockThreshold
	}
	rows := []dto.LowStockRow{}
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		products, err := tx.Products.ListByCompany(ctx, companyID, repository.ProductFilter{})
		if err != nil {
			return err
		}
		for _, p := range products {
			if p.WarehouseStock < threshold {
				rows = append(rows, dto.LowStockRow{
					ProductID:   p.ID,
					ProductName: p.Name,
					Barcode:     p.Barcode,
					StockQty:    p.WarehouseStock,
					Threshold:   threshold,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rows, func(a, b dto.LowStockRow) int {
		return cmp.Or(cmp.Compare(a.StockQty, b.StockQty), cmp.Compare(a.ProductName, b.ProductName))
	})
	return rows, nil
}

// LowStockThreshold umbral configurado.
func (s *LedgerService) LowStockThreshold() int64 { return s.lowStockThreshold }

// nameCache resuelve nombres de producto y staff de una empresa con una sola carga por tabla.
type nameCache struct {
	products map[string]*entity.Product
	staffs   map[string]string
}

func newNameCache(ctx context.Context, tx Tx, companyID string) (*nameCache, error) {
	products, err := tx.Products.ListByCompany(ctx, companyID, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	accounts, err := tx.Staff.ListByCompany(ctx, companyID, "")
	if err != nil {
		return nil, err
	}
	c := &nameCache{
		products: make(map[string]*entity.Product, len(products)),
		staffs:   make(map[string]string, len(accounts)),
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	for _, a := range accounts {
		c.staffs[a.ID] = a.Name
	}
	return c, nil
}

func (c *nameCache) product(id string) *entity.Product {
	if p, ok := c.products[id]; ok {
		return p
	}
	return &entity.Product{ID: id}
}

func (c *nameCache) staff(id string) string { return c.staffs[id] }
