package inventory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// statsGroup agrupa cálculos concurrentes del dashboard por empresa.
type statsGroup struct {
	g singleflight.Group
}

// do corre fn una sola vez por empresa sobre un contexto desligado del llamador y acotado por
// timeout: si quien inició el cálculo cancela, los demás siguen esperando el resultado. Cada
// llamador deja de esperar cuando se cancela su propio ctx.
func (s *statsGroup) do(ctx context.Context, companyID string, timeout time.Duration, fn func(ctx context.Context) (*dto.DashboardStatsDTO, error)) (*dto.DashboardStatsDTO, error) {
	ch := s.g.DoChan(companyID, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return fn(shared)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		out := *r.Val.(*dto.DashboardStatsDTO)
		return &out, nil
	}
}

// forget tras una escritura, la siguiente lectura no reutiliza un cálculo en curso.
func (s *statsGroup) forget(companyID string) { s.g.Forget(companyID) }

// StaffInventory saldo completo de un staff: producto → {cantidad, producto}. Solo saldos > 0.
func (s *LedgerService) StaffInventory(ctx context.Context, companyID, staffID string) (*dto.StaffInventoryResponse, error) {
	out := &dto.StaffInventoryResponse{StaffID: staffID, Items: []dto.InventoryItemDTO{}}
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		if err := findStaff(ctx, tx, companyID, staffID); err != nil {
			return err
		}
		seq, err := tx.Events.EventsForStaff(ctx, staffID)
		if err != nil {
			return err
		}
		inv := ledger.FullInventory(seq, staffID)
		for productID, raw := range inv.Clamped {
			s.warnClamped(staffID, productID, raw)
		}
		for productID, qty := range inv.Items {
			p, err := tx.Products.GetByID(ctx, productID)
			if err != nil {
				return err
			}
			if p == nil {
				continue
			}
			out.Items = append(out.Items, dto.InventoryItemDTO{
				ProductID: productID,
				Quantity:  qty,
				Product:   dto.ProductFromEntity(p),
			})
			out.TotalUnits += qty
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out.Items, func(a, b dto.InventoryItemDTO) int {
		return cmp.Or(cmp.Compare(a.Product.Name, b.Product.Name), cmp.Compare(a.ProductID, b.ProductID))
	})
	return out, nil
}

// WarehouseReport una fila por producto: stock materializado y totales distribuidos/devueltos del ledger.
func (s *LedgerService) WarehouseReport(ctx context.Context, companyID string) ([]dto.WarehouseReportRow, error) {
	var rows []dto.WarehouseReportRow
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		products, err := tx.Products.ListByCompany(ctx, companyID, repository.ProductFilter{})
		if err != nil {
			return err
		}
		seq, err := tx.Events.EventsInRange(ctx, companyID, time.Time{}, time.Time{})
		if err != nil {
			return err
		}
		byID := make(map[string]*entity.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		rows = make([]dto.WarehouseReportRow, 0, len(products))
		for _, sum := range ledger.WarehouseSummary(products, seq) {
			p := byID[sum.ProductID]
			rows = append(rows, dto.WarehouseReportRow{
				ProductID:   sum.ProductID,
				ProductName: p.Name,
				Barcode:     p.Barcode,
				Size:        p.Size,
				StockQty:    sum.InWarehouse,
				Distributed: sum.Distributed,
				Returned:    sum.Returned,
				InWarehouse: sum.InWarehouse,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rows, func(a, b dto.WarehouseReportRow) int { return cmp.Compare(a.ProductName, b.ProductName) })
	return rows, nil
}

// DashboardStats agregados del catálogo más el número de operaciones de traslado y devolución.
// Llamadas concurrentes de la misma empresa comparten un solo cálculo, acotado por el
// timeout de consultas y no por el contexto del primer llamador.
func (s *LedgerService) DashboardStats(ctx context.Context, companyID string) (*dto.DashboardStatsDTO, error) {
	return s.stats.do(ctx, companyID, s.queryTimeout, func(ctx context.Context) (*dto.DashboardStatsDTO, error) {
		out := &dto.DashboardStatsDTO{}
		err := s.tx.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
			ps, err := tx.Stats.ProductStats(ctx, companyID, s.lowStockThreshold)
			if err != nil {
				return err
			}
			out.TotalProducts = ps.TotalProducts
			out.TotalStock = ps.TotalStock
			out.LowStockCount = ps.LowStockCount
			out.StockValue = ps.StockValue

			seq, err := tx.Events.EventsInRange(ctx, companyID, time.Time{}, time.Time{})
			if err != nil {
				return err
			}
			ops := make(map[string]struct{})
			for ev := range seq {
				if ev.Kind == entity.KindTransferIn || ev.Kind == entity.KindReturnToWarehouse {
					ops[ev.OperationID] = struct{}{}
				}
			}
			out.RecentTransactions = int64(len(ops))
			return nil
		})
		return out, err
	})
}

// StaffStats tarjetas del panel del staff: lo recibido hoy y el saldo por devolver.
func (s *LedgerService) StaffStats(ctx context.Context, companyID, staffID string, now time.Time) (*dto.StaffStatsResponse, error) {
	out := &dto.StaffStatsResponse{}
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		if err := findStaff(ctx, tx, companyID, staffID); err != nil {
			return err
		}
		seq, err := tx.Events.EventsForStaff(ctx, staffID)
		if err != nil {
			return err
		}
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		for ev := range seq {
			if ev.Kind == entity.KindTransferIn && !ev.CreatedAt.Before(startOfDay) {
				out.ProductsTaken += ev.Quantity
			}
		}
		out.BalanceToReturn = ledger.FullInventory(seq, staffID).Total()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// findStaff cualquier cuenta de la empresa (ADMIN o STAFF).
func findStaff(ctx context.Context, tx Tx, companyID, staffID string) error {
	st, err := tx.Staff.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	if st == nil || st.CompanyID != companyID {
		return domain.NewNotFound("staff", staffID)
	}
	return nil
}
