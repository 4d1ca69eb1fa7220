package inventory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const tracerName = "github.com/jhoicas/stock-ledger-api/internal/application/inventory"

// LineItem línea de una operación del ledger.
type LineItem struct {
	ProductID string
	Quantity  int64
}

// MovementInput entrada común de las cuatro operaciones del ledger.
type MovementInput struct {
	CompanyID    string
	ActorID      string // quien ejecuta: el admin en traslados, el propio staff o un admin en el resto
	StaffID      string // dueño del saldo afectado
	Items        []LineItem
	CustomerName string // SALE y JOB_RETURN; en SALE vacío se registra como "Customer"
	Note         string
}

// OperationResult resultado de una operación confirmada.
type OperationResult struct {
	OperationID string // transferId / returnId
	Kind        entity.MovementKind
	EventIDs    []int64 // transactionIds, uno por línea y en el orden recibido
	CreatedAt   time.Time
}

// LedgerService fachada del ledger: valida contra los saldos vigentes y, si todas las líneas
// pasan, agrega los eventos y mueve el stock de bodega en una sola transacción.
type LedgerService struct {
	tx     TxRunner
	log    *logger.Logger
	tracer trace.Tracer
	newID  func() string

	lowStockThreshold int64
	queryTimeout      time.Duration
	stats             statsGroup
}

// Option configura el LedgerService.
type Option func(*LedgerService)

// WithLowStockThreshold umbral por defecto de stock bajo (dashboard y reporte).
func WithLowStockThreshold(n int64) Option {
	return func(s *LedgerService) {
		if n > 0 {
			s.lowStockThreshold = n
		}
	}
}

// WithQueryTimeout límite de los cálculos compartidos entre llamadores (dashboard).
func WithQueryTimeout(d time.Duration) Option {
	return func(s *LedgerService) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithIDGenerator reemplaza el generador de OperationID (tests).
func WithIDGenerator(fn func() string) Option {
	return func(s *LedgerService) { s.newID = fn }
}

// NewLedgerService construye el servicio.
func NewLedgerService(tx TxRunner, log *logger.Logger, opts ...Option) *LedgerService {
	s := &LedgerService{
		tx:                tx,
		log:               log.Component("ledger"),
		tracer:            otel.Tracer(tracerName),
		newID:             func() string { return uuid.New().String() },
		lowStockThreshold: 10,
		queryTimeout:      5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transfer admin entrega mercancía de bodega a un staff. Resta stock de bodega.
func (s *LedgerService) Transfer(ctx context.Context, in MovementInput) (*OperationResult, error) {
	return s.execute(ctx, "ledger.Transfer", entity.KindTransferIn, in)
}

// Sell el staff vende de su saldo a un cliente. No toca el stock de bodega.
func (s *LedgerService) Sell(ctx context.Context, in MovementInput) (*OperationResult, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		in.CustomerName = entity.DefaultCustomerName
	}
	return s.execute(ctx, "ledger.Sell", entity.KindSale, in)
}

// ReturnToWarehouse el staff devuelve mercancía sin usar. Suma stock de bodega.
func (s *LedgerService) ReturnToWarehouse(ctx context.Context, in MovementInput) (*OperationResult, error) {
	return s.execute(ctx, "ledger.ReturnToWarehouse", entity.KindReturnToWarehouse, in)
}

// JobReturn sobrante de obra que vuelve al staff. No se compara con ningún saldo; solo aplica
// el tope por línea y el del saldo acumulado.
func (s *LedgerService) JobReturn(ctx context.Context, in MovementInput) (*OperationResult, error) {
	return s.execute(ctx, "ledger.JobReturn", entity.KindJobReturn, in)
}

func (s *LedgerService) execute(ctx context.Context, spanName string, kind entity.MovementKind, in MovementInput) (res *OperationResult, err error) {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("ledger.kind", string(kind)),
		attribute.String("ledger.staff_id", in.StaffID),
		attribute.Int("ledger.lines", len(in.Items)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := validateInput(kind, in); err != nil {
		return nil, err
	}

	opID := s.newID()
	span.SetAttributes(attribute.String("ledger.operation_id", opID))

	var events []*entity.MovementEvent
	err = s.tx.Run(ctx, func(ctx context.Context, tx Tx) error {
		events = events[:0]
		if err := checkStaff(ctx, tx, in.CompanyID, in.StaffID); err != nil {
			return err
		}
		proj, productIDs, err := s.load(ctx, tx, kind, in)
		if err != nil {
			return err
		}

		// Todas las líneas se validan antes de escribir nada; la proyección acumula las
		// aprobadas para que dos líneas del mismo producto no superen juntas lo disponible.
		v := ledger.NewValidator(proj)
		for _, item := range in.Items {
			if err := validateLine(v, kind, in.StaffID, item); err != nil {
				return err
			}
			ev := &entity.MovementEvent{
				OperationID:  opID,
				CompanyID:    in.CompanyID,
				Kind:         kind,
				StaffID:      in.StaffID,
				ActorID:      in.ActorID,
				ProductID:    item.ProductID,
				Quantity:     item.Quantity,
				CustomerName: in.CustomerName,
				Note:         in.Note,
			}
			if err := ev.Validate(); err != nil {
				return domain.NewValidation("items", err.Error())
			}
			if err := proj.Apply(ev); err != nil {
				return err
			}
			events = append(events, ev)
		}

		if kind.WarehouseSign() != 0 {
			for _, id := range productIDs {
				if err := tx.Products.SetWarehouseStock(ctx, id, proj.WarehouseStock(id)); err != nil {
					return err
				}
			}
		}
		for _, ev := range events {
			if _, err := tx.Events.Append(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &OperationResult{OperationID: opID, Kind: kind, EventIDs: make([]int64, 0, len(events))}
	for _, ev := range events {
		res.EventIDs = append(res.EventIDs, ev.ID)
		res.CreatedAt = ev.CreatedAt
	}
	s.stats.forget(in.CompanyID)
	s.log.Info().
		Str("operation_id", opID).
		Str("kind", string(kind)).
		Str("staff_id", in.StaffID).
		Str("actor_id", in.ActorID).
		Int("lines", len(events)).
		Msg("operación del ledger confirmada")
	return res, nil
}

// load bloquea los productos de la operación en orden ascendente de id y arma la proyección
// de saldos. Un producto inexistente o de otra empresa no se carga: el validador lo reporta
// como NotFound en el orden de las líneas.
func (s *LedgerService) load(ctx context.Context, tx Tx, kind entity.MovementKind, in MovementInput) (*ledger.Projection, []string, error) {
	ids := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		ids = append(ids, item.ProductID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	proj := ledger.NewProjection()
	loaded := make([]string, 0, len(ids))
	for _, id := range ids {
		p, err := tx.Products.GetForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if p == nil || p.CompanyID != in.CompanyID {
			continue
		}
		proj.AddProduct(p)
		loaded = append(loaded, id)

		if kind.HoldingSign() != 0 {
			seq, err := tx.Events.EventsFor(ctx, in.StaffID, id)
			if err != nil {
				return nil, nil, err
			}
			h := ledger.StaffHolding(seq, in.StaffID, id)
			if h.Clamped() {
				s.warnClamped(in.StaffID, id, h.Raw)
			}
			proj.SetHolding(in.StaffID, id, h.Quantity)
		}
	}
	return proj, loaded, nil
}

func (s *LedgerService) warnClamped(staffID, productID string, raw int64) {
	s.log.Warn().
		Str("staff_id", staffID).
		Str("product_id", productID).
		Int64("raw_holding", raw).
		Msg("saldo negativo en el ledger; se reporta como 0 (eventos insertados por fuera del servicio)")
}

func validateInput(kind entity.MovementKind, in MovementInput) error {
	switch {
	case in.CompanyID == "":
		return domain.NewValidation("company_id", "requerido")
	case in.StaffID == "":
		return domain.NewValidation("staff_id", "requerido")
	case kind == entity.KindTransferIn && in.ActorID == "":
		return domain.NewValidation("admin_id", "requerido en traslados")
	case len(in.Items) == 0:
		return domain.NewValidation("items", "la operación no tiene líneas")
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return domain.NewValidation("product_id", "requerido en cada línea")
		}
		if err := ledger.ValidateQuantity(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(v ledger.Validator, kind entity.MovementKind, staffID string, item LineItem) error {
	switch kind {
	case entity.KindTransferIn:
		return v.ValidateTransfer(item.ProductID, item.Quantity)
	case entity.KindSale:
		return v.ValidateSale(staffID, item.ProductID, item.Quantity)
	case entity.KindReturnToWarehouse:
		return v.ValidateReturnToWarehouse(staffID, item.ProductID, item.Quantity)
	case entity.KindJobReturn:
		return v.ValidateJobReturn(item.ProductID, item.Quantity)
	}
	return domain.NewValidation("kind", "tipo de movimiento desconocido")
}

// checkStaff el dueño del saldo debe ser una cuenta STAFF de la misma empresa.
func checkStaff(ctx context.Context, tx Tx, companyID, staffID string) error {
	st, err := tx.Staff.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	if st == nil || st.CompanyID != companyID {
		return domain.NewNotFound("staff", staffID)
	}
	if st.Role != entity.RoleStaff {
		return domain.NewValidation("staff_id", "la cuenta "+staffID+" no es de tipo STAFF")
	}
	return nil
}

// AdjustWarehouseStock fija el stock de bodega de un producto (reposición o corrección de admin).
// Toma el mismo bloqueo por producto que las operaciones del ledger. No genera eventos.
func (s *LedgerService) AdjustWarehouseStock(ctx context.Context, companyID, productID string, stock int64) (*entity.Product, error) {
	if stock < 0 {
		return nil, domain.NewValidation("stock_qty", "el stock de bodega no puede ser negativo")
	}
	var (
		out  *entity.Product
		prev int64
	)
	err := s.tx.Run(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil || p.CompanyID != companyID {
			return domain.NewNotFound("producto", productID)
		}
		if err := tx.Products.SetWarehouseStock(ctx, productID, stock); err != nil {
			return err
		}
		prev = p.WarehouseStock
		p.WarehouseStock = stock
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.stats.forget(companyID)
	s.log.Info().
		Str("product_id", productID).
		Int64("from", prev).
		Int64("to", stock).
		Msg("ajuste de stock de bodega")
	return out, nil
}
