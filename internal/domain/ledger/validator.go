package ledger

import (
	"math"
	"strconv"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// BalanceView vista de saldos contra la que se validan los movimientos.
type BalanceView interface {
	// Product devuelve el producto o false si no existe.
	Product(productID string) (*entity.Product, bool)
	// StaffHolding saldo actual (ya recortado) del par staff/producto.
	StaffHolding(staffID, productID string) int64
}

// MaxQuantity tope de unidades por línea.
const MaxQuantity int64 = 1_000_000_000

// ValidateQuantity rechaza cantidades no positivas o mayores que MaxQuantity. Una cantidad 0
// es error del llamador.
func ValidateQuantity(productID string, quantity int64) error {
	if quantity <= 0 {
		return domain.NewValidation("quantity", "la cantidad de "+productID+" debe ser mayor que cero")
	}
	if quantity > MaxQuantity {
		return domain.NewValidation("quantity", "la cantidad de "+productID+" supera el máximo de "+strconv.FormatInt(MaxQuantity, 10)+" por línea")
	}
	return nil
}

// addChecked suma a+b; ok es false si el resultado se sale del rango de int64.
func addChecked(a, b int64) (sum int64, ok bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// addSaturated suma a+b fijando el resultado en los extremos de int64 en lugar de dar la vuelta.
func addSaturated(a, b int64) int64 {
	if sum, ok := addChecked(a, b); ok {
		return sum
	}
	if b > 0 {
		return math.MaxInt64
	}
	return math.MinInt64
}

// Validator chequeos previos a confirmar un evento. No guarda estado propio: todo sale de la vista.
type Validator struct {
	view BalanceView
}

// NewValidator crea un validador sobre view.
func NewValidator(view BalanceView) Validator {
	return Validator{view: view}
}

// ValidateTransfer exige quantity <= stock de bodega.
func (v Validator) ValidateTransfer(productID string, quantity int64) error {
	p, err := v.product(productID, quantity)
	if err != nil {
		return err
	}
	return checkAvailable(p, p.WarehouseStock, quantity)
}

// ValidateSale exige quantity <= saldo del staff.
func (v Validator) ValidateSale(staffID, productID string, quantity int64) error {
	p, err := v.product(productID, quantity)
	if err != nil {
		return err
	}
	return checkAvailable(p, v.view.StaffHolding(staffID, productID), quantity)
}

// ValidateReturnToWarehouse mismo límite que la venta: no se devuelve más de lo que se tiene.
func (v Validator) ValidateReturnToWarehouse(staffID, productID string, quantity int64) error {
	return v.ValidateSale(staffID, productID, quantity)
}

// ValidateJobReturn el sobrante de obra entra sin límite; solo exige producto existente y cantidad positiva.
func (v Validator) ValidateJobReturn(productID string, quantity int64) error {
	_, err := v.product(productID, quantity)
	return err
}

func (v Validator) product(productID string, quantity int64) (*entity.Product, error) {
	if err := ValidateQuantity(productID, quantity); err != nil {
		return nil, err
	}
	p, ok := v.view.Product(productID)
	if !ok {
		return nil, domain.NewNotFound("producto", productID)
	}
	return p, nil
}

func checkAvailable(p *entity.Product, available, requested int64) error {
	if requested > available {
		return &domain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   max(available, 0),
			Requested:   requested,
		}
	}
	return nil
}

// Projection vista de saldos para una operación multilínea. Se carga con los productos
// bloqueados y los saldos vigentes, y cada línea aprobada se aplica antes de validar la
// siguiente; así dos líneas del mismo producto se validan contra el acumulado.
type Projection struct {
	products map[string]*entity.Product
	holdings map[holdingKey]int64
}

type holdingKey struct{ staffID, productID string }

// NewProjection crea una proyección vacía.
func NewProjection() *Projection {
	return &Projection{
		products: make(map[string]*entity.Product),
		holdings: make(map[holdingKey]int64),
	}
}

// AddProduct registra una copia del producto; Apply no modifica el producto recibido.
func (p *Projection) AddProduct(prod *entity.Product) {
	cp := *prod
	p.products[prod.ID] = &cp
}

// SetHolding fija el saldo de partida del par.
func (p *Projection) SetHolding(staffID, productID string, quantity int64) {
	p.holdings[holdingKey{staffID, productID}] = quantity
}

// Product implementa BalanceView.
func (p *Projection) Product(productID string) (*entity.Product, bool) {
	prod, ok := p.products[productID]
	return prod, ok
}

// StaffHolding implementa BalanceView.
func (p *Projection) StaffHolding(staffID, productID string) int64 {
	return p.holdings[holdingKey{staffID, productID}]
}

// WarehouseStock stock proyectado de bodega.
func (p *Projection) WarehouseStock(productID string) int64 {
	if prod, ok := p.products[productID]; ok {
		return prod.WarehouseStock
	}
	return 0
}

// Apply refleja un evento ya validado en la proyección. Si el saldo del staff o el stock de
// bodega se saldrían de int64 devuelve ValidationError y la proyección queda sin cambios.
func (p *Projection) Apply(ev *entity.MovementEvent) error {
	k := holdingKey{ev.StaffID, ev.ProductID}
	holding, ok := addChecked(p.holdings[k], ev.HoldingDelta())
	if !ok {
		return domain.NewValidation("quantity", "el saldo de "+ev.StaffID+" para "+ev.ProductID+" excede el máximo representable")
	}
	prod, tracked := p.products[ev.ProductID]
	stock := int64(0)
	if tracked {
		stock, ok = addChecked(prod.WarehouseStock, ev.WarehouseDelta())
		if !ok {
			return domain.NewValidation("quantity", "el stock de bodega de "+ev.ProductID+" excede el máximo representable")
		}
	}
	p.holdings[k] = holding
	if tracked {
		prod.WarehouseStock = stock
	}
	return nil
}
