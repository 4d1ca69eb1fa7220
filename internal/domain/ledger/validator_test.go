package ledger_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
)

func newProjection(t *testing.T) *ledger.Projection {
	t.Helper()
	p := ledger.NewProjection()
	p.AddProduct(&entity.Product{ID: "p1", Name: "Roble natural", WarehouseStock: 100})
	p.AddProduct(&entity.Product{ID: "p2", Name: "Zócalo PVC", WarehouseStock: 50})
	return p
}

func TestValidateTransfer(t *testing.T) {
	v := ledger.NewValidator(newProjection(t))

	assert.NoError(t, v.ValidateTransfer("p1", 100), "el límite es inclusivo")

	err := v.ValidateTransfer("p1", 101)
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, "Roble natural", insuf.ProductName)
	assert.Equal(t, int64(100), insuf.Available)
	assert.Equal(t, int64(101), insuf.Requested)
	assert.Equal(t, int64(1), insuf.Deficit())
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}

func TestValidate_CantidadNoPositiva(t *testing.T) {
	v := ledger.NewValidator(newProjection(t))

	for _, qty := range []int64{0, -3} {
		assert.ErrorIs(t, v.ValidateTransfer("p1", qty), domain.ErrInvalidInput)
		assert.ErrorIs(t, v.ValidateSale("s1", "p1", qty), domain.ErrInvalidInput)
		assert.ErrorIs(t, v.ValidateJobReturn("p1", qty), domain.ErrInvalidInput)
	}
}

func TestValidate_ProductoDesconocido(t *testing.T) {
	v := ledger.NewValidator(newProjection(t))

	for _, err := range []error{
		v.ValidateTransfer("nope", 1),
		v.ValidateSale("s1", "nope", 1),
		v.ValidateReturnToWarehouse("s1", "nope", 1),
		v.ValidateJobReturn("nope", 1),
	} {
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
	}
}

func TestValidateSale_Limite(t *testing.T) {
	proj := newProjection(t)
	proj.SetHolding("s1", "p1", 20)
	v := ledger.NewValidator(proj)

	assert.NoError(t, v.ValidateSale("s1", "p1", 20))
	assert.NoError(t, v.ValidateReturnToWarehouse("s1", "p1", 20))

	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, v.ValidateSale("s1", "p1", 21), &insuf)
	assert.Equal(t, int64(20), insuf.Available)
	assert.Equal(t, int64(21), insuf.Requested)

	// Otro staff no comparte el saldo.
	require.ErrorAs(t, v.ValidateSale("s2", "p1", 1), &insuf)
	assert.Zero(t, insuf.Available)
}

func TestProjection_LineasRepetidasSeAcumulan(t *testing.T) {
	proj := newProjection(t)
	v := ledger.NewValidator(proj)

	first := ev(entity.KindTransferIn, "s1", "p2", 30)
	require.NoError(t, v.ValidateTransfer("p2", 30))
	require.NoError(t, proj.Apply(first))

	assert.Equal(t, int64(20), proj.WarehouseStock("p2"))
	assert.Equal(t, int64(30), proj.StaffHolding("s1", "p2"))

	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, v.ValidateTransfer("p2", 30), &insuf)
	assert.Equal(t, int64(20), insuf.Available)
}

func TestProjection_NoModificaElProductoRecibido(t *testing.T) {
	orig := &entity.Product{ID: "p9", Name: "Loseta", WarehouseStock: 10}
	proj := ledger.NewProjection()
	proj.AddProduct(orig)

	require.NoError(t, proj.Apply(ev(entity.KindTransferIn, "s1", "p9", 4)))

	assert.Equal(t, int64(6), proj.WarehouseStock("p9"))
	assert.Equal(t, int64(10), orig.WarehouseStock)
}

func TestValidateQuantity_Tope(t *testing.T) {
	assert.NoError(t, ledger.ValidateQuantity("p1", ledger.MaxQuantity))

	for _, qty := range []int64{ledger.MaxQuantity + 1, math.MaxInt64} {
		err := ledger.ValidateQuantity("p1", qty)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "quantity", verr.Field)
	}

	v := ledger.NewValidator(newProjection(t))
	assert.ErrorIs(t, v.ValidateJobReturn("p1", math.MaxInt64), domain.ErrInvalidInput)
}

func TestProjection_SaldoQueDesbordaNoSeAplica(t *testing.T) {
	proj := newProjection(t)
	proj.SetHolding("s1", "p1", math.MaxInt64-5)

	err := proj.Apply(ev(entity.KindJobReturn, "s1", "p1", 6))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(math.MaxInt64-5), proj.StaffHolding("s1", "p1"))

	require.NoError(t, proj.Apply(ev(entity.KindJobReturn, "s1", "p1", 5)))
	assert.Equal(t, int64(math.MaxInt64), proj.StaffHolding("s1", "p1"))
}

func TestProjection_BodegaQueDesbordaNoSeAplica(t *testing.T) {
	proj := ledger.NewProjection()
	proj.AddProduct(&entity.Product{ID: "p1", Name: "Roble natural", WarehouseStock: math.MaxInt64 - 2})
	proj.SetHolding("s1", "p1", 10)

	err := proj.Apply(ev(entity.KindReturnToWarehouse, "s1", "p1", 3))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(math.MaxInt64-2), proj.WarehouseStock("p1"))
	assert.Equal(t, int64(10), proj.StaffHolding("s1", "p1"), "ni el saldo del staff cambia")
}
