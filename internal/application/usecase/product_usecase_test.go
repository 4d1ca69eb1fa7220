package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

func newProducts(t *testing.T) (*usecase.ProductUseCase, *usecase.CategoryUseCase) {
	t.Helper()
	store := memory.NewStore()
	return usecase.NewProductUseCase(store.Products(), store.Categories()), usecase.NewCategoryUseCase(store.Categories())
}

func TestProductUseCase_CRUD(t *testing.T) {
	products, categories := newProducts(t)
	ctx := context.Background()

	wood, err := categories.Create(ctx, "co-1", dto.CategoryRequest{Name: "Wood Look"})
	require.NoError(t, err)

	created, err := products.Create(ctx, "co-1", dto.CreateProductRequest{
		Name: "Roble natural", CategoryID: wood.ID, Size: "8×48", Barcode: " 770001 ",
		PurchasePrice: decimal.NewFromInt(25), SellingPrice: decimal.NewFromInt(40), StockQty: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "770001", created.Barcode)
	assert.Equal(t, int64(100), created.StockQty)

	byCode, err := products.GetByBarcode(ctx, "co-1", "770001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byCode.ID)

	name := "Roble miel"
	price := decimal.NewFromInt(45)
	updated, err := products.Update(ctx, "co-1", created.ID, dto.UpdateProductRequest{Name: &name, SellingPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Roble miel", updated.Name)
	assert.True(t, price.Equal(updated.SellingPrice))
	assert.Equal(t, int64(100), updated.StockQty, "update no toca el stock")

	list, err := products.List(ctx, "co-1", repository.ProductFilter{Search: "miel"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	require.NoError(t, products.Delete(ctx, "co-1", created.ID))
	_, err = products.GetByID(ctx, "co-1", created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_Reglas(t *testing.T) {
	products, categories := newProducts(t)
	ctx := context.Background()

	base := dto.CreateProductRequest{Name: "Zócalo PVC", Barcode: "770002", StockQty: 5}
	p, err := products.Create(ctx, "co-1", base)
	require.NoError(t, err)

	_, err = products.Create(ctx, "co-1", base)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "barcode único por empresa")

	_, err = products.Create(ctx, "co-2", base)
	assert.NoError(t, err, "otra empresa puede repetir el barcode")

	neg := base
	neg.Barcode, neg.StockQty = "770009", -1
	_, err = products.Create(ctx, "co-1", neg)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	foreign, err := categories.Create(ctx, "co-2", dto.CategoryRequest{Name: "Ajena"})
	require.NoError(t, err)
	withForeign := base
	withForeign.Barcode, withForeign.CategoryID = "770010", foreign.ID
	_, err = products.Create(ctx, "co-1", withForeign)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = products.GetByID(ctx, "co-2", p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "otra empresa no ve el producto")
	assert.ErrorIs(t, products.Delete(ctx, "co-2", p.ID), domain.ErrNotFound)
}

func TestCategoryUseCase(t *testing.T) {
	_, categories := newProducts(t)
	ctx := context.Background()

	_, err := categories.Create(ctx, "co-1", dto.CategoryRequest{Name: "Wood Look"})
	require.NoError(t, err)
	marble, err := categories.Create(ctx, "co-1", dto.CategoryRequest{Name: "Marble Look"})
	require.NoError(t, err)

	_, err = categories.Create(ctx, "co-1", dto.CategoryRequest{Name: "wood look"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	list, err := categories.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Marble Look", list[0].Name, "ordenadas por nombre")

	renamed, err := categories.Rename(ctx, "co-1", marble.ID, dto.CategoryRequest{Name: "Concrete Look"})
	require.NoError(t, err)
	assert.Equal(t, "Concrete Look", renamed.Name)

	require.NoError(t, categories.Delete(ctx, "co-1", marble.ID))
	assert.ErrorIs(t, categories.Delete(ctx, "co-1", marble.ID), domain.ErrNotFound)
}

func TestStaffUseCase(t *testing.T) {
	store := memory.NewStore()
	staff := usecase.NewStaffUseCase(store.Staff(), bcrypt.MinCost)
	ctx := context.Background()

	ana, err := staff.Create(ctx, "co-1", dto.CreateStaffRequest{Name: "Ana", Mobile: "3001", Password: "secreta1", Role: "STAFF"})
	require.NoError(t, err)
	_, err = staff.Create(ctx, "co-1", dto.CreateStaffRequest{Name: "Admin", Email: "Admin@Pisos.co", Password: "secreta1", Role: "ADMIN"})
	require.NoError(t, err)

	stored, err := store.Staff().GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secreta1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreta1")))

	_, err = staff.Create(ctx, "co-2", dto.CreateStaffRequest{Name: "Otra", Mobile: "3001", Password: "secreta1", Role: "STAFF"})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "el móvil es único globalmente")

	_, err = staff.Create(ctx, "co-1", dto.CreateStaffRequest{Name: "X", Mobile: "3002", Password: "secreta1", Role: "OWNER"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	onlyStaff, err := staff.List(ctx, "co-1", "STAFF")
	require.NoError(t, err)
	require.Len(t, onlyStaff, 1)
	assert.Equal(t, "Ana", onlyStaff[0].Name)

	all, err := staff.List(ctx, "co-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStaffUseCase_EnsureAdmin(t *testing.T) {
	store := memory.NewStore()
	staff := usecase.NewStaffUseCase(store.Staff(), bcrypt.MinCost)
	ctx := context.Background()

	first, created, err := staff.EnsureAdmin(ctx, "", "Dueño", "dueno@pisos.co", "secreta1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ADMIN", first.Role)
	assert.Equal(t, "dueno@pisos.co", first.Email)

	again, created, err := staff.EnsureAdmin(ctx, "", "Dueño", "dueno@pisos.co", "otra-clave")
	require.NoError(t, err)
	assert.False(t, created, "el login ya existe: no se duplica ni se cambia la clave")
	assert.Equal(t, first.ID, again.ID)

	byMobile, created, err := staff.EnsureAdmin(ctx, "co-9", "Caja", "3009999999", "secreta1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "3009999999", byMobile.Mobile)
	list, err := staff.List(ctx, "co-9", "ADMIN")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStaffUseCase_Signup(t *testing.T) {
	store := memory.NewStore()
	staff := usecase.NewStaffUseCase(store.Staff(), bcrypt.MinCost)
	ctx := context.Background()

	in := dto.SignupRequest{Name: "Marta", Mobile: "3101234567", Password: "secreta1"}
	out, err := staff.Signup(ctx, "co-1", in)
	require.NoError(t, err)
	assert.Equal(t, "STAFF", out.Role)

	list, err := staff.List(ctx, "co-1", "STAFF")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, out.ID, list[0].ID)

	_, err = staff.Signup(ctx, "co-1", in)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "móvil repetido")

	_, err = staff.Signup(ctx, "", dto.SignupRequest{Name: "Otro", Mobile: "3107654321", Password: "secreta1"})
	assert.ErrorIs(t, err, domain.ErrForbidden, "registro cerrado sin empresa")
}
