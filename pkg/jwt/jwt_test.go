package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse(t *testing.T) {
	token, err := Generate("secreto", "stock-ledger", 5, Identity{
		UserID: "u-1", CompanyID: "co-1", Name: "Ana", Role: "STAFF",
	})
	require.NoError(t, err)

	claims, err := Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "co-1", claims.CompanyID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "STAFF", claims.Role)
}

func TestParse_Rechaza(t *testing.T) {
	token, err := Generate("secreto", "stock-ledger", 5, Identity{UserID: "u-1", CompanyID: "co-1", Role: "ADMIN"})
	require.NoError(t, err)

	_, err = Parse("otro", token)
	assert.Error(t, err, "firma incorrecta")

	expired, err := Generate("secreto", "stock-ledger", -1, Identity{UserID: "u-1", CompanyID: "co-1", Role: "ADMIN"})
	require.NoError(t, err)
	_, err = Parse("secreto", expired)
	assert.Error(t, err, "expirado")

	_, err = Generate("", "x", 5, Identity{})
	assert.Error(t, err)
}
