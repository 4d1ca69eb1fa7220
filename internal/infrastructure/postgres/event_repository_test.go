package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

const staffUUID = "7b0c5f5e-8d7e-4f43-9a57-3a1d2a6b9c10"

func TestEventWhere_ConstruyeFiltros(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	where, ok := eventWhere(repository.EventFilter{
		CompanyID: "co-1",
		StaffID:   staffUUID,
		Kinds:     []entity.MovementKind{entity.KindTransferIn, entity.KindReturnToWarehouse},
		From:      &from,
		To:        &to,
	})
	require.True(t, ok)

	sql, args, err := psql.Select("id").From("movement_events").Where(where).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id FROM movement_events WHERE (company_id = $1 AND staff_id = $2 AND kind IN ($3,$4) AND created_at >= $5 AND created_at < $6)",
		sql)
	assert.Equal(t, []any{"co-1", staffUUID, "TRANSFER_IN", "RETURN_TO_WAREHOUSE", from, to}, args)
}

func TestEventWhere_SinFiltros(t *testing.T) {
	where, ok := eventWhere(repository.EventFilter{})
	require.True(t, ok)

	sql, args, err := psql.Select("COUNT(*)").From("movement_events").Where(where).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM movement_events WHERE (1=1)", sql)
	assert.Empty(t, args)
}

func TestEventWhere_IDMalFormadoNoCoincide(t *testing.T) {
	_, ok := eventWhere(repository.EventFilter{CompanyID: "co-1", StaffID: "no-es-uuid"})
	assert.False(t, ok)

	_, ok = eventWhere(repository.EventFilter{ProductID: "p1"})
	assert.False(t, ok)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("x"))
	assert.Equal(t, "x", deref(nullable("x")))
	assert.Equal(t, "", deref(nil))
}
