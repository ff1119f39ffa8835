package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/billwise/billwise/internal/audit/domain"
	auditservice "github.com/billwise/billwise/internal/audit/service"
	"github.com/billwise/billwise/internal/clock"
)

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	clk := clock.NewFakeClock(testStart)
	svc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
	})
	return svc, clk
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupService(t)

	companyID := snowflake.ID(42)

	require.NoError(t, svc.Record(ctx, companyID, "clerk", "invoice.sent", "invoice", "1001", map[string]any{
		"invoice_number": "INV-2025-000001",
	}))

	clk.Advance(time.Minute)
	require.NoError(t, svc.Record(ctx, companyID, "clerk", "invoice.paid", "invoice", "1001", nil))

	logs, err := svc.List(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Newest first.
	assert.Equal(t, "invoice.paid", logs[0].Action)
	assert.Equal(t, "invoice.sent", logs[1].Action)
	assert.Equal(t, "INV-2025-000001", logs[1].Metadata["invoice_number"])
}

func TestRecordValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	assert.ErrorIs(t, svc.Record(ctx, snowflake.ID(42), "clerk", "  ", "invoice", "1", nil),
		auditdomain.ErrInvalidAction)
	assert.ErrorIs(t, svc.Record(ctx, 0, "clerk", "invoice.sent", "invoice", "1", nil),
		auditdomain.ErrInvalidCompany)
}

func TestListScopedToCompany(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	require.NoError(t, svc.Record(ctx, snowflake.ID(1), "a", "invoice.sent", "invoice", "1", nil))
	require.NoError(t, svc.Record(ctx, snowflake.ID(2), "b", "invoice.sent", "invoice", "2", nil))

	logs, err := svc.List(ctx, snowflake.ID(1))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "a", logs[0].Actor)
}
