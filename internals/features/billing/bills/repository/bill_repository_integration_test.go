//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"waterworks_backend/internals/databases/txn"
	"waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/helpers/apperr"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./...
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Bill{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func insertBill(t *testing.T, db *gorm.DB, repo *GormBillRepository) *model.Bill {
	t.Helper()
	b := &model.Bill{
		BillID:              uuid.New(),
		BillUserID:          uuid.New(),
		BillReadingDate:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		BillDueDate:         time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		BillPreviousReading: decimal.NewFromInt(1000),
		BillPresentReading:  decimal.NewFromInt(1035),
		BillConsumption:     decimal.NewFromInt(35),
		BillAmount:          decimal.NewFromInt(525),
		BillTotalPayable:    decimal.NewFromInt(525),
		BillStatus:          model.BillStatusPending,
		BillMeterReader:     "J. Cruz",
		BillQRNumber:        "IT-" + uuid.NewString()[:18],
	}
	require.NoError(t, repo.Create(context.Background(), b))
	t.Cleanup(func() { db.Delete(&model.Bill{}, "bill_id = ?", b.BillID) })
	return b
}

func TestGormMarkPaidOnce(t *testing.T) {
	db := testDB(t)
	repo := NewGormBillRepository(db)
	ctx := context.Background()
	b := insertBill(t, db, repo)

	first := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	changed, err := repo.MarkPaid(ctx, b.BillID, first)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkPaid(ctx, b.BillID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed, "second mark is a no-op")

	got, err := repo.FindByID(ctx, b.BillID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPaid, got.BillStatus)
	require.NotNil(t, got.BillPaidAt)
	assert.True(t, first.Equal(*got.BillPaidAt), "paid_at keeps the first settlement time")
}

func TestGormMarkPaidKeepsExistingPaidAt(t *testing.T) {
	db := testDB(t)
	repo := NewGormBillRepository(db)
	ctx := context.Background()
	b := insertBill(t, db, repo)

	earlier := time.Date(2026, 9, 5, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Exec("UPDATE bills SET bill_paid_at = ? WHERE bill_id = ?", earlier, b.BillID).Error)

	changed, err := repo.MarkPaid(ctx, b.BillID, earlier.Add(48*time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := repo.FindByID(ctx, b.BillID)
	require.NoError(t, err)
	require.NotNil(t, got.BillPaidAt)
	assert.True(t, earlier.Equal(*got.BillPaidAt))
}

func TestGormMarkPaidUnknownBill(t *testing.T) {
	repo := NewGormBillRepository(testDB(t))
	_, err := repo.MarkPaid(context.Background(), uuid.New(), time.Now())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGormMarkPaidJoinsTransaction(t *testing.T) {
	db := testDB(t)
	repo := NewGormBillRepository(db)
	b := insertBill(t, db, repo)

	mgr := txn.NewGormManager(db)
	err := mgr.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := repo.MarkPaid(ctx, b.BillID, time.Now()); err != nil {
			return err
		}
		return apperr.Validation("rolled back", nil)
	})
	require.Error(t, err)

	got, err := repo.FindByID(context.Background(), b.BillID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusPending, got.BillStatus)
	assert.Nil(t, got.BillPaidAt)
}
