package bills

import (
	"context"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"waterworks_backend/internals/features/billing/bills/dto"
	"waterworks_backend/internals/features/billing/bills/repository"
	"waterworks_backend/internals/features/billing/bills/service"
)

// SeedBillsFromJSON loads sample bills through the ledger. A bill is skipped
// when the customer already has one with the same due date.
func SeedBillsFromJSON(ctx context.Context, ledger *service.Ledger, filePath string, log *zap.Logger) (int, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", filePath, err)
	}
	var seeds []dto.BillRequest
	if err := sonic.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("decode %s: %w", filePath, err)
	}

	inserted := 0
	for i := range seeds {
		f, err := seeds[i].ToFields()
		if err != nil {
			return inserted, fmt.Errorf("seed bill %d: %w", i, err)
		}
		due := f.DueDate
		_, n, err := ledger.List(ctx, repository.ListFilter{UserID: &f.UserID, DueFrom: &due, DueTo: &due, Limit: 1})
		if err != nil {
			return inserted, err
		}
		if n > 0 {
			continue
		}
		if _, err := ledger.CreateBill(ctx, f); err != nil {
			return inserted, fmt.Errorf("seed bill %d: %w", i, err)
		}
		inserted++
	}
	log.Info("bills seeded", zap.Int("inserted", inserted), zap.Int("total", len(seeds)))
	return inserted, nil
}
