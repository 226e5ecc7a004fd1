package seeds

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"waterworks_backend/internals/features/billing"
	authcodeSeed "waterworks_backend/internals/seeds/authcodes"
	billSeed "waterworks_backend/internals/seeds/bills"
)

// RunAllSeeds loads the JSON fixtures under dir (normally internals/seeds).
// Seeds are idempotent.
func RunAllSeeds(ctx context.Context, svc *billing.Services, repos billing.Repositories, dir string, log *zap.Logger) error {
	log = log.Named("seeds")

	//* Authorization codes
	if _, err := authcodeSeed.SeedAuthorizationCodesFromJSON(ctx, svc.Guard, repos.Codes,
		filepath.Join(dir, "authcodes", "data_authorization_codes.json"), log); err != nil {
		return err
	}

	//* Sample bills
	if _, err := billSeed.SeedBillsFromJSON(ctx, svc.Ledger,
		filepath.Join(dir, "bills", "data_bills.json"), log); err != nil {
		return err
	}
	return nil
}
