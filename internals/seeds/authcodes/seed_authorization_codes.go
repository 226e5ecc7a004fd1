package authcodes

import (
	"context"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"waterworks_backend/internals/features/billing/authcodes/model"
	"waterworks_backend/internals/features/billing/authcodes/service"
)

type CodeFinder interface {
	FindByCode(ctx context.Context, code string) (*model.AuthorizationCode, error)
}

type CodeSeed struct {
	Code        string   `json:"code"`
	Description *string  `json:"description"`
	Scopes      []string `json:"scopes"`
}

// SeedAuthorizationCodesFromJSON creates every code in the file that does
// not exist yet and returns how many were inserted.
func SeedAuthorizationCodesFromJSON(ctx context.Context, guard *service.Guard, codes CodeFinder, filePath string, log *zap.Logger) (int, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", filePath, err)
	}
	var seeds []CodeSeed
	if err := sonic.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("decode %s: %w", filePath, err)
	}

	inserted := 0
	for _, s := range seeds {
		existing, err := codes.FindByCode(ctx, s.Code)
		if err != nil {
			return inserted, err
		}
		if existing != nil {
			log.Debug("authorization code exists, skipping", zap.String("code", s.Code))
			continue
		}
		if _, err := guard.Create(ctx, service.CreateCodeCommand{
			Code:        s.Code,
			Description: s.Description,
			Scopes:      s.Scopes,
			CreatedBy:   uuid.Nil,
		}); err != nil {
			return inserted, fmt.Errorf("seed code %q: %w", s.Code, err)
		}
		inserted++
	}
	log.Info("authorization codes seeded", zap.Int("inserted", inserted), zap.Int("total", len(seeds)))
	return inserted, nil
}
