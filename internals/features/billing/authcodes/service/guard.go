package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"waterworks_backend/internals/features/billing/authcodes/model"
	"waterworks_backend/internals/features/billing/authcodes/repository"
	"waterworks_backend/internals/helpers/apperr"
)

// Guard validates supervisor authorization codes and manages their lifecycle.
// Validation never consumes a code.
type Guard struct {
	repo repository.AuthorizationCodeRepository
	now  func() time.Time
	log  *zap.Logger
}

func NewGuard(repo repository.AuthorizationCodeRepository, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{repo: repo, now: time.Now, log: log.Named("authcodes")}
}

// WithClock replaces the time source.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

func (g *Guard) Validate(ctx context.Context, code string) (bool, error) {
	return g.ValidateFor(ctx, code, "")
}

// ValidateFor reports whether code exists, is active, unexpired and carries scope.
func (g *Guard) ValidateFor(ctx context.Context, code, scope string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	rec, err := g.repo.FindByCode(ctx, code)
	if err != nil {
		return false, err
	}
	if rec == nil {
		g.log.Info("authorization code rejected", zap.String("reason", "unknown"))
		return false, nil
	}
	if !rec.IsValid(g.now()) {
		g.log.Info("authorization code rejected",
			zap.String("reason", "inactive_or_expired"),
			zap.String("code_id", rec.AuthorizationCodeID.String()))
		return false, nil
	}
	if !rec.Allows(scope) {
		g.log.Info("authorization code rejected",
			zap.String("reason", "scope"),
			zap.String("scope", scope),
			zap.String("code_id", rec.AuthorizationCodeID.String()))
		return false, nil
	}
	return true, nil
}

type CreateCodeCommand struct {
	Code        string
	Description *string
	IsActive    *bool
	Scopes      []string
	ExpiresAt   *time.Time
	CreatedBy   uuid.UUID
}

type UpdateCodeCommand struct {
	Code        *string
	Description *string
	IsActive    *bool
	Scopes      []string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

func (g *Guard) Create(ctx context.Context, cmd CreateCodeCommand) (*model.AuthorizationCode, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		return nil, apperr.Field("code", "The code field is required.")
	}
	if cmd.ExpiresAt != nil && !cmd.ExpiresAt.After(g.now()) {
		return nil, apperr.Field("expires_at", "The expires at must be a date after now.")
	}
	active := true
	if cmd.IsActive != nil {
		active = *cmd.IsActive
	}
	rec := &model.AuthorizationCode{
		AuthorizationCode:            code,
		AuthorizationCodeDescription: cmd.Description,
		AuthorizationCodeIsActive:    active,
		AuthorizationCodeScopes:      normalizeScopes(cmd.Scopes),
		AuthorizationCodeCreatedBy:   cmd.CreatedBy,
		AuthorizationCodeExpiresAt:   cmd.ExpiresAt,
	}
	if err := g.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	g.log.Info("authorization code created",
		zap.String("code_id", rec.AuthorizationCodeID.String()),
		zap.String("created_by", cmd.CreatedBy.String()))
	return rec, nil
}

func (g *Guard) Update(ctx context.Context, id uuid.UUID, cmd UpdateCodeCommand) (*model.AuthorizationCode, error) {
	rec, err := g.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.Code != nil {
		code := strings.TrimSpace(*cmd.Code)
		if code == "" {
			return nil, apperr.Field("code", "The code field is required.")
		}
		rec.AuthorizationCode = code
	}
	if cmd.Description != nil {
		rec.AuthorizationCodeDescription = cmd.Description
	}
	if cmd.IsActive != nil {
		rec.AuthorizationCodeIsActive = *cmd.IsActive
	}
	if cmd.Scopes != nil {
		rec.AuthorizationCodeScopes = normalizeScopes(cmd.Scopes)
	}
	switch {
	case cmd.ClearExpiry:
		rec.AuthorizationCodeExpiresAt = nil
	case cmd.ExpiresAt != nil:
		rec.AuthorizationCodeExpiresAt = cmd.ExpiresAt
	}
	if err := g.repo.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (g *Guard) Delete(ctx context.Context, id uuid.UUID) error {
	return g.repo.Delete(ctx, id)
}

func (g *Guard) Get(ctx context.Context, id uuid.UUID) (*model.AuthorizationCode, error) {
	return g.repo.FindByID(ctx, id)
}

func (g *Guard) List(ctx context.Context, onlyActive bool) ([]model.AuthorizationCode, error) {
	return g.repo.List(ctx, onlyActive)
}

func normalizeScopes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
