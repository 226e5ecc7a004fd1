package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterworks_backend/internals/features/billing/authcodes/model"
	"waterworks_backend/internals/features/billing/memstore"
	"waterworks_backend/internals/helpers/apperr"
)

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func newGuard(t *testing.T) (*Guard, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewGuard(store.AuthorizationCodes(), nil).WithClock(func() time.Time { return now }), store
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrBool(b bool) *bool           { return &b }

func TestValidate(t *testing.T) {
	g, store := newGuard(t)
	ctx := context.Background()
	seed := func(code string, active bool, exp *time.Time) {
		require.NoError(t, store.AuthorizationCodes().Create(ctx, &model.AuthorizationCode{
			AuthorizationCode:          code,
			AuthorizationCodeIsActive:  active,
			AuthorizationCodeExpiresAt: exp,
			AuthorizationCodeCreatedBy: uuid.New(),
		}))
	}
	seed("OPEN", true, nil)
	seed("FUTURE", true, ptrTime(now.Add(time.Hour)))
	seed("PAST", true, ptrTime(now.Add(-time.Second)))
	seed("EXACT", true, ptrTime(now))
	seed("INACTIVE", false, nil)

	tests := []struct {
		code string
		want bool
	}{
		{"OPEN", true},
		{"FUTURE", true},
		{"PAST", false},
		{"EXACT", false},
		{"INACTIVE", false},
		{"MISSING", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ok, err := g.Validate(ctx, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	// validation has no side effects
	ok, err := g.Validate(ctx, "OPEN")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateForScope(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()
	_, err := g.Create(ctx, CreateCodeCommand{Code: "RESTATE-ONLY", Scopes: []string{model.ScopeBillRestate, " ", model.ScopeBillRestate}})
	require.NoError(t, err)

	ok, err := g.ValidateFor(ctx, "RESTATE-ONLY", model.ScopeBillRestate)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.ValidateFor(ctx, "RESTATE-ONLY", "payment.refund")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidatePropagatesStorageErrors(t *testing.T) {
	g, store := newGuard(t)
	store.FailOn("authcodes.FindByCode", errors.New("db down"))
	_, err := g.Validate(context.Background(), "ANY")
	assert.True(t, apperr.Is(err, apperr.KindPersistence))
}

func TestCreateAndUpdate(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()
	admin := uuid.New()

	rec, err := g.Create(ctx, CreateCodeCommand{Code: " SUP-1 ", CreatedBy: admin})
	require.NoError(t, err)
	assert.Equal(t, "SUP-1", rec.AuthorizationCode)
	assert.True(t, rec.AuthorizationCodeIsActive)
	assert.Empty(t, rec.AuthorizationCodeScopes)

	_, err = g.Create(ctx, CreateCodeCommand{Code: "SUP-1", CreatedBy: admin})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "duplicate code")

	_, err = g.Create(ctx, CreateCodeCommand{Code: "LATE", ExpiresAt: ptrTime(now.Add(-time.Minute))})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "expiry in the past")

	updated, err := g.Update(ctx, rec.AuthorizationCodeID, UpdateCodeCommand{IsActive: ptrBool(false)})
	require.NoError(t, err)
	assert.False(t, updated.AuthorizationCodeIsActive)

	ok, err := g.Validate(ctx, "SUP-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.Delete(ctx, rec.AuthorizationCodeID))
	_, err = g.Get(ctx, rec.AuthorizationCodeID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
