package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"waterworks_backend/internals/features/billing/authcodes/model"
	"waterworks_backend/internals/features/billing/authcodes/repository"
	"waterworks_backend/internals/helpers/apperr"
)

type AuthCodeRepo struct{ s *Store }

var _ repository.AuthorizationCodeRepository = (*AuthCodeRepo)(nil)

func (r *AuthCodeRepo) Create(ctx context.Context, c *model.AuthorizationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("authcodes.Create"); err != nil {
		return err
	}
	for _, other := range r.s.codes {
		if other.AuthorizationCode == c.AuthorizationCode {
			return apperr.Field("code", "The code has already been taken.")
		}
	}
	if c.AuthorizationCodeID == uuid.Nil {
		c.AuthorizationCodeID = uuid.New()
	}
	now := time.Now()
	c.AuthorizationCodeCreatedAt, c.AuthorizationCodeUpdatedAt = now, now
	r.s.codes[c.AuthorizationCodeID] = *c
	r.s.stamp(c.AuthorizationCodeID)
	return nil
}

func (r *AuthCodeRepo) Save(ctx context.Context, c *model.AuthorizationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.codes {
		if id != c.AuthorizationCodeID && other.AuthorizationCode == c.AuthorizationCode {
			return apperr.Field("code", "The code has already been taken.")
		}
	}
	c.AuthorizationCodeUpdatedAt = time.Now()
	r.s.codes[c.AuthorizationCodeID] = *c
	return nil
}

func (r *AuthCodeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.codes[id]; !ok {
		return apperr.NotFound("authorization code")
	}
	delete(r.s.codes, id)
	return nil
}

func (r *AuthCodeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.AuthorizationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[id]
	if !ok {
		return nil, apperr.NotFound("authorization code")
	}
	return &c, nil
}

func (r *AuthCodeRepo) FindByCode(ctx context.Context, code string) (*model.AuthorizationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("authcodes.FindByCode"); err != nil {
		return nil, err
	}
	for _, c := range r.s.codes {
		if c.AuthorizationCode == code {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *AuthCodeRepo) List(ctx context.Context, onlyActive bool) ([]model.AuthorizationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.AuthorizationCode
	for _, c := range r.s.codes {
		if onlyActive && !c.AuthorizationCodeIsActive {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return r.s.order[out[i].AuthorizationCodeID] > r.s.order[out[j].AuthorizationCodeID]
	})
	return out, nil
}
