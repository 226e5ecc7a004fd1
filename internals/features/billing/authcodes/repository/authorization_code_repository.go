package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"waterworks_backend/internals/databases/txn"
	"waterworks_backend/internals/features/billing/authcodes/model"
	"waterworks_backend/internals/helpers/apperr"
)

type AuthorizationCodeRepository interface {
	Create(ctx context.Context, c *model.AuthorizationCode) error
	Save(ctx context.Context, c *model.AuthorizationCode) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AuthorizationCode, error)
	// FindByCode returns (nil, nil) when no record matches.
	FindByCode(ctx context.Context, code string) (*model.AuthorizationCode, error)
	List(ctx context.Context, onlyActive bool) ([]model.AuthorizationCode, error)
}

type GormAuthorizationCodeRepository struct {
	db *gorm.DB
}

func NewGormAuthorizationCodeRepository(db *gorm.DB) *GormAuthorizationCodeRepository {
	return &GormAuthorizationCodeRepository{db: db}
}

var _ AuthorizationCodeRepository = (*GormAuthorizationCodeRepository)(nil)

func (r *GormAuthorizationCodeRepository) Create(ctx context.Context, c *model.AuthorizationCode) error {
	if c.AuthorizationCodeID == uuid.Nil {
		c.AuthorizationCodeID = uuid.New()
	}
	if err := txn.DB(ctx, r.db).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Field("code", "The code has already been taken.")
		}
		return apperr.Persistence(err)
	}
	return nil
}

func (r *GormAuthorizationCodeRepository) Save(ctx context.Context, c *model.AuthorizationCode) error {
	if err := txn.DB(ctx, r.db).Save(c).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Field("code", "The code has already been taken.")
		}
		return apperr.Persistence(err)
	}
	return nil
}

func (r *GormAuthorizationCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := txn.DB(ctx, r.db).Where("authorization_code_id = ?", id).Delete(&model.AuthorizationCode{})
	if res.Error != nil {
		return apperr.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("authorization code")
	}
	return nil
}

func (r *GormAuthorizationCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AuthorizationCode, error) {
	var c model.AuthorizationCode
	if err := txn.DB(ctx, r.db).Where("authorization_code_id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("authorization code")
		}
		return nil, apperr.Persistence(err)
	}
	return &c, nil
}

func (r *GormAuthorizationCodeRepository) FindByCode(ctx context.Context, code string) (*model.AuthorizationCode, error) {
	var c model.AuthorizationCode
	if err := txn.DB(ctx, r.db).Where("authorization_code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Persistence(err)
	}
	return &c, nil
}

func (r *GormAuthorizationCodeRepository) List(ctx context.Context, onlyActive bool) ([]model.AuthorizationCode, error) {
	q := txn.DB(ctx, r.db)
	if onlyActive {
		q = q.Where("authorization_code_is_active = ?", true)
	}
	var out []model.AuthorizationCode
	if err := q.Order("authorization_code_created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}

// pq / pgx both surface SQLSTATE 23505 in the message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(strings.ToLower(msg), "duplicate key")
}
