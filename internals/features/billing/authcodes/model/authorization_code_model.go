package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ScopeBillRestate gates bill restatements.
const ScopeBillRestate = "bill.restate"

/*
authorization_codes = supervisor override codes.
  - reusable until deactivated or expired (never consumed)
  - empty scopes = valid for every privileged action
*/
type AuthorizationCode struct {
	AuthorizationCodeID          uuid.UUID      `gorm:"column:authorization_code_id;type:uuid;default:gen_random_uuid();primaryKey" json:"authorization_code_id"`
	AuthorizationCode            string         `gorm:"column:authorization_code;type:varchar(50);not null;uniqueIndex" json:"authorization_code"`
	AuthorizationCodeDescription *string        `gorm:"column:authorization_code_description;type:varchar(255)" json:"authorization_code_description,omitempty"`
	AuthorizationCodeIsActive    bool           `gorm:"column:authorization_code_is_active;not null;default:true" json:"authorization_code_is_active"`
	AuthorizationCodeScopes      pq.StringArray `gorm:"column:authorization_code_scopes;type:text[]" json:"authorization_code_scopes"`
	AuthorizationCodeCreatedBy   uuid.UUID      `gorm:"column:authorization_code_created_by;type:uuid;not null" json:"authorization_code_created_by"`
	AuthorizationCodeExpiresAt   *time.Time     `gorm:"column:authorization_code_expires_at" json:"authorization_code_expires_at,omitempty"`

	AuthorizationCodeCreatedAt time.Time `gorm:"column:authorization_code_created_at;autoCreateTime" json:"authorization_code_created_at"`
	AuthorizationCodeUpdatedAt time.Time `gorm:"column:authorization_code_updated_at;autoUpdateTime" json:"authorization_code_updated_at"`
}

func (AuthorizationCode) TableName() string { return "authorization_codes" }

// IsValid: active and not expired at now.
func (a *AuthorizationCode) IsValid(now time.Time) bool {
	if !a.AuthorizationCodeIsActive {
		return false
	}
	return a.AuthorizationCodeExpiresAt == nil || a.AuthorizationCodeExpiresAt.After(now)
}

func (a *AuthorizationCode) Allows(scope string) bool {
	if len(a.AuthorizationCodeScopes) == 0 || scope == "" {
		return true
	}
	for _, s := range a.AuthorizationCodeScopes {
		if s == scope {
			return true
		}
	}
	return false
}
