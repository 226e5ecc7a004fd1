package dto

import (
	"time"

	"github.com/google/uuid"

	"waterworks_backend/internals/features/billing/authcodes/model"
	"waterworks_backend/internals/features/billing/authcodes/service"
)

type CreateAuthorizationCodeRequest struct {
	Code        string     `json:"code" validate:"required,max=50"`
	Description *string    `json:"description" validate:"omitempty,max=255"`
	IsActive    *bool      `json:"is_active"`
	Scopes      []string   `json:"scopes" validate:"omitempty,dive,max=50"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (r *CreateAuthorizationCodeRequest) ToCommand(by uuid.UUID) service.CreateCodeCommand {
	return service.CreateCodeCommand{
		Code:        r.Code,
		Description: r.Description,
		IsActive:    r.IsActive,
		Scopes:      r.Scopes,
		ExpiresAt:   r.ExpiresAt,
		CreatedBy:   by,
	}
}

// UpdateAuthorizationCodeRequest is a partial update; clear_expiry removes
// the expiry altogether.
type UpdateAuthorizationCodeRequest struct {
	Code        *string    `json:"code" validate:"omitempty,max=50"`
	Description *string    `json:"description" validate:"omitempty,max=255"`
	IsActive    *bool      `json:"is_active"`
	Scopes      []string   `json:"scopes" validate:"omitempty,dive,max=50"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}

func (r *UpdateAuthorizationCodeRequest) ToCommand() service.UpdateCodeCommand {
	return service.UpdateCodeCommand{
		Code:        r.Code,
		Description: r.Description,
		IsActive:    r.IsActive,
		Scopes:      r.Scopes,
		ExpiresAt:   r.ExpiresAt,
		ClearExpiry: r.ClearExpiry,
	}
}

type AuthorizationCodeResponse struct {
	ID          uuid.UUID  `json:"authorization_code_id"`
	Code        string     `json:"code"`
	Description *string    `json:"description,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsValid     bool       `json:"is_valid"`
	Scopes      []string   `json:"scopes"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func FromModel(m *model.AuthorizationCode, now time.Time) AuthorizationCodeResponse {
	scopes := []string(m.AuthorizationCodeScopes)
	if scopes == nil {
		scopes = []string{}
	}
	return AuthorizationCodeResponse{
		ID:          m.AuthorizationCodeID,
		Code:        m.AuthorizationCode,
		Description: m.AuthorizationCodeDescription,
		IsActive:    m.AuthorizationCodeIsActive,
		IsValid:     m.IsValid(now),
		Scopes:      scopes,
		CreatedBy:   m.AuthorizationCodeCreatedBy,
		ExpiresAt:   m.AuthorizationCodeExpiresAt,
		CreatedAt:   m.AuthorizationCodeCreatedAt,
		UpdatedAt:   m.AuthorizationCodeUpdatedAt,
	}
}

func FromModels(ms []model.AuthorizationCode, now time.Time) []AuthorizationCodeResponse {
	out := make([]AuthorizationCodeResponse, 0, len(ms))
	for i := range ms {
		out = append(out, FromModel(&ms[i], now))
	}
	return out
}
