package controller

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/features/billing/authcodes/dto"
	"waterworks_backend/internals/features/billing/authcodes/service"
	helper "waterworks_backend/internals/helpers"
	helperAuth "waterworks_backend/internals/helpers/auth"
)

type AuthorizationCodeController struct {
	Guard     *service.Guard
	Validator *validator.Validate
	Now       func() time.Time
}

func NewAuthorizationCodeController(guard *service.Guard) *AuthorizationCodeController {
	return &AuthorizationCodeController{Guard: guard, Validator: helper.NewValidator(), Now: time.Now}
}

// GET /authorization-codes?active=true
func (h *AuthorizationCodeController) List(c *fiber.Ctx) error {
	onlyActive := strings.EqualFold(strings.TrimSpace(c.Query("active")), "true")
	codes, err := h.Guard.List(c.UserContext(), onlyActive)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModels(codes, h.Now()))
}

// GET /authorization-codes/:id
func (h *AuthorizationCodeController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	code, err := h.Guard.Get(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(code, h.Now()))
}

// POST /authorization-codes
func (h *AuthorizationCodeController) Create(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateAuthorizationCodeRequest
	if err := helper.BindAndValidate(c, h.Validator, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	code, err := h.Guard.Create(c.UserContext(), req.ToCommand(user.ID))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Authorization code created successfully", dto.FromModel(code, h.Now()))
}

// PUT /authorization-codes/:id
func (h *AuthorizationCodeController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateAuthorizationCodeRequest
	if err := helper.BindAndValidate(c, h.Validator, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	code, err := h.Guard.Update(c.UserContext(), id, req.ToCommand())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Authorization code updated successfully", dto.FromModel(code, h.Now()))
}

// DELETE /authorization-codes/:id
func (h *AuthorizationCodeController) Delete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Guard.Delete(c.UserContext(), id); err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "Authorization code deleted successfully", fiber.Map{"authorization_code_id": id})
}
