// file: internals/features/billing/payments/controller/payment_controller.go
package controller

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	gwsvc "waterworks_backend/internals/features/billing/gateway/service"
	"waterworks_backend/internals/features/billing/payments/dto"
	"waterworks_backend/internals/features/billing/payments/model"
	"waterworks_backend/internals/features/billing/payments/repository"
	"waterworks_backend/internals/features/billing/payments/service"
	helper "waterworks_backend/internals/helpers"
	helperAuth "waterworks_backend/internals/helpers/auth"
	"waterworks_backend/internals/helpers/dbtime"
)

// StatusChecker asks the gateway for a payment's latest state.
type StatusChecker interface {
	CheckStatus(ctx context.Context, id uuid.UUID) (*gwsvc.StatusResult, error)
	CheckStatusForUser(ctx context.Context, userID, id uuid.UUID) (*gwsvc.StatusResult, error)
}

/* =======================================================================
   Controller
======================================================================= */

type PaymentController struct {
	Processor      *service.Processor
	Status         StatusChecker
	Validator      *validator.Validate
	DefaultGateway string
}

func NewPaymentController(p *service.Processor, status StatusChecker, defaultGateway string) *PaymentController {
	if defaultGateway == "" {
		defaultGateway = model.GatewayDemo
	}
	return &PaymentController{
		Processor:      p,
		Status:         status,
		Validator:      helper.NewValidator(),
		DefaultGateway: defaultGateway,
	}
}

func listFilter(c *fiber.Ctx) (repository.ListFilter, helper.Paging, error) {
	var (
		f   repository.ListFilter
		err error
	)
	if f.BillID, err = helper.ParseUUIDQuery(c, "bill_id"); err != nil {
		return f, helper.Paging{}, err
	}
	for _, s := range helper.SplitCSVQuery(c, "status") {
		st := model.PaymentStatus(s)
		if !st.Valid() {
			return f, helper.Paging{}, fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		f.Statuses = append(f.Statuses, st)
	}
	if m := c.Query("method"); m != "" {
		pm := model.PaymentMethod(m)
		if !pm.Valid() {
			return f, helper.Paging{}, fiber.NewError(fiber.StatusBadRequest, "invalid method")
		}
		f.Method = &pm
	}
	if f.From, err = dbtime.ParseOptionalDate(c.Query("from")); err != nil {
		return f, helper.Paging{}, fiber.NewError(fiber.StatusBadRequest, "invalid from")
	}
	if f.To, err = dbtime.ParseOptionalDate(c.Query("to")); err != nil {
		return f, helper.Paging{}, fiber.NewError(fiber.StatusBadRequest, "invalid to")
	}
	p := helper.ResolvePaging(c, 20, 200)
	f.Limit, f.Offset = p.Limit, p.Offset
	return f, p, nil
}

/* =======================================================================
   Client
======================================================================= */

// POST /payments
func (h *PaymentController) Initiate(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.InitiatePaymentRequest
	if err := helper.BindAndValidate(c, h.Validator, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	payer := service.Payer{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.Phone,
	}
	if user.WWSID != "" {
		wws := user.WWSID
		payer.WWSID = &wws
	}
	cmd, err := req.ToCommand(payer, h.DefaultGateway)
	if err != nil {
		return helper.JsonAppError(c, err)
	}

	res, err := h.Processor.InitiatePayment(c.UserContext(), cmd)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	msg := "Payment submitted successfully"
	if res.Dispatch != nil && res.Dispatch.Mode == service.DispatchRedirect {
		msg = "Redirecting to payment gateway"
	}
	return helper.JsonCreated(c, msg, dto.InitiatePaymentResponse{
		Payment:  dto.FromModel(res.Payment, false),
		Dispatch: res.Dispatch,
	})
}

// GET /payments (client)
func (h *PaymentController) ListMine(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	f, p, err := listFilter(c)
	if err != nil {
		return err
	}
	f.UserID = &user.ID
	rows, total, err := h.Processor.List(c.UserContext(), f)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	pg := helper.BuildPaginationFromOffset(total, p.Offset, p.Limit)
	return helper.JsonList(c, "ok", dto.FromModels(rows, false), &pg)
}

// GET /payments/:id (client)
func (h *PaymentController) GetMine(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	pay, err := h.Processor.GetForUser(c.UserContext(), user.ID, id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(pay, false))
}

// PATCH /payments/:id/reference
func (h *PaymentController) UpdateReference(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateReferenceRequest
	if err := helper.BindAndValidate(c, h.Validator, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	pay, err := h.Processor.UpdateGatewayReference(c.UserContext(), user.ID, id, req.GatewayReference)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Payment reference saved. Staff will verify your payment shortly.", dto.FromModel(pay, false))
}

// GET /payments/:id/status (client)
func (h *PaymentController) StatusMine(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	res, err := h.Status.CheckStatusForUser(c.UserContext(), user.ID, id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, statusMessage(res), res)
}

/* =======================================================================
   Staff
======================================================================= */

// GET /payments?user_id=&bill_id=&status=&method=&from=&to=
func (h *PaymentController) List(c *fiber.Ctx) error {
	f, p, err := listFilter(c)
	if err != nil {
		return err
	}
	if f.UserID, err = helper.ParseUUIDQuery(c, "user_id"); err != nil {
		return err
	}
	rows, total, err := h.Processor.List(c.UserContext(), f)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	pg := helper.BuildPaginationFromOffset(total, p.Offset, p.Limit)
	return helper.JsonList(c, "ok", dto.FromModels(rows, false), &pg)
}

// GET /payments/:id
func (h *PaymentController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	pay, err := h.Processor.Get(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(pay, true))
}

// PATCH /payments/:id/process
func (h *PaymentController) Process(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ProcessPaymentRequest
	if err := helper.BindAndValidate(c, h.Validator, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	pay, err := h.Processor.SetStatus(c.UserContext(), req.ToCommand(id))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Payment processed successfully", dto.FromModel(pay, true))
}

// GET /payments/:id/status
func (h *PaymentController) StatusAny(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	res, err := h.Status.CheckStatus(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, statusMessage(res), res)
}

func statusMessage(res *gwsvc.StatusResult) string {
	if res.Unknown {
		return "Payment status is unknown, please retry later"
	}
	return "ok"
}
