// file: internals/features/billing/bills/controller/bill_controller.go
package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/features/billing/bills/dto"
	"waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/features/billing/bills/repository"
	"waterworks_backend/internals/features/billing/bills/service"
	helper "waterworks_backend/internals/helpers"
	helperAuth "waterworks_backend/internals/helpers/auth"
	"waterworks_backend/internals/helpers/dbtime"
)

/* =======================================================================
   Controller
======================================================================= */

type BillController struct {
	Ledger    *service.Ledger
	Validator *validator.Validate
}

func NewBillController(ledger *service.Ledger) *BillController {
	return &BillController{Ledger: ledger, Validator: helper.NewValidator()}
}

/* =======================================================================
   Staff / admin
======================================================================= */

// GET /bills?status=&user_id=&due_from=&due_to=&page=&per_page=
func (h *BillController) List(c *fiber.Ctx) error {
	f := repository.ListFilter{}
	uid, err := helper.ParseUUIDQuery(c, "user_id")
	if err != nil {
		return err
	}
	f.UserID = uid
	for _, s := range helper.SplitCSVQuery(c, "status") {
		st := model.BillStatus(s)
		if !st.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		f.Statuses = append(f.Statuses, st)
	}
	if f.DueFrom, err = dbtime.ParseOptionalDate(c.Query("due_from")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid due_from")
	}
	if f.DueTo, err = dbtime.ParseOptionalDate(c.Query("due_to")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid due_to")
	}

	p := helper.ResolvePaging(c, 20, 200)
	f.Limit, f.Offset = p.Limit, p.Offset

	bills, total, err := h.Ledger.List(c.UserContext(), f)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	pg := helper.BuildPaginationFromOffset(total, p.Offset, p.Limit)
	return helper.JsonList(c, "ok", dto.FromViews(h.Ledger.Views(bills)), &pg)
}

// GET /bills/:id
func (h *BillController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Ledger.Get(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromView(h.Ledger.View(b)))
}

// POST /bills
func (h *BillController) Create(c *fiber.Ctx) error {
	var req dto.BillRequest
	if err := helper.BindAndValidate(c, h.Validator, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	f, err := req.ToFields()
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	b, err := h.Ledger.CreateBill(c.UserContext(), f)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Bill created successfully", dto.FromView(h.Ledger.View(b)))
}

// PUT /bills/:id
func (h *BillController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.BillRequest
	if err := helper.BindAndValidate(c, h.Validator, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	f, err := req.ToFields()
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	b, err := h.Ledger.UpdateBill(c.UserContext(), id, f)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Bill updated successfully", dto.FromView(h.Ledger.View(b)))
}

// DELETE /bills/:id (admin)
func (h *BillController) Delete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Ledger.Delete(c.UserContext(), id); err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "Bill deleted successfully", fiber.Map{"bill_id": id})
}

// PATCH /bills/:id/restate
func (h *BillController) Restate(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.RestateBillRequest
	if err := helper.BindAndValidate(c, h.Validator, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	cmd, err := req.ToCommand(id, user.ID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	b, err := h.Ledger.Restate(c.UserContext(), cmd)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Bill amount restated successfully", dto.FromView(h.Ledger.View(b)))
}

// PATCH /bills/:id/mark-paid
func (h *BillController) MarkPaid(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Ledger.Settle(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Bill marked as paid", dto.FromView(h.Ledger.View(b)))
}

/* =======================================================================
   Client (own bills only)
======================================================================= */

// GET /bills (client)
func (h *BillController) ListMine(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	p := helper.ResolvePaging(c, 20, 100)
	bills, total, err := h.Ledger.List(c.UserContext(), repository.ListFilter{
		UserID: &user.ID,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	pg := helper.BuildPaginationFromOffset(total, p.Offset, p.Limit)
	return helper.JsonList(c, "ok", dto.FromViews(h.Ledger.Views(bills)), &pg)
}

// GET /bills/pending (client)
func (h *BillController) PendingMine(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	bills, err := h.Ledger.PendingForUser(c.UserContext(), user.ID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromViews(h.Ledger.Views(bills)))
}

// GET /bills/:id (client)
func (h *BillController) GetMine(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Ledger.GetForUser(c.UserContext(), user.ID, id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromView(h.Ledger.View(b)))
}
