package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/features/billing/reports/dto"
	"waterworks_backend/internals/features/billing/reports/service"
	helper "waterworks_backend/internals/helpers"
	"waterworks_backend/internals/helpers/apperr"
	helperAuth "waterworks_backend/internals/helpers/auth"
	"waterworks_backend/internals/helpers/dbtime"
)

type ReportController struct {
	Aggregator *service.Aggregator
	Now        func() time.Time
}

func NewReportController(a *service.Aggregator) *ReportController {
	return &ReportController{Aggregator: a, Now: time.Now}
}

// asOf reads ?as_of=YYYY-MM-DD, defaulting to today.
func (h *ReportController) asOf(c *fiber.Ctx) (time.Time, error) {
	t, err := dbtime.ParseOptionalDate(c.Query("as_of"))
	if err != nil {
		return time.Time{}, apperr.Field("as_of", "The as of is not a valid date.")
	}
	if t == nil {
		return dbtime.Today(h.Now()), nil
	}
	return *t, nil
}

// GET /reports/delinquency?as_of=
func (h *ReportController) Delinquency(c *fiber.Ctx) error {
	asOf, err := h.asOf(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	rep, err := h.Aggregator.DelinquencyReport(c.UserContext(), asOf)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromDelinquency(rep))
}

// GET /reports/collection?start_date=&end_date=&report_type=daily|monthly|none
func (h *ReportController) Collection(c *fiber.Ctx) error {
	g, err := service.ParseGranularity(c.Query("report_type"))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	q := service.CollectionQuery{Granularity: g}
	if q.Start, err = dbtime.ParseOptionalDate(c.Query("start_date")); err != nil {
		return helper.JsonAppError(c, apperr.Field("start_date", "The start date is not a valid date."))
	}
	if q.End, err = dbtime.ParseOptionalDate(c.Query("end_date")); err != nil {
		return helper.JsonAppError(c, apperr.Field("end_date", "The end date is not a valid date."))
	}
	rep, err := h.Aggregator.CollectionReport(c.UserContext(), q)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromCollection(rep))
}

// GET /reports/summary?as_of=
func (h *ReportController) Summary(c *fiber.Ctx) error {
	asOf, err := h.asOf(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	sum, err := h.Aggregator.DashboardSummary(c.UserContext(), asOf)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromDashboard(sum))
}

// GET /usage (client)
func (h *ReportController) MyUsage(c *fiber.Ctx) error {
	user, err := helperAuth.GetCurrentUser(c)
	if err != nil {
		return err
	}
	u, err := h.Aggregator.CustomerUsage(c.UserContext(), user.ID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromUsage(u))
}
