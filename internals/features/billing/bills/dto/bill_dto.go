package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/features/billing/bills/service"
	"waterworks_backend/internals/helpers/apperr"
	"waterworks_backend/internals/helpers/dbtime"
)

/* =========================================================
   CREATE / UPDATE
========================================================= */

// BillRequest is the full bill payload; PUT replaces every field.
type BillRequest struct {
	UserID          string           `json:"user_id" validate:"required,uuid"`
	WWSID           *string          `json:"wws_id" validate:"omitempty,max=50"`
	CustomerName    *string          `json:"customer_name" validate:"omitempty,max=255"`
	ServiceClass    *string          `json:"service_class" validate:"omitempty,max=50"`
	ReadingDate     string           `json:"reading_date" validate:"required"`
	DueDate         string           `json:"due_date" validate:"required"`
	PreviousReading *decimal.Decimal `json:"previous_reading"`
	PresentReading  *decimal.Decimal `json:"present_reading"`
	Amount          *decimal.Decimal `json:"amount"`
	Penalty         *decimal.Decimal `json:"penalty"`
	MeterReader     string           `json:"meter_reader" validate:"required,max=255"`
	OnlineMeterUsed bool             `json:"online_meter_used"`
}

// ToFields parses ids and dates and rejects omitted figures; numeric rules
// are checked by the ledger.
func (r *BillRequest) ToFields() (service.BillFields, error) {
	var f service.BillFields
	missing := map[string][]string{}
	requireDecimal(missing, "previous_reading", r.PreviousReading)
	requireDecimal(missing, "present_reading", r.PresentReading)
	requireDecimal(missing, "amount", r.Amount)
	if len(missing) > 0 {
		return f, apperr.Validation("The given data was invalid.", missing)
	}
	uid, err := uuid.Parse(strings.TrimSpace(r.UserID))
	if err != nil {
		return f, apperr.Field("user_id", "The user id must be a valid UUID.")
	}
	reading, err := dbtime.ParseDate(r.ReadingDate)
	if err != nil {
		return f, apperr.Field("reading_date", "The reading date is not a valid date.")
	}
	due, err := dbtime.ParseDate(r.DueDate)
	if err != nil {
		return f, apperr.Field("due_date", "The due date is not a valid date.")
	}
	return service.BillFields{
		UserID:          uid,
		WWSID:           trimmed(r.WWSID),
		CustomerName:    trimmed(r.CustomerName),
		ServiceClass:    trimmed(r.ServiceClass),
		ReadingDate:     reading,
		DueDate:         due,
		PreviousReading: *r.PreviousReading,
		PresentReading:  *r.PresentReading,
		Amount:          *r.Amount,
		Penalty:         r.Penalty,
		MeterReader:     r.MeterReader,
		OnlineMeterUsed: r.OnlineMeterUsed,
	}, nil
}

func requireDecimal(errs map[string][]string, field string, v *decimal.Decimal) {
	if v == nil {
		errs[field] = append(errs[field], "The "+strings.ReplaceAll(field, "_", " ")+" field is required.")
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

/* =========================================================
   RESTATE
========================================================= */

type RestateBillRequest struct {
	RestatedAmount    *decimal.Decimal `json:"restated_amount"`
	RestatementReason string           `json:"restatement_reason" validate:"required,max=500"`
	AuthorizationCode string           `json:"authorization_code" validate:"required,max=50"`
}

func (r *RestateBillRequest) ToCommand(billID, by uuid.UUID) (service.RestateBillCommand, error) {
	if r.RestatedAmount == nil {
		return service.RestateBillCommand{}, apperr.Field("restated_amount", "The restated amount field is required.")
	}
	return service.RestateBillCommand{
		BillID:         billID,
		RestatedAmount: *r.RestatedAmount,
		Reason:         r.RestatementReason,
		Code:           r.AuthorizationCode,
		RestatedBy:     by,
	}, nil
}

/* =========================================================
   RESPONSE
========================================================= */

type BillResponse struct {
	BillID       uuid.UUID `json:"bill_id"`
	UserID       uuid.UUID `json:"user_id"`
	WWSID        *string   `json:"wws_id,omitempty"`
	CustomerName string    `json:"customer_name"`
	ServiceClass string    `json:"service_class"`

	ReadingDate string `json:"reading_date"`
	DueDate     string `json:"due_date"`

	PreviousReading decimal.Decimal `json:"previous_reading"`
	PresentReading  decimal.Decimal `json:"present_reading"`
	Consumption     decimal.Decimal `json:"consumption"`

	Amount       decimal.Decimal `json:"amount"`
	Penalty      decimal.Decimal `json:"penalty"`
	TotalPayable decimal.Decimal `json:"total_payable"`

	RestatedAmount    decimal.NullDecimal `json:"restated_amount"`
	RestatementReason *string             `json:"restatement_reason,omitempty"`
	RestatedAt        *time.Time          `json:"restated_at,omitempty"`

	Status          model.BillStatus `json:"status"`
	MeterReader     string           `json:"meter_reader"`
	OnlineMeterUsed bool             `json:"online_meter_used"`
	QRNumber        string           `json:"qr_number"`
	PaidAt          *time.Time       `json:"paid_at,omitempty"`

	IsOverdue             bool            `json:"is_overdue"`
	DaysOverdue           int             `json:"days_overdue"`
	AutomaticPenalty      decimal.Decimal `json:"automatic_penalty"`
	AutomaticTotalPayable decimal.Decimal `json:"automatic_total_payable"`
	EffectiveTotalPayable decimal.Decimal `json:"effective_total_payable"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromView renders stored figures next to the live ones. The authorization
// code itself is never echoed.
func FromView(v service.BillView) BillResponse {
	b := v.Bill
	return BillResponse{
		BillID:       b.BillID,
		UserID:       b.BillUserID,
		WWSID:        b.BillWWSID,
		CustomerName: b.CustomerName(),
		ServiceClass: b.ServiceClass(),

		ReadingDate: b.BillReadingDate.Format(dbtime.DateLayout),
		DueDate:     b.BillDueDate.Format(dbtime.DateLayout),

		PreviousReading: b.BillPreviousReading,
		PresentReading:  b.BillPresentReading,
		Consumption:     b.BillConsumption,

		Amount:       b.BillAmount,
		Penalty:      b.BillPenalty,
		TotalPayable: b.BillTotalPayable,

		RestatedAmount:    b.BillRestatedAmount,
		RestatementReason: b.BillRestatementReason,
		RestatedAt:        b.BillRestatedAt,

		Status:          b.BillStatus,
		MeterReader:     b.BillMeterReader,
		OnlineMeterUsed: b.BillOnlineMeterUsed,
		QRNumber:        b.BillQRNumber,
		PaidAt:          b.BillPaidAt,

		IsOverdue:             v.IsOverdue,
		DaysOverdue:           v.DaysOverdue,
		AutomaticPenalty:      v.AutomaticPenalty,
		AutomaticTotalPayable: v.AutomaticTotalPayable,
		EffectiveTotalPayable: v.EffectiveTotalPayable,

		CreatedAt: b.BillCreatedAt,
		UpdatedAt: b.BillUpdatedAt,
	}
}

func FromViews(vs []service.BillView) []BillResponse {
	out := make([]BillResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, FromView(v))
	}
	return out
}
