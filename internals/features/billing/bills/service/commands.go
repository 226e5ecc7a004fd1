package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"waterworks_backend/internals/helpers/apperr"
)

// BillFields is the validated input for createBill / updateBill.
type BillFields struct {
	UserID          uuid.UUID
	WWSID           *string
	CustomerName    *string
	ServiceClass    *string
	ReadingDate     time.Time
	DueDate         time.Time
	PreviousReading decimal.Decimal
	PresentReading  decimal.Decimal
	Amount          decimal.Decimal
	Penalty         *decimal.Decimal
	MeterReader     string
	OnlineMeterUsed bool
}

func (f BillFields) Validate() error {
	errs := map[string][]string{}
	add := func(field, msg string) { errs[field] = append(errs[field], msg) }

	if f.UserID == uuid.Nil {
		add("user_id", "The user id field is required.")
	}
	if f.ReadingDate.IsZero() {
		add("reading_date", "The reading date field is required.")
	}
	if f.DueDate.IsZero() {
		add("due_date", "The due date field is required.")
	} else if !f.ReadingDate.IsZero() && !f.DueDate.After(f.ReadingDate) {
		add("due_date", "The due date must be a date after reading date.")
	}
	if f.PreviousReading.IsNegative() {
		add("previous_reading", "The previous reading must be at least 0.")
	}
	if f.PresentReading.LessThan(f.PreviousReading) {
		add("present_reading", "The present reading must be greater than or equal to previous reading.")
	}
	if f.Amount.IsNegative() {
		add("amount", "The amount must be at least 0.")
	}
	if f.Penalty != nil && f.Penalty.IsNegative() {
		add("penalty", "The penalty must be at least 0.")
	}
	mr := strings.TrimSpace(f.MeterReader)
	switch {
	case mr == "":
		add("meter_reader", "The meter reader field is required.")
	case len(mr) > 255:
		add("meter_reader", "The meter reader may not be greater than 255 characters.")
	}

	if len(errs) > 0 {
		return apperr.Validation("The given data was invalid.", errs)
	}
	return nil
}

func (f BillFields) penalty() decimal.Decimal {
	if f.Penalty == nil {
		return decimal.Zero
	}
	return *f.Penalty
}

// RestateBillCommand overrides a bill's payable amount under an authorization code.
type RestateBillCommand struct {
	BillID         uuid.UUID
	RestatedAmount decimal.Decimal
	Reason         string
	Code           string
	RestatedBy     uuid.UUID
}

func (c RestateBillCommand) Validate() error {
	errs := map[string][]string{}
	if c.RestatedAmount.IsNegative() {
		errs["restated_amount"] = []string{"The restated amount must be at least 0."}
	}
	reason := strings.TrimSpace(c.Reason)
	switch {
	case reason == "":
		errs["restatement_reason"] = []string{"The restatement reason field is required."}
	case len([]rune(reason)) > 500:
		errs["restatement_reason"] = []string{"The restatement reason may not be greater than 500 characters."}
	}
	code := strings.TrimSpace(c.Code)
	switch {
	case code == "":
		errs["authorization_code"] = []string{"The authorization code field is required."}
	case len(code) > 50:
		errs["authorization_code"] = []string{"The authorization code may not be greater than 50 characters."}
	}
	if len(errs) > 0 {
		return apperr.Validation("The given data was invalid.", errs)
	}
	return nil
}
