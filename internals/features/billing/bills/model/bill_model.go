package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusPaid      BillStatus = "paid"
	BillStatusOverdue   BillStatus = "overdue"
	BillStatusCancelled BillStatus = "cancelled"
)

func (s BillStatus) Valid() bool {
	switch s {
	case BillStatusPending, BillStatusPaid, BillStatusOverdue, BillStatusCancelled:
		return true
	}
	return false
}

/*
bills = one meter-reading cycle for one customer.
  - amounts are numeric(10,2); consumption = present - previous
  - total_payable = amount + penalty, overwritten by a restatement
  - automatic penalty / effective total are derived at read time, never stored
*/
type Bill struct {
	BillID uuid.UUID `gorm:"column:bill_id;type:uuid;default:gen_random_uuid();primaryKey" json:"bill_id"`

	BillUserID uuid.UUID `gorm:"column:bill_user_id;type:uuid;not null;index:idx_bills_user_status,priority:1" json:"bill_user_id"`
	BillWWSID  *string   `gorm:"column:bill_wws_id;type:varchar(50)" json:"bill_wws_id,omitempty"`

	// snapshot of the customer at issue time (identity store is external)
	BillCustomerNameSnapshot *string `gorm:"column:bill_customer_name_snapshot;type:varchar(255)" json:"bill_customer_name_snapshot,omitempty"`
	BillServiceClassSnapshot *string `gorm:"column:bill_service_class_snapshot;type:varchar(50)" json:"bill_service_class_snapshot,omitempty"`

	BillReadingDate time.Time `gorm:"column:bill_reading_date;type:date;not null" json:"bill_reading_date"`
	BillDueDate     time.Time `gorm:"column:bill_due_date;type:date;not null;index" json:"bill_due_date"`

	BillPreviousReading decimal.Decimal `gorm:"column:bill_previous_reading;type:numeric(10,2);not null" json:"bill_previous_reading"`
	BillPresentReading  decimal.Decimal `gorm:"column:bill_present_reading;type:numeric(10,2);not null" json:"bill_present_reading"`
	BillConsumption     decimal.Decimal `gorm:"column:bill_consumption;type:numeric(10,2);not null" json:"bill_consumption"`

	BillAmount       decimal.Decimal `gorm:"column:bill_amount;type:numeric(10,2);not null" json:"bill_amount"`
	BillPenalty      decimal.Decimal `gorm:"column:bill_penalty;type:numeric(10,2);not null;default:0" json:"bill_penalty"`
	BillTotalPayable decimal.Decimal `gorm:"column:bill_total_payable;type:numeric(10,2);not null" json:"bill_total_payable"`

	// restatement (null = never restated)
	BillRestatedAmount     decimal.NullDecimal `gorm:"column:bill_restated_amount;type:numeric(10,2)" json:"bill_restated_amount"`
	BillRestatementReason  *string             `gorm:"column:bill_restatement_reason;type:varchar(500)" json:"bill_restatement_reason,omitempty"`
	BillAuthorizationCode  *string             `gorm:"column:bill_authorization_code;type:varchar(50)" json:"bill_authorization_code,omitempty"`
	BillRestatedAt         *time.Time          `gorm:"column:bill_restated_at" json:"bill_restated_at,omitempty"`

	BillStatus BillStatus `gorm:"column:bill_status;type:varchar(20);not null;default:'pending';index:idx_bills_user_status,priority:2" json:"bill_status"`

	BillMeterReader     string     `gorm:"column:bill_meter_reader;type:varchar(255);not null" json:"bill_meter_reader"`
	BillOnlineMeterUsed bool       `gorm:"column:bill_online_meter_used;not null;default:false" json:"bill_online_meter_used"`
	BillPaidAt          *time.Time `gorm:"column:bill_paid_at" json:"bill_paid_at,omitempty"`
	BillQRNumber        string     `gorm:"column:bill_qr_number;type:varchar(50);uniqueIndex" json:"bill_qr_number"`

	BillCreatedAt time.Time `gorm:"column:bill_created_at;autoCreateTime" json:"bill_created_at"`
	BillUpdatedAt time.Time `gorm:"column:bill_updated_at;autoUpdateTime" json:"bill_updated_at"`
}

func (Bill) TableName() string { return "bills" }

func (b *Bill) IsPaid() bool { return b.BillStatus == BillStatusPaid }

// IsPayable: only open bills accept new payment attempts.
func (b *Bill) IsPayable() bool {
	return b.BillStatus == BillStatusPending || b.BillStatus == BillStatusOverdue
}

func (b *Bill) IsRestated() bool { return b.BillRestatedAmount.Valid }

func (b *Bill) ServiceClass() string {
	if b.BillServiceClassSnapshot == nil || *b.BillServiceClassSnapshot == "" {
		return "RESIDENTIAL"
	}
	return *b.BillServiceClassSnapshot
}

func (b *Bill) CustomerName() string {
	if b.BillCustomerNameSnapshot == nil || *b.BillCustomerNameSnapshot == "" {
		return "Unknown Customer"
	}
	return *b.BillCustomerNameSnapshot
}
