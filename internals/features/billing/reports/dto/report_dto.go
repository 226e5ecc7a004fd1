package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"waterworks_backend/internals/features/billing/reports/service"
	"waterworks_backend/internals/helpers/dbtime"
)

/* ---------- delinquency ---------- */

type DelinquentCustomer struct {
	UserID           uuid.UUID       `json:"user_id"`
	WWSID            *string         `json:"wws_id,omitempty"`
	Name             string          `json:"name"`
	MeterReader      string          `json:"meter_reader"`
	Service          string          `json:"service"`
	MonthsDelinquent int             `json:"months_delinquent"`
	AmountPerMonth   decimal.Decimal `json:"amount_per_month"`
	TotalDue         decimal.Decimal `json:"total_due"`
}

type DelinquencyResponse struct {
	AsOf           string               `json:"as_of"`
	Customers      []DelinquentCustomer `json:"customers"`
	TotalCustomers int                  `json:"total_customers"`
	TotalDueAmount decimal.Decimal      `json:"total_due_amount"`
}

func FromDelinquency(r *service.DelinquencyReport) DelinquencyResponse {
	out := DelinquencyResponse{
		AsOf:           r.AsOf.Format(dbtime.DateLayout),
		Customers:      make([]DelinquentCustomer, 0, len(r.Customers)),
		TotalCustomers: len(r.Customers),
		TotalDueAmount: r.TotalDue,
	}
	for _, c := range r.Customers {
		out.Customers = append(out.Customers, DelinquentCustomer{
			UserID:           c.UserID,
			WWSID:            c.WWSID,
			Name:             c.Name,
			MeterReader:      c.MeterReader,
			Service:          c.Service,
			MonthsDelinquent: c.MonthsDelinquent,
			AmountPerMonth:   c.AmountPerMonth,
			TotalDue:         c.TotalDue,
		})
	}
	return out
}

/* ---------- collection ---------- */

type CollectionPeriod struct {
	Period             string          `json:"period"`
	PeriodKey          string          `json:"period_key"`
	TotalCollected     decimal.Decimal `json:"total_collected"`
	TotalCustomers     int             `json:"total_customers"`
	TotalTransactions  int             `json:"total_transactions"`
	OnlineCollections  decimal.Decimal `json:"online_collections"`
	CounterCollections decimal.Decimal `json:"counter_collections"`
	OnlineCount        int             `json:"online_count"`
	CounterCount       int             `json:"counter_count"`
}

type CollectionSummary struct {
	TotalCollected    decimal.Decimal `json:"total_collected"`
	TotalCustomers    int             `json:"total_customers"`
	TotalTransactions int             `json:"total_transactions"`
	StartDate         *string         `json:"start_date"`
	EndDate           *string         `json:"end_date"`
	ReportType        string          `json:"report_type"`
}

type CollectionResponse struct {
	Collections []CollectionPeriod `json:"collections"`
	Summary     CollectionSummary  `json:"summary"`
}

func fmtDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dbtime.DateLayout)
	return &s
}

func FromCollectionSummary(s service.CollectionSummary) CollectionSummary {
	return CollectionSummary{
		TotalCollected:    s.TotalCollected,
		TotalCustomers:    s.TotalCustomers,
		TotalTransactions: s.TotalTransactions,
		StartDate:         fmtDate(s.StartDate),
		EndDate:           fmtDate(s.EndDate),
		ReportType:        string(s.Granularity),
	}
}

func FromCollection(r *service.CollectionReport) CollectionResponse {
	out := CollectionResponse{
		Collections: make([]CollectionPeriod, 0, len(r.Periods)),
		Summary:     FromCollectionSummary(r.Summary),
	}
	for _, p := range r.Periods {
		out.Collections = append(out.Collections, CollectionPeriod{
			Period:             p.Period,
			PeriodKey:          p.PeriodKey,
			TotalCollected:     p.TotalCollected,
			TotalCustomers:     p.TotalCustomers,
			TotalTransactions:  p.TotalTransactions,
			OnlineCollections:  p.OnlineCollections,
			CounterCollections: p.CounterCollections,
			OnlineCount:        p.OnlineCount,
			CounterCount:       p.CounterCount,
		})
	}
	return out
}

/* ---------- usage ---------- */

type UsagePoint struct {
	Month       string          `json:"month"`
	ReadingDate string          `json:"reading_date"`
	Consumption decimal.Decimal `json:"consumption"`
	Amount      decimal.Decimal `json:"amount"`
}

type UsageStats struct {
	AverageConsumption decimal.Decimal `json:"average_consumption"`
	TotalConsumption   decimal.Decimal `json:"total_consumption"`
	HighestConsumption decimal.Decimal `json:"highest_consumption"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

type UsageResponse struct {
	Usage []UsagePoint `json:"usage"`
	Stats UsageStats   `json:"stats"`
}

func FromUsage(u *service.CustomerUsage) UsageResponse {
	out := UsageResponse{
		Usage: make([]UsagePoint, 0, len(u.Usage)),
		Stats: UsageStats{
			AverageConsumption: u.Stats.AverageConsumption,
			TotalConsumption:   u.Stats.TotalConsumption,
			HighestConsumption: u.Stats.HighestConsumption,
			TotalAmount:        u.Stats.TotalAmount,
		},
	}
	for _, p := range u.Usage {
		out.Usage = append(out.Usage, UsagePoint{
			Month:       p.Month,
			ReadingDate: p.ReadingDate.Format(dbtime.DateLayout),
			Consumption: p.Consumption,
			Amount:      p.Amount,
		})
	}
	return out
}

/* ---------- dashboard ---------- */

type DashboardResponse struct {
	AsOf                string            `json:"as_of"`
	Collection          CollectionSummary `json:"collection"`
	DelinquentCustomers int               `json:"delinquent_customers"`
	DelinquentTotal     decimal.Decimal   `json:"delinquent_total"`
}

func FromDashboard(d *service.DashboardSummary) DashboardResponse {
	return DashboardResponse{
		AsOf:                d.AsOf.Format(dbtime.DateLayout),
		Collection:          FromCollectionSummary(d.Collection),
		DelinquentCustomers: d.DelinquentCustomers,
		DelinquentTotal:     d.DelinquentTotal,
	}
}
