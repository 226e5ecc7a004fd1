package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	billmodel "waterworks_backend/internals/features/billing/bills/model"
	paymodel "waterworks_backend/internals/features/billing/payments/model"
	"waterworks_backend/internals/helpers/apperr"
	"waterworks_backend/internals/helpers/money"
)

type BillSource interface {
	ListOpenDueBy(ctx context.Context, asOf time.Time) ([]billmodel.Bill, error)
	ListForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]billmodel.Bill, error)
}

type PaymentSource interface {
	ListCompleted(ctx context.Context, from, to *time.Time) ([]paymodel.Payment, error)
}

// Aggregator derives read-only reports from bills and payments.
type Aggregator struct {
	bills    BillSource
	payments PaymentSource
	now      func() time.Time
	log      *zap.Logger
}

func NewAggregator(bills BillSource, payments PaymentSource, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{bills: bills, payments: payments, now: time.Now, log: log.Named("reports")}
}

func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

/* ---------- delinquency ---------- */

type CustomerDelinquency struct {
	UserID           uuid.UUID
	WWSID            *string
	Name             string
	MeterReader      string
	Service          string
	MonthsDelinquent int
	AmountPerMonth   decimal.Decimal
	TotalDue         decimal.Decimal
}

type DelinquencyReport struct {
	AsOf      time.Time
	Customers []CustomerDelinquency
	TotalDue  decimal.Decimal
}

// storedDue is the amount a delinquent bill counts for. It reads the stored
// columns, not the live overdue penalty, so historical totals stay stable.
func storedDue(b *billmodel.Bill) decimal.Decimal {
	if b.BillRestatedAmount.Valid {
		return b.BillRestatedAmount.Decimal
	}
	if b.BillTotalPayable.IsPositive() {
		return b.BillTotalPayable
	}
	return b.BillAmount.Add(b.BillPenalty)
}

// DelinquencyReport groups open bills due on or before asOf by customer.
func (a *Aggregator) DelinquencyReport(ctx context.Context, asOf time.Time) (*DelinquencyReport, error) {
	if asOf.IsZero() {
		asOf = a.now()
	}
	bills, err := a.bills.ListOpenDueBy(ctx, endOfDay(asOf))
	if err != nil {
		return nil, err
	}

	type group struct {
		latest *billmodel.Bill
		total  decimal.Decimal
		count  int
	}
	groups := map[uuid.UUID]*group{}
	var order []uuid.UUID
	for i := range bills {
		b := &bills[i]
		g, ok := groups[b.BillUserID]
		if !ok {
			g = &group{}
			groups[b.BillUserID] = g
			order = append(order, b.BillUserID)
		}
		if g.latest == nil || b.BillDueDate.After(g.latest.BillDueDate) {
			g.latest = b
		}
		g.total = g.total.Add(storedDue(b))
		g.count++
	}

	rep := &DelinquencyReport{AsOf: asOf, TotalDue: decimal.Zero}
	for _, uid := range order {
		g := groups[uid]
		row := CustomerDelinquency{
			UserID:           uid,
			WWSID:            g.latest.BillWWSID,
			Name:             g.latest.CustomerName(),
			MeterReader:      g.latest.BillMeterReader,
			Service:          strings.ToUpper(g.latest.ServiceClass()),
			MonthsDelinquent: g.count,
			TotalDue:         money.Round2(g.total),
			AmountPerMonth:   decimal.Zero,
		}
		if g.count > 0 {
			row.AmountPerMonth = money.Round2(g.total.Div(decimal.NewFromInt(int64(g.count))))
		}
		rep.Customers = append(rep.Customers, row)
		rep.TotalDue = rep.TotalDue.Add(row.TotalDue)
	}
	sort.SliceStable(rep.Customers, func(i, j int) bool {
		ci, cj := rep.Customers[i], rep.Customers[j]
		if !ci.TotalDue.Equal(cj.TotalDue) {
			return ci.TotalDue.GreaterThan(cj.TotalDue)
		}
		return ci.Name < cj.Name
	})
	rep.TotalDue = money.Round2(rep.TotalDue)
	return rep, nil
}

/* ---------- collection ---------- */

type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
	GranularityNone    Granularity = "none"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityMonthly, nil
	case GranularityDaily, GranularityMonthly, GranularityNone:
		return g, nil
	}
	return "", apperr.Field("report_type", "The selected report type is invalid.")
}

type CollectionPeriod struct {
	Period             string
	PeriodKey          string
	TotalCollected     decimal.Decimal
	TotalCustomers     int
	TotalTransactions  int
	OnlineCollections  decimal.Decimal
	CounterCollections decimal.Decimal
	OnlineCount        int
	CounterCount       int
}

type CollectionSummary struct {
	TotalCollected    decimal.Decimal
	TotalCustomers    int
	TotalTransactions int
	StartDate         *time.Time
	EndDate           *time.Time
	Granularity       Granularity
}

type CollectionReport struct {
	Periods []CollectionPeriod
	Summary CollectionSummary
}

type CollectionQuery struct {
	Start       *time.Time
	End         *time.Time
	Granularity Granularity
}

func (q CollectionQuery) Validate() error {
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return apperr.Field("end_date", "The end date must be a date after or equal to start date.")
	}
	return nil
}

// CollectionReport aggregates completed payments by period, newest first.
func (a *Aggregator) CollectionReport(ctx context.Context, q CollectionQuery) (*CollectionReport, error) {
	if q.Granularity == "" {
		q.Granularity = GranularityMonthly
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var from, to *time.Time
	if q.Start != nil {
		s := startOfDay(*q.Start)
		from = &s
	}
	if q.End != nil {
		e := endOfDay(*q.End)
		to = &e
	}
	payments, err := a.payments.ListCompleted(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rep := &CollectionReport{
		Summary: CollectionSummary{
			TotalCollected:    sumPaid(payments),
			TotalCustomers:    uniqueCustomers(payments),
			TotalTransactions: len(payments),
			StartDate:         q.Start,
			EndDate:           q.End,
			Granularity:       q.Granularity,
		},
	}

	if q.Granularity == GranularityNone {
		startLabel, endLabel := "Earliest Record", "Latest Record"
		startKey, endKey := "all", "latest"
		if q.Start != nil {
			startLabel, startKey = q.Start.Format("Jan 02, 2006"), q.Start.Format("2006-01-02")
		}
		if q.End != nil {
			endLabel, endKey = q.End.Format("Jan 02, 2006"), q.End.Format("2006-01-02")
		}
		rep.Periods = []CollectionPeriod{period(startLabel+" - "+endLabel, startKey+"_"+endKey, payments)}
		return rep, nil
	}

	keyFmt, labelFmt := "2006-01", "January 2006"
	if q.Granularity == GranularityDaily {
		keyFmt, labelFmt = "2006-01-02", "Jan 02, 2006"
	}
	buckets := map[string][]paymodel.Payment{}
	labels := map[string]string{}
	for _, p := range payments {
		k := p.PaymentDate.Format(keyFmt)
		buckets[k] = append(buckets[k], p)
		labels[k] = p.PaymentDate.Format(labelFmt)
	}
	for k, ps := range buckets {
		rep.Periods = append(rep.Periods, period(labels[k], k, ps))
	}
	sort.Slice(rep.Periods, func(i, j int) bool { return rep.Periods[i].PeriodKey > rep.Periods[j].PeriodKey })
	return rep, nil
}

func period(label, key string, ps []paymodel.Payment) CollectionPeriod {
	out := CollectionPeriod{
		Period:             label,
		PeriodKey:          key,
		TotalCollected:     sumPaid(ps),
		TotalCustomers:     uniqueCustomers(ps),
		TotalTransactions:  len(ps),
		OnlineCollections:  decimal.Zero,
		CounterCollections: decimal.Zero,
	}
	for _, p := range ps {
		switch p.PaymentMethod {
		case paymodel.PaymentMethodOnline:
			out.OnlineCollections = out.OnlineCollections.Add(p.PaymentAmountPaid)
			out.OnlineCount++
		case paymodel.PaymentMethodOverTheCounter:
			out.CounterCollections = out.CounterCollections.Add(p.PaymentAmountPaid)
			out.CounterCount++
		}
	}
	out.OnlineCollections = money.Round2(out.OnlineCollections)
	out.CounterCollections = money.Round2(out.CounterCollections)
	return out
}

func sumPaid(ps []paymodel.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.PaymentAmountPaid)
	}
	return money.Round2(total)
}

func uniqueCustomers(ps []paymodel.Payment) int {
	seen := make(map[uuid.UUID]struct{}, len(ps))
	for _, p := range ps {
		seen[p.PaymentUserID] = struct{}{}
	}
	return len(seen)
}

/* ---------- customer usage ---------- */

type UsagePoint struct {
	Month       string
	ReadingDate time.Time
	Consumption decimal.Decimal
	Amount      decimal.Decimal
}

type UsageStats struct {
	AverageConsumption decimal.Decimal
	TotalConsumption   decimal.Decimal
	HighestConsumption decimal.Decimal
	TotalAmount        decimal.Decimal
}

type CustomerUsage struct {
	Usage []UsagePoint
	Stats UsageStats
}

// CustomerUsage returns the last twelve months of readings, oldest first.
func (a *Aggregator) CustomerUsage(ctx context.Context, userID uuid.UUID) (*CustomerUsage, error) {
	bills, err := a.bills.ListForUserSince(ctx, userID, a.now().AddDate(0, -12, 0))
	if err != nil {
		return nil, err
	}
	out := &CustomerUsage{Usage: make([]UsagePoint, 0, len(bills))}
	st := UsageStats{
		AverageConsumption: decimal.Zero,
		TotalConsumption:   decimal.Zero,
		HighestConsumption: decimal.Zero,
		TotalAmount:        decimal.Zero,
	}
	for _, b := range bills {
		out.Usage = append(out.Usage, UsagePoint{
			Month:       b.BillReadingDate.Format("Jan 2006"),
			ReadingDate: b.BillReadingDate,
			Consumption: b.BillConsumption,
			Amount:      b.BillAmount,
		})
		st.TotalConsumption = st.TotalConsumption.Add(b.BillConsumption)
		st.TotalAmount = st.TotalAmount.Add(b.BillAmount)
		if b.BillConsumption.GreaterThan(st.HighestConsumption) {
			st.HighestConsumption = b.BillConsumption
		}
	}
	if n := len(bills); n > 0 {
		st.AverageConsumption = money.Round2(st.TotalConsumption.Div(decimal.NewFromInt(int64(n))))
	}
	out.Stats = st
	return out, nil
}

/* ---------- dashboard ---------- */

type DashboardSummary struct {
	AsOf                time.Time
	Collection          CollectionSummary
	DelinquentCustomers int
	DelinquentTotal     decimal.Decimal
}

// DashboardSummary computes this month's collection and the delinquency
// totals concurrently.
func (a *Aggregator) DashboardSummary(ctx context.Context, asOf time.Time) (*DashboardSummary, error) {
	if asOf.IsZero() {
		asOf = a.now()
	}
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())

	var (
		col *CollectionReport
		del *DelinquencyReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		col, err = a.CollectionReport(gctx, CollectionQuery{Start: &monthStart, End: &asOf, Granularity: GranularityNone})
		return err
	})
	g.Go(func() error {
		var err error
		del, err = a.DelinquencyReport(gctx, asOf)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Error("dashboard summary failed", zap.Error(err))
		return nil, err
	}
	return &DashboardSummary{
		AsOf:                asOf,
		Collection:          col.Summary,
		DelinquentCustomers: len(del.Customers),
		DelinquentTotal:     del.TotalDue,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
