// Package billing assembles the bill ledger, payment processor, gateway
// adapter and reporting services into one dependency graph.
package billing

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"waterworks_backend/internals/databases/txn"
	authrepo "waterworks_backend/internals/features/billing/authcodes/repository"
	authsvc "waterworks_backend/internals/features/billing/authcodes/service"
	billrepo "waterworks_backend/internals/features/billing/bills/repository"
	billsvc "waterworks_backend/internals/features/billing/bills/service"
	"waterworks_backend/internals/features/billing/events"
	gwrepo "waterworks_backend/internals/features/billing/gateway/repository"
	gwsvc "waterworks_backend/internals/features/billing/gateway/service"
	payrepo "waterworks_backend/internals/features/billing/payments/repository"
	paysvc "waterworks_backend/internals/features/billing/payments/service"
	reportsvc "waterworks_backend/internals/features/billing/reports/service"
	"waterworks_backend/internals/metrics"
	"waterworks_backend/internals/mq"
	"waterworks_backend/internals/mq/noop"
)

type Repositories struct {
	Bills         billrepo.BillRepository
	Payments      payrepo.PaymentRepository
	Codes         authrepo.AuthorizationCodeRepository
	GatewayEvents gwrepo.GatewayEventRepository
	Tx            txn.Manager
}

func GormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Bills:         billrepo.NewGormBillRepository(db),
		Payments:      payrepo.NewGormPaymentRepository(db),
		Codes:         authrepo.NewGormAuthorizationCodeRepository(db),
		GatewayEvents: gwrepo.NewGormGatewayEventRepository(db),
		Tx:            txn.NewGormManager(db),
	}
}

// Options carries the optional collaborators. Nil clients disable that
// gateway; a nil publisher drops domain events.
type Options struct {
	Gateway      gwsvc.Config
	PayMongo     gwsvc.Client
	Midtrans     gwsvc.Client
	Deduper      gwsvc.Deduper
	Publisher    mq.Publisher
	Metrics      *metrics.BillingMetrics
	PollInterval time.Duration
	Log          *zap.Logger
}

type Services struct {
	Guard      *authsvc.Guard
	Ledger     *billsvc.Ledger
	Processor  *paysvc.Processor
	Adapter    *gwsvc.Adapter
	Aggregator *reportsvc.Aggregator
	Poller     *gwsvc.Poller
	Events     *events.Emitter
}

func NewServices(repos Repositories, opts Options) *Services {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	pub := opts.Publisher
	if pub == nil {
		pub = noop.NewPublisher()
	}

	emitter := events.NewEmitter(pub, log)
	guard := authsvc.NewGuard(repos.Codes, log)
	ledger := billsvc.NewLedger(repos.Bills, guard, repos.Tx, emitter, opts.Metrics, log)
	processor := paysvc.NewProcessor(repos.Payments, ledger, repos.Tx, emitter, opts.Metrics, log)

	adapter := gwsvc.NewAdapter(opts.Gateway, repos.Payments, processor, repos.GatewayEvents, opts.Metrics, log).
		WithDeduper(opts.Deduper)
	if opts.PayMongo != nil {
		adapter.WithPayMongo(opts.PayMongo)
	}
	if opts.Midtrans != nil {
		adapter.WithMidtrans(opts.Midtrans)
	}
	processor.UseDispatcher(adapter)

	return &Services{
		Guard:      guard,
		Ledger:     ledger,
		Processor:  processor,
		Adapter:    adapter,
		Aggregator: reportsvc.NewAggregator(repos.Bills, repos.Payments, log),
		Poller:     gwsvc.NewPoller(adapter, opts.PollInterval, log),
		Events:     emitter,
	}
}
