package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller re-checks online payments whose gateway confirmation never arrived.
type Poller struct {
	adapter  *Adapter
	interval time.Duration
	minAge   time.Duration
	batch    int
	log      *zap.Logger
}

func NewPoller(a *Adapter, interval time.Duration, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		adapter:  a,
		interval: interval,
		minAge:   2 * time.Minute,
		batch:    50,
		log:      log.Named("gateway_poller"),
	}
}

// Start runs the poll loop in the background until ctx is done. A zero
// interval disables it.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 {
		p.log.Info("payment status poller disabled")
		return
	}
	go func() {
		t := time.NewTicker(p.interval)
		defer t.Stop()
		p.log.Info("payment status poller started", zap.Duration("interval", p.interval))
		for {
			select {
			case <-ctx.Done():
				p.log.Info("payment status poller stopped")
				return
			case <-t.C:
				if _, err := p.RunOnce(ctx); err != nil {
					p.log.Error("poll run failed", zap.Error(err))
				}
			}
		}
	}()
}

// RunOnce checks one batch and returns how many payments reached a final state.
func (p *Poller) RunOnce(ctx context.Context) (int, error) {
	due := p.adapter.now().Add(-p.minAge)
	pending, err := p.adapter.payments.ListAwaitingGateway(ctx, due, p.batch)
	if err != nil {
		return 0, err
	}
	settled := 0
	for i := range pending {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		res, err := p.adapter.check(ctx, &pending[i])
		if err != nil {
			p.log.Warn("status check failed",
				zap.String("payment_id", pending[i].PaymentID.String()), zap.Error(err))
			continue
		}
		if res.Status.IsTerminal() {
			settled++
		}
	}
	if len(pending) > 0 {
		p.log.Info("poll run finished", zap.Int("checked", len(pending)), zap.Int("settled", settled))
	}
	return settled, nil
}
