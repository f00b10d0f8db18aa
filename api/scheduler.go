/*
scheduler.go - Periodic stock audit

PURPOSE:
  Runs the consistency checker on a fixed interval so that a prod-mode
  divergence surfaces in the logs without anyone calling the health endpoint.
  The checker never writes; repairs stay an explicit rebuild.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Checks once immediately on start
  - Keeps the last report for status display
  - An interval of zero disables the scheduler

USAGE:
  scheduler := NewStockAuditScheduler(inv, 15*time.Minute, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - inventory/checker.go: Reconcile
  - handlers.go: StockHealth (on-demand check)
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/VincentYu328/luckystar-sub000/inventory"
)

// checkTimeout bounds one reconciliation run.
const checkTimeout = 30 * time.Second

// StockAuditScheduler periodically reconciles StockLevel against the ledger.
type StockAuditScheduler struct {
	Inventory     *inventory.Service
	CheckInterval time.Duration

	log    zerolog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	last    inventory.Report
	hasLast bool
	checks  int
}

// NewStockAuditScheduler creates a new scheduler.
func NewStockAuditScheduler(inv *inventory.Service, interval time.Duration, logger zerolog.Logger) *StockAuditScheduler {
	return &StockAuditScheduler{
		Inventory:     inv,
		CheckInterval: interval,
		log:           logger.With().Str("component", "stock_audit").Logger(),
	}
}

// Start begins the scheduler.
func (s *StockAuditScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CheckInterval <= 0 {
		s.log.Info().Msg("stock audit disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.stop)

	s.log.Info().Dur("interval", s.CheckInterval).Msg("stock audit started")
}

// Stop stops the scheduler and waits for a running check to finish. It is
// safe to call more than once, and Start may be called again afterwards.
func (s *StockAuditScheduler) Stop() {
	s.mu.Lock()
	ticker, stop := s.ticker, s.stop
	s.ticker, s.stop = nil, nil
	s.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	close(stop)
	s.wg.Wait()
	s.log.Info().Msg("stock audit stopped")
}

// LastReport returns the most recent report, if any check has completed.
func (s *StockAuditScheduler) LastReport() (inventory.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

func (s *StockAuditScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	s.check()

	for {
		select {
		case <-ticker.C:
			s.check()
		case <-stop:
			return
		}
	}
}

// check runs one audit. Divergence logging happens in ReconcileStock.
func (s *StockAuditScheduler) check() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	report, err := s.Inventory.ReconcileStock(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stock audit failed")
		return
	}

	s.mu.Lock()
	s.last, s.hasLast = report, true
	s.checks++
	s.mu.Unlock()

	s.log.Debug().
		Int("checked", report.Checked).
		Int("divergences", len(report.Divergences)).
		Str("mode", string(report.Mode)).
		Msg("stock audit complete")
}
