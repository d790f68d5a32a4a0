package worker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/polkiloo/golightpay/internal/adapter/lightpay"
	"github.com/polkiloo/golightpay/internal/domain/model"
)

// SyncFacade exposes the subset of application functionality required by the worker.
type SyncFacade interface {
	InvoicesAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]model.PendingInvoice, error)
	FetchInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error)
	ReconcileEvent(ctx context.Context, evt model.WebhookEvent) error
	MarkInvoiceSynced(ctx context.Context, orderID int64, at time.Time) error
}

// InvoiceSyncer polls the processor for invoices of unpaid orders and feeds
// settled ones through the webhook reconciler. It covers missed deliveries.
// Every attempt stamps the order so the next batch starts with orders
// checked least recently.
type InvoiceSyncer struct {
	facade       SyncFacade
	pollInterval time.Duration
	minAge       time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger
	now          func() time.Time

	jobs   chan model.PendingInvoice
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex

	flightMu sync.Mutex
	inFlight map[int64]struct{}
}

// NewInvoiceSyncer constructs invoice sync worker pool. A non-positive
// pollInterval leaves the syncer disabled.
func NewInvoiceSyncer(facade SyncFacade, pollInterval, minAge time.Duration, batchSize, workers int, logger *slog.Logger) *InvoiceSyncer {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &InvoiceSyncer{
		facade:       facade,
		pollInterval: pollInterval,
		minAge:       minAge,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		now:          time.Now,
		jobs:         make(chan model.PendingInvoice, batchSize*workers),
		inFlight:     make(map[int64]struct{}),
	}
}

// Enabled reports whether Start launches any goroutines.
func (s *InvoiceSyncer) Enabled() bool {
	return s.pollInterval > 0
}

// Start launches background processing.
func (s *InvoiceSyncer) Start(ctx context.Context) {
	if !s.Enabled() {
		s.logger.Info("invoice sync disabled")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (s *InvoiceSyncer) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *InvoiceSyncer) dispatch(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.jobs)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchAndDispatch(ctx)
		}
	}
}

func (s *InvoiceSyncer) fetchAndDispatch(ctx context.Context) {
	pending, err := s.facade.InvoicesAwaitingPayment(ctx, s.now().Add(-s.minAge), s.batchSize)
	if err != nil {
		s.logger.Error("fetch invoices awaiting payment failed", slog.String("error", err.Error()))
		return
	}
	for _, p := range pending {
		if !s.claim(p.Order.ID) {
			continue
		}
		select {
		case <-ctx.Done():
			s.release(p.Order.ID)
			return
		case s.jobs <- p:
		}
	}
}

// claim reports false when the order is already queued or being synced.
func (s *InvoiceSyncer) claim(orderID int64) bool {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()
	if _, ok := s.inFlight[orderID]; ok {
		return false
	}
	s.inFlight[orderID] = struct{}{}
	return true
}

func (s *InvoiceSyncer) release(orderID int64) {
	s.flightMu.Lock()
	delete(s.inFlight, orderID)
	s.flightMu.Unlock()
}

func (s *InvoiceSyncer) finish(ctx context.Context, p model.PendingInvoice) {
	defer s.release(p.Order.ID)
	if ctx.Err() != nil {
		return
	}
	if err := s.facade.MarkInvoiceSynced(ctx, p.Order.ID, s.now()); err != nil {
		s.logger.Warn("invoice sync time not saved",
			slog.Int64("order_id", p.Order.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *InvoiceSyncer) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-s.jobs:
			if !ok {
				return
			}
			s.sync(ctx, p)
		}
	}
}

func (s *InvoiceSyncer) sync(ctx context.Context, p model.PendingInvoice) {
	defer s.finish(ctx, p)

	invoice, err := s.facade.FetchInvoice(ctx, p.InvoiceID)
	if err != nil {
		var apiErr *lightpay.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			s.logger.Warn("processor rate limited invoice sync", slog.Duration("backoff", s.pollInterval))
			s.sleep(ctx, s.pollInterval)
			return
		}
		s.logger.Error("invoice fetch failed",
			slog.Int64("order_id", p.Order.ID),
			slog.String("invoice_id", p.InvoiceID),
			slog.String("error", err.Error()),
		)
		return
	}

	var eventType model.EventType
	switch invoice.Status {
	case model.InvoiceStatusPaid:
		eventType = model.EventInvoicePaid
	case model.InvoiceStatusExpired:
		eventType = model.EventInvoiceExpired
	default:
		return
	}

	evt := model.WebhookEvent{
		Type:      eventType,
		InvoiceID: p.InvoiceID,
		Timestamp: s.now(),
	}
	if err := s.facade.ReconcileEvent(ctx, evt); err != nil {
		s.logger.Error("reconcile synced invoice failed",
			slog.Int64("order_id", p.Order.ID),
			slog.String("invoice_id", p.InvoiceID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *InvoiceSyncer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
