package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/polkiloo/golightpay/internal/cache"
	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/domain/repository"
	"github.com/polkiloo/golightpay/internal/metrics"
)

// Outcome tells the caller what a reconciled event did to local state.
type Outcome string

const (
	OutcomeTransitioned  Outcome = "transitioned"
	OutcomeNoop          Outcome = "noop"
	OutcomeOrderNotFound Outcome = "order_not_found"
	OutcomeIgnored       Outcome = "ignored"
	OutcomeDuplicate     Outcome = "duplicate"
)

// awaitingPayment are the only statuses a webhook may move an order out of.
var awaitingPayment = []model.OrderStatus{model.OrderStatusPending, model.OrderStatusOnHold}

// EventHandler applies a verified event to the order it references.
type EventHandler interface {
	OnInvoicePaid(ctx context.Context, order *model.Order, evt model.WebhookEvent) (Outcome, error)
	OnInvoiceExpired(ctx context.Context, order *model.Order, evt model.WebhookEvent) (Outcome, error)
	OnUnknownEvent(ctx context.Context, order *model.Order, evt model.WebhookEvent) (Outcome, error)
}

// EventLog remembers handled event IDs.
type EventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID string) error
}

// Reconciler maps webhook events onto order state.
type Reconciler struct {
	orders  repository.OrderRepository
	handler EventHandler
	events  EventLog
	logger  *slog.Logger
}

// NewReconciler builds a Reconciler. events may be nil to disable event-ID dedup.
func NewReconciler(orders repository.OrderRepository, handler EventHandler, events EventLog, logger *slog.Logger) *Reconciler {
	return &Reconciler{orders: orders, handler: handler, events: events, logger: logger}
}

// Handle validates evt, finds its order and dispatches it. An event whose invoice
// is not linked to any local order is acknowledged with OutcomeOrderNotFound.
func (r *Reconciler) Handle(ctx context.Context, evt model.WebhookEvent) (Outcome, error) {
	if strings.TrimSpace(string(evt.Type)) == "" {
		return "", domainErrors.ErrMissingEventType
	}
	if strings.TrimSpace(evt.InvoiceID) == "" {
		return "", domainErrors.ErrMissingInvoiceID
	}

	label := eventLabel(evt.Type)
	log := r.logger.With(
		slog.String("event", string(evt.Type)),
		slog.String("event_id", evt.ID),
		slog.String("invoice_id", evt.InvoiceID),
	)

	if r.seen(ctx, evt, log) {
		log.Info("duplicate webhook event acknowledged")
		metrics.IncOrderTransition(label, string(OutcomeDuplicate))
		return OutcomeDuplicate, nil
	}

	order, err := r.orders.FindByMeta(ctx, model.MetaInvoiceID, evt.InvoiceID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			log.Warn("order not found for invoice")
			metrics.IncOrderTransition(label, string(OutcomeOrderNotFound))
			return OutcomeOrderNotFound, nil
		}
		metrics.IncOrderTransition(label, "error")
		return "", fmt.Errorf("find order for invoice %s: %w", evt.InvoiceID, err)
	}

	var outcome Outcome
	switch evt.Type {
	case model.EventInvoicePaid:
		outcome, err = r.handler.OnInvoicePaid(ctx, order, evt)
	case model.EventInvoiceExpired:
		outcome, err = r.handler.OnInvoiceExpired(ctx, order, evt)
	default:
		outcome, err = r.handler.OnUnknownEvent(ctx, order, evt)
	}
	if err != nil {
		metrics.IncOrderTransition(label, "error")
		return "", err
	}

	r.record(ctx, evt, log)
	metrics.IncOrderTransition(label, string(outcome))
	log.Info("webhook event reconciled", slog.Int64("order_id", order.ID), slog.String("outcome", string(outcome)))
	return outcome, nil
}

// seen treats a failing event log as "not seen"; status guards still hold.
func (r *Reconciler) seen(ctx context.Context, evt model.WebhookEvent, log *slog.Logger) bool {
	if r.events == nil || evt.ID == "" {
		return false
	}
	ok, err := r.events.Seen(ctx, evt.ID)
	if err != nil {
		log.Warn("event log lookup failed", slog.Any("error", err))
		return false
	}
	return ok
}

func (r *Reconciler) record(ctx context.Context, evt model.WebhookEvent, log *slog.Logger) {
	if r.events == nil || evt.ID == "" {
		return
	}
	if err := r.events.Record(ctx, evt.ID); err != nil {
		log.Warn("event log write failed", slog.Any("error", err))
	}
}

func eventLabel(t model.EventType) string {
	switch t {
	case model.EventInvoicePaid, model.EventInvoiceExpired:
		return string(t)
	default:
		return "other"
	}
}

// OrderTransitions is the EventHandler backed by the order store.
type OrderTransitions struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewOrderTransitions constructs OrderTransitions.
func NewOrderTransitions(orders repository.OrderRepository, logger *slog.Logger) *OrderTransitions {
	return &OrderTransitions{orders: orders, logger: logger}
}

// OnInvoicePaid moves a pending or on-hold order to processing.
func (t *OrderTransitions) OnInvoicePaid(ctx context.Context, order *model.Order, evt model.WebhookEvent) (Outcome, error) {
	note := fmt.Sprintf("LightPay payment received for invoice %s", evt.InvoiceID)
	return t.transition(ctx, order, model.OrderStatusProcessing, note)
}

// OnInvoiceExpired cancels a pending or on-hold order. Paid orders are left alone.
func (t *OrderTransitions) OnInvoiceExpired(ctx context.Context, order *model.Order, evt model.WebhookEvent) (Outcome, error) {
	note := fmt.Sprintf("LightPay payment expired for invoice %s", evt.InvoiceID)
	return t.transition(ctx, order, model.OrderStatusCancelled, note)
}

// OnUnknownEvent acknowledges event types this service does not act on.
func (t *OrderTransitions) OnUnknownEvent(_ context.Context, order *model.Order, evt model.WebhookEvent) (Outcome, error) {
	t.logger.Info("unhandled webhook event type",
		slog.String("event", string(evt.Type)),
		slog.Int64("order_id", order.ID),
	)
	return OutcomeIgnored, nil
}

func (t *OrderTransitions) transition(ctx context.Context, order *model.Order, to model.OrderStatus, note string) (Outcome, error) {
	moved, err := t.orders.TransitionStatus(ctx, order.ID, awaitingPayment, to, note)
	if err != nil {
		return "", fmt.Errorf("move order %d to %s: %w", order.ID, to, err)
	}
	if !moved {
		t.logger.Info("order not awaiting payment, status kept",
			slog.Int64("order_id", order.ID),
			slog.String("status", string(order.Status)),
			slog.String("target", string(to)),
		)
		return OutcomeNoop, nil
	}
	return OutcomeTransitioned, nil
}

// CacheEventLog keeps handled event IDs in the cache for ttl.
type CacheEventLog struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewCacheEventLog constructs CacheEventLog.
func NewCacheEventLog(c cache.Cache, ttl time.Duration) *CacheEventLog {
	return &CacheEventLog{cache: c, ttl: ttl}
}

func eventKey(eventID string) string {
	return "lightpay:event:" + eventID
}

// Seen reports whether eventID was recorded within ttl.
func (l *CacheEventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := l.cache.Get(ctx, eventKey(eventID))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record marks eventID as handled. Recording an already known ID is not an error.
func (l *CacheEventLog) Record(ctx context.Context, eventID string) error {
	_, err := l.cache.SetNX(ctx, eventKey(eventID), time.Now().UTC().Format(time.RFC3339), l.ttl)
	return err
}
