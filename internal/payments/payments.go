// Package payments handles the two payment-provider touch points: the
// asynchronous "payment completed" notification that grants credits, and the
// synchronous checkout consumption when a job advertisement is submitted.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/credits"
	"github.com/jonathan/adwriter/internal/docstore"
	"github.com/jonathan/adwriter/internal/events"
	"github.com/jonathan/adwriter/internal/jobs"
	"github.com/jonathan/adwriter/internal/tenant"
	"github.com/jonathan/adwriter/internal/types"
)

// CheckoutInitiator is the synchronous boundary to the external payment
// provider. Implementations redirect the buyer to the provider's checkout.
type CheckoutInitiator interface {
	InitiateCheckout(ctx context.Context, tenantKey string, kind types.ServiceKind, amount int) (redirectURL string, err error)
}

// CompletedEvent is the provider's asynchronous payment notification.
type CompletedEvent struct {
	EventID         string `json:"event_id"`
	TenantKey       string `json:"tenant_key"`
	SelectedService string `json:"selected_service"`
	SelectedAmount  int    `json:"selected_amount"`
}

// eventMarker is the idempotency record persisted per completed payment.
type eventMarker struct {
	EventID    string    `json:"event_id"`
	Service    string    `json:"service"`
	Amount     int       `json:"amount"`
	ReceivedAt time.Time `json:"received_at"`
}

// Processor applies completed-payment events exactly once per event id.
type Processor struct {
	store  docstore.Store
	ledger *credits.Ledger
	events *events.Producer
	log    *zap.Logger
}

// NewProcessor creates a payment processor. producer may be nil.
func NewProcessor(store docstore.Store, ledger *credits.Ledger, producer *events.Producer, log *zap.Logger) *Processor {
	return &Processor{store: store, ledger: ledger, events: producer, log: log.Named("payments")}
}

// HandleCompleted increments the purchased credit counter once per distinct
// event. Replayed notifications are detected through a create-only marker
// document and skipped.
func (p *Processor) HandleCompleted(ctx context.Context, ev CompletedEvent) error {
	if ev.EventID == "" {
		return fmt.Errorf("payment event has no id")
	}
	kind := types.ServiceKind(ev.SelectedService)
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", credits.ErrUnknownService, ev.SelectedService)
	}
	if ev.SelectedAmount <= 0 {
		return fmt.Errorf("payment event %s has non-positive amount %d", ev.EventID, ev.SelectedAmount)
	}
	if strings.TrimSpace(ev.TenantKey) == "" {
		return fmt.Errorf("payment event %s has no tenant", ev.EventID)
	}
	// The provider echoes back the subject we passed at checkout time; run
	// it through the same encoding so the grant lands on the partition the
	// resolver would pick for that subject.
	tenantKey := tenant.Sanitize(ev.TenantKey)

	body, err := json.Marshal(eventMarker{
		EventID:    ev.EventID,
		Service:    ev.SelectedService,
		Amount:     ev.SelectedAmount,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode payment marker: %w", err)
	}
	marker := &docstore.Document{
		TenantKey: tenantKey,
		Kind:      docstore.EventKind(ev.EventID),
		Body:      body,
	}
	if err := p.store.Put(ctx, marker); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			p.log.Info("duplicate payment event ignored",
				zap.String("tenant", tenantKey), zap.String("event_id", ev.EventID))
			return nil
		}
		return err
	}

	if _, err := p.ledger.Increment(ctx, tenantKey, kind, ev.SelectedAmount); err != nil {
		// The marker already exists, so a replay will not retry the grant.
		// Surface loudly; this needs reconciliation.
		p.log.Error("payment recorded but credit grant failed",
			zap.String("tenant", tenantKey), zap.String("event_id", ev.EventID), zap.Error(err))
		return err
	}

	p.events.Produce(events.Event{
		Type:      events.PaymentCompleted,
		TenantKey: tenantKey,
		Service:   ev.SelectedService,
		Amount:    ev.SelectedAmount,
	})
	return nil
}

// Checkout consumes one credit and submits a job advertisement.
type Checkout struct {
	ledger *credits.Ledger
	jobs   *jobs.Service
	events *events.Producer
	log    *zap.Logger
}

// NewCheckout creates the checkout consumer. producer may be nil.
func NewCheckout(ledger *credits.Ledger, jobSvc *jobs.Service, producer *events.Producer, log *zap.Logger) *Checkout {
	return &Checkout{ledger: ledger, jobs: jobSvc, events: producer, log: log.Named("checkout")}
}

// Submit consumes one credit of the given kind and marks the job profile
// Submitted. The store offers no transaction spanning both documents, so the
// credit is taken first and restored if the status write fails.
func (c *Checkout) Submit(ctx context.Context, tenantKey string, jobID int, kind types.ServiceKind) error {
	// Fail on a missing job before touching the balance.
	if _, err := c.jobs.Get(ctx, tenantKey, jobID); err != nil {
		return err
	}

	if _, err := c.ledger.Decrement(ctx, tenantKey, kind, 1); err != nil {
		return err
	}

	if err := c.jobs.SetStatus(ctx, tenantKey, jobID, types.JobStatusSubmitted); err != nil {
		if _, rerr := c.ledger.Increment(ctx, tenantKey, kind, 1); rerr != nil {
			c.log.Error("checkout compensation failed, credit lost",
				zap.String("tenant", tenantKey), zap.Int("job_id", jobID), zap.Error(rerr))
		}
		return err
	}

	c.events.Produce(events.Event{
		Type:      events.JobSubmitted,
		TenantKey: tenantKey,
		JobID:     jobID,
		Service:   string(kind),
	})
	return nil
}
