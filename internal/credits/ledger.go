// Package credits maintains the two per-tenant credit counters stored on the
// company profile. Every operation is a read-modify-write of that document,
// retried on revision conflicts.
package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/docstore"
	"github.com/jonathan/adwriter/internal/profiles"
	"github.com/jonathan/adwriter/internal/types"
)

// ErrInsufficientCredits indicates a decrement would push a counter below
// zero. The balance is left untouched.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrUnknownService indicates an unrecognized service kind.
var ErrUnknownService = errors.New("unknown service kind")

// Ledger mutates the credit counters.
type Ledger struct {
	repo *profiles.Repository
	log  *zap.Logger
}

// NewLedger creates a ledger over the profile repository.
func NewLedger(repo *profiles.Repository, log *zap.Logger) *Ledger {
	return &Ledger{repo: repo, log: log.Named("credits")}
}

// Balance returns the tenant's current counters.
func (l *Ledger) Balance(ctx context.Context, tenantKey string) (types.CreditBalance, error) {
	profile, err := l.repo.CompanyProfile(ctx, tenantKey)
	if err != nil {
		return types.CreditBalance{}, err
	}
	return profile.Credits, nil
}

// Increment adds amount credits of the given kind and returns the new
// balance for that kind.
func (l *Ledger) Increment(ctx context.Context, tenantKey string, kind types.ServiceKind, amount int) (int, error) {
	return l.adjust(ctx, tenantKey, kind, amount)
}

// Decrement consumes amount credits of the given kind. It fails with
// ErrInsufficientCredits rather than letting a counter go negative.
func (l *Ledger) Decrement(ctx context.Context, tenantKey string, kind types.ServiceKind, amount int) (int, error) {
	return l.adjust(ctx, tenantKey, kind, -amount)
}

func (l *Ledger) adjust(ctx context.Context, tenantKey string, kind types.ServiceKind, delta int) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownService, kind)
	}

	var balance int
	op := func() error {
		profile, err := l.repo.CompanyProfile(ctx, tenantKey)
		if err != nil {
			return backoff.Permanent(err)
		}
		next := profile.Credit(kind) + delta
		if next < 0 {
			return backoff.Permanent(fmt.Errorf("%w: %s has %d, need %d",
				ErrInsufficientCredits, kind, profile.Credit(kind), -delta))
		}
		profile.SetCredit(kind, next)
		if err := l.repo.SaveCompanyProfile(ctx, profile); err != nil {
			if errors.Is(err, docstore.ErrConflict) {
				return err
			}
			return backoff.Permanent(err)
		}
		balance = next
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxElapsedTime = 2 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 5), ctx)); err != nil {
		return 0, err
	}

	l.log.Info("adjusted credits",
		zap.String("tenant", tenantKey),
		zap.String("kind", string(kind)),
		zap.Int("delta", delta),
		zap.Int("balance", balance))
	return balance, nil
}
