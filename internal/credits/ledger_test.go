package credits

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/docstore"
	"github.com/jonathan/adwriter/internal/profiles"
	"github.com/jonathan/adwriter/internal/types"
)

func newLedger(t *testing.T) (*Ledger, *profiles.Repository) {
	t.Helper()
	repo := profiles.NewRepository(docstore.NewMemoryStore(), zap.NewNop())
	return NewLedger(repo, zap.NewNop()), repo
}

func TestBalanceDefaultsToZero(t *testing.T) {
	ledger, _ := newLedger(t)

	balance, err := ledger.Balance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, types.CreditBalance{}, balance)
}

func TestIncrementPersistsAcrossReload(t *testing.T) {
	ledger, repo := newLedger(t)
	ctx := context.Background()

	got, err := ledger.Increment(ctx, "alice", types.ServiceStandard, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	// The increment is durable even though the profile had never been
	// saved before.
	profile, err := repo.CompanyProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, profile.Credit(types.ServiceStandard))
	assert.Equal(t, 0, profile.Credit(types.ServicePremium))
}

func TestCountersAreIndependent(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	_, err := ledger.Increment(ctx, "alice", types.ServiceStandard, 2)
	require.NoError(t, err)
	_, err = ledger.Increment(ctx, "alice", types.ServicePremium, 5)
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, balance.StandardService)
	assert.Equal(t, 5, balance.PremiumService)
}

func TestDecrementStopsAtZero(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	_, err := ledger.Increment(ctx, "alice", types.ServiceStandard, 1)
	require.NoError(t, err)

	got, err := ledger.Decrement(ctx, "alice", types.ServiceStandard, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = ledger.Decrement(ctx, "alice", types.ServiceStandard, 1)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// The failed decrement left the counter alone.
	balance, err := ledger.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, balance.StandardService)
}

func TestAdjustRejectsUnknownKind(t *testing.T) {
	ledger, _ := newLedger(t)

	_, err := ledger.Increment(context.Background(), "alice", types.ServiceKind("gold_service"), 1)
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestLedgerIsTenantScoped(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()

	_, err := ledger.Increment(ctx, "alice", types.ServiceStandard, 4)
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, balance.StandardService)
}
