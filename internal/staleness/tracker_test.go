package staleness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/adwriter/internal/types"
)

func TestStale(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current time.Time
		marker  time.Time
		want    bool
	}{
		{"zero marker means never generated", t0, time.Time{}, false},
		{"matching marker is fresh", t0, t0, false},
		{"older marker is stale", t0, t0.Add(-time.Hour), true},
		{"newer marker is stale too", t0, t0.Add(time.Hour), true},
		{"same instant different zone is fresh", t0, t0.In(time.FixedZone("CET", 3600)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stale(tt.current, tt.marker))
		})
	}
}

func TestDocumentMarkers(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(DocumentMarkers{})
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	profile := &types.JobProfile{JobID: 1, UpdatedAt: t0}

	// No ad generated yet.
	stale, err := tracker.IsStale(ctx, "alice", profile)
	require.NoError(t, err)
	assert.False(t, stale)

	// Ad generated at the current stamp.
	profile.AdGeneratedStamp = t0
	stale, err = tracker.IsStale(ctx, "alice", profile)
	require.NoError(t, err)
	assert.False(t, stale)

	// Profile edited afterwards.
	profile.UpdatedAt = t0.Add(time.Hour)
	stale, err = tracker.IsStale(ctx, "alice", profile)
	require.NoError(t, err)
	assert.True(t, stale)

	// Clear is a no-op for document markers; the stamp moves with the
	// document write, which this test performs by hand.
	require.NoError(t, tracker.Clear(ctx, "alice", profile.JobID, profile.UpdatedAt))
	profile.AdGeneratedStamp = profile.UpdatedAt
	stale, err = tracker.IsStale(ctx, "alice", profile)
	require.NoError(t, err)
	assert.False(t, stale)
}
