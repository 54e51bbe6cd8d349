// Package staleness decides whether a job profile's generated advertisement
// is out of sync with the profile content it was generated from.
//
// The marker is the profile_updated_at value that was current when
// generation last ran. Two marker placements exist: on the job profile
// document itself (durable, the default) and in a Redis session-style store.
// The document placement survives session loss and is preferred.
package staleness

import (
	"context"
	"time"

	"github.com/jonathan/adwriter/internal/types"
)

// Stale reports whether derived content generated at marker is out of sync
// with content last updated at current. A zero marker means generation never
// ran; that is "no ad yet", not staleness.
func Stale(current, marker time.Time) bool {
	return !marker.IsZero() && !marker.Equal(current)
}

// MarkerStore reads and records generation markers for one tenant's jobs.
type MarkerStore interface {
	// Marker returns the recorded generation marker for the profile, or the
	// zero time when none was recorded.
	Marker(ctx context.Context, tenantKey string, profile *types.JobProfile) (time.Time, error)
	// Record stores stamp as the profile's new generation marker. The stamp
	// is the update stamp the generated content was built from, which is not
	// necessarily the profile's current one.
	Record(ctx context.Context, tenantKey string, jobID int, stamp time.Time) error
}

// Tracker evaluates and clears staleness through a marker store.
type Tracker struct {
	markers MarkerStore
}

// NewTracker creates a tracker over the given marker store.
func NewTracker(markers MarkerStore) *Tracker {
	return &Tracker{markers: markers}
}

// IsStale reports whether the profile's cached advertisement must be
// regenerated before it can be trusted.
func (t *Tracker) IsStale(ctx context.Context, tenantKey string, profile *types.JobProfile) (bool, error) {
	marker, err := t.markers.Marker(ctx, tenantKey, profile)
	if err != nil {
		return false, err
	}
	return Stale(profile.UpdatedAt, marker), nil
}

// Clear records the update stamp the advertisement was generated from. When
// the profile changed while generation was running, the recorded stamp no
// longer matches the current one and the ad stays stale.
func (t *Tracker) Clear(ctx context.Context, tenantKey string, jobID int, stamp time.Time) error {
	return t.markers.Record(ctx, tenantKey, jobID, stamp)
}
