package staleness

import (
	"context"
	"time"

	"github.com/jonathan/adwriter/internal/types"
)

// DocumentMarkers reads the marker from the ad_generated_stamp field stored
// on the job profile itself. Recording is a no-op here because the field is
// written together with the generated ad in the same document save; the two
// can never diverge.
type DocumentMarkers struct{}

// Marker returns the document-stored generation stamp.
func (DocumentMarkers) Marker(_ context.Context, _ string, profile *types.JobProfile) (time.Time, error) {
	return profile.AdGeneratedStamp, nil
}

// Record is a no-op; the stamp travels with the ad text in the document.
func (DocumentMarkers) Record(_ context.Context, _ string, _ int, _ time.Time) error {
	return nil
}
