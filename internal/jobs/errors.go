package jobs

import "fmt"

// NotFoundError indicates the referenced job profile does not exist in the
// tenant's collection.
type NotFoundError struct {
	JobID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job profile %d not found", e.JobID)
}

// IDInUseError indicates a soft-deleted profile cannot be recovered because
// its id was recycled by a later creation.
type IDInUseError struct {
	JobID int
}

func (e *IDInUseError) Error() string {
	return fmt.Sprintf("job id %d is already in use by a live profile", e.JobID)
}
