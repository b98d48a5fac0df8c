package booking

import (
	"fmt"
	"time"
)

// ValidationError means required fields were missing; no network call was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SlotConflictError means the pre-check found a non-cancelled reservation at
// exactly the requested slot, so no submission was attempted.
type SlotConflictError struct {
	TableID string
	Slot    string
	Date    time.Time
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("table %s is already booked for %s on %s",
		e.TableID, e.Slot, e.Date.Format("2006-01-02"))
}

// FailedError means every submission variant was exhausted. Message carries
// the last response's message/error text.
type FailedError struct {
	Message string
}

func (e *FailedError) Error() string {
	if e.Message == "" {
		return "booking failed: the reservation was not accepted"
	}
	return "booking failed: " + e.Message
}
