package models

import "fmt"

// ValidationError rejects malformed input before any side effect happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a missing restaurant, table, customer or reservation.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// SlotUnavailableError means the requested interval could not be obtained,
// either at the initial check or after losing a race to another booker.
type SlotUnavailableError struct {
	RestaurantID uint
	TableID      uint
	Date         string
	Range        TimeRange
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("table %d is not available on %s from %s to %s",
		e.TableID, e.Date, e.Range.Start.Format("15:04"), e.Range.End.Format("15:04"))
}

// RestaurantInactiveError rejects bookings against a deactivated restaurant.
type RestaurantInactiveError struct {
	RestaurantID uint
}

func (e *RestaurantInactiveError) Error() string {
	return fmt.Sprintf("restaurant %d is not accepting reservations", e.RestaurantID)
}

// InvalidOperationError is returned when a lifecycle guard rejects a
// transition, e.g. confirming a cancelled reservation.
type InvalidOperationError struct {
	Entity string
	ID     uint
	Status string
	Op     string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in status %q", e.Op, e.Entity, e.ID, e.Status)
}

// UpstreamUnavailableError means a remote service call failed or timed out.
// It is always treated as failure, never as success.
type UpstreamUnavailableError struct {
	Service string
	Op      string
	Err     error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// ConcurrentModificationError signals a stale optimistic version; the caller
// should retry the whole flow from the availability check.
type ConcurrentModificationError struct {
	Entity string
	ID     uint
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently, retry the operation", e.Entity, e.ID)
}
