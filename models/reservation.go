package models

import "time"

// Reservation statuses. Pending is the only state that accepts
// modifications; completed, cancelled and no_show are terminal.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusNoShow    = "no_show"
)

// Party size bounds for a single table booking.
const (
	MinPartySize = 1
	MaxPartySize = 12
)

// Reservation is the customer-facing booking record. It is never physically
// deleted once the backing slot is held: cancellation, no-show and completion
// are terminal statuses, not row deletions.
type Reservation struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Code            string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"code"`
	CustomerID      uint       `gorm:"not null;index" json:"customer_id"`
	Customer        Customer   `gorm:"foreignKey:CustomerID;references:ID" json:"customer"`
	RestaurantID    uint       `gorm:"not null;index" json:"restaurant_id"`
	TableID         uint       `gorm:"not null;index" json:"table_id"`
	Date            string     `gorm:"type:varchar(10);not null;index" json:"date"`
	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         time.Time  `gorm:"not null" json:"end_time"`
	PartySize       int        `gorm:"not null" json:"party_size"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	SpecialRequests string     `gorm:"type:text" json:"special_requests,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelReason    string     `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	Version         uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

// Range returns the reservation's booked interval.
func (r *Reservation) Range() TimeRange {
	return TimeRange{Start: r.StartTime, End: r.EndTime}
}

// Confirm moves a pending reservation to confirmed and stamps the time.
func (r *Reservation) Confirm() error {
	if r.Status != ReservationStatusPending {
		return &InvalidOperationError{Entity: "reservation", ID: r.ID, Status: r.Status, Op: "confirm"}
	}
	now := time.Now()
	r.Status = ReservationStatusConfirmed
	r.ConfirmedAt = &now
	return nil
}

// Cancel is allowed while the reservation is pending or confirmed.
func (r *Reservation) Cancel(reason string) error {
	if !r.CanBeCancelled() {
		return &InvalidOperationError{Entity: "reservation", ID: r.ID, Status: r.Status, Op: "cancel"}
	}
	now := time.Now()
	r.Status = ReservationStatusCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	return nil
}

// Complete closes out a confirmed reservation after the visit.
func (r *Reservation) Complete() error {
	if r.Status != ReservationStatusConfirmed {
		return &InvalidOperationError{Entity: "reservation", ID: r.ID, Status: r.Status, Op: "complete"}
	}
	r.Status = ReservationStatusCompleted
	return nil
}

// MarkNoShow records that a confirmed party never arrived.
func (r *Reservation) MarkNoShow() error {
	if r.Status != ReservationStatusConfirmed {
		return &InvalidOperationError{Entity: "reservation", ID: r.ID, Status: r.Status, Op: "mark no-show"}
	}
	r.Status = ReservationStatusNoShow
	return nil
}

// CanBeModified reports whether schedule changes are still allowed.
func (r *Reservation) CanBeModified() bool {
	return r.Status == ReservationStatusPending
}

// CanBeCancelled reports whether the reservation can still be cancelled.
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusConfirmed
}

// IsActive reports whether the reservation still holds its table slot.
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusConfirmed
}
