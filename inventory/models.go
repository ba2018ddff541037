package inventory

import (
	"time"

	"github.com/tablebook/reservation-app/models"
)

// Slot statuses. "available" means held pending confirmation; cancelled and
// completed slots never block new bookings.
const (
	SlotStatusAvailable = "available"
	SlotStatusConfirmed = "confirmed"
	SlotStatusCompleted = "completed"
	SlotStatusCancelled = "cancelled"
)

// Duration bounds for resource-side slots, wider than the customer-facing
// reservation bounds.
const (
	SlotMinDuration = 30 * time.Minute
	SlotMaxDuration = 240 * time.Minute
)

type Restaurant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	OpeningTime string    `gorm:"type:varchar(5);not null" json:"opening_time"`
	ClosingTime string    `gorm:"type:varchar(5);not null" json:"closing_time"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// Table is a bookable unit. Capacity and the availability flag mutate
// independently of bookings; Version guards concurrent reserve attempts.
type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	TableNumber  string    `gorm:"type:varchar(50);not null" json:"table_number"`
	Seats        int       `gorm:"not null" json:"seats"`
	Location     string    `gorm:"type:varchar(50)" json:"location"`
	Available    bool      `gorm:"not null;default:true" json:"available"`
	Version      uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// TimeSlot is the resource-side record of a table being held for an interval.
type TimeSlot struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TableID         uint      `gorm:"not null;index" json:"table_id"`
	Date            string    `gorm:"type:varchar(10);not null;index" json:"date"`
	StartTime       time.Time `gorm:"not null" json:"start_time"`
	EndTime         time.Time `gorm:"not null" json:"end_time"`
	ReservedSeats   int       `gorm:"not null" json:"reserved_seats"`
	Status          string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CustomerName    string    `gorm:"type:varchar(100)" json:"customer_name,omitempty"`
	CustomerEmail   string    `gorm:"type:varchar(255)" json:"customer_email,omitempty"`
	SpecialRequests string    `gorm:"type:text" json:"special_requests,omitempty"`
	Version         uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

// Range returns the slot's held interval.
func (s *TimeSlot) Range() models.TimeRange {
	return models.TimeRange{Start: s.StartTime, End: s.EndTime}
}

// IsActive reports whether the slot still blocks other bookings.
func (s *TimeSlot) IsActive() bool {
	return s.Status == SlotStatusAvailable || s.Status == SlotStatusConfirmed
}

// ConflictsWith reports whether two slots compete for the same table time.
func (s *TimeSlot) ConflictsWith(o *TimeSlot) bool {
	if s.TableID != o.TableID || s.Date != o.Date {
		return false
	}
	if !s.IsActive() || !o.IsActive() {
		return false
	}
	return s.Range().Overlaps(o.Range())
}

// Confirm promotes a held slot once the customer's reservation is confirmed.
func (s *TimeSlot) Confirm() error {
	if s.Status != SlotStatusAvailable {
		return &models.InvalidOperationError{Entity: "time slot", ID: s.ID, Status: s.Status, Op: "confirm"}
	}
	s.Status = SlotStatusConfirmed
	return nil
}

// Complete closes out a confirmed slot after the visit.
func (s *TimeSlot) Complete() error {
	if s.Status != SlotStatusConfirmed {
		return &models.InvalidOperationError{Entity: "time slot", ID: s.ID, Status: s.Status, Op: "complete"}
	}
	s.Status = SlotStatusCompleted
	return nil
}

// Cancel releases the slot. Allowed from available or confirmed; terminal
// statuses accept no further transitions.
func (s *TimeSlot) Cancel() error {
	if !s.IsActive() {
		return &models.InvalidOperationError{Entity: "time slot", ID: s.ID, Status: s.Status, Op: "cancel"}
	}
	s.Status = SlotStatusCancelled
	return nil
}
