package services

import (
	"context"
	"time"

	"github.com/tablebook/reservation-app/models"
)

// Event kinds published on reservation lifecycle transitions.
const (
	EventReservationCreated   = "reservation_created"
	EventReservationUpdated   = "reservation_updated"
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationCompleted = "reservation_completed"
	EventReservationNoShow    = "reservation_no_show"
)

// RestaurantInfo is the directory view of a restaurant, as served by the
// inventory service.
type RestaurantInfo struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	Active      bool   `json:"active"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
}

// TableInfo is the availability view of a table.
type TableInfo struct {
	ID       uint   `json:"id"`
	Seats    int    `json:"seats"`
	Location string `json:"location"`
}

// ReserveCall carries a remote hold request to the inventory service.
type ReserveCall struct {
	RestaurantID    uint
	TableID         uint
	Date            string
	Range           models.TimeRange
	Seats           int
	CustomerName    string
	CustomerEmail   string
	SpecialRequests string
}

// RestaurantDirectory resolves restaurant info from the inventory service.
type RestaurantDirectory interface {
	GetRestaurant(ctx context.Context, restaurantID uint) (*RestaurantInfo, error)
}

// TableInventory is the remote interface to the table/slot aggregates. Every
// call crosses a service boundary and may fail or time out; implementations
// must report "unknown" outcomes as failure, never as success.
type TableInventory interface {
	IsAvailable(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error)
	AvailableTables(ctx context.Context, restaurantID uint, date string, rng models.TimeRange, partySize int) ([]TableInfo, error)
	Reserve(ctx context.Context, call ReserveCall) (bool, error)
	Release(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error)
	Confirm(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error)
	Complete(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error)
}

// CustomerStore persists customers keyed by email.
type CustomerStore interface {
	FindByEmail(email string) (*models.Customer, error)
	Save(customer *models.Customer) error
}

// ReservationStore persists the Reservation aggregate. Update is guarded by
// the version loaded at the start of the operation; Delete exists only for
// the create-path compensation, before the reservation ever committed.
type ReservationStore interface {
	Save(r *models.Reservation) error
	Update(r *models.Reservation, expectedVersion uint) error
	Delete(r *models.Reservation) error
	FindByID(id uint) (*models.Reservation, error)
	FindByCode(code string) (*models.Reservation, error)
	FindByCustomerEmail(email string) ([]models.Reservation, error)
	FindByStatus(status string) ([]models.Reservation, error)
	FindByRestaurantAndDate(restaurantID uint, date string) ([]models.Reservation, error)
	UpcomingForCustomer(email string, from time.Time) ([]models.Reservation, error)
}

// EventSink receives fire-and-forget lifecycle notifications.
type EventSink interface {
	Publish(eventKind string, r *models.Reservation)
}
