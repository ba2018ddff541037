package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
)

// GormCustomerStore implements CustomerStore on the booking database.
type GormCustomerStore struct {
	db *gorm.DB
}

func NewGormCustomerStore(db *gorm.DB) *GormCustomerStore {
	return &GormCustomerStore{db: db}
}

func (s *GormCustomerStore) FindByEmail(email string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.Where("email = ?", email).First(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (s *GormCustomerStore) Save(customer *models.Customer) error {
	return s.db.Save(customer).Error
}

// GormReservationStore implements ReservationStore on the booking database.
type GormReservationStore struct {
	db *gorm.DB
}

func NewGormReservationStore(db *gorm.DB) *GormReservationStore {
	return &GormReservationStore{db: db}
}

func (s *GormReservationStore) Save(r *models.Reservation) error {
	return s.db.Create(r).Error
}

// Update writes the mutated reservation behind the version loaded at the
// start of the operation. A stale version affects zero rows and surfaces as
// ConcurrentModificationError, telling the caller to retry the whole flow.
func (s *GormReservationStore) Update(r *models.Reservation, expectedVersion uint) error {
	r.Version = expectedVersion + 1
	res := s.db.Model(&models.Reservation{}).
		Where("id = ? AND version = ?", r.ID, expectedVersion).
		Updates(map[string]interface{}{
			"table_id":         r.TableID,
			"date":             r.Date,
			"start_time":       r.StartTime,
			"end_time":         r.EndTime,
			"party_size":       r.PartySize,
			"status":           r.Status,
			"special_requests": r.SpecialRequests,
			"confirmed_at":     r.ConfirmedAt,
			"cancelled_at":     r.CancelledAt,
			"cancel_reason":    r.CancelReason,
			"version":          r.Version,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &models.ConcurrentModificationError{Entity: "reservation", ID: r.ID}
	}
	return nil
}

func (s *GormReservationStore) Delete(r *models.Reservation) error {
	return s.db.Delete(r).Error
}

func (s *GormReservationStore) FindByID(id uint) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.Preload("Customer").First(&r, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &models.NotFoundError{Entity: "reservation", ID: fmt.Sprint(id)}
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormReservationStore) FindByCode(code string) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.Preload("Customer").Where("code = ?", code).First(&r).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &models.NotFoundError{Entity: "reservation", ID: code}
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormReservationStore) FindByCustomerEmail(email string) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.Preload("Customer").
		Joins("JOIN customers ON customers.id = reservations.customer_id").
		Where("customers.email = ?", email).
		Order("reservations.date desc, reservations.start_time desc").
		Find(&out).Error
	return out, err
}

func (s *GormReservationStore) FindByStatus(status string) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.Preload("Customer").Where("status = ?", status).
		Order("date asc, start_time asc").Find(&out).Error
	return out, err
}

func (s *GormReservationStore) FindByRestaurantAndDate(restaurantID uint, date string) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.Preload("Customer").
		Where("restaurant_id = ? AND date = ?", restaurantID, date).
		Order("start_time asc").Find(&out).Error
	return out, err
}

func (s *GormReservationStore) UpcomingForCustomer(email string, from time.Time) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.Preload("Customer").
		Joins("JOIN customers ON customers.id = reservations.customer_id").
		Where("customers.email = ? AND reservations.start_time >= ? AND reservations.status IN ?",
			email, from, []string{models.ReservationStatusPending, models.ReservationStatusConfirmed}).
		Order("reservations.start_time asc").
		Find(&out).Error
	return out, err
}
