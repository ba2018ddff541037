package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tablebook/reservation-app/models"
)

// BookingConfig holds orchestrator tunables.
type BookingConfig struct {
	RemoteTimeout time.Duration // per remote call to the inventory service
}

func DefaultBookingConfig() BookingConfig {
	return BookingConfig{
		RemoteTimeout: 10 * time.Second,
	}
}

// BookingService orchestrates reservations across the local store and the
// remote table inventory. The two aggregates share no transaction: the single
// non-idempotent remote write in the create path is protected by a
// compensating rollback, and the update path re-reserves the original
// interval when the new one cannot be obtained.
type BookingService struct {
	reservations ReservationStore
	customers    CustomerStore
	directory    RestaurantDirectory
	inventory    TableInventory
	events       EventSink
	config       BookingConfig
	logger       *logrus.Logger
}

func NewBookingService(
	reservations ReservationStore,
	customers CustomerStore,
	directory RestaurantDirectory,
	inventory TableInventory,
	events EventSink,
	config BookingConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		reservations: reservations,
		customers:    customers,
		directory:    directory,
		inventory:    inventory,
		events:       events,
		config:       config,
		logger:       logger,
	}
}

// CreateReservationRequest carries a new booking command.
type CreateReservationRequest struct {
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email" binding:"required,email"`
	CustomerPhone   string `json:"customer_phone"`
	RestaurantID    uint   `json:"restaurant_id" binding:"required"`
	TableID         uint   `json:"table_id" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Start           string `json:"start" binding:"required"`
	End             string `json:"end" binding:"required"`
	PartySize       int    `json:"party_size" binding:"required"`
	SpecialRequests string `json:"special_requests"`
}

// CreateReservation runs the create saga:
//
//  1. restaurant lookup (reject inactive, reject outside opening hours)
//  2. remote availability check
//  3. resolve or create the customer by email
//  4. persist the reservation in pending status
//  5. remote reserve call
//  6. on reserve failure, roll the local reservation back so no orphan
//     pending record survives without a backing slot
func (s *BookingService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*models.Reservation, error) {
	rng, err := s.validateCreate(&req)
	if err != nil {
		return nil, err
	}

	// 1. Restaurant must exist, be active, and cover the interval.
	restaurant, err := s.getRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.Active {
		return nil, &models.RestaurantInactiveError{RestaurantID: req.RestaurantID}
	}
	within, err := rng.WithinOperatingHours(restaurant.OpeningTime, restaurant.ClosingTime)
	if err != nil {
		return nil, err
	}
	if !within {
		return nil, models.NewValidationError("time_range",
			"requested time is outside the restaurant's opening hours")
	}

	// 2. Fast-path availability guard; re-validated by the reserve call.
	available, err := s.checkRemoteAvailability(ctx, req.RestaurantID, req.TableID, req.Date, rng)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, &models.SlotUnavailableError{
			RestaurantID: req.RestaurantID, TableID: req.TableID, Date: req.Date, Range: rng,
		}
	}

	// 3. Resolve or create the customer by natural key.
	customer, err := s.resolveCustomer(req.CustomerName, req.CustomerEmail, req.CustomerPhone)
	if err != nil {
		return nil, err
	}

	// 4. Local pending reservation.
	reservation := &models.Reservation{
		Code:            uuid.NewString(),
		CustomerID:      customer.ID,
		Customer:        *customer,
		RestaurantID:    req.RestaurantID,
		TableID:         req.TableID,
		Date:            req.Date,
		StartTime:       rng.Start,
		EndTime:         rng.End,
		PartySize:       req.PartySize,
		Status:          models.ReservationStatusPending,
		SpecialRequests: req.SpecialRequests,
		Version:         1,
	}
	if err := s.reservations.Save(reservation); err != nil {
		return nil, err
	}

	// 5. The single non-idempotent remote write.
	held, reserveErr := s.reserveRemote(ctx, ReserveCall{
		RestaurantID:    req.RestaurantID,
		TableID:         req.TableID,
		Date:            req.Date,
		Range:           rng,
		Seats:           req.PartySize,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		SpecialRequests: req.SpecialRequests,
	})
	if reserveErr != nil || !held {
		// 6. Compensate: the pending reservation must not survive without a
		// backing slot. Unknown remote outcomes take the same path.
		if delErr := s.reservations.Delete(reservation); delErr != nil {
			s.logger.Errorf("compensation failed: could not roll back reservation %d: %v", reservation.ID, delErr)
		} else {
			s.logger.Warnf("rolled back reservation %d after failed reserve call", reservation.ID)
		}
		if reserveErr != nil {
			return nil, reserveErr
		}
		return nil, &models.SlotUnavailableError{
			RestaurantID: req.RestaurantID, TableID: req.TableID, Date: req.Date, Range: rng,
		}
	}

	s.logger.Infof("reservation %s created: table %d on %s %s-%s for %d",
		reservation.Code, req.TableID, req.Date, req.Start, req.End, req.PartySize)
	s.events.Publish(EventReservationCreated, reservation)
	return reservation, nil
}

// UpdateReservationRequest carries a modification command. Zero values keep
// the current schedule; SpecialRequests is applied only when non-nil.
type UpdateReservationRequest struct {
	TableID         uint    `json:"table_id"`
	Date            string  `json:"date"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	PartySize       int     `json:"party_size"`
	SpecialRequests *string `json:"special_requests"`
}

// UpdateReservation modifies a pending reservation. Schedule changes run the
// two-phase release-then-reserve handoff: the old slot is released first so
// the table never holds two overlapping slots, and on any failure the
// original interval is re-reserved best-effort before the error surfaces.
// A party size change re-checks capacity because the new reserve call carries
// the new seat count.
func (s *BookingService) UpdateReservation(ctx context.Context, id uint, req UpdateReservationRequest) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(id)
	if err != nil {
		return nil, err
	}
	expectedVersion := reservation.Version
	if !reservation.CanBeModified() {
		return nil, &models.InvalidOperationError{
			Entity: "reservation", ID: reservation.ID, Status: reservation.Status, Op: "modify",
		}
	}

	newTableID := reservation.TableID
	if req.TableID != 0 {
		newTableID = req.TableID
	}
	newPartySize := reservation.PartySize
	if req.PartySize != 0 {
		newPartySize = req.PartySize
	}
	if newPartySize < models.MinPartySize || newPartySize > models.MaxPartySize {
		return nil, models.NewValidationError("party_size", "must be between 1 and 12")
	}

	newDate := reservation.Date
	newRange := reservation.Range()
	if req.Date != "" || req.Start != "" || req.End != "" {
		if req.Date == "" || req.Start == "" || req.End == "" {
			return nil, models.NewValidationError("schedule", "date, start and end must be provided together")
		}
		newDate = req.Date
		newRange, err = models.NewTimeRangeOn(req.Date, req.Start, req.End,
			models.ReservationMinDuration, models.ReservationMaxDuration)
		if err != nil {
			return nil, err
		}
		if newRange.Start.Before(time.Now()) {
			return nil, models.NewValidationError("date", "must not be in the past")
		}
	}

	scheduleChanged := newTableID != reservation.TableID ||
		newDate != reservation.Date ||
		!newRange.Start.Equal(reservation.StartTime) ||
		!newRange.End.Equal(reservation.EndTime) ||
		newPartySize != reservation.PartySize

	if !scheduleChanged {
		// Non-schedule fields apply directly, no remote coordination needed.
		if req.SpecialRequests != nil {
			reservation.SpecialRequests = *req.SpecialRequests
		}
		if err := s.reservations.Update(reservation, expectedVersion); err != nil {
			return nil, err
		}
		s.events.Publish(EventReservationUpdated, reservation)
		return reservation, nil
	}

	restaurant, err := s.getRestaurant(ctx, reservation.RestaurantID)
	if err != nil {
		return nil, err
	}
	within, err := newRange.WithinOperatingHours(restaurant.OpeningTime, restaurant.ClosingTime)
	if err != nil {
		return nil, err
	}
	if !within {
		return nil, models.NewValidationError("time_range",
			"requested time is outside the restaurant's opening hours")
	}

	oldCall := ReserveCall{
		RestaurantID:    reservation.RestaurantID,
		TableID:         reservation.TableID,
		Date:            reservation.Date,
		Range:           reservation.Range(),
		Seats:           reservation.PartySize,
		CustomerName:    reservation.Customer.Name,
		CustomerEmail:   reservation.Customer.Email,
		SpecialRequests: reservation.SpecialRequests,
	}
	newCall := oldCall
	newCall.TableID = newTableID
	newCall.Date = newDate
	newCall.Range = newRange
	newCall.Seats = newPartySize

	// Release first so we never hold two overlapping slots for the table.
	if err := s.releaseRemote(ctx, oldCall); err != nil {
		return nil, err
	}

	slotErr := &models.SlotUnavailableError{
		RestaurantID: reservation.RestaurantID, TableID: newTableID, Date: newDate, Range: newRange,
	}

	available, err := s.checkRemoteAvailability(ctx, reservation.RestaurantID, newTableID, newDate, newRange)
	if err != nil {
		s.restoreSlot(ctx, reservation.ID, oldCall)
		return nil, err
	}
	if !available {
		s.restoreSlot(ctx, reservation.ID, oldCall)
		return nil, slotErr
	}

	held, err := s.reserveRemote(ctx, newCall)
	if err != nil || !held {
		s.restoreSlot(ctx, reservation.ID, oldCall)
		if err != nil {
			return nil, err
		}
		return nil, slotErr
	}

	reservation.TableID = newTableID
	reservation.Date = newDate
	reservation.StartTime = newRange.Start
	reservation.EndTime = newRange.End
	reservation.PartySize = newPartySize
	if req.SpecialRequests != nil {
		reservation.SpecialRequests = *req.SpecialRequests
	}
	if err := s.reservations.Update(reservation, expectedVersion); err != nil {
		// Local write lost; hand the new slot back and restore the old one.
		s.releaseBestEffort(ctx, newCall)
		s.restoreSlot(ctx, reservation.ID, oldCall)
		return nil, err
	}

	s.logger.Infof("reservation %s rescheduled to table %d on %s %s-%s",
		reservation.Code, newTableID, newDate,
		newRange.Start.Format("15:04"), newRange.End.Format("15:04"))
	s.events.Publish(EventReservationUpdated, reservation)
	return reservation, nil
}

// ConfirmReservation drives pending -> confirmed and promotes the remote
// slot best-effort.
func (s *BookingService) ConfirmReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(id)
	if err != nil {
		return nil, err
	}
	expectedVersion := reservation.Version
	if err := reservation.Confirm(); err != nil {
		return nil, err
	}
	if err := s.reservations.Update(reservation, expectedVersion); err != nil {
		return nil, err
	}

	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if _, err := s.inventory.Confirm(callCtx, reservation.RestaurantID, reservation.TableID,
		reservation.Date, reservation.Range()); err != nil {
		s.logger.Errorf("slot confirm for reservation %d failed, inventory will reconcile: %v", reservation.ID, err)
	}

	s.events.Publish(EventReservationConfirmed, reservation)
	return reservation, nil
}

// CancelReservation drives the local machine to cancelled and releases the
// remote slot. The release is fire-and-forget: the local record is the
// source of truth for customer-facing status, and a stuck remote slot is an
// operational anomaly, not a lifecycle violation.
func (s *BookingService) CancelReservation(ctx context.Context, id uint, reason string) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(id)
	if err != nil {
		return nil, err
	}
	expectedVersion := reservation.Version
	if err := reservation.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.reservations.Update(reservation, expectedVersion); err != nil {
		return nil, err
	}

	s.releaseBestEffort(ctx, ReserveCall{
		RestaurantID: reservation.RestaurantID,
		TableID:      reservation.TableID,
		Date:         reservation.Date,
		Range:        reservation.Range(),
	})

	s.logger.Infof("reservation %s cancelled: %s", reservation.Code, reason)
	s.events.Publish(EventReservationCancelled, reservation)
	return reservation, nil
}

// CompleteReservation closes out a confirmed visit.
func (s *BookingService) CompleteReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(id)
	if err != nil {
		return nil, err
	}
	expectedVersion := reservation.Version
	if err := reservation.Complete(); err != nil {
		return nil, err
	}
	if err := s.reservations.Update(reservation, expectedVersion); err != nil {
		return nil, err
	}

	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if _, err := s.inventory.Complete(callCtx, reservation.RestaurantID, reservation.TableID,
		reservation.Date, reservation.Range()); err != nil {
		s.logger.Errorf("slot complete for reservation %d failed, inventory will reconcile: %v", reservation.ID, err)
	}

	s.events.Publish(EventReservationCompleted, reservation)
	return reservation, nil
}

// MarkNoShow records a no-show and frees the slot for other bookers.
func (s *BookingService) MarkNoShow(ctx context.Context, id uint) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(id)
	if err != nil {
		return nil, err
	}
	expectedVersion := reservation.Version
	if err := reservation.MarkNoShow(); err != nil {
		return nil, err
	}
	if err := s.reservations.Update(reservation, expectedVersion); err != nil {
		return nil, err
	}

	s.releaseBestEffort(ctx, ReserveCall{
		RestaurantID: reservation.RestaurantID,
		TableID:      reservation.TableID,
		Date:         reservation.Date,
		Range:        reservation.Range(),
	})

	s.events.Publish(EventReservationNoShow, reservation)
	return reservation, nil
}

// CheckAvailability lists tables free for the window, smallest adequate
// table first. Computed freshly per call by the inventory service.
func (s *BookingService) CheckAvailability(ctx context.Context, restaurantID uint, date, start, end string, partySize int) ([]TableInfo, error) {
	if partySize < models.MinPartySize || partySize > models.MaxPartySize {
		return nil, models.NewValidationError("party_size", "must be between 1 and 12")
	}
	rng, err := models.NewTimeRangeOn(date, start, end,
		models.ReservationMinDuration, models.ReservationMaxDuration)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	return s.inventory.AvailableTables(callCtx, restaurantID, date, rng, partySize)
}

// Read accessors.

func (s *BookingService) GetReservation(id uint) (*models.Reservation, error) {
	return s.reservations.FindByID(id)
}

func (s *BookingService) GetReservationByCode(code string) (*models.Reservation, error) {
	return s.reservations.FindByCode(code)
}

func (s *BookingService) ListByCustomer(email string) ([]models.Reservation, error) {
	return s.reservations.FindByCustomerEmail(email)
}

func (s *BookingService) ListByStatus(status string) ([]models.Reservation, error) {
	return s.reservations.FindByStatus(status)
}

func (s *BookingService) ListByRestaurantAndDate(restaurantID uint, date string) ([]models.Reservation, error) {
	return s.reservations.FindByRestaurantAndDate(restaurantID, date)
}

func (s *BookingService) UpcomingForCustomer(email string) ([]models.Reservation, error) {
	return s.reservations.UpcomingForCustomer(email, time.Now())
}

// Internal helpers.

func (s *BookingService) validateCreate(req *CreateReservationRequest) (models.TimeRange, error) {
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	if strings.TrimSpace(req.CustomerName) == "" {
		return models.TimeRange{}, models.NewValidationError("customer_name", "is required")
	}
	if req.CustomerEmail == "" {
		return models.TimeRange{}, models.NewValidationError("customer_email", "is required")
	}
	if req.RestaurantID == 0 || req.TableID == 0 {
		return models.TimeRange{}, models.NewValidationError("restaurant_id/table_id", "are required")
	}
	if req.PartySize < models.MinPartySize || req.PartySize > models.MaxPartySize {
		return models.TimeRange{}, models.NewValidationError("party_size", "must be between 1 and 12")
	}
	rng, err := models.NewTimeRangeOn(req.Date, req.Start, req.End,
		models.ReservationMinDuration, models.ReservationMaxDuration)
	if err != nil {
		return models.TimeRange{}, err
	}
	if rng.Start.Before(time.Now()) {
		return models.TimeRange{}, models.NewValidationError("date", "must not be in the past")
	}
	return rng, nil
}

func (s *BookingService) getRestaurant(ctx context.Context, restaurantID uint) (*RestaurantInfo, error) {
	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	return s.directory.GetRestaurant(callCtx, restaurantID)
}

func (s *BookingService) checkRemoteAvailability(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error) {
	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	return s.inventory.IsAvailable(callCtx, restaurantID, tableID, date, rng)
}

func (s *BookingService) reserveRemote(ctx context.Context, call ReserveCall) (bool, error) {
	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	return s.inventory.Reserve(callCtx, call)
}

func (s *BookingService) releaseRemote(ctx context.Context, call ReserveCall) error {
	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	_, err := s.inventory.Release(callCtx, call.RestaurantID, call.TableID, call.Date, call.Range)
	return err
}

// releaseBestEffort frees a slot on terminal paths. Failures are logged and
// reported upstream by the inventory interface, never blocking the local
// state transition.
func (s *BookingService) releaseBestEffort(ctx context.Context, call ReserveCall) {
	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	released, err := s.inventory.Release(callCtx, call.RestaurantID, call.TableID, call.Date, call.Range)
	if err != nil {
		s.logger.Errorf("release of table %d on %s failed, needs operational retry: %v", call.TableID, call.Date, err)
		return
	}
	if !released {
		s.logger.Warnf("release of table %d on %s found no active slot", call.TableID, call.Date)
	}
}

// restoreSlot re-reserves the original interval after a failed reschedule so
// the reservation never references a released slot with no replacement.
func (s *BookingService) restoreSlot(ctx context.Context, reservationID uint, original ReserveCall) {
	callCtx, cancel := s.remoteCtx(ctx)
	defer cancel()
	held, err := s.inventory.Reserve(callCtx, original)
	if err != nil || !held {
		s.logger.Errorf("could not restore original slot for reservation %d (table %d on %s): held=%v err=%v",
			reservationID, original.TableID, original.Date, held, err)
		return
	}
	s.logger.Infof("restored original slot for reservation %d after failed reschedule", reservationID)
}

func (s *BookingService) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.RemoteTimeout)
}

func (s *BookingService) resolveCustomer(name, email, phone string) (*models.Customer, error) {
	customer, err := s.customers.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		customer = &models.Customer{Name: name, Email: email, Phone: phone}
		if err := s.customers.Save(customer); err != nil {
			return nil, err
		}
		return customer, nil
	}
	// Refresh contact details on repeat bookings.
	if name != "" && name != customer.Name || phone != "" && phone != customer.Phone {
		if name != "" {
			customer.Name = name
		}
		if phone != "" {
			customer.Phone = phone
		}
		if err := s.customers.Save(customer); err != nil {
			return nil, err
		}
	}
	return customer, nil
}
