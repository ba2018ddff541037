package inventory

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/utils"
)

// Service owns the Table and TimeSlot aggregates: availability queries plus
// the reserve/release side of the booking saga.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetRestaurant(id uint) (*Restaurant, error) {
	var r Restaurant
	if err := s.db.First(&r, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &models.NotFoundError{Entity: "restaurant", ID: fmt.Sprint(id)}
		}
		return nil, err
	}
	return &r, nil
}

func (s *Service) GetTable(id uint) (*Table, error) {
	var t Table
	if err := s.db.First(&t, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &models.NotFoundError{Entity: "table", ID: fmt.Sprint(id)}
		}
		return nil, err
	}
	return &t, nil
}

func (s *Service) CreateTable(t *Table) error {
	if t.TableNumber == "" {
		return models.NewValidationError("table_number", "is required")
	}
	if t.Seats < 1 {
		return models.NewValidationError("seats", "must be at least 1")
	}
	if _, err := s.GetRestaurant(t.RestaurantID); err != nil {
		return err
	}
	return s.db.Create(t).Error
}

func (s *Service) ListTables(restaurantID uint) ([]Table, error) {
	var tables []Table
	err := s.db.Where("restaurant_id = ?", restaurantID).
		Order("seats asc, id asc").Find(&tables).Error
	return tables, err
}

// SetTableAvailability flips the admin availability flag, independent of any
// bookings the table may hold.
func (s *Service) SetTableAvailability(tableID uint, available bool) (*Table, error) {
	t, err := s.GetTable(tableID)
	if err != nil {
		return nil, err
	}
	t.Available = available
	if err := s.db.Save(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// FindAvailableTables returns the tables of a restaurant that can seat the
// party with no conflicting active slot, smallest adequate table first. The
// result is computed freshly per call: booking state changes between calls.
func (s *Service) FindAvailableTables(restaurantID uint, date string, rng models.TimeRange, partySize int) ([]Table, error) {
	var tables []Table
	err := s.db.Where("restaurant_id = ? AND available = ? AND seats >= ?",
		restaurantID, true, partySize).Find(&tables).Error
	if err != nil {
		return nil, err
	}

	free := make([]Table, 0, len(tables))
	for i := range tables {
		ok, err := s.hasNoConflict(s.db, tables[i].ID, date, rng)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, tables[i])
		}
	}
	sort.Slice(free, func(i, j int) bool {
		if free[i].Seats != free[j].Seats {
			return free[i].Seats < free[j].Seats
		}
		return free[i].ID < free[j].ID
	})
	return free, nil
}

// IsAvailable is the single-table form of the availability predicate.
func (s *Service) IsAvailable(tableID uint, date string, rng models.TimeRange) (bool, error) {
	t, err := s.GetTable(tableID)
	if err != nil {
		return false, err
	}
	if !t.Available {
		return false, nil
	}
	return s.hasNoConflict(s.db, tableID, date, rng)
}

// hasNoConflict checks the table's active slots on the date for overlap.
func (s *Service) hasNoConflict(db *gorm.DB, tableID uint, date string, rng models.TimeRange) (bool, error) {
	var slots []TimeSlot
	err := db.Where("table_id = ? AND date = ? AND status IN ?",
		tableID, date, []string{SlotStatusAvailable, SlotStatusConfirmed}).Find(&slots).Error
	if err != nil {
		return false, err
	}
	for i := range slots {
		if slots[i].Range().Overlaps(rng) {
			return false, nil
		}
	}
	return true, nil
}

// ReserveRequest carries everything needed to hold a table.
type ReserveRequest struct {
	RestaurantID    uint
	TableID         uint
	Date            string
	Range           models.TimeRange
	Seats           int
	CustomerName    string
	CustomerEmail   string
	SpecialRequests string
}

// Reserve materializes a TimeSlot in available status. The table's version is
// bumped inside the transaction before the conflict re-check, so of two
// concurrent reservers exactly one commits; the loser gets a
// ConcurrentModificationError and must retry from the availability check.
func (s *Service) Reserve(req ReserveRequest) (*TimeSlot, error) {
	t, err := s.GetTable(req.TableID)
	if err != nil {
		return nil, err
	}
	if t.RestaurantID != req.RestaurantID {
		return nil, &models.NotFoundError{Entity: "table", ID: fmt.Sprint(req.TableID)}
	}
	if !t.Available || t.Seats < req.Seats {
		return nil, &models.SlotUnavailableError{
			RestaurantID: req.RestaurantID, TableID: req.TableID, Date: req.Date, Range: req.Range,
		}
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	res := tx.Model(&Table{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Update("version", t.Version+1)
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, &models.ConcurrentModificationError{Entity: "table", ID: t.ID}
	}

	ok, err := s.hasNoConflict(tx, req.TableID, req.Date, req.Range)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !ok {
		tx.Rollback()
		return nil, &models.SlotUnavailableError{
			RestaurantID: req.RestaurantID, TableID: req.TableID, Date: req.Date, Range: req.Range,
		}
	}

	slot := TimeSlot{
		TableID:         req.TableID,
		Date:            req.Date,
		StartTime:       req.Range.Start,
		EndTime:         req.Range.End,
		ReservedSeats:   req.Seats,
		Status:          SlotStatusAvailable,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		SpecialRequests: req.SpecialRequests,
	}
	if err := tx.Create(&slot).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Reserved table %d on %s %s-%s (%d seats)",
		req.TableID, req.Date, req.Range.Start.Format("15:04"), req.Range.End.Format("15:04"), req.Seats)
	return &slot, nil
}

// Release cancels the active slot matching the exact table/date/interval.
// Returns false when no such slot exists, which callers treat as already
// released.
func (s *Service) Release(tableID uint, date string, rng models.TimeRange) (bool, error) {
	slot, err := s.findActiveSlot(tableID, date, rng)
	if err != nil {
		return false, err
	}
	if slot == nil {
		return false, nil
	}
	if err := slot.Cancel(); err != nil {
		return false, err
	}
	if err := s.applySlotStatus(slot); err != nil {
		return false, err
	}
	utils.InfoLogger.Printf("Released slot %d for table %d on %s", slot.ID, tableID, date)
	return true, nil
}

// ConfirmSlot promotes the held slot when the reservation is confirmed.
func (s *Service) ConfirmSlot(tableID uint, date string, rng models.TimeRange) error {
	slot, err := s.findActiveSlot(tableID, date, rng)
	if err != nil {
		return err
	}
	if slot == nil {
		return &models.NotFoundError{Entity: "time slot", ID: fmt.Sprintf("table %d on %s", tableID, date)}
	}
	if err := slot.Confirm(); err != nil {
		return err
	}
	return s.applySlotStatus(slot)
}

// CompleteSlot closes out a confirmed slot after the visit.
func (s *Service) CompleteSlot(tableID uint, date string, rng models.TimeRange) error {
	slot, err := s.findActiveSlot(tableID, date, rng)
	if err != nil {
		return err
	}
	if slot == nil {
		return &models.NotFoundError{Entity: "time slot", ID: fmt.Sprintf("table %d on %s", tableID, date)}
	}
	if err := slot.Complete(); err != nil {
		return err
	}
	return s.applySlotStatus(slot)
}

func (s *Service) findActiveSlot(tableID uint, date string, rng models.TimeRange) (*TimeSlot, error) {
	var slot TimeSlot
	err := s.db.Where("table_id = ? AND date = ? AND start_time = ? AND end_time = ? AND status IN ?",
		tableID, date, rng.Start, rng.End,
		[]string{SlotStatusAvailable, SlotStatusConfirmed}).First(&slot).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

// applySlotStatus writes the mutated status behind the slot's version token.
func (s *Service) applySlotStatus(slot *TimeSlot) error {
	res := s.db.Model(&TimeSlot{}).
		Where("id = ? AND version = ?", slot.ID, slot.Version).
		Updates(map[string]interface{}{
			"status":  slot.Status,
			"version": slot.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &models.ConcurrentModificationError{Entity: "time slot", ID: slot.ID}
	}
	slot.Version++
	return nil
}
