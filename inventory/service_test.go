package inventory

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&Restaurant{}, &Table{}, &TimeSlot{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedRestaurant(t *testing.T, db *gorm.DB) *Restaurant {
	t.Helper()
	r := Restaurant{Name: "Trattoria", Capacity: 40, Active: true, OpeningTime: "11:00", ClosingTime: "23:00"}
	assert.NoError(t, db.Create(&r).Error)
	return &r
}

func seedTable(t *testing.T, db *gorm.DB, restaurantID uint, number string, seats int) *Table {
	t.Helper()
	tb := Table{RestaurantID: restaurantID, TableNumber: number, Seats: seats, Location: "main", Available: true, Version: 1}
	assert.NoError(t, db.Create(&tb).Error)
	return &tb
}

func slotRange(t *testing.T, start, end string) models.TimeRange {
	t.Helper()
	rng, err := models.NewTimeRangeOn("2025-12-25", start, end, SlotMinDuration, SlotMaxDuration)
	assert.NoError(t, err)
	return rng
}

func TestSlotConflictsWith(t *testing.T) {
	day := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	base := TimeSlot{TableID: 1, Date: "2025-12-25", Status: SlotStatusAvailable,
		StartTime: day.Add(19 * time.Hour), EndTime: day.Add(21 * time.Hour)}

	overlapping := base
	overlapping.StartTime = day.Add(20 * time.Hour)
	overlapping.EndTime = day.Add(22 * time.Hour)
	assert.True(t, base.ConflictsWith(&overlapping))

	backToBack := base
	backToBack.StartTime = day.Add(21 * time.Hour)
	backToBack.EndTime = day.Add(23 * time.Hour)
	assert.False(t, base.ConflictsWith(&backToBack))

	otherTable := overlapping
	otherTable.TableID = 2
	assert.False(t, base.ConflictsWith(&otherTable))

	cancelled := overlapping
	cancelled.Status = SlotStatusCancelled
	assert.False(t, base.ConflictsWith(&cancelled))
}

func TestSlotLifecycle(t *testing.T) {
	slot := TimeSlot{ID: 1, Status: SlotStatusAvailable}

	assert.NoError(t, slot.Confirm())
	assert.Equal(t, SlotStatusConfirmed, slot.Status)
	assert.NoError(t, slot.Complete())
	assert.Equal(t, SlotStatusCompleted, slot.Status)

	var invalidOp *models.InvalidOperationError
	assert.ErrorAs(t, slot.Cancel(), &invalidOp, "completed slots accept no further transitions")
	assert.ErrorAs(t, slot.Confirm(), &invalidOp)

	slot = TimeSlot{ID: 2, Status: SlotStatusAvailable}
	assert.ErrorAs(t, slot.Complete(), &invalidOp, "complete requires a confirmed slot")
	assert.NoError(t, slot.Cancel())
	assert.ErrorAs(t, slot.Confirm(), &invalidOp)
}

func TestFindAvailableTables(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)

	big := seedTable(t, db, r.ID, "T1", 8)
	small := seedTable(t, db, r.ID, "T2", 4)
	other := seedTable(t, db, r.ID, "T3", 4)
	blocked := seedTable(t, db, r.ID, "T4", 4)
	off := seedTable(t, db, r.ID, "T5", 6)
	assert.NoError(t, db.Model(off).Update("available", false).Error)

	rng := slotRange(t, "19:00", "21:00")

	// An active overlapping slot blocks T4; a cancelled one would not.
	_, err := svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: blocked.ID,
		Date: "2025-12-25", Range: slotRange(t, "18:00", "20:00"), Seats: 2})
	assert.NoError(t, err)

	tables, err := svc.FindAvailableTables(r.ID, "2025-12-25", rng, 3)
	assert.NoError(t, err)

	ids := make([]uint, 0, len(tables))
	for _, tb := range tables {
		ids = append(ids, tb.ID)
	}
	// Smallest adequate table first, ties broken by id; T4 blocked, T5 off.
	assert.Equal(t, []uint{small.ID, other.ID, big.ID}, ids)
}

func TestAvailabilityIgnoresInactiveSlots(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)
	tb := seedTable(t, db, r.ID, "T1", 4)
	rng := slotRange(t, "19:00", "21:00")

	slot, err := svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: tb.ID,
		Date: "2025-12-25", Range: rng, Seats: 4})
	assert.NoError(t, err)

	available, err := svc.IsAvailable(tb.ID, "2025-12-25", rng)
	assert.NoError(t, err)
	assert.False(t, available)

	released, err := svc.Release(tb.ID, "2025-12-25", rng)
	assert.NoError(t, err)
	assert.True(t, released)

	available, err = svc.IsAvailable(tb.ID, "2025-12-25", rng)
	assert.NoError(t, err)
	assert.True(t, available, "cancelled slots never block new bookings")

	var stored TimeSlot
	assert.NoError(t, db.First(&stored, slot.ID).Error)
	assert.Equal(t, SlotStatusCancelled, stored.Status)
}

func TestIsAvailableBackToBack(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)
	tb := seedTable(t, db, r.ID, "T1", 4)

	_, err := svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: tb.ID,
		Date: "2025-12-25", Range: slotRange(t, "19:00", "21:00"), Seats: 4})
	assert.NoError(t, err)

	available, err := svc.IsAvailable(tb.ID, "2025-12-25", slotRange(t, "21:00", "23:00"))
	assert.NoError(t, err)
	assert.True(t, available, "a shared endpoint is not a conflict")
}

func TestReserveRejectsSecondBooker(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)
	tb := seedTable(t, db, r.ID, "T1", 4)
	rng := slotRange(t, "19:00", "21:00")

	slot, err := svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: tb.ID,
		Date: "2025-12-25", Range: rng, Seats: 4,
		CustomerName: "Ana", CustomerEmail: "ana@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, SlotStatusAvailable, slot.Status)

	_, err = svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: tb.ID,
		Date: "2025-12-25", Range: slotRange(t, "20:00", "22:00"), Seats: 2})
	var slotErr *models.SlotUnavailableError
	assert.ErrorAs(t, err, &slotErr)

	var count int64
	db.Model(&TimeSlot{}).Count(&count)
	assert.Equal(t, int64(1), count, "losing reserve must not create a slot")
}

func TestReserveCapacityAndFlags(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)
	tb := seedTable(t, db, r.ID, "T1", 4)
	rng := slotRange(t, "19:00", "21:00")

	_, err := svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: tb.ID,
		Date: "2025-12-25", Range: rng, Seats: 6})
	var slotErr *models.SlotUnavailableError
	assert.ErrorAs(t, err, &slotErr, "party larger than the table is rejected")

	assert.NoError(t, db.Model(tb).Update("available", false).Error)
	_, err = svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: tb.ID,
		Date: "2025-12-25", Range: rng, Seats: 2})
	assert.ErrorAs(t, err, &slotErr)

	_, err = svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: 999,
		Date: "2025-12-25", Range: rng, Seats: 2})
	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestReserveStaleTableVersion(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)
	tb := seedTable(t, db, r.ID, "T1", 4)

	// A writer that raced ahead bumped the version after our read.
	loaded, err := svc.GetTable(tb.ID)
	assert.NoError(t, err)
	assert.NoError(t, db.Model(&Table{}).Where("id = ?", tb.ID).
		Update("version", loaded.Version+1).Error)

	res := db.Model(&Table{}).
		Where("id = ? AND version = ?", loaded.ID, loaded.Version).
		Update("version", loaded.Version+1)
	assert.NoError(t, res.Error)
	assert.Equal(t, int64(0), res.RowsAffected, "stale version must not write")
}

func TestSlotStatusTransitionsPersisted(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)
	tb := seedTable(t, db, r.ID, "T1", 4)
	rng := slotRange(t, "19:00", "21:00")

	slot, err := svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: tb.ID,
		Date: "2025-12-25", Range: rng, Seats: 4})
	assert.NoError(t, err)

	assert.NoError(t, svc.ConfirmSlot(tb.ID, "2025-12-25", rng))
	var stored TimeSlot
	assert.NoError(t, db.First(&stored, slot.ID).Error)
	assert.Equal(t, SlotStatusConfirmed, stored.Status)
	assert.Equal(t, slot.Version+1, stored.Version)

	assert.NoError(t, svc.CompleteSlot(tb.ID, "2025-12-25", rng))
	assert.NoError(t, db.First(&stored, slot.ID).Error)
	assert.Equal(t, SlotStatusCompleted, stored.Status)

	// Terminal: no active slot left to release.
	released, err := svc.Release(tb.ID, "2025-12-25", rng)
	assert.NoError(t, err)
	assert.False(t, released)
}

func TestCompleteSlotRequiresConfirmed(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	r := seedRestaurant(t, db)
	tb := seedTable(t, db, r.ID, "T1", 4)
	rng := slotRange(t, "19:00", "21:00")

	_, err := svc.Reserve(ReserveRequest{RestaurantID: r.ID, TableID: tb.ID,
		Date: "2025-12-25", Range: rng, Seats: 4})
	assert.NoError(t, err)

	var invalidOp *models.InvalidOperationError
	assert.ErrorAs(t, svc.CompleteSlot(tb.ID, "2025-12-25", rng), &invalidOp)
}
