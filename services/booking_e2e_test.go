package services_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/inventory"
	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/services"
)

// TestEndToEndBookingFlow drives the whole saga through a real inventory
// service over HTTP:
//
//  1. availability query
//  2. create (remote hold)
//  3. losing duplicate create
//  4. reschedule (release + re-reserve)
//  5. confirm, complete
//  6. cancel releasing the slot
func TestEndToEndBookingFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	invDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, invDB.AutoMigrate(&inventory.Restaurant{}, &inventory.Table{}, &inventory.TimeSlot{}))

	restaurant := inventory.Restaurant{Name: "Trattoria", Capacity: 40, Active: true, OpeningTime: "11:00", ClosingTime: "23:00"}
	assert.NoError(t, invDB.Create(&restaurant).Error)
	small := inventory.Table{RestaurantID: restaurant.ID, TableNumber: "T1", Seats: 2, Available: true, Version: 1}
	big := inventory.Table{RestaurantID: restaurant.ID, TableNumber: "T2", Seats: 4, Available: true, Version: 1}
	assert.NoError(t, invDB.Create(&small).Error)
	assert.NoError(t, invDB.Create(&big).Error)

	srv := httptest.NewServer(inventory.SetupRouter(invDB))
	defer srv.Close()

	bookingDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, bookingDB.AutoMigrate(&models.Customer{}, &models.Reservation{}))

	client := services.NewInventoryClient(srv.URL, 5*time.Second)
	store := services.NewGormReservationStore(bookingDB)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	booking := services.NewBookingService(
		store,
		services.NewGormCustomerStore(bookingDB),
		client,
		client,
		&fakeSink{},
		services.DefaultBookingConfig(),
		logger,
	)

	ctx := context.Background()
	date := futureDate()

	// 1. Both tables can seat a party of two, smallest first.
	tables, err := booking.CheckAvailability(ctx, restaurant.ID, date, "19:00", "21:00", 2)
	assert.NoError(t, err)
	assert.Len(t, tables, 2)
	assert.Equal(t, small.ID, tables[0].ID)

	// 2. Create holds the big table remotely.
	req := services.CreateReservationRequest{
		CustomerName:  "Ana Pereira",
		CustomerEmail: "ana@example.com",
		RestaurantID:  restaurant.ID,
		TableID:       big.ID,
		Date:          date,
		Start:         "19:00",
		End:           "21:00",
		PartySize:     4,
	}
	reservation, err := booking.CreateReservation(ctx, req)
	assert.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPending, reservation.Status)

	var slot inventory.TimeSlot
	assert.NoError(t, invDB.Where("table_id = ?", big.ID).First(&slot).Error)
	assert.Equal(t, inventory.SlotStatusAvailable, slot.Status)
	assert.Equal(t, "ana@example.com", slot.CustomerEmail)

	// 3. A second booker loses the identical slot and leaves no orphan.
	dup := req
	dup.CustomerEmail = "bruno@example.com"
	dup.CustomerName = "Bruno Costa"
	_, err = booking.CreateReservation(ctx, dup)
	var slotErr *models.SlotUnavailableError
	assert.ErrorAs(t, err, &slotErr)

	var count int64
	bookingDB.Model(&models.Reservation{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// 4. Reschedule: old slot cancelled, new one held.
	updated, err := booking.UpdateReservation(ctx, reservation.ID,
		services.UpdateReservationRequest{Date: date, Start: "20:00", End: "22:00"})
	assert.NoError(t, err)
	assert.Equal(t, "20:00", updated.StartTime.Format("15:04"))

	var active []inventory.TimeSlot
	assert.NoError(t, invDB.Where("table_id = ? AND status = ?", big.ID, inventory.SlotStatusAvailable).
		Find(&active).Error)
	assert.Len(t, active, 1)
	assert.Equal(t, "20:00", active[0].StartTime.Format("15:04"))

	// 5. Confirm then complete, mirrored on the slot.
	_, err = booking.ConfirmReservation(ctx, reservation.ID)
	assert.NoError(t, err)
	slot = inventory.TimeSlot{}
	assert.NoError(t, invDB.First(&slot, active[0].ID).Error)
	assert.Equal(t, inventory.SlotStatusConfirmed, slot.Status)

	completed, err := booking.CompleteReservation(ctx, reservation.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCompleted, completed.Status)
	slot = inventory.TimeSlot{}
	assert.NoError(t, invDB.First(&slot, active[0].ID).Error)
	assert.Equal(t, inventory.SlotStatusCompleted, slot.Status)

	// 6. A fresh booking on the small table cancels cleanly.
	req2 := req
	req2.TableID = small.ID
	req2.PartySize = 2
	second, err := booking.CreateReservation(ctx, req2)
	assert.NoError(t, err)

	cancelled, err := booking.CancelReservation(ctx, second.ID, "change of plans")
	assert.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, cancelled.Status)

	slot = inventory.TimeSlot{}
	assert.NoError(t, invDB.Where("table_id = ?", small.ID).First(&slot).Error)
	assert.Equal(t, inventory.SlotStatusCancelled, slot.Status)

	// Directory lookups surface missing restaurants as typed errors.
	_, err = client.GetRestaurant(ctx, 99)
	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
