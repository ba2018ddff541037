package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/events"
	"github.com/tablebook/reservation-app/inventory"
	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/router"
	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupStack wires a booking router against a real in-process inventory
// service behind httptest, sqlite in-memory on both sides.
func setupStack(t *testing.T) (*gin.Engine, *gorm.DB, func()) {
	t.Helper()

	invDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open inventory database: %v", err)
	}
	if err := invDB.AutoMigrate(&inventory.Restaurant{}, &inventory.Table{}, &inventory.TimeSlot{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	restaurant := inventory.Restaurant{Name: "Trattoria", Capacity: 40, Active: true, OpeningTime: "11:00", ClosingTime: "23:00"}
	if err := invDB.Create(&restaurant).Error; err != nil {
		t.Fatalf("failed to seed restaurant: %v", err)
	}
	table := inventory.Table{RestaurantID: restaurant.ID, TableNumber: "T1", Seats: 4, Available: true, Version: 1}
	if err := invDB.Create(&table).Error; err != nil {
		t.Fatalf("failed to seed table: %v", err)
	}

	srv := httptest.NewServer(inventory.SetupRouter(invDB))

	bookingDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open booking database: %v", err)
	}
	if err := bookingDB.AutoMigrate(&models.Customer{}, &models.Reservation{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	client := services.NewInventoryClient(srv.URL, 5*time.Second)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	booking := services.NewBookingService(
		services.NewGormReservationStore(bookingDB),
		services.NewGormCustomerStore(bookingDB),
		client,
		client,
		events.NewHub(),
		services.DefaultBookingConfig(),
		logger,
	)

	return router.SetupRouter(booking, events.NewHub()), bookingDB, srv.Close
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createPayload() map[string]interface{} {
	return map[string]interface{}{
		"customer_name":  "Ana Pereira",
		"customer_email": "ana@example.com",
		"restaurant_id":  1,
		"table_id":       1,
		"date":           time.Now().AddDate(0, 0, 14).Format(models.DateLayout),
		"start":          "19:00",
		"end":            "21:00",
		"party_size":     4,
	}
}

func TestCreateReservationEndpoint(t *testing.T) {
	r, _, teardown := setupStack(t)
	defer teardown()

	w := postJSON(t, r, "/reservations", createPayload())
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Status bool               `json:"status"`
		Data   models.Reservation `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Status)
	assert.Equal(t, models.ReservationStatusPending, resp.Data.Status)
	assert.NotEmpty(t, resp.Data.Code)
}

func TestCreateReservationConflictStatus(t *testing.T) {
	r, _, teardown := setupStack(t)
	defer teardown()

	assert.Equal(t, http.StatusCreated, postJSON(t, r, "/reservations", createPayload()).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, r, "/reservations", createPayload()).Code)
}

func TestCreateReservationValidationStatus(t *testing.T) {
	r, _, teardown := setupStack(t)
	defer teardown()

	payload := createPayload()
	payload["party_size"] = 13
	assert.Equal(t, http.StatusBadRequest, postJSON(t, r, "/reservations", payload).Code)
}

func TestLifecycleEndpoints(t *testing.T) {
	r, db, teardown := setupStack(t)
	defer teardown()

	assert.Equal(t, http.StatusCreated, postJSON(t, r, "/reservations", createPayload()).Code)
	var reservation models.Reservation
	assert.NoError(t, db.First(&reservation).Error)

	base := fmt.Sprintf("/reservations/%d", reservation.ID)

	// Complete straight from pending is a guard rejection.
	assert.Equal(t, http.StatusUnprocessableEntity, postJSON(t, r, base+"/complete", nil).Code)

	assert.Equal(t, http.StatusOK, postJSON(t, r, base+"/confirm", nil).Code)
	assert.Equal(t, http.StatusOK, postJSON(t, r, base+"/complete", nil).Code)

	// Terminal status: cancelling a completed reservation fails.
	w := postJSON(t, r, base+"/cancel", map[string]string{"reason": "too late"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetReservationNotFound(t *testing.T) {
	r, _, teardown := setupStack(t)
	defer teardown()

	req, _ := http.NewRequest(http.MethodGet, "/reservations/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	r, _, teardown := setupStack(t)
	defer teardown()

	date := time.Now().AddDate(0, 0, 14).Format(models.DateLayout)
	url := fmt.Sprintf("/availability?restaurant_id=1&date=%s&start=19:00&end=21:00&party_size=2", date)
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []services.TableInfo `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}
