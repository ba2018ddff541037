package inventory

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/utils"
)

type Controller struct {
	svc *Service
}

func NewController(db *gorm.DB) *Controller {
	return &Controller{svc: NewService(db)}
}

// slotParams is the wire shape shared by reserve/release/confirm/complete.
type slotParams struct {
	Date  string `json:"date" binding:"required"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

func (p slotParams) timeRange() (models.TimeRange, error) {
	return models.NewTimeRangeOn(p.Date, p.Start, p.End, SlotMinDuration, SlotMaxDuration)
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, models.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return uint(v), true
}

// GetRestaurant -> restaurant info for the booking service's directory lookups
func (ic *Controller) GetRestaurant(c *gin.Context) {
	id, ok := paramUint(c, "restaurant_id")
	if !ok {
		return
	}
	r, err := ic.svc.GetRestaurant(id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant info", r)
}

// CreateTable -> register a new bookable table
func (ic *Controller) CreateTable(c *gin.Context) {
	restaurantID, ok := paramUint(c, "restaurant_id")
	if !ok {
		return
	}
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
		Seats       int    `json:"seats" binding:"required"`
		Location    string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	table := Table{
		RestaurantID: restaurantID,
		TableNumber:  req.TableNumber,
		Seats:        req.Seats,
		Location:     req.Location,
		Available:    true,
	}
	if err := ic.svc.CreateTable(&table); err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.InfoLogger.Printf("New table created: %s (restaurant=%d seats=%d)",
		table.TableNumber, table.RestaurantID, table.Seats)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// ListTables -> all tables of a restaurant
func (ic *Controller) ListTables(c *gin.Context) {
	restaurantID, ok := paramUint(c, "restaurant_id")
	if !ok {
		return
	}
	tables, err := ic.svc.ListTables(restaurantID)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// SetTableAvailability -> flip the admin availability flag
func (ic *Controller) SetTableAvailability(c *gin.Context) {
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}
	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	table, err := ic.svc.SetTableAvailability(tableID, *req.Available)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table availability updated", table)
}

func rangeFromQuery(c *gin.Context) (string, models.TimeRange, bool) {
	date := c.Query("date")
	rng, err := models.NewTimeRangeOn(date, c.Query("start"), c.Query("end"), SlotMinDuration, SlotMaxDuration)
	if err != nil {
		utils.RespondDomainError(c, err)
		return "", models.TimeRange{}, false
	}
	return date, rng, true
}

// FindAvailableTables -> tables free for the window, smallest adequate first
func (ic *Controller) FindAvailableTables(c *gin.Context) {
	restaurantID, ok := paramUint(c, "restaurant_id")
	if !ok {
		return
	}
	partySize, err := strconv.Atoi(c.DefaultQuery("party_size", "1"))
	if err != nil || partySize < 1 {
		utils.RespondError(c, http.StatusBadRequest, models.NewValidationError("party_size", "must be a positive integer"))
		return
	}
	date, rng, ok := rangeFromQuery(c)
	if !ok {
		return
	}
	tables, err := ic.svc.FindAvailableTables(restaurantID, date, rng, partySize)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available tables", tables)
}

// CheckTableAvailability -> single-table availability predicate
func (ic *Controller) CheckTableAvailability(c *gin.Context) {
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}
	date, rng, ok := rangeFromQuery(c)
	if !ok {
		return
	}
	available, err := ic.svc.IsAvailable(tableID, date, rng)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table availability", gin.H{
		"table_id":  tableID,
		"date":      date,
		"available": available,
	})
}

// Reserve -> hold the table for the interval (slot created in available status)
func (ic *Controller) Reserve(c *gin.Context) {
	restaurantID, ok := paramUint(c, "restaurant_id")
	if !ok {
		return
	}
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}
	var req struct {
		slotParams
		Seats           int    `json:"seats" binding:"required"`
		CustomerName    string `json:"customer_name"`
		CustomerEmail   string `json:"customer_email"`
		SpecialRequests string `json:"special_requests"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	rng, err := req.timeRange()
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	slot, err := ic.svc.Reserve(ReserveRequest{
		RestaurantID:    restaurantID,
		TableID:         tableID,
		Date:            req.Date,
		Range:           rng,
		Seats:           req.Seats,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table reserved", slot)
}

// Release -> cancel the active slot for the exact interval
func (ic *Controller) Release(c *gin.Context) {
	_, ok := paramUint(c, "restaurant_id")
	if !ok {
		return
	}
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}
	var req slotParams
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	rng, err := req.timeRange()
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	released, err := ic.svc.Release(tableID, req.Date, rng)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Release processed", gin.H{"released": released})
}

// ConfirmSlot -> promote the held slot when the reservation is confirmed
func (ic *Controller) ConfirmSlot(c *gin.Context) {
	ic.transitionSlot(c, "confirm")
}

// CompleteSlot -> close out a confirmed slot after the visit
func (ic *Controller) CompleteSlot(c *gin.Context) {
	ic.transitionSlot(c, "complete")
}

func (ic *Controller) transitionSlot(c *gin.Context, op string) {
	_, ok := paramUint(c, "restaurant_id")
	if !ok {
		return
	}
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}
	var req slotParams
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	rng, err := req.timeRange()
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	switch op {
	case "confirm":
		err = ic.svc.ConfirmSlot(tableID, req.Date, rng)
	case "complete":
		err = ic.svc.CompleteSlot(tableID, req.Date, rng)
	}
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Slot updated", gin.H{"table_id": tableID, "date": req.Date})
}
