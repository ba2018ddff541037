package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

type ReservationController struct {
	booking *services.BookingService
}

func NewReservationController(booking *services.BookingService) *ReservationController {
	return &ReservationController{booking: booking}
}

func reservationID(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("reservation_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest,
			models.NewValidationError("reservation_id", "must be a positive integer"))
		return 0, false
	}
	return uint(v), true
}

// CreateReservation -> run the create saga
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req services.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	reservation, err := rc.booking.CreateReservation(c.Request.Context(), req)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created successfully", reservation)
}

// UpdateReservation -> modify a pending reservation
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req services.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	reservation, err := rc.booking.UpdateReservation(c.Request.Context(), id, req)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation updated successfully", reservation)
}

// ConfirmReservation -> pending to confirmed
func (rc *ReservationController) ConfirmReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	reservation, err := rc.booking.ConfirmReservation(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation confirmed", reservation)
}

// CancelReservation -> cancel and free the slot
func (rc *ReservationController) CancelReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	reservation, err := rc.booking.CancelReservation(c.Request.Context(), id, req.Reason)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", reservation)
}

// CompleteReservation -> close out a confirmed visit
func (rc *ReservationController) CompleteReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	reservation, err := rc.booking.CompleteReservation(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation completed", reservation)
}

// MarkNoShow -> the party never arrived
func (rc *ReservationController) MarkNoShow(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	reservation, err := rc.booking.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation marked as no-show", reservation)
}

// GetReservation -> single reservation by id
func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	reservation, err := rc.booking.GetReservation(id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

// GetReservationByCode -> lookup by confirmation code
func (rc *ReservationController) GetReservationByCode(c *gin.Context) {
	reservation, err := rc.booking.GetReservationByCode(c.Param("code"))
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

// ListReservations -> filter by customer email, status, or upcoming window
func (rc *ReservationController) ListReservations(c *gin.Context) {
	email := c.Query("customer_email")
	status := c.Query("status")
	upcoming := c.Query("upcoming") == "true"

	var (
		reservations []models.Reservation
		err          error
	)
	switch {
	case email != "" && upcoming:
		reservations, err = rc.booking.UpcomingForCustomer(email)
	case email != "":
		reservations, err = rc.booking.ListByCustomer(email)
	case status != "":
		reservations, err = rc.booking.ListByStatus(status)
	default:
		utils.RespondError(c, http.StatusBadRequest,
			models.NewValidationError("query", "customer_email or status is required"))
		return
	}
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// ListByRestaurantAndDate -> a restaurant's book for one day
func (rc *ReservationController) ListByRestaurantAndDate(c *gin.Context) {
	v, err := strconv.ParseUint(c.Param("restaurant_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest,
			models.NewValidationError("restaurant_id", "must be a positive integer"))
		return
	}
	date := c.Query("date")
	if date == "" {
		utils.RespondError(c, http.StatusBadRequest, models.NewValidationError("date", "is required"))
		return
	}
	reservations, err := rc.booking.ListByRestaurantAndDate(uint(v), date)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// CheckAvailability -> free tables for a window, smallest adequate first
func (rc *ReservationController) CheckAvailability(c *gin.Context) {
	restaurantID, err := strconv.ParseUint(c.Query("restaurant_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest,
			models.NewValidationError("restaurant_id", "must be a positive integer"))
		return
	}
	partySize, err := strconv.Atoi(c.DefaultQuery("party_size", "1"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest,
			models.NewValidationError("party_size", "must be a positive integer"))
		return
	}
	tables, err := rc.booking.CheckAvailability(c.Request.Context(),
		uint(restaurantID), c.Query("date"), c.Query("start"), c.Query("end"), partySize)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available tables", tables)
}
