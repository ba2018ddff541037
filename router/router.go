package router

import (
	"github.com/gin-gonic/gin"

	"github.com/tablebook/reservation-app/controllers"
	"github.com/tablebook/reservation-app/events"
	"github.com/tablebook/reservation-app/middlewares"
	"github.com/tablebook/reservation-app/services"
)

// SetupRouter wires the booking service routes.
func SetupRouter(booking *services.BookingService, hub *events.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	ctrl := controllers.NewReservationController(booking)

	reservations := r.Group("/reservations")
	{
		reservations.POST("", ctrl.CreateReservation)
		reservations.GET("", ctrl.ListReservations)
		reservations.GET("/code/:code", ctrl.GetReservationByCode)
		reservations.GET("/:reservation_id", ctrl.GetReservation)
		reservations.PATCH("/:reservation_id", ctrl.UpdateReservation)
		reservations.POST("/:reservation_id/confirm", ctrl.ConfirmReservation)
		reservations.POST("/:reservation_id/cancel", ctrl.CancelReservation)
		reservations.POST("/:reservation_id/complete", ctrl.CompleteReservation)
		reservations.POST("/:reservation_id/no-show", ctrl.MarkNoShow)
	}

	r.GET("/availability", ctrl.CheckAvailability)
	r.GET("/restaurants/:restaurant_id/reservations", ctrl.ListByRestaurantAndDate)
	r.GET("/ws/events", hub.ServeWS)

	return r
}
