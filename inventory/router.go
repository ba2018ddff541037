package inventory

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/middlewares"
)

// SetupRouter wires the inventory service routes.
func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares())

	ctrl := NewController(db)

	restaurants := r.Group("/restaurants/:restaurant_id")
	{
		restaurants.GET("", ctrl.GetRestaurant)
		restaurants.GET("/availability", ctrl.FindAvailableTables)
		restaurants.GET("/tables", ctrl.ListTables)
		restaurants.POST("/tables", ctrl.CreateTable)

		tables := restaurants.Group("/tables/:table_id")
		{
			tables.GET("/availability", ctrl.CheckTableAvailability)
			tables.POST("/reserve", ctrl.Reserve)
			tables.POST("/release", ctrl.Release)
			tables.POST("/confirm", ctrl.ConfirmSlot)
			tables.POST("/complete", ctrl.CompleteSlot)
		}
	}

	r.PATCH("/tables/:table_id/availability", ctrl.SetTableAvailability)

	return r
}
