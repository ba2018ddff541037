package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablebook/reservation-app/models"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondDomainError maps the domain error taxonomy onto HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		slotErr       *models.SlotUnavailableError
		invalidOpErr  *models.InvalidOperationError
		inactiveErr   *models.RestaurantInactiveError
		upstreamErr   *models.UpstreamUnavailableError
		concurrentErr *models.ConcurrentModificationError
	)
	switch {
	case errors.As(err, &validationErr):
		RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &notFoundErr):
		RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &slotErr):
		RespondError(c, http.StatusConflict, err)
	case errors.As(err, &concurrentErr):
		RespondError(c, http.StatusConflict, err)
	case errors.As(err, &invalidOpErr):
		RespondError(c, http.StatusUnprocessableEntity, err)
	case errors.As(err, &inactiveErr):
		RespondError(c, http.StatusUnprocessableEntity, err)
	case errors.As(err, &upstreamErr):
		RespondError(c, http.StatusBadGateway, err)
	default:
		RespondError(c, http.StatusInternalServerError, err)
	}
}
