package reading

import (
	"net/http"

	"sensorhub/telemetry-api/internal"
	"sensorhub/telemetry-api/internal/apperr"

	"github.com/gin-gonic/gin"
)

// ReadingList handles GET /sensor-data
func ReadingList(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	readings, err := d.Readings.ListReadings(c.Request.Context(), userID)
	if err != nil {
		apperr.Abort(c, apperr.Store(err))
		return
	}

	c.JSON(http.StatusOK, readings)
}
