package reading

import (
	"net/http"

	"sensorhub/telemetry-api/internal"
	"sensorhub/telemetry-api/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadingExport handles POST /sensor-data/export
func ReadingExport(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	export, err := d.Exporter.ExportReadings(c.Request.Context(), userID)
	if err != nil {
		apperr.Abort(c, apperr.Store(err))
		return
	}

	zap.L().Info("Exported readings",
		zap.String("key", export.Key),
		zap.Int("count", export.Count),
		zap.String("requestID", requestID))

	c.JSON(http.StatusCreated, export)
}
