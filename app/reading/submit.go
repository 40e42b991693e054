// Package reading contains the telemetry handlers
package reading

import (
	"errors"
	"net/http"

	"sensorhub/telemetry-api/internal"
	"sensorhub/telemetry-api/internal/apperr"
	"sensorhub/telemetry-api/internal/store"
	"sensorhub/telemetry-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type readingBody struct {
	Temperature *float64 `json:"temperature" form:"temperature"`
	Humidity    *float64 `json:"humidity" form:"humidity"`
}

func bindReading(c *gin.Context) (temperature, humidity float64, err error) {
	var body readingBody
	if err := c.ShouldBind(&body); err != nil {
		return 0, 0, apperr.Bind(err, "temperature and humidity must be numbers")
	}

	if err := validators.ReadingValidator(body.Temperature, body.Humidity); err != nil {
		return 0, 0, apperr.Validation(err.Error())
	}

	return *body.Temperature, *body.Humidity, nil
}

// ReadingSubmit handles POST /sensor-data/:userId. The owner always comes
// from the session token, the path segment is informational.
func ReadingSubmit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	if pathID := c.Param("userId"); pathID != userID {
		zap.L().Debug("Path user id differs from token, using token",
			zap.String("pathUserID", pathID),
			zap.String("userID", userID),
			zap.String("requestID", requestID))
	}

	temperature, humidity, err := bindReading(c)
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	r, err := d.Readings.RecordReading(c.Request.Context(), userID, temperature, humidity)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			apperr.Abort(c, apperr.NotFound("User not found"))
			return
		}

		apperr.Abort(c, apperr.Store(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sensor data saved successfully",
		"data":    r,
	})
}

// ReadingIngest handles the unauthenticated POST /sensor-data. It only
// validates and logs the sample, nothing is stored.
func ReadingIngest(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	temperature, humidity, err := bindReading(c)
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	zap.L().Info("Received anonymous sensor data",
		zap.Float64("temperature", temperature),
		zap.Float64("humidity", humidity),
		zap.String("requestID", requestID))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Data received successfully",
		"data": gin.H{
			"temperature": temperature,
			"humidity":    humidity,
		},
	})
}
