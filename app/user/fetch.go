package user

import (
	"errors"
	"net/http"

	"sensorhub/telemetry-api/internal"
	"sensorhub/telemetry-api/internal/apperr"
	"sensorhub/telemetry-api/internal/store"

	"github.com/gin-gonic/gin"
)

// UserFetch handles GET /me
func UserFetch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	u, err := d.Users.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			apperr.Abort(c, apperr.NotFound("User not found"))
			return
		}

		apperr.Abort(c, apperr.Store(err))
		return
	}

	c.JSON(http.StatusOK, u)
}
