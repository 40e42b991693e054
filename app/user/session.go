package user

import (
	"net/http"

	"sensorhub/telemetry-api/internal"

	"github.com/gin-gonic/gin"
)

// SetSessionCookie stores tok in an HttpOnly, SameSite=Strict cookie that
// lives as long as the token does
func SetSessionCookie(c *gin.Context, d *internal.Deps, tok string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(d.Config.CookieName, tok, int(d.Tokens.TTL().Seconds()), "/", "", d.Config.CookieSecure, true)
}

func ClearSessionCookie(c *gin.Context, d *internal.Deps) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(d.Config.CookieName, "", -1, "/", "", d.Config.CookieSecure, true)
}

// UserLogout handles POST /logout. Tokens are stateless, so this only
// drops the cookie.
func UserLogout(c *gin.Context, d *internal.Deps) {
	ClearSessionCookie(c, d)
	c.Status(http.StatusNoContent)
}
