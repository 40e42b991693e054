package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Validate only runs after the session gate let the request through
func Validate(c *gin.Context) {
	c.Status(http.StatusOK)
}
