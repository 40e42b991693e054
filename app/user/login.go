package user

import (
	"context"
	"errors"
	"net/http"

	"sensorhub/telemetry-api/internal"
	"sensorhub/telemetry-api/internal/apperr"
	"sensorhub/telemetry-api/internal/model"
	"sensorhub/telemetry-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

var errInvalidCredentials = apperr.Unauthorized("Invalid credentials")

// Login checks the credentials and issues a token. An unknown email and a
// wrong password give the same error.
func Login(ctx context.Context, d *internal.Deps, body LoginBody) (*model.User, string, error) {
	if body.Email == "" {
		return nil, "", apperr.Validation("Email field can't be empty")
	}

	if body.Password == "" {
		return nil, "", apperr.Validation("Password field can't be empty")
	}

	u, err := d.Users.Authenticate(ctx, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			return nil, "", errInvalidCredentials
		}

		return nil, "", apperr.Store(err)
	}

	tok, err := d.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, "", apperr.Store(err)
	}

	return u, tok, nil
}

// UserLogin handles POST /login
func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body LoginBody
	if err := c.ShouldBind(&body); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		apperr.Abort(c, apperr.Bind(err, "Invalid request body"))
		return
	}

	u, tok, err := Login(c.Request.Context(), d, body)
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  tok,
		"userID": u.ID,
	})
}
