package user

import (
	"context"
	"errors"
	"net/http"

	"sensorhub/telemetry-api/internal"
	"sensorhub/telemetry-api/internal/apperr"
	"sensorhub/telemetry-api/internal/model"
	"sensorhub/telemetry-api/internal/store"
	"sensorhub/telemetry-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RegisterBody struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register creates the account described by body and issues its first
// token. Returned errors are *apperr.Error.
func Register(ctx context.Context, d *internal.Deps, body RegisterBody) (*model.User, string, error) {
	if err := validators.NameValidator(body.Name); err != nil {
		return nil, "", apperr.Validation(err.Error())
	}

	if err := validators.EmailValidator(body.Email); err != nil {
		return nil, "", apperr.Validation(err.Error())
	}

	if err := validators.PasswordValidator(body.Password); err != nil {
		return nil, "", apperr.Validation(err.Error())
	}

	u, err := d.Users.CreateUser(ctx, body.Name, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, "", apperr.Conflict("This email is already registered. Please login or use a different email")
		}

		return nil, "", apperr.Store(err)
	}

	tok, err := d.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, "", apperr.Store(err)
	}

	return u, tok, nil
}

// UserRegister handles POST /signup
func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body RegisterBody
	if err := c.ShouldBind(&body); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		apperr.Abort(c, apperr.Bind(err, "Invalid request body"))
		return
	}

	u, tok, err := Register(c.Request.Context(), d, body)
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	zap.L().Info("User registered", zap.String("userID", u.ID), zap.String("requestID", requestID))

	if d.Mailer != nil {
		d.Mailer.SendAsync(u.Name, u.Email, requestID)
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": tok,
		"user":  u,
	})
}
