package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"sensorhub/telemetry-api/internal/apperr"
	"sensorhub/telemetry-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Policy decides what an unauthenticated request to a gated route gets back
type Policy int

const (
	// PolicyAPI answers with 401 and a JSON error body
	PolicyAPI Policy = iota
	// PolicyInteractive redirects the browser to the login page
	PolicyInteractive
)

// Verifier is satisfied by *security.TokenIssuer
type Verifier interface {
	Verify(token string) (*security.Identity, error)
}

type SessionGate struct {
	verifier   Verifier
	cookieName string
	loginPath  string
}

func NewSessionGate(v Verifier, cookieName, loginPath string) *SessionGate {
	return &SessionGate{
		verifier:   v,
		cookieName: cookieName,
		loginPath:  loginPath,
	}
}

// Require returns a middleware that only lets requests with a valid session
// token through. On success "identity" and "userID" are set on the context.
func (g *SessionGate) Require(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.Identify(c)
		if err != nil {
			zap.L().Debug("Session rejected", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			g.reject(c, p)
			return
		}

		c.Set("identity", id)
		c.Set("userID", id.UserID)
		c.Next()
	}
}

// Identify looks for a token in the Authorization header first and the
// session cookie second. A Bearer header that fails verification is final,
// the cookie isn't consulted.
func (g *SessionGate) Identify(c *gin.Context) (*security.Identity, error) {
	if tok, ok := bearerToken(c.GetHeader("Authorization")); ok {
		return g.verifier.Verify(tok)
	}

	tok, err := c.Cookie(g.cookieName)
	if err != nil || tok == "" {
		return nil, security.ErrInvalidToken
	}

	return g.verifier.Verify(tok)
}

func (g *SessionGate) reject(c *gin.Context, p Policy) {
	if p == PolicyInteractive {
		target := g.loginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}

	apperr.Abort(c, apperr.Unauthorized("Authorization token missing, invalid or expired"))
}

func bearerToken(h string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	return strings.TrimSpace(tok), true
}

// Identity returns the identity the session gate attached to c
func Identity(c *gin.Context) *security.Identity {
	v, ok := c.Get("identity")
	if !ok {
		return nil
	}

	id, _ := v.(*security.Identity)
	return id
}
