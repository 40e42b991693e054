// Package web serves the browser facing pages. Failures here render a page
// or redirect, they never answer with a JSON body.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"sensorhub/telemetry-api/app/user"
	"sensorhub/telemetry-api/internal"
	"sensorhub/telemetry-api/internal/apperr"
	"sensorhub/telemetry-api/internal/model"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const dashboardPath = "/app/sensor-data"

// Templates parses the embedded page templates
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
}

type formPage struct {
	Title string
	Error string
	Name  string
	Email string
	Next  string
}

type readingsPage struct {
	Title    string
	Readings []model.Reading
}

func SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.tmpl", formPage{Title: "Sign up"})
}

// SignupSubmit handles POST /app/signup
func SignupSubmit(c *gin.Context, d *internal.Deps) {
	var body user.RegisterBody
	if err := c.ShouldBind(&body); err != nil {
		renderError(c, "signup.tmpl", formPage{Title: "Sign up"}, apperr.Bind(err, "Invalid form"))
		return
	}

	u, tok, err := user.Register(c.Request.Context(), d, body)
	if err != nil {
		renderError(c, "signup.tmpl", formPage{Title: "Sign up", Name: body.Name, Email: body.Email}, err)
		return
	}

	if d.Mailer != nil {
		d.Mailer.SendAsync(u.Name, u.Email, c.GetString("requestID"))
	}

	user.SetSessionCookie(c, d, tok)
	c.Redirect(http.StatusFound, dashboardPath)
}

func LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.tmpl", formPage{Title: "Log in", Next: c.Query("next")})
}

// LoginSubmit handles POST /app/login
func LoginSubmit(c *gin.Context, d *internal.Deps) {
	next := c.PostForm("next")

	var body user.LoginBody
	if err := c.ShouldBind(&body); err != nil {
		renderError(c, "login.tmpl", formPage{Title: "Log in", Next: next}, apperr.Bind(err, "Invalid form"))
		return
	}

	_, tok, err := user.Login(c.Request.Context(), d, body)
	if err != nil {
		renderError(c, "login.tmpl", formPage{Title: "Log in", Email: body.Email, Next: next}, err)
		return
	}

	user.SetSessionCookie(c, d, tok)
	c.Redirect(http.StatusFound, safeNext(next))
}

// Dashboard handles GET /app/sensor-data
func Dashboard(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	readings, err := d.Readings.ListReadings(c.Request.Context(), userID)
	if err != nil {
		apperr.Log(c, apperr.Store(err))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.HTML(http.StatusOK, "readings.tmpl", readingsPage{Title: "Sensor data", Readings: readings})
}

// Logout handles POST /app/logout
func Logout(c *gin.Context, d *internal.Deps) {
	user.ClearSessionCookie(c, d)
	c.Redirect(http.StatusFound, d.Config.LoginPath)
}

func renderError(c *gin.Context, name string, page formPage, err error) {
	e := apperr.From(err)
	apperr.Log(c, e)

	page.Error = e.Message
	c.HTML(e.Status(), name, page)
}

// safeNext only allows redirects to local pages
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/app/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return dashboardPath
	}

	return next
}
