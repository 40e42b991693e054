package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sensorhub/telemetry-api/app/reading"
	"sensorhub/telemetry-api/app/root"
	"sensorhub/telemetry-api/app/user"
	"sensorhub/telemetry-api/app/web"
	"sensorhub/telemetry-api/aws"
	"sensorhub/telemetry-api/config"
	"sensorhub/telemetry-api/db"
	"sensorhub/telemetry-api/internal"
	"sensorhub/telemetry-api/internal/service"
	"sensorhub/telemetry-api/internal/store"
	"sensorhub/telemetry-api/pkg/middleware"
	"sensorhub/telemetry-api/pkg/security"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

// NewDeps opens the database and builds every service the handlers use
func NewDeps(ctx context.Context, cfg *config.Config) (*internal.Deps, error) {
	gdb, err := db.Open(cfg.DBURI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	d := DepsFromDB(cfg, gdb, security.New())

	if cfg.Storage.Enabled() {
		s3, err := aws.NewS3(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.Exporter = service.NewExporter(d.Readings, s3, cfg.Storage.URLExpiry)
	}

	if cfg.Mail.Enabled {
		d.Mailer = service.NewWelcomeMailer(cfg.Mail)
	}

	return d, nil
}

// DepsFromDB wires the stores and token issuer on top of an open database
func DepsFromDB(cfg *config.Config, gdb *gorm.DB, hasher *security.ArgonHash) *internal.Deps {
	return &internal.Deps{
		Config:   cfg,
		DB:       gdb,
		Users:    store.NewUsers(gdb, hasher),
		Readings: store.NewReadings(gdb),
		Tokens:   security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer),
	}
}

// StartBackground launches the periodic jobs. They stop when ctx is done.
func StartBackground(ctx context.Context, d *internal.Deps) {
	if d.Config.RetentionDays > 0 {
		keep := time.Duration(d.Config.RetentionDays) * 24 * time.Hour
		go service.ReadingRetention(ctx, d.Config.RetentionInterval, keep, d.Readings)
	}
}

func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	router := gin.New()

	corsCfg := cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:5173"}
	}

	router.Use(
		cors.New(corsCfg),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.BodySizeLimiter(d.Config.MaxBodyBytes),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.SetHTMLTemplate(web.Templates())

	gate := middleware.NewSessionGate(d.Tokens, d.Config.CookieName, d.Config.LoginPath)
	apiGate := gate.Require(middleware.PolicyAPI)
	pageGate := gate.Require(middleware.PolicyInteractive)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: d.Config.RateLimit,
		Burst:             d.Config.RateLimit * 2,
	})
	go limiter.Cleanup(ctx)
	rateLimit := limiter.Middleware()

	// HEAD /heartbeat		-> Used to check if the server is alive
	router.HEAD("/heartbeat", root.Heartbeat)
	router.GET("/heartbeat", root.Heartbeat)

	// HEAD /validate		-> Validates a session token
	router.HEAD("/validate", apiGate, root.Validate)

	// POST /signup			-> Registers a new user and returns a token
	router.POST("/signup", rateLimit, func(c *gin.Context) { user.UserRegister(c, d) })

	// POST /login			-> Logs in a user and returns a token
	router.POST("/login", rateLimit, func(c *gin.Context) { user.UserLogin(c, d) })

	// POST /logout			-> Clears the session cookie
	router.POST("/logout", func(c *gin.Context) { user.UserLogout(c, d) })

	// GET /me			-> Returns the caller's profile
	router.GET("/me", apiGate, func(c *gin.Context) { user.UserFetch(c, d) })

	s := router.Group("/sensor-data")
	{
		// GET /sensor-data		-> Lists the caller's readings, newest first
		s.GET("", apiGate, func(c *gin.Context) { reading.ReadingList(c, d) })

		// POST /sensor-data/:userId	-> Stores a reading for the token's user
		s.POST("/:userId", apiGate, func(c *gin.Context) { reading.ReadingSubmit(c, d) })

		if d.Exporter != nil {
			// POST /sensor-data/export	-> Writes the caller's readings to object storage as CSV
			s.POST("/export", apiGate, func(c *gin.Context) { reading.ReadingExport(c, d) })
		}

		if d.Config.PublicIngest {
			// POST /sensor-data		-> Unauthenticated ingest, validated and logged only
			s.POST("", rateLimit, reading.ReadingIngest)
		}
	}

	// GET / 			-> Sends browsers to the dashboard
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/app/sensor-data") })

	a := router.Group("/app")
	{
		a.GET("/signup", web.SignupPage)
		a.POST("/signup", rateLimit, func(c *gin.Context) { web.SignupSubmit(c, d) })

		a.GET("/login", web.LoginPage)
		a.POST("/login", rateLimit, func(c *gin.Context) { web.LoginSubmit(c, d) })

		a.POST("/logout", func(c *gin.Context) { web.Logout(c, d) })

		// GET /app/sensor-data	-> Dashboard, redirects to the login page without a session
		a.GET("/sensor-data", pageGate, func(c *gin.Context) { web.Dashboard(c, d) })
	}

	return router
}
