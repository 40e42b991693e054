package internal

import (
	"sensorhub/telemetry-api/config"
	"sensorhub/telemetry-api/internal/service"
	"sensorhub/telemetry-api/internal/store"
	"sensorhub/telemetry-api/pkg/security"

	"gorm.io/gorm"
)

// Deps is everything request handlers need. Exporter and Mailer are nil
// when their backing service isn't configured.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Users    *store.Users
	Readings *store.Readings
	Tokens   *security.TokenIssuer
	Exporter *service.Exporter
	Mailer   *service.WelcomeMailer
}
