package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/config"
	"github.com/dayyanintl/surgishop/internal/auth"
	"github.com/dayyanintl/surgishop/internal/blob"
	"github.com/dayyanintl/surgishop/internal/events"
	"github.com/dayyanintl/surgishop/internal/mail"
	"github.com/dayyanintl/surgishop/internal/orders"
	"github.com/dayyanintl/surgishop/internal/ratelimit"
	"github.com/dayyanintl/surgishop/internal/stats"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
	Jobs() []JobInfo
	RunJobNow(name string) error
}

// AuthProvider provides password hashing and token signing
type AuthProvider interface {
	Tokens() *auth.TokenManager
	Passwords() *auth.PasswordHasher
}

// MailProvider provides the asynchronous mail dispatcher
type MailProvider interface {
	Mailer() *mail.Dispatcher
}

// StorageProvider provides the image uploader
type StorageProvider interface {
	Uploader() blob.Uploader
}

// EventsProvider provides the in-process event bus
type EventsProvider interface {
	Events() *events.Bus
}

// LimiterProvider provides the request rate limiter
type LimiterProvider interface {
	Limiter() ratelimit.Limiter
}

// ServiceProvider provides the domain services
type ServiceProvider interface {
	Orders() *orders.Service
	Stats() *stats.Service
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	AuthProvider
	MailProvider
	StorageProvider
	EventsProvider
	LimiterProvider
	ServiceProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
