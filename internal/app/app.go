package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/config"
	"github.com/dayyanintl/surgishop/internal/auth"
	"github.com/dayyanintl/surgishop/internal/blob"
	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/events"
	"github.com/dayyanintl/surgishop/internal/mail"
	"github.com/dayyanintl/surgishop/internal/orders"
	"github.com/dayyanintl/surgishop/internal/ratelimit"
	"github.com/dayyanintl/surgishop/internal/stats"
)

const tokenIssuer = "surgishop"

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	jobIDs    map[string]cron.EntryID

	tokens    *auth.TokenManager
	passwords *auth.PasswordHasher
	bus       *events.Bus
	mailer    *mail.Dispatcher
	uploader  blob.Uploader
	limiter   ratelimit.Limiter
	orders    *orders.Service
	stats     *stats.Service

	redis *redis.Client
	kafka *events.KafkaPublisher
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ AuthProvider      = (*Application)(nil)
	_ MailProvider      = (*Application)(nil)
	_ StorageProvider   = (*Application)(nil)
	_ EventsProvider    = (*Application)(nil)
	_ LimiterProvider   = (*Application)(nil)
	_ ServiceProvider   = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
// Call SetupServices afterwards so services see the new handle.
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

// OverrideMailSender replaces the outgoing mail transport (used in tests).
func (a *Application) OverrideMailSender(sender mail.Sender) error {
	if a.mailer != nil {
		a.mailer.Release(time.Second)
	}
	d, err := mail.NewDispatcher(sender, a.appConfig.Mail.Workers)
	if err != nil {
		return err
	}
	a.mailer = d
	return nil
}

// OverrideUploader replaces the image storage backend (used in tests).
func (a *Application) OverrideUploader(u blob.Uploader) {
	a.uploader = u
}

// OverrideLimiter replaces the rate limiter (used in tests).
func (a *Application) OverrideLimiter(l ratelimit.Limiter) {
	a.limiter = l
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)

	// Initialize database connection
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	if err := a.SetupServices(); err != nil {
		zap.S().Panicf("service setup failed: %v", err)
	}

	a.checkCategories()
	a.checkOwner()

	a.initJob()
}

func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	var err error
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// SetupServices builds the services that depend on configuration and the
// current database handle, and wires the event subscribers.
func (a *Application) SetupServices() error {
	cfg := a.appConfig

	a.passwords = auth.NewPasswordHasher(0)
	a.tokens = auth.NewTokenManager(cfg.Web.Secret, tokenIssuer,
		time.Duration(cfg.Auth.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTokenMinutes)*time.Minute)

	a.bus = events.NewBus()

	mailer, err := mail.NewDispatcher(mail.NewSender(cfg.Mail), cfg.Mail.Workers)
	if err != nil {
		return errors.Wrap(err, "mail dispatcher")
	}
	a.mailer = mailer

	uploader, err := blob.New(cfg.Storage, cfg.GetUploadDir())
	if err != nil {
		return errors.Wrap(err, "blob storage")
	}
	a.uploader = uploader

	a.limiter = ratelimit.NopLimiter{}
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			zap.L().Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			a.redis = client
			a.limiter = ratelimit.NewRedisLimiter(client, "surgishop:ratelimit")
		}
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		a.kafka = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.System.Appid)
		if err := a.kafka.Attach(a.bus); err != nil {
			return errors.Wrap(err, "kafka subscriber")
		}
	}

	a.orders, err = orders.NewService(a.gormDB, cfg.Shop, a.bus)
	if err != nil {
		return err
	}
	a.stats = stats.NewService(a.gormDB, cfg.Shop)

	return a.registerSubscribers()
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		return a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...)
	}
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
		return
	}
	a.checkCategories()
	a.checkOwner()
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Tokens() *auth.TokenManager {
	return a.tokens
}

func (a *Application) Passwords() *auth.PasswordHasher {
	return a.passwords
}

func (a *Application) Mailer() *mail.Dispatcher {
	return a.mailer
}

func (a *Application) Uploader() blob.Uploader {
	return a.uploader
}

func (a *Application) Events() *events.Bus {
	return a.bus
}

func (a *Application) Limiter() ratelimit.Limiter {
	return a.limiter
}

func (a *Application) Orders() *orders.Service {
	return a.orders
}

func (a *Application) Stats() *stats.Service {
	return a.stats
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.bus != nil {
		a.bus.Wait()
	}
	if a.mailer != nil {
		a.mailer.Release(10 * time.Second)
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			zap.L().Warn("kafka writer close", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = zap.L().Sync()
}
