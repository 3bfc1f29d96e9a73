package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig Database config
type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// SysConfig System config
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig WEB config
type WebConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	Secret      string   `yaml:"secret"`
	CorsOrigins []string `yaml:"cors_origins"`
	BodyLimit   string   `yaml:"body_limit"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// AuthConfig token lifetimes in minutes
type AuthConfig struct {
	AccessTokenMinutes  int `yaml:"access_token_minutes"`
	RefreshTokenMinutes int `yaml:"refresh_token_minutes"`
}

type MailConfig struct {
	SmtpHost string `yaml:"smtp_host"`
	SmtpPort int    `yaml:"smtp_port"`
	SmtpUser string `yaml:"smtp_user"`
	SmtpPwd  string `yaml:"smtp_pwd"`
	From     string `yaml:"from"`
	Workers  int    `yaml:"workers"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c MailConfig) Enabled() bool {
	return c.SmtpHost != "" && c.SmtpPort > 0 && c.SmtpUser != ""
}

// StorageConfig image storage backend, one of azure, sftp or local
type StorageConfig struct {
	Backend string `yaml:"backend"`

	AzureConnectionString string `yaml:"azure_connection_string"`
	AzureContainer        string `yaml:"azure_container"`

	SftpAddr    string `yaml:"sftp_addr"`
	SftpUser    string `yaml:"sftp_user"`
	SftpPasswd  string `yaml:"sftp_passwd"`
	SftpHostKey string `yaml:"sftp_host_key"`
	SftpDir     string `yaml:"sftp_dir"`

	// PublicBaseURL is prepended to object names for sftp and local backends
	PublicBaseURL string `yaml:"public_base_url"`
	LocalDir      string `yaml:"local_dir"`
	MaxSizeMB     int    `yaml:"max_size_mb"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// LoginLimit is the number of auth attempts allowed per client IP per minute
	LoginLimit int `yaml:"login_limit"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// ShopConfig storefront business settings
type ShopConfig struct {
	OwnerEmail         string   `yaml:"owner_email"`
	TaxRate            float64  `yaml:"tax_rate"`
	ShippingCost       float64  `yaml:"shipping_cost"`
	CostRatio          float64  `yaml:"cost_ratio"`
	LowStockThreshold  int      `yaml:"low_stock_threshold"`
	VerifyCodeTTLHours int      `yaml:"verify_code_ttl_hours"`
	AuditRetentionDays int      `yaml:"audit_retention_days"`
	SnowflakeNode      int64    `yaml:"snowflake_node"`
	DefaultCategories  []string `yaml:"default_categories"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Logger   LogConfig     `yaml:"logger"`
	Auth     AuthConfig    `yaml:"auth"`
	Mail     MailConfig    `yaml:"mail"`
	Storage  StorageConfig `yaml:"storage"`
	Redis    RedisConfig   `yaml:"redis"`
	Kafka    KafkaConfig   `yaml:"kafka"`
	Shop     ShopConfig    `yaml:"shop"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetUploadDir() string {
	if c.Storage.LocalDir != "" {
		return c.Storage.LocalDir
	}
	return path.Join(c.System.Workdir, "uploads")
}

// InitDirs creates the working directories
func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(c.GetLogDir(), 0o755)
	_ = os.MkdirAll(c.GetDataDir(), 0o755)
	if c.Storage.Backend == "local" {
		_ = os.MkdirAll(c.GetUploadDir(), 0o755)
	}
}

// Validate checks settings the server cannot start without.
func (c *AppConfig) Validate() error {
	if c.Web.Secret == "" && !c.System.Debug {
		return fmt.Errorf("web.secret is required outside debug mode")
	}
	switch c.Database.Type {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	switch c.Storage.Backend {
	case "azure", "sftp", "local":
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	if c.Shop.TaxRate < 0 || c.Shop.ShippingCost < 0 {
		return fmt.Errorf("shop.tax_rate and shop.shipping_cost must not be negative")
	}
	return nil
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "SurgiShop",
		Location: "UTC",
		Workdir:  "/var/surgishop",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 8000,
		CorsOrigins: []string{
			"http://localhost:5173",
			"http://localhost:5174",
			"http://localhost:3000",
			"http://127.0.0.1:5173",
		},
		BodyLimit: "12M",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "surgishop",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/surgishop/logs/surgishop.log",
	},
	Auth: AuthConfig{
		AccessTokenMinutes:  30,
		RefreshTokenMinutes: 60 * 24 * 7,
	},
	Mail: MailConfig{
		SmtpPort: 587,
		Workers:  4,
	},
	Storage: StorageConfig{
		Backend:        "local",
		AzureContainer: "product-images",
		SftpDir:        "/product-images",
		PublicBaseURL:  "/uploads",
		MaxSizeMB:      5,
	},
	Redis: RedisConfig{
		Addr:       "127.0.0.1:6379",
		LoginLimit: 10,
	},
	Kafka: KafkaConfig{
		Brokers: []string{"127.0.0.1:9092"},
		Topic:   "surgishop.orders",
	},
	Shop: ShopConfig{
		TaxRate:            0.10,
		ShippingCost:       0,
		CostRatio:          0.4,
		LowStockThreshold:  5,
		VerifyCodeTTLHours: 24,
		AuditRetentionDays: 365,
		SnowflakeNode:      1,
		DefaultCategories: []string{
			"Surgical Instruments",
			"Sutures & Needles",
			"Gloves & Protection",
			"Diagnostics",
			"Sterilization",
		},
	},
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = cast.ToBool(evalue)
	}
}

func setEnvInt64Value(name string, val *int64) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	*val = cast.ToInt64(evalue)
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	*val = cast.ToInt(evalue)
}

func setEnvFloatValue(name string, val *float64) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	*val = cast.ToFloat64(evalue)
}

func setEnvListValue(name string, val *[]string) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	parts := strings.Split(evalue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	*val = out
}

// LoadConfig reads the YAML file (when present), then a .env file, then
// SHOP_* environment variables. Later sources win.
func LoadConfig(cfile string) *AppConfig {
	cfg := *DefaultAppConfig
	cfg.Web.CorsOrigins = append([]string(nil), DefaultAppConfig.Web.CorsOrigins...)
	cfg.Kafka.Brokers = append([]string(nil), DefaultAppConfig.Kafka.Brokers...)
	cfg.Shop.DefaultCategories = append([]string(nil), DefaultAppConfig.Shop.DefaultCategories...)

	if cfile == "" {
		cfile = "surgishop.yml"
	}
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Errorf("parse config %s: %w", cfile, err))
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	return &cfg
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("SHOP_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("SHOP_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("SHOP_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("SHOP_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("SHOP_WEB_PORT", &cfg.Web.Port)
	setEnvValue("SHOP_WEB_SECRET", &cfg.Web.Secret)
	setEnvListValue("SHOP_WEB_CORS_ORIGINS", &cfg.Web.CorsOrigins)

	setEnvValue("SHOP_DB_TYPE", &cfg.Database.Type)
	setEnvValue("SHOP_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("SHOP_DB_PORT", &cfg.Database.Port)
	setEnvValue("SHOP_DB_NAME", &cfg.Database.Name)
	setEnvValue("SHOP_DB_USER", &cfg.Database.User)
	setEnvValue("SHOP_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("SHOP_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("SHOP_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("SHOP_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvIntValue("SHOP_AUTH_ACCESS_TOKEN_MINUTES", &cfg.Auth.AccessTokenMinutes)
	setEnvIntValue("SHOP_AUTH_REFRESH_TOKEN_MINUTES", &cfg.Auth.RefreshTokenMinutes)

	setEnvValue("SHOP_SMTP_HOST", &cfg.Mail.SmtpHost)
	setEnvIntValue("SHOP_SMTP_PORT", &cfg.Mail.SmtpPort)
	setEnvValue("SHOP_SMTP_USER", &cfg.Mail.SmtpUser)
	setEnvValue("SHOP_SMTP_PWD", &cfg.Mail.SmtpPwd)
	setEnvValue("SHOP_SMTP_FROM", &cfg.Mail.From)

	setEnvValue("SHOP_STORAGE_BACKEND", &cfg.Storage.Backend)
	setEnvValue("SHOP_AZURE_STORAGE_CONNECTION_STRING", &cfg.Storage.AzureConnectionString)
	setEnvValue("SHOP_AZURE_CONTAINER_NAME", &cfg.Storage.AzureContainer)
	setEnvValue("SHOP_SFTP_ADDR", &cfg.Storage.SftpAddr)
	setEnvValue("SHOP_SFTP_USER", &cfg.Storage.SftpUser)
	setEnvValue("SHOP_SFTP_PWD", &cfg.Storage.SftpPasswd)
	setEnvValue("SHOP_STORAGE_PUBLIC_BASE_URL", &cfg.Storage.PublicBaseURL)

	setEnvBoolValue("SHOP_REDIS_ENABLED", &cfg.Redis.Enabled)
	setEnvValue("SHOP_REDIS_ADDR", &cfg.Redis.Addr)
	setEnvValue("SHOP_REDIS_PWD", &cfg.Redis.Password)

	setEnvBoolValue("SHOP_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	setEnvListValue("SHOP_KAFKA_BROKERS", &cfg.Kafka.Brokers)
	setEnvValue("SHOP_KAFKA_TOPIC", &cfg.Kafka.Topic)

	setEnvValue("SHOP_OWNER_EMAIL", &cfg.Shop.OwnerEmail)
	setEnvFloatValue("SHOP_TAX_RATE", &cfg.Shop.TaxRate)
	setEnvFloatValue("SHOP_SHIPPING_COST", &cfg.Shop.ShippingCost)
	setEnvInt64Value("SHOP_SNOWFLAKE_NODE", &cfg.Shop.SnowflakeNode)
}
