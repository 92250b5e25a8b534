package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// SysConfig holds process-wide settings.
type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// WebConfig holds the storefront HTTP listener settings.
type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
}

// DBConfig holds relational store connection settings.
type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// CheckoutConfig bounds the order commit path.
type CheckoutConfig struct {
	// CommitTimeoutSec bounds the order commit transaction; on expiry the
	// whole attempt rolls back.
	CommitTimeoutSec int `yaml:"commit_timeout_sec" json:"commit_timeout_sec"`
	// ShippingFee seeds the checkout/shipping_fee setting on first boot;
	// afterwards the sys_config value is authoritative.
	ShippingFee float64 `yaml:"shipping_fee" json:"shipping_fee"`
	// PaymentWindowMin is how long an online order may sit unpaid before the
	// sweeper cancels it and restocks its items.
	PaymentWindowMin int `yaml:"payment_window_min" json:"payment_window_min"`
}

// PaymentConfig points at the external payment-intent gateway.
type PaymentConfig struct {
	IntentURL string `yaml:"intent_url" json:"intent_url"`
	APIKey    string `yaml:"api_key" json:"api_key"`
}

// SmtpConfig configures the confirmation mail sender.
type SmtpConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

// LogConfig configures zap output.
type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" json:"system"`
	Web      WebConfig      `yaml:"web" json:"web"`
	Database DBConfig       `yaml:"database" json:"database"`
	Checkout CheckoutConfig `yaml:"checkout" json:"checkout"`
	Payment  PaymentConfig  `yaml:"payment" json:"payment"`
	Smtp     SmtpConfig     `yaml:"smtp" json:"smtp"`
	Logger   LogConfig      `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "EmbabiStore",
		Location: "Africa/Cairo",
		Workdir:  "/var/embabi-store",
		Debug:    true,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		JwtSecret: "9b6bd6f8-f318-4dcb-9bf5-embabistore",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "embabi_store",
		User:     "postgres",
		Passwd:   "root",
		MaxConn:  100,
		IdleConn: 10,
	},
	Checkout: CheckoutConfig{
		CommitTimeoutSec: 5,
		ShippingFee:      50,
		PaymentWindowMin: 60,
	},
	Smtp: SmtpConfig{
		Host: "127.0.0.1",
		Port: 1025,
		From: "orders@embabi.store",
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/embabi-store/storefront.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	if v, ok := os.LookupEnv(name); ok {
		f(v)
	}
}

func setEnvInt64Value(name string, f func(v int64)) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	if p, err := strconv.ParseInt(v, 10, 64); err == nil {
		f(p)
	}
}

// LoadConfig reads cfile when present, otherwise starts from defaults, then
// applies environment overrides.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("STORE_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("STORE_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvValue("STORE_WEB_JWT_SECRET", func(v string) { cfg.Web.JwtSecret = v })
	setEnvInt64Value("STORE_WEB_PORT", func(v int64) { cfg.Web.Port = int(v) })
	setEnvValue("STORE_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("STORE_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvInt64Value("STORE_DB_PORT", func(v int64) { cfg.Database.Port = int(v) })
	setEnvValue("STORE_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("STORE_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("STORE_DB_PASSWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("STORE_PAYMENT_INTENT_URL", func(v string) { cfg.Payment.IntentURL = v })
	setEnvValue("STORE_PAYMENT_API_KEY", func(v string) { cfg.Payment.APIKey = v })
	setEnvValue("STORE_SMTP_HOST", func(v string) { cfg.Smtp.Host = v })
	setEnvInt64Value("STORE_SMTP_PORT", func(v int64) { cfg.Smtp.Port = int(v) })
	setEnvValue("STORE_SMTP_USERNAME", func(v string) { cfg.Smtp.Username = v })
	setEnvValue("STORE_SMTP_PASSWORD", func(v string) { cfg.Smtp.Password = v })

	return cfg
}
