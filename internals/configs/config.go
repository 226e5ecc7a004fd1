package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		log.Println("running on Railway, using system env")
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using system env")
		return
	}
	log.Println(".env loaded")
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || value == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// =======================
// TYPED CONFIG
// =======================

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

// DSN carries a 3s statement_timeout.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=waterworks&options=-c statement_timeout=3000",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

type PaymentConfig struct {
	DefaultGateway        string
	Mode                  string
	Currency              string
	PayMongoSecretKey     string
	PayMongoPublicKey     string
	PayMongoWebhookSecret string
	MidtransServerKey     string
	MidtransUseProd       bool
	GatewayTimeout        time.Duration
	PollInterval          time.Duration
	ManualQRImage         string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type Config struct {
	Port        string
	Env         string
	AppURL      string
	Timezone    string
	LogLevel    string
	JWTSecret   string
	CORSOrigins []string

	DB       DBConfig
	Payment  PaymentConfig
	Redis    RedisConfig
	AMQPURL  string
	Exchange string

	RunSeeds bool
}

func (c Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Load reads the process env into a Config. LoadEnv should run first.
func Load() (Config, error) {
	mode := strings.ToLower(GetEnv("PAYMENT_MODE", "test"))
	if mode != "test" && mode != "live" {
		return Config{}, fmt.Errorf("PAYMENT_MODE must be test or live, got %q", mode)
	}

	gatewayTimeout, err := durationEnv("GATEWAY_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := durationEnv("PAYMENT_POLL_INTERVAL", 0)
	if err != nil {
		return Config{}, err
	}
	midtransProd, err := boolEnv("MIDTRANS_USE_PROD", false)
	if err != nil {
		return Config{}, err
	}
	runSeeds, err := boolEnv("RUN_SEEDS", false)
	if err != nil {
		return Config{}, err
	}
	redisDB, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("REDIS_DB: %w", err)
	}

	cfg := Config{
		Port:        GetEnv("PORT", "3000"),
		Env:         strings.ToLower(GetEnv("APP_ENV", "development")),
		AppURL:      strings.TrimRight(GetEnv("APP_URL", "http://localhost:3000"), "/"),
		Timezone:    GetEnv("APP_TIMEZONE", "Asia/Manila"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		JWTSecret:   GetEnv("JWT_SECRET"),
		CORSOrigins: splitList(GetEnv("CORS_ORIGINS", "*")),
		DB: DBConfig{
			User:     GetEnv("DB_USER"),
			Password: GetEnv("DB_PASSWORD"),
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "5432"),
			Name:     GetEnv("DB_NAME"),
			SSLMode:  GetEnv("DB_SSLMODE", "require"),
		},
		Payment: PaymentConfig{
			DefaultGateway:        strings.ToLower(GetEnv("PAYMENT_DEFAULT_GATEWAY", "demo")),
			Mode:                  mode,
			Currency:              GetEnv("PAYMENT_CURRENCY", "PHP"),
			PayMongoWebhookSecret: GetEnv("PAYMONGO_WEBHOOK_SECRET"),
			MidtransServerKey:     GetEnv("MIDTRANS_SERVER_KEY"),
			MidtransUseProd:       midtransProd,
			GatewayTimeout:        gatewayTimeout,
			PollInterval:          pollInterval,
			ManualQRImage:         GetEnv("PAYMENT_MANUAL_QR_IMAGE", "/assets/gcash_qrcode.jpg"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR"),
			Password: GetEnv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		AMQPURL:  GetEnv("AMQP_URL"),
		Exchange: GetEnv("AMQP_EXCHANGE", "waterworks.billing"),
		RunSeeds: runSeeds,
	}

	if mode == "live" {
		cfg.Payment.PayMongoSecretKey = GetEnv("PAYMONGO_SECRET_KEY_LIVE")
		cfg.Payment.PayMongoPublicKey = GetEnv("PAYMONGO_PUBLIC_KEY_LIVE")
	} else {
		cfg.Payment.PayMongoSecretKey = GetEnv("PAYMONGO_SECRET_KEY_TEST")
		cfg.Payment.PayMongoPublicKey = GetEnv("PAYMONGO_PUBLIC_KEY_TEST")
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := GetEnv(key)
	if raw == "" {
		return def, nil
	}
	// bare integers are seconds
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := GetEnv(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
