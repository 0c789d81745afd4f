package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	GoEnv string // development/production
	FEURL string // フロントURL（CORS）

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CatalogURL     string // 空なら見本商品のみ
	CatalogToken   string
	CatalogTimeout time.Duration

	StripeSecretKey string // 空なら開発用の決済
	Currency        string
	CODMinimumTotal decimal.Decimal

	KafkaBrokers     []string // 空ならイベントは送らない
	OrderEventsTopic string

	ReconcileInterval    time.Duration
	ReconcileMaxAttempts int

	AdminEmail    string
	AdminPassword string
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Loadは環境変数から読む
func Load() (Config, error) {
	var err error
	cfg := Config{
		Port:             getenv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		GoEnv:            getenv("GO_ENV", "development"),
		FEURL:            getenv("FE_URL", "http://localhost:5173"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		CatalogURL:       os.Getenv("CATALOG_URL"),
		CatalogToken:     os.Getenv("CATALOG_TOKEN"),
		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		Currency:         strings.ToUpper(getenv("CURRENCY", "USD")),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getenv("ORDER_EVENTS_TOPIC", "storefront.order-events"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.PostgresPort, err = atoiDefault("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = atoiDefault("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	timeoutMS, err := atoiDefault("CATALOG_TIMEOUT_MS", 3000)
	if err != nil {
		return Config{}, err
	}
	cfg.CatalogTimeout = time.Duration(timeoutMS) * time.Millisecond

	intervalSec, err := atoiDefault("RECONCILE_INTERVAL_SEC", 30)
	if err != nil {
		return Config{}, err
	}
	cfg.ReconcileInterval = time.Duration(intervalSec) * time.Second
	if cfg.ReconcileMaxAttempts, err = atoiDefault("RECONCILE_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}

	cfg.CODMinimumTotal, err = decimal.NewFromString(getenv("COD_MINIMUM_TOTAL", "10.00"))
	if err != nil {
		return Config{}, fmt.Errorf("COD_MINIMUM_TOTAL must be a decimal: %w", err)
	}

	//必須チェック
	if cfg.DatabaseURL == "" {
		for _, req := range []struct{ key, val string }{
			{"POSTGRES_USER", cfg.PostgresUser},
			{"POSTGRES_PASSWORD", cfg.PostgresPassword},
			{"POSTGRES_DB", cfg.PostgresDB},
			{"POSTGRES_HOST", cfg.PostgresHost},
		} {
			if req.val == "" {
				return Config{}, fmt.Errorf("%s is required", req.key)
			}
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
