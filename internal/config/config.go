// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogFile     string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string

	JWTSecret   string
	JWTExpire   time.Duration
	BcryptCost  int
	AdminEmails []string

	FrontendURL    string
	RequestTimeout time.Duration

	RedisAddr       string
	RedisPassword   string
	ProductCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads the environment. Unset variables take their defaults; malformed
// ones are an error.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	env := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	c := Config{
		ServiceName:   env("SERVICE_NAME", "storefront"),
		Env:           env("ENV", "dev"),
		HTTPAddr:      env("HTTP_ADDR", ":5000"),
		LogFile:       env("LOG_FILE", ""),
		StoreDriver:   strings.ToLower(env("STORE_DRIVER", DriverMemory)),
		MongoURI:      env("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDatabase: env("MONGODB_DATABASE", "storefront"),
		JWTSecret:     env("JWT_SECRET", ""),
		AdminEmails:   list(env("ADMIN_EMAILS", "")),
		FrontendURL:   env("FRONTEND_URL", "*"),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPassword: env("REDIS_PASSWORD", ""),
		KafkaBrokers:  list(env("KAFKA_BROKERS", "")),
		KafkaTopic:    env("KAFKA_TOPIC", "storefront.orders"),
	}

	var err error
	if c.JWTExpire, err = duration("JWT_EXPIRE", env("JWT_EXPIRE", "168h")); err != nil {
		return Config{}, err
	}
	if c.RequestTimeout, err = duration("REQUEST_TIMEOUT", env("REQUEST_TIMEOUT", "15s")); err != nil {
		return Config{}, err
	}
	if c.ProductCacheTTL, err = duration("PRODUCT_CACHE_TTL", env("PRODUCT_CACHE_TTL", "5m")); err != nil {
		return Config{}, err
	}
	if c.BcryptCost, err = strconv.Atoi(env("BCRYPT_COST", "10")); err != nil {
		return Config{}, fmt.Errorf("config: BCRYPT_COST: %w", err)
	}

	switch c.StoreDriver {
	case DriverMemory, DriverMongo:
	default:
		return Config{}, fmt.Errorf("config: STORE_DRIVER %q: want %s or %s", c.StoreDriver, DriverMemory, DriverMongo)
	}
	if c.JWTSecret == "" {
		if c.Env == "production" {
			return Config{}, fmt.Errorf("config: JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	return c, nil
}

// duration accepts Go durations plus a whole-day form such as "7d".
func duration(key, v string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("config: %s: invalid duration %q", key, v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s: negative duration %q", key, v)
	}
	return d, nil
}

func list(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
