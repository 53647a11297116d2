package config

import (
	"os"
	"strconv"
	"time"

	"agegate/pkg/secrets"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// EphemeralSigningKey is set when JWT_SIGNING_KEY was absent and a random
	// key was generated for this process. Tokens then die with the process.
	EphemeralSigningKey bool
	TokenTTL            time.Duration
	MinimumAge          int
	DatabaseURL         string
	Redis               RedisConfig
	ShutdownTimeout     time.Duration
}

// RedisConfig holds connection settings for the lockout store. An empty URL
// means Redis is not configured and the in-memory store is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays
// lean. The signing key comes from JWT_SIGNING_KEY; when unset, a random
// per-process key is generated so no key material ever lives in source.
func FromEnv() (Server, error) {
	addr := os.Getenv("AGEGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	ephemeral := false
	if jwtSigningKey == "" {
		generated, err := secrets.Generate()
		if err != nil {
			return Server{}, err
		}
		jwtSigningKey = generated
		ephemeral = true
	}

	return Server{
		Addr:                addr,
		JWTSigningKey:       jwtSigningKey,
		EphemeralSigningKey: ephemeral,
		TokenTTL:            durationFromEnv("TOKEN_TTL", 10*time.Minute),
		MinimumAge:          intFromEnv("MIN_AGE", 18),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		ShutdownTimeout:     durationFromEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intFromEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intFromEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationFromEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationFromEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationFromEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}, nil
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
