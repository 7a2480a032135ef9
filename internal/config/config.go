package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	// The proxy performs its auth subrequest from the same host, so the
	// gateway binds to loopback unless configured otherwise.
	ServerHost string
	ServerPort string

	// Shared secret between the token issuer and the gateway. Tokens are
	// encrypted by the issuer and decrypted here.
	TokenSecretPhrase string

	// Per-request ceiling for outward metadata and balance lookups.
	DecisionTimeout time.Duration

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RegistryURL  string
	ChainNodeURL string
	// Account authorized to debit subscription balances on chain.
	ChainAccount string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RetryCeiling      int
	PollInterval      time.Duration
	DefaultMinCredits uint64
	ReconcilerLock    bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "tollgate"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		ServerHost: getenv("SERVER_HOST", "127.0.0.1"),
		ServerPort: getenv("SERVER_PORT", "4000"),

		TokenSecretPhrase: getenv("JWT_SECRET_PHRASE", "12345678901234567890123456789012"),
		DecisionTimeout:   getenvDuration("DECISION_TIMEOUT", 10*time.Second),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("PG_HOST", "localhost"),
		DBPort:            getenv("PG_PORT", "5432"),
		DBName:            getenv("PG_DB", "tollgate"),
		DBUser:            getenv("PG_USER", "postgres"),
		DBPassword:        getenv("PG_PASSWORD", ""),
		DBSSLMode:         getenv("PG_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RegistryURL:  getenv("REGISTRY_API_URL", "http://localhost:3100"),
		ChainNodeURL: getenv("CHAIN_NODE_URL", "http://localhost:8545"),
		ChainAccount: getenv("CHAIN_ACCOUNT", ""),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		RetryCeiling:      getenvInt("MAX_RETRIES", 3),
		PollInterval:      getenvDuration("SLEEP_DURATION", 5*time.Second),
		DefaultMinCredits: getenvUint64("DEFAULT_MIN_CREDITS", 1),
		ReconcilerLock:    getenvBool("RECONCILER_LOCK", false),
	}
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvUint64(key string, def uint64) uint64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// getenvDuration accepts either a Go duration string or a bare number of
// milliseconds, matching the historical SLEEP_DURATION convention.
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
