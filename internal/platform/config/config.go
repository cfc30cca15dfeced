package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects the persistence implementation for exchanges and transactions.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
	StoreRedis    StoreBackend = "redis"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	BaseURL     string
	Environment string
	Store       StoreBackend

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	ProofVerifierURL     string
	ProofVerifierTimeout time.Duration

	CallbackTimeout     time.Duration
	CallbackConcurrency int

	// IssuerSigningKey protects the issuer-side routes. Empty disables auth,
	// which Validate only allows in development environments.
	IssuerSigningKey string
}

var developmentEnvironments = []string{"development", "dev", "local", "test"}

// IsDevelopment reports whether Environment names a local or test deployment.
func (s Server) IsDevelopment() bool {
	env := strings.ToLower(strings.TrimSpace(s.Environment))
	for _, dev := range developmentEnvironments {
		if env == dev {
			return true
		}
	}
	return false
}

// Validate rejects configurations the server must not start with.
func (s Server) Validate() error {
	var errs []error
	if s.ProofVerifierURL == "" {
		errs = append(errs, errors.New("PROOF_VERIFIER_URL is required"))
	}
	if s.IssuerSigningKey == "" && !s.IsDevelopment() {
		errs = append(errs, errors.New("ISSUER_JWT_SIGNING_KEY is required outside development"))
	}
	return errors.Join(errs...)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the transaction event producer settings. Empty Brokers disables publishing.
type KafkaConfig struct {
	Brokers     string
	EventsTopic string
	Acks        string
	Retries     int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := envOr("EXCHANGE_ADDR", ":8080")
	return Server{
		Addr:        addr,
		BaseURL:     strings.TrimRight(envOr("EXCHANGE_BASE_URL", "http://localhost"+addr), "/"),
		Environment: envOr("ENVIRONMENT", "production"),
		Store:       StoreBackend(envOr("EXCHANGE_STORE", string(StoreMemory))),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:     os.Getenv("KAFKA_BROKERS"),
			EventsTopic: envOr("KAFKA_EVENTS_TOPIC", "vpexchange.transaction.events"),
			Acks:        envOr("KAFKA_ACKS", "all"),
			Retries:     envInt("KAFKA_RETRIES", 3),
		},
		ProofVerifierURL:     strings.TrimRight(os.Getenv("PROOF_VERIFIER_URL"), "/"),
		ProofVerifierTimeout: envDuration("PROOF_VERIFIER_TIMEOUT", 10*time.Second),
		CallbackTimeout:      envDuration("CALLBACK_TIMEOUT", 10*time.Second),
		CallbackConcurrency:  envInt("CALLBACK_CONCURRENCY", 8),
		IssuerSigningKey:     os.Getenv("ISSUER_JWT_SIGNING_KEY"),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
