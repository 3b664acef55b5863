// Package config loads runtime configuration from the environment with an
// optional .env file for local development.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8084"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultCartServiceURL      = "http://localhost:8082"
	defaultProductServiceURL   = "http://localhost:8081"
	defaultUserAdminServiceURL = "http://localhost:8083"
	defaultPeerRequestTimeout  = 3 * time.Second

	defaultGatewayDelay = 2 * time.Second
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Peers   PeerConfig
	Gateway GatewayConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// PeerConfig holds the base URLs and timeout for peer service calls.
type PeerConfig struct {
	CartServiceURL      string
	ProductServiceURL   string
	UserAdminServiceURL string
	RequestTimeout      time.Duration
}

// GatewayConfig tunes the simulated payment gateway.
type GatewayConfig struct {
	ProcessingDelay time.Duration
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap supplies explicit values taking precedence over the environment,
// used in tests.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// Load builds the Config from, in precedence order, the explicit map, the
// process environment, and the .env file. A missing .env file is not an error.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	var dotEnv map[string]string
	if options.envFile != "" {
		if values, err := godotenv.Read(options.envFile); err == nil {
			dotEnv = values
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnv != nil {
			if value, ok := dotEnv[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "ORDERS_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "ORDERS_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "ORDERS_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "ORDERS_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Peers: PeerConfig{
			CartServiceURL:      stringWithDefault(lookup, "ORDERS_CART_SERVICE_URL", defaultCartServiceURL),
			ProductServiceURL:   stringWithDefault(lookup, "ORDERS_PRODUCT_SERVICE_URL", defaultProductServiceURL),
			UserAdminServiceURL: stringWithDefault(lookup, "ORDERS_USER_ADMIN_SERVICE_URL", defaultUserAdminServiceURL),
			RequestTimeout:      durationWithDefault(lookup, "ORDERS_PEER_REQUEST_TIMEOUT", defaultPeerRequestTimeout),
		},
		Gateway: GatewayConfig{
			ProcessingDelay: durationWithDefault(lookup, "ORDERS_GATEWAY_PROCESSING_DELAY", defaultGatewayDelay),
		},
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func stringWithDefault(lookup lookupFunc, key, fallback string) string {
	if value, ok := lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func durationWithDefault(lookup lookupFunc, key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
