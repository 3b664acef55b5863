package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithEnvMap(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8084" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Peers.RequestTimeout != 3*time.Second {
		t.Fatalf("peer timeout = %v", cfg.Peers.RequestTimeout)
	}
	if cfg.Gateway.ProcessingDelay != 2*time.Second {
		t.Fatalf("gateway delay = %v", cfg.Gateway.ProcessingDelay)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithEnvMap(map[string]string{
		"ORDERS_SERVER_PORT":              "9000",
		"ORDERS_CART_SERVICE_URL":         "http://cart.internal:8082",
		"ORDERS_GATEWAY_PROCESSING_DELAY": "50ms",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Peers.CartServiceURL != "http://cart.internal:8082" {
		t.Fatalf("cart url = %q", cfg.Peers.CartServiceURL)
	}
	if cfg.Gateway.ProcessingDelay != 50*time.Millisecond {
		t.Fatalf("gateway delay = %v", cfg.Gateway.ProcessingDelay)
	}
}

func TestLoadIgnoresInvalidDuration(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithEnvMap(map[string]string{
		"ORDERS_PEER_REQUEST_TIMEOUT": "not-a-duration",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Peers.RequestTimeout != 3*time.Second {
		t.Fatalf("peer timeout = %v, want default", cfg.Peers.RequestTimeout)
	}
}
