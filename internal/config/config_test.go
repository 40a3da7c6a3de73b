package config

import (
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
pool:
  address: "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"
executor:
  dry_run: true
`

func TestParseMinimal(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.RPC.Timeout != 10*time.Second {
		t.Fatalf("expected default rpc timeout, got %v", cfg.RPC.Timeout)
	}
	if cfg.RPC.PollInterval != 12*time.Second {
		t.Fatalf("expected default poll interval, got %v", cfg.RPC.PollInterval)
	}
	if cfg.Strategy == nil || cfg.Strategy.Null == nil {
		t.Fatalf("expected default null strategy, got %+v", cfg.Strategy)
	}
	if cfg.State.SQLitePath == "" {
		t.Fatalf("expected default sqlite path")
	}
}

func TestParseRequiresPoolAddress(t *testing.T) {
	_, err := Parse([]byte("executor:\n  dry_run: true\n"))
	if err == nil || !strings.Contains(err.Error(), "pool.address") {
		t.Fatalf("expected pool.address error, got %v", err)
	}
}

func TestParseRequiresRouterForLiveExecutor(t *testing.T) {
	_, err := Parse([]byte("pool:\n  address: \"0xabc\"\n"))
	if err == nil || !strings.Contains(err.Error(), "executor.router") {
		t.Fatalf("expected executor.router error, got %v", err)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	doc := minimalYAML + "\nunknown_section:\n  a: 1\n"
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}

func TestParseTimescaleRequiresDSN(t *testing.T) {
	doc := minimalYAML + "\ntimescale:\n  enabled: true\n"
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "timescale.dsn") {
		t.Fatalf("expected timescale.dsn error, got %v", err)
	}
}
