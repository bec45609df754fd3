package postgres

import (
	"testing"
	"time"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	if cfg.URL == "" {
		t.Fatalf("expected a default database url")
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cases := map[string]Config{
		"missing url":        {PingTimeout: time.Second, MaxOpenConns: 1},
		"zero ping timeout":  {URL: "postgres://x", MaxOpenConns: 1},
		"zero open conns":    {URL: "postgres://x", PingTimeout: time.Second},
		"idle exceeds open":  {URL: "postgres://x", PingTimeout: time.Second, MaxOpenConns: 1, MaxIdleConns: 2},
		"negative lifetime":  {URL: "postgres://x", PingTimeout: time.Second, MaxOpenConns: 1, ConnMaxLifetime: -time.Second},
		"negative idle time": {URL: "postgres://x", PingTimeout: time.Second, MaxOpenConns: 1, ConnMaxIdleTime: -time.Second},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
