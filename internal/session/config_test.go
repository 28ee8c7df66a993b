package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: true},
		{name: "short token", mutate: func(c *Config) { c.TokenBytes = 15 }, wantErr: true},
		{name: "minimum token", mutate: func(c *Config) { c.TokenBytes = 16 }},
		{name: "negative devices", mutate: func(c *Config) { c.MaxDevices = -1 }, wantErr: true},
		{name: "unlimited devices", mutate: func(c *Config) { c.MaxDevices = 0 }},
		{name: "negative store timeout", mutate: func(c *Config) { c.StoreTimeout = -time.Second }, wantErr: true},
		{name: "sweeper disabled", mutate: func(c *Config) { c.SweepInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
