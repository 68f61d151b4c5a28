package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Environment:           EnvProduction,
		ServerPort:            8280,
		JWTSecret:             "a-long-enough-production-secret",
		JWTExpiryHours:        24,
		SchedulerEnabled:      true,
		SignatureReminderDays: 3,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid production config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.ServerPort = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "short secret outside development",
			mutate:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: "JWT_SECRET is too short",
		},
		{
			name: "short secret allowed in development",
			mutate: func(c *Config) {
				c.Environment = EnvDevelopment
				c.JWTSecret = "dev"
			},
		},
		{
			name:    "zero expiry",
			mutate:  func(c *Config) { c.JWTExpiryHours = 0 },
			wantErr: "invalid JWT expiry",
		},
		{
			name:    "scheduler without reminder window",
			mutate:  func(c *Config) { c.SignatureReminderDays = 0 },
			wantErr: "SIGNATURE_REMINDER_DAYS",
		},
		{
			name: "reminder window ignored when scheduler disabled",
			mutate: func(c *Config) {
				c.SchedulerEnabled = false
				c.SignatureReminderDays = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	assert.True(t, Config{Environment: EnvDevelopment}.IsDevelopment())
	assert.False(t, Config{Environment: EnvProduction}.IsDevelopment())
}
