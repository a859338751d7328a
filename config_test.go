// config_test.go: unit tests for bastion configuration.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidateAppliesDefaults(t *testing.T) {
	cfg := Config{
		Near:   NearConfig{MaxSize: 100},
		Filter: FilterConfig{FalsePositiveRate: 0.01},
	}
	require.NoError(t, cfg.Validate())

	require.Equal(t, DefaultNearTTL, cfg.Near.DefaultTTL)
	require.Equal(t, DefaultFarTTL, cfg.Far.DefaultTTL)
	require.Equal(t, DefaultLockTimeout, cfg.Far.LockTimeout)
	require.Equal(t, DefaultExpectedInsertions, cfg.Filter.ExpectedInsertions)
	require.Equal(t, DefaultHotKeyThreshold, cfg.HotKey.Threshold)
	require.Equal(t, DefaultHotKeyWindow, cfg.HotKey.Window)
	require.Equal(t, DefaultBreakerFailureThreshold, cfg.Breaker.FailureThreshold)
	require.Equal(t, DefaultBreakerResetTimeout, cfg.Breaker.ResetTimeout)
	require.NotNil(t, cfg.Logger)
	require.NotNil(t, cfg.TimeProvider)
}

func TestConfigValidateClampsRanges(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Config)
		check func(*testing.T, *Config)
	}{
		{
			name: "jitter pct below minimum",
			mut:  func(c *Config) { c.Far.TTLJitterPct = 5 },
			check: func(t *testing.T, c *Config) {
				require.Equal(t, MinTTLJitterPct, c.Far.TTLJitterPct)
			},
		},
		{
			name: "jitter pct above maximum",
			mut:  func(c *Config) { c.Far.TTLJitterPct = 50 },
			check: func(t *testing.T, c *Config) {
				require.Equal(t, MaxTTLJitterPct, c.Far.TTLJitterPct)
			},
		},
		{
			name: "negative TTL above ceiling",
			mut:  func(c *Config) { c.Negative.TTL = time.Hour },
			check: func(t *testing.T, c *Config) {
				require.Equal(t, MaxNegativeCacheTTL, c.Negative.TTL)
			},
		},
		{
			name: "hot-key threshold below one",
			mut:  func(c *Config) { c.HotKey.Threshold = 0 },
			check: func(t *testing.T, c *Config) {
				require.Equal(t, DefaultHotKeyThreshold, c.HotKey.Threshold)
			},
		},
		{
			name: "negative load RPS disabled",
			mut:  func(c *Config) { c.DataSource.MaxLoadRPS = -1 },
			check: func(t *testing.T, c *Config) {
				require.Equal(t, float64(0), c.DataSource.MaxLoadRPS)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)
			require.NoError(t, cfg.Validate())
			tt.check(t, &cfg)
		})
	}
}

func TestConfigValidateRejectsUnrepairable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Near.MaxSize = 0
	err := cfg.Validate()
	require.Error(t, err)
	require.Equal(t, ErrCodeInvalidConfig, GetErrorCode(err))

	cfg = DefaultConfig()
	cfg.Filter.FalsePositiveRate = 1.5
	err = cfg.Validate()
	require.Error(t, err)
	require.Equal(t, ErrCodeInvalidConfig, GetErrorCode(err))
}
