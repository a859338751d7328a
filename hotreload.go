// hotreload.go: dynamic reconfiguration of the hot-key detector via Argus.
//
// Configuration is otherwise frozen at construction; the one documented
// exception is the hot-key detector's threshold/window, which can be
// reconfigured live without rebuilding the facade.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotKeyReconfigurer is implemented by the hot-key detector; it is the only
// collaborator whose parameters may change after construction.
type HotKeyReconfigurer interface {
	Reconfigure(threshold int, window time.Duration)
}

// HotReload watches a configuration file and reconfigures a hot-key
// detector's threshold/window when it changes.
type HotReload struct {
	detector HotKeyReconfigurer
	watcher  *argus.Watcher
	mu       sync.RWMutex
	current  HotKeyConfig

	// OnReload is called after a successful reconfigure. Optional, must be
	// fast and non-blocking.
	OnReload func(old, new HotKeyConfig)

	logger Logger
}

// HotReloadOptions configures HotReload.
type HotReloadOptions struct {
	// ConfigPath is the file to watch. Supports JSON, YAML, TOML, HCL, INI,
	// Properties, per Argus.
	ConfigPath string

	// PollInterval is how often to check for changes. Default 1s, minimum
	// 100ms.
	PollInterval time.Duration

	Initial  HotKeyConfig
	OnReload func(old, new HotKeyConfig)
	Logger   Logger
}

// NewHotReload starts watching ConfigPath immediately.
//
// Expected configuration keys, nested under a "hot_key" section or given
// directly:
//   - hot_key.threshold (int): access count at or above which a key is hot
//   - hot_key.window (duration string, e.g. "30s"): the sliding window
func NewHotReload(detector HotKeyReconfigurer, opts HotReloadOptions) (*HotReload, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hr := &HotReload{
		detector: detector,
		OnReload: opts.OnReload,
		current:  opts.Initial,
		logger:   opts.Logger,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hr.handleChange, argus.Config{
		PollInterval: opts.PollInterval,
	})
	if err != nil {
		return nil, err
	}
	hr.watcher = watcher

	return hr, nil
}

// Start begins watching, if not already running.
func (hr *HotReload) Start() error {
	if hr.watcher.IsRunning() {
		return nil
	}
	return hr.watcher.Start()
}

// Stop stops watching the configuration file.
func (hr *HotReload) Stop() error {
	return hr.watcher.Stop()
}

// Current returns the last-applied hot-key configuration.
func (hr *HotReload) Current() HotKeyConfig {
	hr.mu.RLock()
	defer hr.mu.RUnlock()
	return hr.current
}

func (hr *HotReload) handleChange(data map[string]interface{}) {
	section, ok := data["hot_key"].(map[string]interface{})
	if !ok {
		if _, hasThreshold := data["threshold"]; hasThreshold {
			section = data
		} else {
			return
		}
	}

	hr.mu.Lock()
	old := hr.current
	next := old

	if threshold, ok := parsePositiveInt(section["threshold"]); ok {
		next.Threshold = threshold
	}
	if window, ok := parseDuration(section["window"]); ok {
		next.Window = window
	}
	hr.current = next
	hr.mu.Unlock()

	if next == old {
		return
	}

	hr.detector.Reconfigure(next.Threshold, next.Window)
	hr.logger.Info("hot-key config reloaded", "threshold", next.Threshold, "window", next.Window)

	if hr.OnReload != nil {
		hr.OnReload(old, next)
	}
}

// parsePositiveInt extracts a positive integer, tolerating both int and
// float64 (JSON/YAML decode differently).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}
