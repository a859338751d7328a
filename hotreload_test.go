// hotreload_test.go: tests for dynamic hot-key reconfiguration.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingReconfigurer struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	calls     int
}

func (r *recordingReconfigurer) Reconfigure(threshold int, window time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threshold = threshold
	r.window = window
	r.calls++
}

func (r *recordingReconfigurer) snapshot() (int, time.Duration, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.threshold, r.window, r.calls
}

func TestNewHotReloadRequiresConfigPath(t *testing.T) {
	_, err := NewHotReload(&recordingReconfigurer{}, HotReloadOptions{})
	require.Error(t, err)
}

func TestHotReloadStartStop(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bastion.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"hot_key": {"threshold": 50, "window": "30s"}}`), 0644))

	hr, err := NewHotReload(&recordingReconfigurer{}, HotReloadOptions{
		ConfigPath:   configPath,
		PollInterval: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = hr.Stop() }()

	require.NoError(t, hr.Start())
	require.NoError(t, hr.Stop())
}

func TestHotReloadAppliesChanges(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bastion.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"hot_key": {"threshold": 50, "window": "30s"}}`), 0644))

	det := &recordingReconfigurer{}
	hr, err := NewHotReload(det, HotReloadOptions{
		ConfigPath:   configPath,
		PollInterval: 100 * time.Millisecond,
		Initial:      HotKeyConfig{Threshold: 100, Window: time.Minute},
	})
	require.NoError(t, err)
	defer func() { _ = hr.Stop() }()
	require.NoError(t, hr.Start())

	require.Eventually(t, func() bool {
		threshold, window, calls := det.snapshot()
		return calls >= 1 && threshold == 50 && window == 30*time.Second
	}, 5*time.Second, 50*time.Millisecond)

	require.Equal(t, HotKeyConfig{Threshold: 50, Window: 30 * time.Second}, hr.Current())
}

func TestHotReloadIgnoresUnrelatedSections(t *testing.T) {
	hr := &HotReload{
		detector: &recordingReconfigurer{},
		current:  HotKeyConfig{Threshold: 100, Window: time.Minute},
		logger:   NoOpLogger{},
	}

	hr.handleChange(map[string]interface{}{"unrelated": map[string]interface{}{"x": 1}})

	_, _, calls := hr.detector.(*recordingReconfigurer).snapshot()
	require.Equal(t, 0, calls)
	require.Equal(t, HotKeyConfig{Threshold: 100, Window: time.Minute}, hr.Current())
}
