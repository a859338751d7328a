package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorderHitRateConsistency(t *testing.T) {
	r := New()
	r.RecordHit("L1_NEAR")
	r.RecordHit("L1_NEAR")
	r.RecordMiss("L1_NEAR")

	snap := r.Snapshot(123)
	require.Equal(t, int64(2), snap.HitsByLevel["L1_NEAR"])
	require.Equal(t, int64(1), snap.MissesByLevel["L1_NEAR"])
	require.InDelta(t, 2.0/3.0, snap.HitRateByLevel["L1_NEAR"], 1e-9)
}

func TestRecorderLatencyAverage(t *testing.T) {
	r := New()
	r.RecordLatency("GET", 100)
	r.RecordLatency("GET", 300)

	snap := r.Snapshot(0)
	require.InDelta(t, 200.0, snap.AvgLatencyByOp["GET"], 1e-9)
}

func TestRecorderExportTextFormat(t *testing.T) {
	r := New()
	r.RecordHit("L1_NEAR")
	r.RecordEvent("PENETRATION")

	text := r.ExportText(0)
	require.True(t, strings.Contains(text, `cache_hits_total{level="L1_NEAR"} 1`))
	require.True(t, strings.Contains(text, `cache_events_total{type="PENETRATION"} 1`))
}
