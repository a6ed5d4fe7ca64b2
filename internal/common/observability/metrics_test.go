package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordAnalysisExportsToPrometheus(t *testing.T) {
	obs, err := New("optical-franchise-test")
	require.NoError(t, err)
	defer obs.Shutdown()

	obs.RecordAnalysis(context.Background(), "measurement", "fallback", 12*time.Millisecond)
	obs.RecordAnalysis(context.Background(), "image", "ai", 40*time.Millisecond)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "analysis_processed") {
			found = true
		}
	}
	assert.True(t, found, "analysis counter should be exported")
}

func TestObservability_NilIsSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordAnalysis(context.Background(), "measurement", "ai", time.Millisecond)
		obs.Shutdown()
	})

	var rec Recorder = obs
	assert.NotPanics(t, func() {
		rec.RecordAnalysis(context.Background(), "image", "fallback", 0)
	})
}
