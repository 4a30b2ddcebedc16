package metrics_test

import (
	"errors"
	"testing"

	"yayasan/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))
	require.NoError(t, metrics.Register(reg))
}

func TestWorkflowCounter(t *testing.T) {
	before := testutil.ToFloat64(metrics.WorkflowTransitions.WithLabelValues("approve", "ok"))
	metrics.WorkflowTransitions.WithLabelValues("approve", metrics.Result(nil)).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WorkflowTransitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, "error", metrics.Result(errors.New("boom")))
}
