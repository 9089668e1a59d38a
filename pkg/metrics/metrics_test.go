package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	RecipeOperations.WithLabelValues("create", Outcome(nil)).Inc()
	require.Equal(t, float64(1), testutil.ToFloat64(RecipeOperations.WithLabelValues("create", "ok")))
	require.Equal(t, "error", Outcome(errors.New("x")))

	require.Panics(t, func() { RegisterCollectors(reg) })
}
