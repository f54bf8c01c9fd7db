package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Mutation("create")
	m.Mutation("create")
	m.Rejected("update")
	m.StoreResult("save", nil)
	m.StoreResult("save", errors.New("boom"))
	m.AddRecords(3)
	m.AddRecords(-1)
	m.AddSessions(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationRejections.WithLabelValues("update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("save", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("save", ResultError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Records))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Mutation("create")
		m.Rejected("create")
		m.StoreResult("load", nil)
		m.AddRecords(1)
		m.AddSessions(1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Mutation("delete")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `inventaris_mutations_total{op="delete"} 1`)
}
