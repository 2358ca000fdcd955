package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsjashshah/flowtag/internal/models"
)

func observed() *Run {
	r := NewRun()
	r.ObserveCounts(models.TagCounts{"sv_P1": 2, "sv_P2": 1, models.UntaggedTag: 4})
	r.ObserveStats("flow_logs", models.Stats{Anomalies: models.AnomalyCounts{models.ReasonBadPort: 3}})
	start := time.Unix(1700000000, 0)
	r.Finish(start, start.Add(1500*time.Millisecond))
	return r
}

func TestRunCounters(t *testing.T) {
	r := observed()

	assert.Equal(t, float64(7), testutil.ToFloat64(r.Records))
	assert.Equal(t, float64(4), testutil.ToFloat64(r.Untagged))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.Tagged.WithLabelValues("sv_P1")))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.Anomalies.WithLabelValues("flow_logs", "bad_port")))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.DistinctTags))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.Duration))
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowtag.prom")
	require.NoError(t, observed().WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flowtag_flow_records_total 7")
	assert.Contains(t, string(data), `flowtag_flow_tagged_total{tag="sv_P2"} 1`)
}

func TestPush(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		method, path = req.Method, req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, observed().Push(srv.URL))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/flowtag", path)
}

func TestPushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := observed().Push(srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not push metrics")
}
