package timing

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveIngestion(t *testing.T) {
	okBefore := testutil.ToFloat64(documentsIngested.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(documentsIngested.WithLabelValues("failure"))
	nodesBefore := testutil.ToFloat64(graphNodesCreated)

	ObserveIngestion(true, 10*time.Millisecond, 6)
	ObserveIngestion(false, 10*time.Millisecond, 100)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(documentsIngested.WithLabelValues("success")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(documentsIngested.WithLabelValues("failure")))
	assert.Equal(t, nodesBefore+6, testutil.ToFloat64(graphNodesCreated))
}

func TestHandlerExposesMetrics(t *testing.T) {
	IncCorporaCreated()
	ObserveSync(true, time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "papertext_corpora_created_total"))
	assert.True(t, strings.Contains(body, `papertext_directory_sync_runs_total{outcome="success"}`))
}
