package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

func TestMetrics_RecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest(http.MethodGet, "/api/search", http.StatusOK, 20*time.Millisecond)
	m.RecordRequest(http.MethodGet, "/api/search", http.StatusOK, 30*time.Millisecond)
	m.RecordRequest(http.MethodGet, "/api/search", http.StatusBadGateway, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/search", "502")))

	m.RequestStarted()
	m.RequestStarted()
	m.RequestFinished()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordMessage("facade.document.index", "ok")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `search_facade_kafka_messages_total{result="ok",topic="facade.document.index"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInstrumentedEngine(t *testing.T) {
	ctx := context.Background()
	m := New()
	embedded := es.NewEmbedded()
	t.Cleanup(func() { _ = embedded.Close() })
	engine := NewInstrumentedEngine(embedded, m)

	require.NoError(t, engine.CreateIndex(ctx, "employee_poco", es.CompanyAutoMapping()))
	_, err := engine.GetDocument(ctx, "employee_poco", "missing", nil)
	require.Error(t, err)
	_, err = engine.GetDocument(ctx, "employee_poco", "missing", nil)
	require.Error(t, err)

	out, err := engine.Bulk(ctx, "employee_poco", []es.BulkOperation{
		{Action: es.BulkCreate, ID: "1", Doc: es.Document{"name": "abc"}},
		{Action: es.BulkCreate, ID: "1", Doc: es.Document{"name": "abc"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Failed())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.engineOpsTotal.WithLabelValues("create_index", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.engineOpsTotal.WithLabelValues("get_document", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bulkItemsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bulkItemsTotal.WithLabelValues("failure")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.engineOpDuration, "search_facade_engine_operation_duration_seconds"))
}
