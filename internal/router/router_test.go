package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/metrics"
	"github.com/psds-microservice/search-facade/internal/model"
	"github.com/psds-microservice/search-facade/internal/response"
	"github.com/psds-microservice/search-facade/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	engine  *es.Embedded
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	engine := es.NewEmbedded()
	t.Cleanup(func() { _ = engine.Close() })
	svc := service.New(engine, service.Options{
		EcommerceIndex: "orders",
		Now:            func() time.Time { return time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC) },
	})
	_, err := svc.LoadOrders(context.Background(), model.SampleOrders())
	require.NoError(t, err)
	return &testServer{t: t, handler: New(svc, Options{Metrics: metrics.New()}), engine: engine}
}

func (s *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) apperr.Kind {
	t.Helper()
	return decode[response.ErrorBody](t, w).Error.Kind
}

func orderIDs(res model.SearchResponse) []string {
	ids := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		ids = append(ids, jsonNumber(r["order_id"]))
	}
	return ids
}

func jsonNumber(v any) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func TestRouter_Ops(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, PathHealth, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])

	w = s.do(http.MethodGet, PathReady, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/search/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "controller is accessible", decode[string](t, w))

	w = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `search_facade_http_requests_total{method="GET",path="/health",status="200"} 1`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_Swagger(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, PathSwagger, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	w = s.do(http.MethodGet, PathSwagger+"/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")

	w = s.do(http.MethodGet, PathSwagger+"/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[struct {
		Paths map[string]map[string]any `json:"paths"`
	}](t, w)

	for _, route := range s.handler.(*gin.Engine).Routes() {
		if route.Path == pathMetrics || strings.HasPrefix(route.Path, PathSwagger) {
			continue
		}
		path := route.Path
		for _, seg := range strings.Split(path, "/") {
			if strings.HasPrefix(seg, ":") {
				path = strings.Replace(path, seg, "{"+seg[1:]+"}", 1)
			}
		}
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, "%s is documented", path) {
			assert.Contains(t, ops, strings.ToLower(route.Method), "%s %s is documented", route.Method, path)
		}
	}
}

func TestRouter_IndexLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/index/poco", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"companyLocation", "employees", "id", "name"}, decode[[]string](t, w))

	w = s.do(http.MethodPost, "/api/index/poco?id=c1", model.Company{Name: "Acme", CompanyLocation: "NY"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "c1", decode[map[string]string](t, w)["id"])

	w = s.do(http.MethodPost, "/api/index/poco?id=c1&mode=create", model.Company{Name: "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperr.KindConflict, errorKind(t, w))

	w = s.do(http.MethodGet, "/api/index/poco/c1?fields=name", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"name": "Acme"}, decode[map[string]any](t, w))

	w = s.do(http.MethodGet, "/api/index/poco/mapping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[[]string](t, w), "companyLocation")

	w = s.do(http.MethodPatch, "/api/index/poco?id=c1", map[string]any{"companyLocation": "LA"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/api/index/poco/c1", nil)
	assert.Equal(t, map[string]any{"name": "Acme", "companyLocation": "LA"}, decode[map[string]any](t, w))

	w = s.do(http.MethodPatch, "/api/index/poco?id=c1", map[string]any{"founded": 1999})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.KindValidation, errorKind(t, w))

	w = s.do(http.MethodPut, "/api/index/poco?id=c1", model.Company{Name: "Beta"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/api/index/poco/c1", nil)
	assert.Equal(t, map[string]any{"name": "Beta"}, decode[map[string]any](t, w))

	w = s.do(http.MethodDelete, "/api/index/poco/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.DeleteResult{ID: "c1", Result: es.Deleted}, decode[service.DeleteResult](t, w))

	w = s.do(http.MethodDelete, "/api/index/poco/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, es.NotFound, decode[service.DeleteResult](t, w).Result)

	w = s.do(http.MethodGet, "/api/index/poco/c1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/index/poco", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/index/poco", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_IndexRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	testCases := []struct {
		name   string
		method string
		target string
		body   any
	}{
		{"unknown scheme", http.MethodGet, "/api/index/xml", nil},
		{"unknown mode", http.MethodPost, "/api/index/poco?mode=upsert", model.Company{Name: "Acme"}},
		{"malformed body", http.MethodPost, "/api/index/poco", "{"},
		{"missing body", http.MethodPut, "/api/index/poco", nil},
		{"reserved id", http.MethodGet, "/api/index/poco/_doc", nil},
		{"create without id", http.MethodPost, "/api/index/poco?mode=create", model.Company{Name: "Acme"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(tc.method, tc.target, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, apperr.KindValidation, errorKind(t, w))
		})
	}
}

func TestRouter_AttributeScheme(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/index/attribute", nil).Code)

	w := s.do(http.MethodPost, "/api/index/attribute?id=e1", model.EmployeeWithAttribute{
		FirstName: "Ada", LastName: "Lovelace", Salary: 100, Birthday: "12-10-1815",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/index/attribute/e1?fields=first_name,salary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"first_name": "Ada", "salary": 100.0}, decode[map[string]any](t, w))
}

func TestRouter_DeleteFirstDocument(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/index/fluentattribute", nil).Code)
	for _, id := range []string{"b", "a"} {
		w := s.do(http.MethodPost, "/api/index/fluentattribute?id="+id, model.Company{Name: strings.ToUpper(id)})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := s.do(http.MethodDelete, "/api/index", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.DeleteResult{ID: "a", Result: es.Deleted}, decode[service.DeleteResult](t, w))

	w = s.do(http.MethodDelete, "/api/index", model.Company{ID: "b", Name: "B"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b", decode[service.DeleteResult](t, w).ID)

	w = s.do(http.MethodDelete, "/api/index", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Bulk(t *testing.T) {
	s := newTestServer(t)

	companies := []model.Company{{ID: "1", Name: "abc"}, {ID: "2", Name: "xyz"}}
	w := s.do(http.MethodPost, "/api/bulkoperation/bulkInsert", companies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[es.BulkOutcome](t, w)
	assert.Equal(t, 2, out.ItemCount)
	assert.False(t, out.Errors)

	w = s.do(http.MethodPost, "/api/bulkoperation", []es.BulkOperation{
		{Action: es.BulkCreate, ID: "1", Doc: es.Document{"name": "dup"}},
		{Action: es.BulkUpdate, ID: "2", Doc: es.Document{"companyLocation": "mysuru"}},
		{Action: es.BulkDelete, ID: "404"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out = decode[es.BulkOutcome](t, w)
	assert.True(t, out.Errors)
	require.Len(t, out.Items, 3)
	assert.Equal(t, http.StatusConflict, out.Items[0].Status)
	assert.True(t, out.Items[1].Success)
	assert.Equal(t, http.StatusNotFound, out.Items[2].Status)

	w = s.do(http.MethodPost, "/api/bulkoperation", []es.BulkOperation{{Action: "upsert", ID: "1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/bulkoperation/bulkUpdate?name=renamed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[es.BulkOutcome](t, w).ItemCount)
	doc, err := s.engine.GetDocument(context.Background(), "employee", "1", nil)
	require.NoError(t, err)
	assert.Equal(t, "renamed", doc["name"])

	w = s.do(http.MethodDelete, "/api/bulkoperation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[es.BulkOutcome](t, w).ItemCount)

	w = s.do(http.MethodPost, "/api/bulkoperation/multiDoc", []model.Company{{ID: "1", Name: "again"}, {Name: "new"}})
	require.Equal(t, http.StatusOK, w.Code)
	out = decode[es.BulkOutcome](t, w)
	assert.Equal(t, 2, out.ItemCount)
	assert.False(t, out.Errors)

	w = s.do(http.MethodPost, "/api/bulkoperation/mulitDoc", []model.Company{{ID: "7", Name: "legacy path"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[es.BulkOutcome](t, w).ItemCount)
	doc, err = s.engine.GetDocument(context.Background(), "employee", "7", nil)
	require.NoError(t, err)
	assert.Equal(t, "legacy path", doc["name"])

	w = s.do(http.MethodPost, "/api/bulkoperation/bulkAll", []model.Company{{ID: "9", Name: "temp"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	all := decode[service.BulkAllResult](t, w)
	assert.True(t, all.Completed)
	require.Len(t, all.Steps, 3)
	assert.Equal(t, []string{"insert", "update", "delete"}, []string{all.Steps[0].Step, all.Steps[1].Step, all.Steps[2].Step})

	w = s.do(http.MethodPost, "/api/bulkoperation/bulkInsert", []model.Company{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Search(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/search", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[model.SearchResponse](t, w)
	assert.Equal(t, int64(4), res.RecordCount)
	assert.Len(t, res.Records, 4)

	w = s.do(http.MethodPost, "/api/search/sort", model.PostRequestBody{SortField: "order_date", SortOrder: "ASC"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"584677", "584021", "584058", "584093"}, orderIDs(decode[model.SearchResponse](t, w)))

	w = s.do(http.MethodPost, "/api/search/records", map[string]any{
		"sortField": "taxful_total_price", "sortOrder": "DESC", "pageIndex": 2, "pageSize": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[model.SearchResponse](t, w)
	assert.Equal(t, int64(4), res.RecordCount)
	assert.Equal(t, []string{"584021", "584677"}, orderIDs(res))

	w = s.do(http.MethodPost, "/api/search/pagination", map[string]any{"pageIndex": 1, "pageSize": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[model.SearchResponse](t, w).Records, 3)

	for _, body := range []any{map[string]any{"pageIndex": 0}, "not json"} {
		w = s.do(http.MethodPost, "/api/search/pagination", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w = s.do(http.MethodPost, "/api/search/sort", model.PostRequestBody{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/search/order/584677", nil)
	require.Equal(t, http.StatusOK, w.Code)
	order := decode[map[string]any](t, w)
	assert.Equal(t, "eddie@underwood-family.zzz", order["email"])
	assert.Equal(t, "Eddie Underwood", order["customer_full_name"])
	assert.Len(t, order, 3)

	w = s.do(http.MethodGet, "/api/search/order/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PaginationOutsideWindow(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"pageIndex":4611686018427387904,"pageSize":2}`,
		`{"pageIndex":2305843009213693953,"pageSize":4}`,
		`{"pageIndex":1001,"pageSize":10}`,
	} {
		w := s.do(http.MethodPost, "/api/search/pagination", body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, apperr.KindValidation, errorKind(t, w))
	}

	w := s.do(http.MethodPost, "/api/search/records", `{"sortField":"order_date","pageIndex":9223372036854775807,"pageSize":9223372036854775807}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.KindValidation, errorKind(t, w))
}

func TestRouter_Queries(t *testing.T) {
	s := newTestServer(t)

	testCases := []struct {
		name   string
		target string
		want   []string
	}{
		{"structured default", "/api/query/structured", []string{"584677", "584021", "584058", "584093"}},
		{"structured from", "/api/query/structured?from=2020-03-21", []string{"584093"}},
		{"unstructured", "/api/query/unstructured?q=mary", []string{"584021"}},
		{"unstructured default", "/api/query/unstructured", []string{"584677"}},
		{"unstructured nested default", "/api/query/unstructurednested", []string{"584021"}},
		{"unstructured nested", "/api/query/unstructurednested?q=North%20America", []string{"584058", "584093"}},
		{"compound default", "/api/query/compound", []string{"584058"}},
		{"compound", "/api/query/compound?continent=North%20America&city=New%20York&from=2020-03-01", []string{"584093"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodGet, tc.target, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			res := decode[model.SearchResponse](t, w)
			assert.ElementsMatch(t, tc.want, orderIDs(res))
			assert.Equal(t, int64(len(tc.want)), res.RecordCount)
		})
	}

	w := s.do(http.MethodPost, "/api/query", map[string]any{
		"filters": []map[string]any{{"field": "geoip.city_name", "term": "Dubai"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"584021"}, orderIDs(decode[model.SearchResponse](t, w)))

	w = s.do(http.MethodPost, "/api/query", map[string]any{"page": map[string]any{"index": 0}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Aggregations(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/aggregation/bucket/matrix", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []model.AggregateResponse{
		{Group: "grpA", DocCount: 3},
		{Group: "grpA&grpB", DocCount: 2},
		{Group: "grpB", DocCount: 3},
		{Group: "grpB&grpC", DocCount: 1},
		{Group: "grpC", DocCount: 1},
	}, decode[[]model.AggregateResponse](t, w))

	w = s.do(http.MethodGet, "/api/aggregation/bucket/autodatehistogram/10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	buckets := decode[[]model.AggregateResponse](t, w)
	require.NotEmpty(t, buckets)
	assert.LessOrEqual(t, len(buckets), 10)
	var total int64
	for _, b := range buckets {
		total += b.DocCount
		assert.NotEmpty(t, b.Interval)
	}
	assert.Equal(t, int64(4), total)

	for _, size := range []string{"0", "1001", "ten"} {
		w = s.do(http.MethodGet, "/api/aggregation/bucket/autodatehistogram/"+size, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, size)
	}
}
