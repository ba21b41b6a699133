package elasticsearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	es8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/psds-microservice/search-facade/internal/apperr"
)

// ClientOptions configures the Elasticsearch client.
type ClientOptions struct {
	Addresses     []string
	Username      string
	Password      string
	SkipTLSVerify bool
	// Refresh is passed to every write ("wait_for", "true", "false" or empty).
	Refresh string
}

// Client is the Engine backed by a remote Elasticsearch cluster.
type Client struct {
	es      *es8.Client
	refresh string
}

// NewClient creates a new Elasticsearch client. SkipTLSVerify disables TLS cert verification (dev only).
// Username/Password enable HTTP Basic auth when Username is non-empty.
func NewClient(opts ClientOptions) (*Client, error) {
	var transport http.RoundTripper = http.DefaultTransport
	if opts.SkipTLSVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}
	addrs := make([]string, 0, len(opts.Addresses))
	for _, a := range opts.Addresses {
		addrs = append(addrs, strings.TrimSuffix(a, "/"))
	}
	es, err := es8.NewClient(es8.Config{
		Addresses:    addrs,
		Username:     opts.Username,
		Password:     opts.Password,
		Transport:    transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es, refresh: opts.Refresh}, nil
}

// CreateIndex creates an index with the given mapping.
func (c *Client) CreateIndex(ctx context.Context, name string, mapping Mapping) error {
	body, err := encode(map[string]any{"mappings": mapping})
	if err != nil {
		return err
	}
	res, err := c.es.Indices.Create(name,
		c.es.Indices.Create.WithBody(body),
		c.es.Indices.Create.WithContext(ctx),
	)
	return consume("create index", res, err, nil)
}

// DeleteIndex drops an index. A missing index is reported as not_found.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	res, err := c.es.Indices.Delete([]string{name},
		c.es.Indices.Delete.WithContext(ctx),
	)
	return consume("delete index", res, err, nil)
}

// IndexExists checks if an index exists.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{name},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, apperr.Unreachable("index exists", err)
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, apperr.Engine(res.StatusCode, "", res.Status())
	}
}

// GetMapping returns the mapping of an index.
func (c *Client) GetMapping(ctx context.Context, name string) (Mapping, error) {
	res, err := c.es.Indices.GetMapping(
		c.es.Indices.GetMapping.WithIndex(name),
		c.es.Indices.GetMapping.WithContext(ctx),
	)
	var out map[string]struct {
		Mappings Mapping `json:"mappings"`
	}
	if err := consume("get mapping", res, err, &out); err != nil {
		return Mapping{}, err
	}
	if m, ok := out[name]; ok {
		return m.Mappings, nil
	}
	// name may be an alias; the response is keyed by the concrete index
	for _, m := range out {
		return m.Mappings, nil
	}
	return Mapping{}, apperr.NotFound("index %s not found", name)
}

type writeResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}

// IndexDocument indexes a document in Elasticsearch. An empty id lets the engine assign one.
func (c *Client) IndexDocument(ctx context.Context, index string, doc Document, id string, mode IndexMode) (string, error) {
	body, err := encode(doc)
	if err != nil {
		return "", err
	}
	var res *esapi.Response
	if mode == ModeCreate && id != "" {
		res, err = c.es.Create(index, id, body,
			c.es.Create.WithRefresh(c.refresh),
			c.es.Create.WithContext(ctx),
		)
	} else {
		opts := []func(*esapi.IndexRequest){
			c.es.Index.WithRefresh(c.refresh),
			c.es.Index.WithContext(ctx),
		}
		if id != "" {
			opts = append(opts, c.es.Index.WithDocumentID(id))
		}
		res, err = c.es.Index(index, body, opts...)
	}
	var out writeResponse
	if err := consume("index document", res, err, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// GetDocument returns the source of a document, optionally restricted to fields.
func (c *Client) GetDocument(ctx context.Context, index, id string, fields []string) (Document, error) {
	opts := []func(*esapi.GetRequest){c.es.Get.WithContext(ctx)}
	if len(fields) > 0 {
		opts = append(opts, c.es.Get.WithSourceIncludes(fields...))
	}
	res, err := c.es.Get(index, id, opts...)
	if err != nil {
		return nil, apperr.Unreachable("get document", err)
	}
	defer res.Body.Close()

	var out struct {
		Found  *bool    `json:"found"`
		Source Document `json:"_source"`
	}
	if res.StatusCode == http.StatusNotFound {
		raw, _ := io.ReadAll(res.Body)
		if json.Unmarshal(raw, &out) == nil && out.Found != nil {
			return nil, apperr.NotFound("document %s not found in %s", id, index)
		}
		return nil, parseError(res.StatusCode, raw)
	}
	if res.IsError() {
		return nil, decodeError(res)
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Source == nil {
		out.Source = Document{}
	}
	return out.Source, nil
}

// UpdateDocument replaces or merges a document. Both modes fail with not_found for a missing id.
func (c *Client) UpdateDocument(ctx context.Context, index, id string, doc Document, mode UpdateMode) (string, error) {
	if mode == Replace {
		res, err := c.es.Exists(index, id, c.es.Exists.WithContext(ctx))
		if err != nil {
			return "", apperr.Unreachable("document exists", err)
		}
		res.Body.Close()
		if res.StatusCode == http.StatusNotFound {
			return "", apperr.NotFound("document %s not found in %s", id, index)
		}
		return c.IndexDocument(ctx, index, doc, id, ModeIndex)
	}

	body, err := encode(map[string]any{"doc": doc})
	if err != nil {
		return "", err
	}
	res, err := c.es.Update(index, id, body,
		c.es.Update.WithRefresh(c.refresh),
		c.es.Update.WithContext(ctx),
	)
	var out writeResponse
	if err := consume("update document", res, err, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DeleteDocument deletes a document. A missing document is an outcome, a missing index is an error.
func (c *Client) DeleteDocument(ctx context.Context, index, id string) (DeleteOutcome, error) {
	res, err := c.es.Delete(index, id,
		c.es.Delete.WithRefresh(c.refresh),
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return "", apperr.Unreachable("delete document", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var out writeResponse
	_ = json.Unmarshal(raw, &out)
	if res.StatusCode == http.StatusNotFound && out.Result == string(NotFound) {
		return NotFound, nil
	}
	if res.IsError() {
		return "", parseError(res.StatusCode, raw)
	}
	return Deleted, nil
}

// Bulk sends the batch as one _bulk request and reports every item separately.
func (c *Client) Bulk(ctx context.Context, index string, ops []BulkOperation) (*BulkOutcome, error) {
	if len(ops) == 0 {
		return &BulkOutcome{Items: []BulkItemResult{}}, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, op := range ops {
		meta := map[string]any{}
		if op.ID != "" {
			meta["_id"] = op.ID
		}
		if err := enc.Encode(map[string]any{string(op.Action): meta}); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		switch op.Action {
		case BulkDelete:
		case BulkUpdate:
			if err := enc.Encode(map[string]any{"doc": op.Doc}); err != nil {
				return nil, fmt.Errorf("encode bulk document: %w", err)
			}
		case BulkCreate, BulkIndex:
			if err := enc.Encode(op.Doc); err != nil {
				return nil, fmt.Errorf("encode bulk document: %w", err)
			}
		default:
			return nil, apperr.Validation("unknown bulk action %q", op.Action)
		}
	}

	res, err := c.es.Bulk(&buf,
		c.es.Bulk.WithIndex(index),
		c.es.Bulk.WithRefresh(c.refresh),
		c.es.Bulk.WithContext(ctx),
	)
	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string    `json:"_id"`
			Status int       `json:"status"`
			Error  *errorObj `json:"error"`
		} `json:"items"`
	}
	if err := consume("bulk", res, err, &out); err != nil {
		return nil, err
	}

	outcome := &BulkOutcome{ItemCount: len(out.Items), Items: make([]BulkItemResult, 0, len(out.Items))}
	for _, item := range out.Items {
		for action, r := range item {
			result := BulkItemResult{
				Action:  BulkAction(action),
				ID:      r.ID,
				Status:  r.Status,
				Success: r.Status >= 200 && r.Status < 300,
			}
			if r.Error != nil {
				result.Error = r.Error.message()
			} else if !result.Success {
				result.Error = http.StatusText(r.Status)
			}
			if !result.Success {
				outcome.Errors = true
			}
			outcome.Items = append(outcome.Items, result)
		}
	}
	return outcome, nil
}

// Search performs a search query
func (c *Client) Search(ctx context.Context, index string, req SearchRequest) (*SearchResult, error) {
	body, err := encode(searchBody(req))
	if err != nil {
		return nil, err
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(body),
		c.es.Search.WithTrackTotalHits(true),
	)
	var out searchResponse
	if err := consume("search", res, err, &out); err != nil {
		return nil, err
	}
	return out.result(), nil
}

// Count returns the number of documents matching query.
func (c *Client) Count(ctx context.Context, index string, query Query) (int64, error) {
	if query == nil {
		query = MatchAll()
	}
	body, err := encode(map[string]any{"query": query})
	if err != nil {
		return 0, err
	}
	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(index),
		c.es.Count.WithBody(body),
	)
	var out struct {
		Count int64 `json:"count"`
	}
	if err := consume("count", res, err, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Ping checks that the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	return consume("ping", res, err, nil)
}

func searchBody(req SearchRequest) map[string]any {
	q := req.Query
	if q == nil {
		q = MatchAll()
	}
	body := map[string]any{"query": q}
	if req.From > 0 {
		body["from"] = req.From
	}
	if req.Size != nil {
		body["size"] = *req.Size
	}
	if len(req.Sort) > 0 {
		sorts := make([]map[string]any, 0, len(req.Sort))
		for _, s := range req.Sort {
			sorts = append(sorts, map[string]any{s.Field: map[string]any{"order": string(s.Order)}})
		}
		body["sort"] = sorts
	}
	if len(req.SourceIncludes) > 0 {
		body["_source"] = req.SourceIncludes
	}
	if len(req.Aggregations) > 0 {
		aggs := make(map[string]any, len(req.Aggregations))
		for name, a := range req.Aggregations {
			switch {
			case a.AdjacencyMatrix != nil:
				aggs[name] = map[string]any{
					"adjacency_matrix": map[string]any{"filters": a.AdjacencyMatrix.Filters},
				}
			case a.AutoDateHistogram != nil:
				h := a.AutoDateHistogram
				params := map[string]any{"field": h.Field, "buckets": h.Buckets}
				if h.Format != "" {
					params["format"] = h.Format
				}
				if h.MinimumInterval != "" {
					params["minimum_interval"] = h.MinimumInterval
				}
				if h.Missing != nil {
					params["missing"] = h.Missing.UTC().Format("2006-01-02T15:04:05Z")
				}
				aggs[name] = map[string]any{"auto_date_histogram": params}
			}
		}
		body["aggs"] = aggs
	}
	return body
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Interval string `json:"interval"`
		Buckets  []struct {
			Key         json.RawMessage `json:"key"`
			KeyAsString string          `json:"key_as_string"`
			DocCount    int64           `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

func (r *searchResponse) result() *SearchResult {
	out := &SearchResult{Total: r.Hits.Total.Value, Hits: make([]Hit, 0, len(r.Hits.Hits))}
	for _, h := range r.Hits.Hits {
		hit := Hit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	if len(r.Aggregations) > 0 {
		out.Aggregations = make(map[string]AggregationResult, len(r.Aggregations))
		for name, a := range r.Aggregations {
			agg := AggregationResult{Interval: a.Interval, Buckets: make([]Bucket, 0, len(a.Buckets))}
			for _, b := range a.Buckets {
				agg.Buckets = append(agg.Buckets, Bucket{
					Key:         rawKey(b.Key),
					KeyAsString: b.KeyAsString,
					DocCount:    b.DocCount,
				})
			}
			out.Aggregations[name] = agg
		}
	}
	return out
}

// rawKey renders a bucket key, which is a string for filter buckets and epoch millis for date buckets.
func rawKey(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type errorObj struct {
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	RootCause []struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"root_cause"`
}

func (e *errorObj) message() string {
	if e.Reason != "" {
		return e.Reason
	}
	if len(e.RootCause) > 0 {
		return e.RootCause[0].Reason
	}
	return e.Type
}

// consume closes the response and either decodes its body into out or returns the classified error.
func consume(op string, res *esapi.Response, err error, out any) error {
	if err != nil {
		return apperr.Unreachable(op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func decodeError(res *esapi.Response) error {
	raw, _ := io.ReadAll(res.Body)
	return parseError(res.StatusCode, raw)
}

func parseError(status int, raw []byte) error {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Error) > 0 {
		var obj errorObj
		if err := json.Unmarshal(body.Error, &obj); err == nil {
			return apperr.Engine(status, obj.Type, obj.message())
		}
		var s string
		if err := json.Unmarshal(body.Error, &s); err == nil {
			return apperr.Engine(status, "", s)
		}
	}
	reason := strings.TrimSpace(string(raw))
	if reason == "" {
		reason = http.StatusText(status)
	}
	return apperr.Engine(status, "", reason)
}

func encode(v any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return &buf, nil
}
