package metrics

import (
	"context"
	"time"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

// InstrumentedEngine records the duration and outcome kind of every call to the wrapped engine.
type InstrumentedEngine struct {
	next    es.Engine
	metrics *Metrics
}

var _ es.Engine = (*InstrumentedEngine)(nil)

func NewInstrumentedEngine(next es.Engine, m *Metrics) *InstrumentedEngine {
	return &InstrumentedEngine{next: next, metrics: m}
}

func (e *InstrumentedEngine) observe(op string, start time.Time, err error) {
	kind := "ok"
	if err != nil {
		kind = string(apperr.KindOf(err))
	}
	e.metrics.RecordEngineOp(op, kind, time.Since(start))
}

func (e *InstrumentedEngine) CreateIndex(ctx context.Context, name string, mapping es.Mapping) (err error) {
	defer func(start time.Time) { e.observe("create_index", start, err) }(time.Now())
	return e.next.CreateIndex(ctx, name, mapping)
}

func (e *InstrumentedEngine) DeleteIndex(ctx context.Context, name string) (err error) {
	defer func(start time.Time) { e.observe("delete_index", start, err) }(time.Now())
	return e.next.DeleteIndex(ctx, name)
}

func (e *InstrumentedEngine) IndexExists(ctx context.Context, name string) (ok bool, err error) {
	defer func(start time.Time) { e.observe("index_exists", start, err) }(time.Now())
	return e.next.IndexExists(ctx, name)
}

func (e *InstrumentedEngine) GetMapping(ctx context.Context, name string) (m es.Mapping, err error) {
	defer func(start time.Time) { e.observe("get_mapping", start, err) }(time.Now())
	return e.next.GetMapping(ctx, name)
}

func (e *InstrumentedEngine) IndexDocument(ctx context.Context, index string, doc es.Document, id string, mode es.IndexMode) (out string, err error) {
	defer func(start time.Time) { e.observe("index_document", start, err) }(time.Now())
	return e.next.IndexDocument(ctx, index, doc, id, mode)
}

func (e *InstrumentedEngine) GetDocument(ctx context.Context, index, id string, fields []string) (doc es.Document, err error) {
	defer func(start time.Time) { e.observe("get_document", start, err) }(time.Now())
	return e.next.GetDocument(ctx, index, id, fields)
}

func (e *InstrumentedEngine) UpdateDocument(ctx context.Context, index, id string, doc es.Document, mode es.UpdateMode) (out string, err error) {
	defer func(start time.Time) { e.observe("update_document", start, err) }(time.Now())
	return e.next.UpdateDocument(ctx, index, id, doc, mode)
}

func (e *InstrumentedEngine) DeleteDocument(ctx context.Context, index, id string) (out es.DeleteOutcome, err error) {
	defer func(start time.Time) { e.observe("delete_document", start, err) }(time.Now())
	return e.next.DeleteDocument(ctx, index, id)
}

func (e *InstrumentedEngine) Bulk(ctx context.Context, index string, ops []es.BulkOperation) (out *es.BulkOutcome, err error) {
	defer func(start time.Time) {
		e.observe("bulk", start, err)
		if out != nil {
			failed := out.Failed()
			e.metrics.RecordBulkItems(len(out.Items)-failed, failed)
		}
	}(time.Now())
	return e.next.Bulk(ctx, index, ops)
}

func (e *InstrumentedEngine) Search(ctx context.Context, index string, req es.SearchRequest) (res *es.SearchResult, err error) {
	defer func(start time.Time) { e.observe("search", start, err) }(time.Now())
	return e.next.Search(ctx, index, req)
}

func (e *InstrumentedEngine) Count(ctx context.Context, index string, query es.Query) (n int64, err error) {
	defer func(start time.Time) { e.observe("count", start, err) }(time.Now())
	return e.next.Count(ctx, index, query)
}

func (e *InstrumentedEngine) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { e.observe("ping", start, err) }(time.Now())
	return e.next.Ping(ctx)
}
