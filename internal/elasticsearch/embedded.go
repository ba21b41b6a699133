package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"github.com/psds-microservice/search-facade/internal/apperr"
)

const (
	defaultSearchSize = 10
	maxResultWindow   = 10000
)

// Embedded is an in-process Engine backed by bleve memory-only indexes.
// It answers the same calls as Client for local runs and tests without a cluster.
type Embedded struct {
	mu      sync.RWMutex
	indices map[string]*memIndex
}

// memIndex keeps the sources beside the bleve index; writes take mu exclusively.
type memIndex struct {
	mu      sync.RWMutex
	mapping Mapping
	index   bleve.Index
	docs    map[string]Document
}

func NewEmbedded() *Embedded {
	return &Embedded{indices: make(map[string]*memIndex)}
}

// Close releases every index.
func (e *Embedded) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	for name, idx := range e.indices {
		if err := idx.index.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.indices, name)
	}
	return firstErr
}

func (e *Embedded) CreateIndex(ctx context.Context, name string, m Mapping) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unreachable("create index", err)
	}
	if err := validateIndexName(name); err != nil {
		return err
	}
	if err := validateMapping("", m.Properties); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[name]; ok {
		return apperr.Engine(400, "resource_already_exists_exception",
			fmt.Sprintf("index [%s] already exists", name))
	}
	idx, err := newMemIndex(cloneMapping(m))
	if err != nil {
		return err
	}
	e.indices[name] = idx
	return nil
}

func (e *Embedded) DeleteIndex(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unreachable("delete index", err)
	}
	e.mu.Lock()
	idx, ok := e.indices[name]
	delete(e.indices, name)
	e.mu.Unlock()
	if !ok {
		return indexNotFound(name)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.index.Close()
}

func (e *Embedded) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperr.Unreachable("index exists", err)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.indices[name]
	return ok, nil
}

func (e *Embedded) GetMapping(ctx context.Context, name string) (Mapping, error) {
	if err := ctx.Err(); err != nil {
		return Mapping{}, apperr.Unreachable("get mapping", err)
	}
	idx, err := e.lookup(name)
	if err != nil {
		return Mapping{}, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return cloneMapping(idx.mapping), nil
}

func (e *Embedded) IndexDocument(ctx context.Context, index string, doc Document, id string, mode IndexMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Unreachable("index document", err)
	}
	src, err := normalizeDocument(doc)
	if err != nil {
		return "", err
	}
	idx, err := e.lookupOrCreate(index)
	if err != nil {
		return "", err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := idx.docs[id]; exists && mode == ModeCreate {
		return "", versionConflict(id)
	}
	if err := idx.put(id, src); err != nil {
		return "", err
	}
	return id, nil
}

func (e *Embedded) GetDocument(ctx context.Context, index, id string, fields []string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unreachable("get document", err)
	}
	idx, err := e.lookup(index)
	if err != nil {
		return nil, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	doc, ok := idx.docs[id]
	if !ok {
		return nil, apperr.NotFound("document %s not found in %s", id, index)
	}
	return project(doc, fields), nil
}

func (e *Embedded) UpdateDocument(ctx context.Context, index, id string, doc Document, mode UpdateMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Unreachable("update document", err)
	}
	src, err := normalizeDocument(doc)
	if err != nil {
		return "", err
	}
	idx, err := e.lookup(index)
	if err != nil {
		return "", err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	current, ok := idx.docs[id]
	if !ok {
		return "", apperr.NotFound("document %s not found in %s", id, index)
	}
	if mode == Merge {
		merged := cloneValue(current).(map[string]any)
		deepMerge(merged, src)
		src = merged
	}
	if err := idx.put(id, src); err != nil {
		return "", err
	}
	return id, nil
}

func (e *Embedded) DeleteDocument(ctx context.Context, index, id string) (DeleteOutcome, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Unreachable("delete document", err)
	}
	idx, err := e.lookup(index)
	if err != nil {
		return "", err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.remove(id)
}

func (e *Embedded) Bulk(ctx context.Context, index string, ops []BulkOperation) (*BulkOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unreachable("bulk", err)
	}
	for _, op := range ops {
		switch op.Action {
		case BulkCreate, BulkIndex, BulkUpdate, BulkDelete:
		default:
			return nil, apperr.Validation("unknown bulk action %q", op.Action)
		}
	}
	outcome := &BulkOutcome{ItemCount: len(ops), Items: make([]BulkItemResult, 0, len(ops))}
	if len(ops) == 0 {
		return outcome, nil
	}
	idx, err := e.lookupOrCreate(index)
	if err != nil {
		return nil, err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, op := range ops {
		item := idx.apply(op)
		if !item.Success {
			outcome.Errors = true
		}
		outcome.Items = append(outcome.Items, item)
	}
	return outcome, nil
}

func (e *Embedded) Search(ctx context.Context, index string, req SearchRequest) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unreachable("search", err)
	}
	idx, err := e.lookup(index)
	if err != nil {
		return nil, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tr := translator{mapping: idx.mapping}
	q, err := tr.translate(req.Query)
	if err != nil {
		return nil, err
	}
	size := defaultSearchSize
	if req.Size != nil {
		size = *req.Size
	}
	if size < 0 || req.From < 0 {
		return nil, apperr.Engine(400, "illegal_argument_exception", "[from] and [size] must be non-negative")
	}
	if size > maxResultWindow || req.From > maxResultWindow-size {
		return nil, apperr.Engine(400, "illegal_argument_exception",
			fmt.Sprintf("Result window is too large, from + size must be less than or equal to: [%d]", maxResultWindow))
	}
	sr := bleve.NewSearchRequestOptions(q, size, req.From, false)
	if len(req.Sort) > 0 {
		order := make([]string, 0, len(req.Sort))
		for _, s := range req.Sort {
			if s.Order == Desc {
				order = append(order, "-"+s.Field)
			} else {
				order = append(order, s.Field)
			}
		}
		sr.SortBy(order)
	}
	res, err := idx.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, searchFailed(err)
	}

	out := &SearchResult{Total: int64(res.Total), Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		doc, ok := idx.docs[h.ID]
		if !ok {
			continue
		}
		out.Hits = append(out.Hits, Hit{ID: h.ID, Score: h.Score, Source: project(doc, req.SourceIncludes)})
	}
	if len(req.Aggregations) > 0 {
		out.Aggregations = make(map[string]AggregationResult, len(req.Aggregations))
		for name, agg := range req.Aggregations {
			r, err := idx.aggregate(ctx, tr, q, agg)
			if err != nil {
				return nil, err
			}
			out.Aggregations[name] = r
		}
	}
	return out, nil
}

func (e *Embedded) Count(ctx context.Context, index string, q Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperr.Unreachable("count", err)
	}
	idx, err := e.lookup(index)
	if err != nil {
		return 0, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	bq, err := translator{mapping: idx.mapping}.translate(q)
	if err != nil {
		return 0, err
	}
	return idx.count(ctx, bq)
}

func (e *Embedded) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unreachable("ping", err)
	}
	return nil
}

func (e *Embedded) lookup(name string) (*memIndex, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.indices[name]
	if !ok {
		return nil, indexNotFound(name)
	}
	return idx, nil
}

// lookupOrCreate mirrors the engine's automatic index creation on first write.
func (e *Embedded) lookupOrCreate(name string) (*memIndex, error) {
	if idx, err := e.lookup(name); err == nil {
		return idx, nil
	}
	if err := validateIndexName(name); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx, ok := e.indices[name]; ok {
		return idx, nil
	}
	idx, err := newMemIndex(Mapping{})
	if err != nil {
		return nil, err
	}
	e.indices[name] = idx
	return idx, nil
}

func newMemIndex(m Mapping) (*memIndex, error) {
	if m.Properties == nil {
		m.Properties = map[string]Property{}
	}
	bi, err := bleve.NewMemOnly(indexMapping(m))
	if err != nil {
		return nil, fmt.Errorf("open memory index: %w", err)
	}
	return &memIndex{mapping: m, index: bi, docs: make(map[string]Document)}, nil
}

// put stores src under id. Unknown fields are added to the mapping and the index is rebuilt.
func (m *memIndex) put(id string, src Document) error {
	previous, had := m.docs[id]
	m.docs[id] = src
	if addDynamicFields(m.mapping.Properties, src) {
		if err := m.rebuild(); err != nil {
			m.restore(id, previous, had)
			return err
		}
		return nil
	}
	if err := m.index.Index(id, map[string]any(src)); err != nil {
		m.restore(id, previous, had)
		return fmt.Errorf("index document %s: %w", id, err)
	}
	return nil
}

func (m *memIndex) restore(id string, previous Document, had bool) {
	if had {
		m.docs[id] = previous
		return
	}
	delete(m.docs, id)
}

func (m *memIndex) remove(id string) (DeleteOutcome, error) {
	if _, ok := m.docs[id]; !ok {
		return NotFound, nil
	}
	if err := m.index.Delete(id); err != nil {
		return "", fmt.Errorf("delete document %s: %w", id, err)
	}
	delete(m.docs, id)
	return Deleted, nil
}

func (m *memIndex) rebuild() error {
	fresh, err := bleve.NewMemOnly(indexMapping(m.mapping))
	if err != nil {
		return fmt.Errorf("rebuild memory index: %w", err)
	}
	batch := fresh.NewBatch()
	for id, doc := range m.docs {
		if err := batch.Index(id, map[string]any(doc)); err != nil {
			_ = fresh.Close()
			return fmt.Errorf("rebuild memory index: %w", err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		_ = fresh.Close()
		return fmt.Errorf("rebuild memory index: %w", err)
	}
	old := m.index
	m.index = fresh
	return old.Close()
}

// apply executes one bulk item and reports it with the status the engine would return.
func (m *memIndex) apply(op BulkOperation) BulkItemResult {
	item := BulkItemResult{Action: op.Action, ID: op.ID}
	fail := func(status int, msg string) BulkItemResult {
		item.Status = status
		item.Error = msg
		return item
	}

	var src Document
	if op.Action != BulkDelete {
		var err error
		if src, err = normalizeDocument(op.Doc); err != nil {
			return fail(400, err.Error())
		}
	}

	switch op.Action {
	case BulkCreate, BulkIndex:
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		_, exists := m.docs[item.ID]
		if exists && op.Action == BulkCreate {
			return fail(409, versionConflict(item.ID).Error())
		}
		if err := m.put(item.ID, src); err != nil {
			return fail(500, err.Error())
		}
		item.Status = 201
		if exists {
			item.Status = 200
		}
	case BulkUpdate:
		current, ok := m.docs[item.ID]
		if !ok {
			return fail(404, fmt.Sprintf("[%s]: document missing", item.ID))
		}
		merged := cloneValue(current).(map[string]any)
		deepMerge(merged, src)
		if err := m.put(item.ID, merged); err != nil {
			return fail(500, err.Error())
		}
		item.Status = 200
	case BulkDelete:
		outcome, err := m.remove(item.ID)
		if err != nil {
			return fail(500, err.Error())
		}
		if outcome == NotFound {
			return fail(404, string(NotFound))
		}
		item.Status = 200
	}
	item.Success = true
	return item
}

func (m *memIndex) count(ctx context.Context, q query.Query) (int64, error) {
	res, err := m.index.SearchInContext(ctx, bleve.NewSearchRequestOptions(q, 0, 0, false))
	if err != nil {
		return 0, searchFailed(err)
	}
	return int64(res.Total), nil
}

// matching returns the ids of every document matching q.
func (m *memIndex) matching(ctx context.Context, q query.Query) ([]string, error) {
	total, err := m.count(ctx, q)
	if err != nil || total == 0 {
		return nil, err
	}
	res, err := m.index.SearchInContext(ctx, bleve.NewSearchRequestOptions(q, int(total), 0, false))
	if err != nil {
		return nil, searchFailed(err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func indexNotFound(name string) error {
	return apperr.Engine(404, "index_not_found_exception", fmt.Sprintf("no such index [%s]", name))
}

func versionConflict(id string) *apperr.Error {
	return apperr.Engine(409, "version_conflict_engine_exception",
		fmt.Sprintf("[%s]: version conflict, document already exists", id))
}

func searchFailed(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Unreachable("search", err)
	}
	return apperr.Engine(400, "search_phase_execution_exception", err.Error())
}

func validateIndexName(name string) error {
	if name == "" || name != strings.ToLower(name) || strings.ContainsAny(name, ` "*\<|,>/?#:`) ||
		strings.HasPrefix(name, "_") || strings.HasPrefix(name, "-") || strings.HasPrefix(name, "+") {
		return apperr.Engine(400, "invalid_index_name_exception", fmt.Sprintf("Invalid index name [%s]", name))
	}
	return nil
}

// normalizeDocument deep-copies doc through JSON so stored values only hold JSON types.
func normalizeDocument(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Engine(400, "mapper_parsing_exception", fmt.Sprintf("failed to parse document: %v", err))
	}
	out := Document{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperr.Engine(400, "mapper_parsing_exception", fmt.Sprintf("failed to parse document: %v", err))
	}
	return out, nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return cloneValue(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// deepMerge applies src onto dst; nested objects merge, everything else is replaced.
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		sv, srcObj := v.(map[string]any)
		dv, dstObj := dst[k].(map[string]any)
		if srcObj && dstObj {
			deepMerge(dv, sv)
			continue
		}
		dst[k] = cloneValue(v)
	}
}

// project returns a copy of doc restricted to the dotted field paths; no fields means the whole source.
func project(doc Document, fields []string) Document {
	if len(fields) == 0 {
		return Document(cloneValue(map[string]any(doc)).(map[string]any))
	}
	out := Document{}
	for _, f := range fields {
		v, ok := lookupPath(doc, f)
		if !ok {
			continue
		}
		parts := strings.Split(f, ".")
		cur := map[string]any(out)
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = cloneValue(v)
	}
	return out
}

func lookupPath(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, p := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func cloneMapping(m Mapping) Mapping {
	return Mapping{Properties: cloneProperties(m.Properties)}
}

func cloneProperties(props map[string]Property) map[string]Property {
	if props == nil {
		return nil
	}
	out := make(map[string]Property, len(props))
	for k, p := range props {
		p.Fields = cloneProperties(p.Fields)
		p.Properties = cloneProperties(p.Properties)
		out[k] = p
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
