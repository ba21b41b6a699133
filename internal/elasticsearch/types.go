package elasticsearch

import (
	"sort"
	"time"
)

// Document is an arbitrary JSON object stored in an index.
type Document map[string]any

// Query is a node of the Elasticsearch query DSL, e.g. {"match": {"name": "acme"}}.
type Query map[string]any

// MatchAll is the query used when no clause is given.
func MatchAll() Query {
	return Query{"match_all": map[string]any{}}
}

// IndexMode selects what happens when a document with the given id already exists.
type IndexMode int

const (
	// ModeIndex overwrites an existing document silently.
	ModeIndex IndexMode = iota
	// ModeCreate fails with a conflict when the id is taken.
	ModeCreate
)

// UpdateMode selects between full replacement and partial merge.
type UpdateMode int

const (
	Replace UpdateMode = iota
	Merge
)

// DeleteOutcome is the result of a single-document delete.
type DeleteOutcome string

const (
	Deleted  DeleteOutcome = "deleted"
	NotFound DeleteOutcome = "not_found"
)

// BulkAction tags a bulk item.
type BulkAction string

const (
	BulkCreate BulkAction = "create"
	BulkIndex  BulkAction = "index"
	BulkUpdate BulkAction = "update"
	BulkDelete BulkAction = "delete"
)

// BulkOperation is one item of a bulk batch. Doc is ignored for deletes and is the partial document for updates.
type BulkOperation struct {
	Action BulkAction `json:"action"`
	ID     string     `json:"id,omitempty"`
	Doc    Document   `json:"doc,omitempty"`
}

// BulkItemResult reports the outcome of one bulk item.
type BulkItemResult struct {
	Action  BulkAction `json:"action"`
	ID      string     `json:"id"`
	Status  int        `json:"status"`
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
}

// BulkOutcome keeps item order. Errors is true when at least one item failed.
type BulkOutcome struct {
	ItemCount int              `json:"itemCount"`
	Errors    bool             `json:"errors"`
	Items     []BulkItemResult `json:"items"`
}

// IDs returns the ids of the successful items in batch order.
func (o *BulkOutcome) IDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Success {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Failed returns the number of failed items.
func (o *BulkOutcome) Failed() int {
	n := 0
	for _, it := range o.Items {
		if !it.Success {
			n++
		}
	}
	return n
}

// SortOrder is "asc" or "desc".
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// SortField orders hits by one field.
type SortField struct {
	Field string
	Order SortOrder
}

// SearchRequest is the engine-native search. A nil Size leaves the engine default in place.
type SearchRequest struct {
	Query          Query
	From           int
	Size           *int
	Sort           []SortField
	SourceIncludes []string
	Aggregations   map[string]Aggregation
}

// Aggregation holds exactly one of the supported bucket aggregations.
type Aggregation struct {
	AdjacencyMatrix   *AdjacencyMatrix
	AutoDateHistogram *AutoDateHistogram
}

// AdjacencyMatrix buckets documents by named filters and by every pairwise intersection of them.
type AdjacencyMatrix struct {
	Filters map[string]Query
}

// AutoDateHistogram buckets a date field into at most Buckets intervals chosen by the engine.
type AutoDateHistogram struct {
	Field           string
	Buckets         int
	Format          string
	MinimumInterval string
	Missing         *time.Time
}

// Hit is one matching document.
type Hit struct {
	ID     string   `json:"id"`
	Score  float64  `json:"score"`
	Source Document `json:"source"`
}

// Bucket is one aggregation bucket.
type Bucket struct {
	Key         string `json:"key"`
	KeyAsString string `json:"keyAsString,omitempty"`
	DocCount    int64  `json:"docCount"`
}

// AggregationResult carries the buckets of one aggregation and, for date histograms, the chosen interval.
type AggregationResult struct {
	Buckets  []Bucket `json:"buckets"`
	Interval string   `json:"interval,omitempty"`
}

// SearchResult carries the total number of matches (independent of page size) and the current page.
type SearchResult struct {
	Total        int64
	Hits         []Hit
	Aggregations map[string]AggregationResult
}

// Sources returns the hit documents in order.
func (r *SearchResult) Sources() []Document {
	docs := make([]Document, 0, len(r.Hits))
	for _, h := range r.Hits {
		docs = append(docs, h.Source)
	}
	return docs
}

// Property is one field declaration of a mapping.
type Property struct {
	Type            string              `json:"type,omitempty"`
	Format          string              `json:"format,omitempty"`
	Index           *bool               `json:"index,omitempty"`
	Norms           *bool               `json:"norms,omitempty"`
	DocValues       *bool               `json:"doc_values,omitempty"`
	IgnoreMalformed *bool               `json:"ignore_malformed,omitempty"`
	Coerce          *bool               `json:"coerce,omitempty"`
	Store           *bool               `json:"store,omitempty"`
	NullValue       any                 `json:"null_value,omitempty"`
	IgnoreAbove     int                 `json:"ignore_above,omitempty"`
	Fields          map[string]Property `json:"fields,omitempty"`
	Properties      map[string]Property `json:"properties,omitempty"`
}

// Mapping declares the fields of an index.
type Mapping struct {
	Properties map[string]Property `json:"properties,omitempty"`
}

// FieldNames returns the sorted top-level field names.
func (m Mapping) FieldNames() []string {
	names := make([]string, 0, len(m.Properties))
	for name := range m.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a top-level field is declared.
func (m Mapping) Has(field string) bool {
	_, ok := m.Properties[field]
	return ok
}

func boolPtr(v bool) *bool { return &v }
