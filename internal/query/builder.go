// Package query builds engine-native search requests from normalized query requests.
package query

import (
	"strings"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

const (
	DefaultPageSize = 10
	// MaxResultWindow bounds from+size, as the engine's index.max_result_window does.
	MaxResultWindow = 10000
)

// Request is a normalized query. Every part is optional.
type Request struct {
	Filters  []Filter   `json:"filters,omitempty"`
	FullText []FullText `json:"fullText,omitempty"`
	Should   []FullText `json:"should,omitempty"`
	Sort     *Sort      `json:"sort,omitempty"`
	Page     *Page      `json:"page,omitempty"`
	Fields   []string   `json:"fields,omitempty"`
}

// Filter is an unanalyzed constraint. Exactly one of Term, Terms and Range is set.
type Filter struct {
	Field string `json:"field"`
	Term  any    `json:"term,omitempty"`
	Terms []any  `json:"terms,omitempty"`
	Range *Range `json:"range,omitempty"`
}

// Range bounds may be numbers, dates or date math such as "now-1d".
type Range struct {
	GTE any `json:"gte,omitempty"`
	GT  any `json:"gt,omitempty"`
	LTE any `json:"lte,omitempty"`
	LT  any `json:"lt,omitempty"`
}

// FullText is an analyzed match against one field.
type FullText struct {
	Field string `json:"field"`
	Query string `json:"query"`
}

// Sort orders by Field. Order is compared case-sensitively: only "ASC" sorts ascending.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"`
}

// Page is 1-based.
type Page struct {
	Index *int `json:"index,omitempty"`
	Size  *int `json:"size,omitempty"`
}

// Builder carries the paging limits applied by Build.
type Builder struct {
	DefaultSize int
	MaxWindow   int
}

func NewBuilder(defaultSize, maxWindow int) Builder {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if maxWindow < 1 {
		maxWindow = MaxResultWindow
	}
	return Builder{DefaultSize: defaultSize, MaxWindow: maxWindow}
}

// Build translates req with the default limits.
func Build(req Request) (es.SearchRequest, error) {
	return NewBuilder(DefaultPageSize, MaxResultWindow).Build(req)
}

// Build translates req. Filters land in bool.filter (unscored), full-text clauses in bool.must
// (scored) and Should in bool.should; no clause at all yields match_all.
func (b Builder) Build(req Request) (es.SearchRequest, error) {
	q, err := BoolQuery(req)
	if err != nil {
		return es.SearchRequest{}, err
	}
	out := es.SearchRequest{Query: q, SourceIncludes: req.Fields}

	from, size, err := b.Paginate(req.Page)
	if err != nil {
		return es.SearchRequest{}, err
	}
	out.From = from
	out.Size = &size

	if req.Sort != nil && strings.TrimSpace(req.Sort.Field) != "" {
		out.Sort = []es.SortField{{Field: req.Sort.Field, Order: ParseSortOrder(req.Sort.Order)}}
	}
	return out, nil
}

// BoolQuery builds only the query part of req.
func BoolQuery(req Request) (es.Query, error) {
	filters := make([]any, 0, len(req.Filters))
	for _, f := range req.Filters {
		clause, err := filterClause(f)
		if err != nil {
			return nil, err
		}
		filters = append(filters, clause)
	}
	must, err := matchClauses(req.FullText)
	if err != nil {
		return nil, err
	}
	should, err := matchClauses(req.Should)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 && len(must) == 0 && len(should) == 0 {
		return es.MatchAll(), nil
	}

	b := map[string]any{}
	if len(must) > 0 {
		b["must"] = must
	}
	if len(filters) > 0 {
		b["filter"] = filters
	}
	if len(should) > 0 {
		b["should"] = should
	}
	return es.Query{"bool": b}, nil
}

// Paginate resolves a page into from/size: no index means offset 0, no size the default size.
func (b Builder) Paginate(p *Page) (from, size int, err error) {
	size = b.DefaultSize
	if p == nil {
		return 0, size, nil
	}
	if p.Size != nil {
		if *p.Size < 1 {
			return 0, 0, apperr.Validation("pageSize must be at least 1, got %d", *p.Size)
		}
		size = *p.Size
	}
	if p.Index != nil {
		if *p.Index < 1 {
			return 0, 0, apperr.Validation("pageIndex must be at least 1, got %d", *p.Index)
		}
		if *p.Index-1 > (b.MaxWindow-size)/size {
			return 0, 0, apperr.Validation("result window is too large, from + size must be less than or equal to [%d] for pageIndex %d and pageSize %d",
				b.MaxWindow, *p.Index, size)
		}
		from = Offset(*p.Index, size)
	}
	if from+size > b.MaxWindow {
		return 0, 0, apperr.Validation("result window is too large, from + size must be less than or equal to [%d] but was [%d]",
			b.MaxWindow, from+size)
	}
	return from, size, nil
}

// Offset returns (pageIndex-1) × pageSize.
func Offset(pageIndex, pageSize int) int {
	return (pageIndex - 1) * pageSize
}

// ParseSortOrder maps exactly "ASC" to ascending; anything else, "asc" included, is descending.
func ParseSortOrder(order string) es.SortOrder {
	if order == "ASC" {
		return es.Asc
	}
	return es.Desc
}

func filterClause(f Filter) (map[string]any, error) {
	if strings.TrimSpace(f.Field) == "" {
		return nil, apperr.Validation("filter field is required")
	}
	set := 0
	if f.Term != nil {
		set++
	}
	if f.Terms != nil {
		set++
	}
	if f.Range != nil {
		set++
	}
	if set != 1 {
		return nil, apperr.Validation("filter on %q must set exactly one of term, terms or range", f.Field)
	}

	switch {
	case f.Term != nil:
		return map[string]any{"term": map[string]any{f.Field: f.Term}}, nil
	case f.Terms != nil:
		if len(f.Terms) == 0 {
			return nil, apperr.Validation("terms filter on %q needs at least one value", f.Field)
		}
		return map[string]any{"terms": map[string]any{f.Field: f.Terms}}, nil
	default:
		bounds := map[string]any{}
		if f.Range.GTE != nil {
			bounds["gte"] = f.Range.GTE
		}
		if f.Range.GT != nil {
			bounds["gt"] = f.Range.GT
		}
		if f.Range.LTE != nil {
			bounds["lte"] = f.Range.LTE
		}
		if f.Range.LT != nil {
			bounds["lt"] = f.Range.LT
		}
		if len(bounds) == 0 {
			return nil, apperr.Validation("range filter on %q needs at least one bound", f.Field)
		}
		return map[string]any{"range": map[string]any{f.Field: bounds}}, nil
	}
}

func matchClauses(texts []FullText) ([]any, error) {
	out := make([]any, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.Field) == "" {
			return nil, apperr.Validation("full-text field is required")
		}
		if strings.TrimSpace(t.Query) == "" {
			return nil, apperr.Validation("full-text query for %q is empty", t.Field)
		}
		out = append(out, map[string]any{"match": map[string]any{t.Field: t.Query}})
	}
	return out, nil
}
