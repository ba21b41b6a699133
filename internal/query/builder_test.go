package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

func intPtr(n int) *int { return &n }

func TestOffset(t *testing.T) {
	for size := 1; size <= 50; size += 7 {
		assert.Equal(t, 0, Offset(1, size), "first page always starts at 0")
		for index := 1; index <= 20; index++ {
			assert.Equal(t, (index-1)*size, Offset(index, size))
		}
	}
}

func TestParseSortOrder(t *testing.T) {
	testCases := []struct {
		in   string
		want es.SortOrder
	}{
		{"ASC", es.Asc},
		{"asc", es.Desc},
		{"Asc", es.Desc},
		{"", es.Desc},
		{"DESC", es.Desc},
		{"sideways", es.Desc},
		{" ASC", es.Desc},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseSortOrder(tc.in))
		})
	}
}

func TestBuild_EmptyRequestMatchesAll(t *testing.T) {
	req, err := Build(Request{})
	require.NoError(t, err)
	assert.Equal(t, es.MatchAll(), req.Query)
	assert.Equal(t, 0, req.From)
	require.NotNil(t, req.Size)
	assert.Equal(t, DefaultPageSize, *req.Size)
	assert.Empty(t, req.Sort, "no sort field keeps relevance order")
}

func TestBuild_Compound(t *testing.T) {
	req, err := Build(Request{
		FullText: []FullText{
			{Field: "geoip.continent_name", Query: "North America"},
			{Field: "geoip.city_name", Query: "Los Angeles"},
		},
		Filters: []Filter{
			{Field: "order_date", Range: &Range{GTE: "2020-03-20", LT: "now"}},
			{Field: "currency", Term: "EUR"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, es.Query{"bool": map[string]any{
		"must": []any{
			map[string]any{"match": map[string]any{"geoip.continent_name": "North America"}},
			map[string]any{"match": map[string]any{"geoip.city_name": "Los Angeles"}},
		},
		"filter": []any{
			map[string]any{"range": map[string]any{"order_date": map[string]any{"gte": "2020-03-20", "lt": "now"}}},
			map[string]any{"term": map[string]any{"currency": "EUR"}},
		},
	}}, req.Query)
}

func TestBuild_ShouldAndTerms(t *testing.T) {
	req, err := Build(Request{
		Should:  []FullText{{Field: "customer_full_name", Query: "Eddie"}},
		Filters: []Filter{{Field: "manufacturer.keyword", Terms: []any{"Elitelligence", "Oceanavigations"}}},
	})
	require.NoError(t, err)
	b := req.Query["bool"].(map[string]any)
	assert.Len(t, b["should"], 1)
	assert.Equal(t, []any{map[string]any{"terms": map[string]any{
		"manufacturer.keyword": []any{"Elitelligence", "Oceanavigations"},
	}}}, b["filter"])
	assert.NotContains(t, b, "must")
}

func TestBuild_SortAndPage(t *testing.T) {
	req, err := Build(Request{
		Sort: &Sort{Field: "order_date", Order: "ASC"},
		Page: &Page{Index: intPtr(3), Size: intPtr(25)},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, req.From)
	assert.Equal(t, 25, *req.Size)
	assert.Equal(t, []es.SortField{{Field: "order_date", Order: es.Asc}}, req.Sort)

	req, err = Build(Request{Sort: &Sort{Field: "order_date"}, Page: &Page{Index: intPtr(2)}})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, req.From, "missing size falls back to the default for the offset too")
	assert.Equal(t, es.Desc, req.Sort[0].Order)
}

func TestBuild_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		req  Request
	}{
		{"page index zero", Request{Page: &Page{Index: intPtr(0), Size: intPtr(10)}}},
		{"page size zero", Request{Page: &Page{Index: intPtr(1), Size: intPtr(0)}}},
		{"negative size", Request{Page: &Page{Size: intPtr(-5)}}},
		{"window too large", Request{Page: &Page{Index: intPtr(1001), Size: intPtr(10)}}},
		{"filter without field", Request{Filters: []Filter{{Term: "x"}}}},
		{"filter with two kinds", Request{Filters: []Filter{{Field: "a", Term: "x", Terms: []any{"y"}}}}},
		{"filter with no kind", Request{Filters: []Filter{{Field: "a"}}}},
		{"empty terms", Request{Filters: []Filter{{Field: "a", Terms: []any{}}}}},
		{"empty range", Request{Filters: []Filter{{Field: "a", Range: &Range{}}}}},
		{"blank full text", Request{FullText: []FullText{{Field: "name", Query: "  "}}}},
		{"full text without field", Request{FullText: []FullText{{Query: "acme"}}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.req)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestBuilder_CustomLimits(t *testing.T) {
	b := NewBuilder(20, 100)
	from, size, err := b.Paginate(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, from)
	assert.Equal(t, 20, size)

	_, _, err = b.Paginate(&Page{Index: intPtr(5), Size: intPtr(25)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Equal(t, NewBuilder(DefaultPageSize, MaxResultWindow), NewBuilder(0, 0))
}

func TestBuilder_PaginateRejectsOverflowingPages(t *testing.T) {
	b := NewBuilder(DefaultPageSize, MaxResultWindow)
	testCases := []struct {
		name        string
		index, size int
	}{
		{"wraps negative", 1<<61 + 1, 4},
		{"wraps near max", 1 << 62, 2},
		{"max index", math.MaxInt, 1},
		{"max index and size", math.MaxInt, math.MaxInt},
		{"size above window", 2, MaxResultWindow + 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			from, size, err := b.Paginate(&Page{Index: intPtr(tc.index), Size: intPtr(tc.size)})
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Zero(t, from)
			assert.Zero(t, size)
		})
	}

	from, size, err := b.Paginate(&Page{Index: intPtr(1000), Size: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 9990, from, "the last page inside the window is accepted")
	assert.Equal(t, 10, size)
}
