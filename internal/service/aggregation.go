package service

import (
	"context"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/model"
)

const (
	matrixAggregation    = "manufactures"
	histogramAggregation = "autoDateHistogram"
	// MaxHistogramBuckets bounds the bucket target of the auto date histogram.
	MaxHistogramBuckets = 1000
)

// manufacturerGroups are the named filters of the adjacency matrix.
var manufacturerGroups = map[string][]any{
	"grpA": {"Elitelligence", "Oceanavigations"},
	"grpB": {"Elitelligence", "Pyramidustries"},
	"grpC": {"Champion Arts", "Pyramidustries"},
}

// AdjacencyMatrix counts orders per manufacturer group and per pairwise group intersection.
func (s *Service) AdjacencyMatrix(ctx context.Context) ([]model.AggregateResponse, error) {
	filters := make(map[string]es.Query, len(manufacturerGroups))
	for name, values := range manufacturerGroups {
		filters[name] = es.Query{"terms": map[string]any{"manufacturer.keyword": values}}
	}
	size := 0
	res, err := s.search(ctx, s.ecommerce, es.SearchRequest{
		Query: es.MatchAll(),
		Size:  &size,
		Aggregations: map[string]es.Aggregation{
			matrixAggregation: {AdjacencyMatrix: &es.AdjacencyMatrix{Filters: filters}},
		},
	})
	if err != nil {
		return nil, err
	}
	agg := res.Aggregations[matrixAggregation]
	out := make([]model.AggregateResponse, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		out = append(out, model.AggregateResponse{Group: b.Key, DocCount: b.DocCount})
	}
	return out, nil
}

// AutoDateHistogram buckets orders by order_date into at most buckets intervals. Orders
// without a date count as placed two years ago.
func (s *Service) AutoDateHistogram(ctx context.Context, buckets int) ([]model.AggregateResponse, error) {
	if buckets < 1 || buckets > MaxHistogramBuckets {
		return nil, apperr.Validation("bucket size must be between 1 and %d, got %d", MaxHistogramBuckets, buckets)
	}
	missing := s.now().AddDate(-2, 0, 0)
	size := 0
	res, err := s.search(ctx, s.ecommerce, es.SearchRequest{
		Query: es.MatchAll(),
		Size:  &size,
		Aggregations: map[string]es.Aggregation{
			histogramAggregation: {AutoDateHistogram: &es.AutoDateHistogram{
				Field:           "order_date",
				Buckets:         buckets,
				Format:          "yyyy-MM-dd",
				MinimumInterval: "hour",
				Missing:         &missing,
			}},
		},
	})
	if err != nil {
		return nil, err
	}
	agg := res.Aggregations[histogramAggregation]
	out := make([]model.AggregateResponse, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		out = append(out, model.AggregateResponse{Group: b.KeyAsString, DocCount: b.DocCount, Interval: agg.Interval})
	}
	return out, nil
}
