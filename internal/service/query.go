package service

import (
	"context"

	"github.com/psds-microservice/search-facade/internal/model"
	"github.com/psds-microservice/search-facade/internal/query"
)

const (
	DefaultOrdersFrom   = "2020-03-16"
	DefaultCustomer     = "Eddie"
	DefaultContinent    = "Asia"
	DefaultCompoundFrom = "2020-03-20"
	DefaultCompoundArea = "North America"
	DefaultCompoundCity = "Los Angeles"
)

// Structured returns orders placed from the given date up to now. It is a filter only, so
// every hit scores the same.
func (s *Service) Structured(ctx context.Context, from string) (*model.SearchResponse, error) {
	if from == "" {
		from = DefaultOrdersFrom
	}
	return s.Query(ctx, query.Request{
		Filters: []query.Filter{orderDateSince(from)},
	})
}

// Unstructured runs a full-text match on the customer's full name.
func (s *Service) Unstructured(ctx context.Context, q string) (*model.SearchResponse, error) {
	if q == "" {
		q = DefaultCustomer
	}
	return s.Query(ctx, query.Request{
		FullText: []query.FullText{{Field: "customer_full_name", Query: q}},
	})
}

// UnstructuredNested runs a full-text match on the continent of the order's geoip object.
func (s *Service) UnstructuredNested(ctx context.Context, q string) (*model.SearchResponse, error) {
	if q == "" {
		q = DefaultContinent
	}
	return s.Query(ctx, query.Request{
		FullText: []query.FullText{{Field: "geoip.continent_name", Query: q}},
	})
}

// Compound requires both location matches (scored) and the date range (unscored).
func (s *Service) Compound(ctx context.Context, continent, city, from string) (*model.SearchResponse, error) {
	if continent == "" {
		continent = DefaultCompoundArea
	}
	if city == "" {
		city = DefaultCompoundCity
	}
	if from == "" {
		from = DefaultCompoundFrom
	}
	return s.Query(ctx, query.Request{
		FullText: []query.FullText{
			{Field: "geoip.continent_name", Query: continent},
			{Field: "geoip.city_name", Query: city},
		},
		Filters: []query.Filter{orderDateSince(from)},
	})
}

func orderDateSince(from string) query.Filter {
	return query.Filter{Field: "order_date", Range: &query.Range{GTE: from, LT: "now"}}
}
