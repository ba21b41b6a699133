package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/model"
	"github.com/psds-microservice/search-facade/internal/query"
)

// All returns every order of the e-commerce index, up to the result window.
func (s *Service) All(ctx context.Context) (*model.SearchResponse, error) {
	res, err := s.fetchAll(ctx, s.ecommerce, nil)
	if err != nil {
		return nil, err
	}
	return model.NewSearchResponse(res), nil
}

// Sorted returns the first page of orders sorted by body.SortField.
func (s *Service) Sorted(ctx context.Context, body model.PostRequestBody) (*model.SearchResponse, error) {
	if strings.TrimSpace(body.SortField) == "" {
		return nil, apperr.Validation("sortField is required")
	}
	return s.Query(ctx, query.Request{Sort: &query.Sort{Field: body.SortField, Order: body.SortOrder}})
}

// Paginated returns one page of orders in relevance order.
func (s *Service) Paginated(ctx context.Context, body model.PostRequestBody) (*model.SearchResponse, error) {
	return s.Query(ctx, query.Request{Page: &query.Page{Index: body.PageIndex, Size: body.PageSize}})
}

// Records returns one page of orders sorted by body.SortField.
func (s *Service) Records(ctx context.Context, body model.PostRequestBody) (*model.SearchResponse, error) {
	if strings.TrimSpace(body.SortField) == "" {
		return nil, apperr.Validation("sortField is required")
	}
	return s.Query(ctx, query.Request{
		Sort: &query.Sort{Field: body.SortField, Order: body.SortOrder},
		Page: &query.Page{Index: body.PageIndex, Size: body.PageSize},
	})
}

// Order returns the contact projection of one order.
func (s *Service) Order(ctx context.Context, orderID string) (es.Document, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperr.Validation("order id is required")
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	doc, err := s.engine.GetDocument(cctx, s.ecommerce, orderID, model.OrderProjection)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return doc, nil
}

// Query runs a normalized query request against the e-commerce index.
func (s *Service) Query(ctx context.Context, req query.Request) (*model.SearchResponse, error) {
	sr, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}
	res, err := s.search(ctx, s.ecommerce, sr)
	if err != nil {
		return nil, err
	}
	return model.NewSearchResponse(res), nil
}
