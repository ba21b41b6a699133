package model

import (
	"encoding/json"
	"fmt"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

// SearchResponse is the payload of every search and query endpoint.
type SearchResponse struct {
	RecordCount int64         `json:"recordCount"`
	Records     []es.Document `json:"records"`
}

// NewSearchResponse keeps Records non-nil so that an empty page encodes as [].
func NewSearchResponse(res *es.SearchResult) *SearchResponse {
	out := &SearchResponse{Records: []es.Document{}}
	if res == nil {
		return out
	}
	out.RecordCount = res.Total
	out.Records = append(out.Records, res.Sources()...)
	return out
}

// AggregateResponse is one bucket of an aggregation endpoint.
type AggregateResponse struct {
	Group    string `json:"group"`
	DocCount int64  `json:"docCount"`
	Interval string `json:"interval,omitempty"`
}

// PostRequestBody drives the sort, pagination and records endpoints.
type PostRequestBody struct {
	PageSize  *int   `json:"pageSize" validate:"omitempty,min=1"`
	PageIndex *int   `json:"pageIndex" validate:"omitempty,min=1"`
	SortOrder string `json:"sortOrder"`
	SortField string `json:"sortField"`
}

// ToDocument converts any JSON-encodable value into a document.
func ToDocument(v any) (es.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc es.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Validation("document must be a JSON object")
	}
	return doc, nil
}

// ToDocuments converts every element of vs.
func ToDocuments[T any](vs []T) ([]es.Document, error) {
	out := make([]es.Document, 0, len(vs))
	for _, v := range vs {
		doc, err := ToDocument(v)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
