package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

// DeleteResult reports which document a delete acted on and what the engine did.
type DeleteResult struct {
	ID     string           `json:"id"`
	Result es.DeleteOutcome `json:"result"`
}

// IndexDocument stores doc in the scheme's index. Without an explicit id the document's own
// "id" field is used, and without that the engine assigns one.
func (s *Service) IndexDocument(ctx context.Context, scheme string, doc es.Document, id string, mode es.IndexMode) (string, error) {
	index, err := s.IndexName(scheme)
	if err != nil {
		return "", err
	}
	if len(doc) == 0 {
		return "", apperr.Validation("document is empty")
	}
	if id == "" {
		id = documentID(doc)
	}
	if mode == es.ModeCreate && id == "" {
		return "", apperr.Validation("create mode needs a document id")
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	id, err = s.engine.IndexDocument(cctx, index, doc, id, mode)
	if err != nil {
		return "", fmt.Errorf("index document: %w", err)
	}
	s.logger.Debug("document indexed", zap.String("index", index), zap.String("id", id))
	return id, nil
}

// GetDocument returns the document, restricted to fields when any are given.
func (s *Service) GetDocument(ctx context.Context, scheme, id string, fields []string) (es.Document, error) {
	index, err := s.IndexName(scheme)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("document id is required")
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	doc, err := s.engine.GetDocument(cctx, index, id, fields)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ReplaceDocument overwrites a whole document. The target is id, else the document's own
// "id" field, else the first document of the index.
func (s *Service) ReplaceDocument(ctx context.Context, scheme, id string, doc es.Document) (string, error) {
	index, err := s.IndexName(scheme)
	if err != nil {
		return "", err
	}
	if len(doc) == 0 {
		return "", apperr.Validation("document is empty")
	}
	if id == "" {
		id = documentID(doc)
	}
	if id == "" {
		if id, err = s.firstID(ctx, index); err != nil {
			return "", err
		}
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	id, err = s.engine.UpdateDocument(cctx, index, id, doc, es.Replace)
	if err != nil {
		return "", fmt.Errorf("replace document: %w", err)
	}
	s.logger.Debug("document replaced", zap.String("index", index), zap.String("id", id))
	return id, nil
}

// MergeDocument applies patch to one document, preserving every field it does not name.
// The patch is checked against the index mapping first; a field unknown to a cached mapping
// triggers one refresh from the engine before the patch is rejected.
func (s *Service) MergeDocument(ctx context.Context, scheme, id string, patch PartialUpdate) (string, error) {
	index, err := s.IndexName(scheme)
	if err != nil {
		return "", err
	}
	if len(patch) == 0 {
		return "", apperr.Validation("partial update has no fields")
	}
	m, err := s.mapping(ctx, index)
	if err != nil {
		return "", err
	}
	if verr := patch.Validate(m); verr != nil {
		s.forgetMapping(ctx, index)
		if m, err = s.mapping(ctx, index); err != nil {
			return "", err
		}
		if verr = patch.Validate(m); verr != nil {
			return "", verr
		}
	}
	if id == "" {
		if id, err = s.firstID(ctx, index); err != nil {
			return "", err
		}
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	id, err = s.engine.UpdateDocument(cctx, index, id, patch.Document(), es.Merge)
	if err != nil {
		return "", fmt.Errorf("merge document: %w", err)
	}
	s.logger.Debug("document merged", zap.String("index", index), zap.String("id", id), zap.Int("fields", len(patch)))
	return id, nil
}

// DeleteDocument removes one document, the first of the index when id is empty.
func (s *Service) DeleteDocument(ctx context.Context, scheme, id string) (*DeleteResult, error) {
	index, err := s.IndexName(scheme)
	if err != nil {
		return nil, err
	}
	if id == "" {
		if id, err = s.firstID(ctx, index); err != nil {
			return nil, err
		}
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	outcome, err := s.engine.DeleteDocument(cctx, index, id)
	if err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}
	s.logger.Debug("document deleted", zap.String("index", index), zap.String("id", id), zap.String("result", string(outcome)))
	return &DeleteResult{ID: id, Result: outcome}, nil
}

func documentID(doc es.Document) string {
	if id, ok := doc["id"].(string); ok {
		return strings.TrimSpace(id)
	}
	return ""
}
