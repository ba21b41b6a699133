package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

// IndexName resolves a mapping scheme to the index holding its documents, e.g. employee_poco.
func (s *Service) IndexName(scheme string) (string, error) {
	scheme = strings.ToLower(scheme)
	if _, ok := es.SchemeMapping(scheme); !ok {
		return "", apperr.Validation("unknown scheme %q, expected one of %s", scheme, strings.Join(es.Schemes(), ", "))
	}
	return s.employee + "_" + scheme, nil
}

// RecreateIndex drops the scheme's index when it exists, creates it with the scheme mapping
// and returns the mapped field names as the engine reports them.
func (s *Service) RecreateIndex(ctx context.Context, scheme string) ([]string, error) {
	index, err := s.IndexName(scheme)
	if err != nil {
		return nil, err
	}
	m, _ := es.SchemeMapping(strings.ToLower(scheme))

	cctx, cancel := s.call(ctx)
	exists, err := s.engine.IndexExists(cctx, index)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("index exists %s: %w", index, err)
	}
	s.forgetMapping(ctx, index)
	if exists {
		cctx, cancel := s.call(ctx)
		err := s.engine.DeleteIndex(cctx, index)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("delete index %s: %w", index, err)
		}
		s.logger.Debug("index dropped", zap.String("index", index))
	}

	cctx, cancel = s.call(ctx)
	err = s.engine.CreateIndex(cctx, index, m)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", index, err)
	}
	s.logger.Info("index created", zap.String("index", index), zap.String("scheme", scheme))
	return s.FieldNames(ctx, scheme)
}

// FieldNames returns the top-level fields currently mapped in the scheme's index.
func (s *Service) FieldNames(ctx context.Context, scheme string) ([]string, error) {
	index, err := s.IndexName(scheme)
	if err != nil {
		return nil, err
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	m, err := s.engine.GetMapping(cctx, index)
	if err != nil {
		return nil, fmt.Errorf("get mapping %s: %w", index, err)
	}
	if err := s.mappings.Set(ctx, index, m); err != nil {
		s.logger.Warn("cache mapping", zap.String("index", index), zap.Error(err))
	}
	return m.FieldNames(), nil
}

// DropIndex deletes the scheme's index. A missing index is reported as not found.
func (s *Service) DropIndex(ctx context.Context, scheme string) error {
	index, err := s.IndexName(scheme)
	if err != nil {
		return err
	}
	s.forgetMapping(ctx, index)
	cctx, cancel := s.call(ctx)
	defer cancel()
	if err := s.engine.DeleteIndex(cctx, index); err != nil {
		return fmt.Errorf("delete index %s: %w", index, err)
	}
	return nil
}

// EnsureIndex creates index with m unless it already exists.
func (s *Service) EnsureIndex(ctx context.Context, index string, m es.Mapping) error {
	cctx, cancel := s.call(ctx)
	exists, err := s.engine.IndexExists(cctx, index)
	cancel()
	if err != nil {
		return fmt.Errorf("index exists %s: %w", index, err)
	}
	if exists {
		return nil
	}
	cctx, cancel = s.call(ctx)
	defer cancel()
	if err := s.engine.CreateIndex(cctx, index, m); err != nil && !apperr.Is(err, apperr.KindConflict) {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	return nil
}
