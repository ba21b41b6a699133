// Package service is the façade: one method per endpoint, each composing the query builder
// and the engine adapter. Every engine call runs under its own timeout derived from the
// caller's context.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/internal/apperr"
	"github.com/psds-microservice/search-facade/internal/cache"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/query"
)

const defaultTimeout = 10 * time.Second

type Options struct {
	EmployeeIndex  string
	EcommerceIndex string
	Timeout        time.Duration
	DefaultSize    int
	MaxWindow      int
	Mappings       cache.MappingCache
	Logger         *zap.Logger
	// Now is the clock used for date math defaults; time.Now when nil.
	Now func() time.Time
}

type Service struct {
	engine    es.Engine
	builder   query.Builder
	mappings  cache.MappingCache
	logger    *zap.Logger
	timeout   time.Duration
	employee  string
	ecommerce string
	now       func() time.Time
}

func New(engine es.Engine, opts Options) *Service {
	s := &Service{
		engine:    engine,
		builder:   query.NewBuilder(opts.DefaultSize, opts.MaxWindow),
		mappings:  opts.Mappings,
		logger:    opts.Logger,
		timeout:   opts.Timeout,
		employee:  opts.EmployeeIndex,
		ecommerce: opts.EcommerceIndex,
		now:       opts.Now,
	}
	if s.mappings == nil {
		s.mappings = cache.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.employee == "" {
		s.employee = "employee"
	}
	if s.ecommerce == "" {
		s.ecommerce = "kibana_sample_data_ecommerce"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// EmployeeIndex is the index used by the bulk endpoints.
func (s *Service) EmployeeIndex() string { return s.employee }

// EcommerceIndex is the index used by the search, query and aggregation endpoints.
func (s *Service) EcommerceIndex() string { return s.ecommerce }

// Ping checks that the engine answers.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.engine.Ping(ctx)
}

// call bounds one engine round trip.
func (s *Service) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// search runs one page of req against index.
func (s *Service) search(ctx context.Context, index string, req es.SearchRequest) (*es.SearchResult, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	res, err := s.engine.Search(ctx, index, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	return res, nil
}

// fetchAll counts the matches of q and then asks for that many hits in one page. The page
// is capped at the builder's result window, so larger indices are truncated.
func (s *Service) fetchAll(ctx context.Context, index string, q es.Query) (*es.SearchResult, error) {
	if q == nil {
		q = es.MatchAll()
	}
	cctx, cancel := s.call(ctx)
	total, err := s.engine.Count(cctx, index, q)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", index, err)
	}
	size := int(total)
	if size > s.builder.MaxWindow {
		s.logger.Warn("fetch all truncated",
			zap.String("index", index), zap.Int64("total", total), zap.Int("window", s.builder.MaxWindow))
		size = s.builder.MaxWindow
	}
	res, err := s.search(ctx, index, es.SearchRequest{Query: q, Size: &size})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("fetched all", zap.String("index", index), zap.Int64("total", res.Total), zap.Int("hits", len(res.Hits)))
	return res, nil
}

// firstID picks the document a find-first operation acts on: the smallest id in byte order
// among the hits fetchAll returns. Past the result window only that page is considered.
func (s *Service) firstID(ctx context.Context, index string) (string, error) {
	res, err := s.fetchAll(ctx, index, nil)
	if err != nil {
		return "", err
	}
	if len(res.Hits) == 0 {
		return "", apperr.NotFound("index %s has no documents", index)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	sort.Strings(ids)
	return ids[0], nil
}

// mapping returns the mapping of index, consulting the cache first.
func (s *Service) mapping(ctx context.Context, index string) (es.Mapping, error) {
	if m, ok := s.mappings.Get(ctx, index); ok {
		return m, nil
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	m, err := s.engine.GetMapping(cctx, index)
	if err != nil {
		return es.Mapping{}, fmt.Errorf("get mapping %s: %w", index, err)
	}
	if err := s.mappings.Set(ctx, index, m); err != nil {
		s.logger.Warn("cache mapping", zap.String("index", index), zap.Error(err))
	}
	return m, nil
}

func (s *Service) forgetMapping(ctx context.Context, index string) {
	if err := s.mappings.Invalidate(ctx, index); err != nil {
		s.logger.Warn("invalidate mapping", zap.String("index", index), zap.Error(err))
	}
}
