package service

import (
	"context"

	"go.uber.org/zap"

	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/model"
)

// LoadOrders creates the e-commerce index when it is missing and indexes orders under their
// order ids, overwriting earlier copies.
func (s *Service) LoadOrders(ctx context.Context, orders []model.CustomerUser) (*es.BulkOutcome, error) {
	if err := s.EnsureIndex(ctx, s.ecommerce, es.EcommerceMapping()); err != nil {
		return nil, err
	}
	ops := make([]es.BulkOperation, 0, len(orders))
	for _, o := range orders {
		doc, err := model.ToDocument(o)
		if err != nil {
			return nil, err
		}
		ops = append(ops, es.BulkOperation{Action: es.BulkIndex, ID: o.DocumentID(), Doc: doc})
	}
	out, err := s.bulkInto(ctx, s.ecommerce, ops)
	if err != nil {
		return nil, err
	}
	s.logger.Info("orders loaded", zap.String("index", s.ecommerce), zap.Int("items", out.ItemCount), zap.Int("failed", out.Failed()))
	return out, nil
}
