package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

// DefaultRenameTo is the name written by BulkRename when the caller gives none.
const DefaultRenameTo = "zaffar"

// StepResult is the outcome of one step of a multi-step operation. Steps run in order and a
// failed step never undoes the ones before it.
type StepResult struct {
	Step    string          `json:"step"`
	Outcome *es.BulkOutcome `json:"outcome,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// BulkAllResult is the outcome of the insert, update and delete sequence.
type BulkAllResult struct {
	Completed bool         `json:"completed"`
	Steps     []StepResult `json:"steps"`
}

// Bulk submits ops against the employee index. Item failures are reported per item.
func (s *Service) Bulk(ctx context.Context, ops []es.BulkOperation) (*es.BulkOutcome, error) {
	if len(ops) == 0 {
		return nil, apperr.Validation("bulk request has no operations")
	}
	return s.bulk(ctx, ops)
}

// BulkInsert creates every document. A document's own "id" field becomes its id.
func (s *Service) BulkInsert(ctx context.Context, docs []es.Document) (*es.BulkOutcome, error) {
	if len(docs) == 0 {
		return nil, apperr.Validation("no documents to insert")
	}
	return s.bulk(ctx, writeOps(es.BulkCreate, docs))
}

// IndexMany indexes every document, overwriting documents with the same id.
func (s *Service) IndexMany(ctx context.Context, docs []es.Document) (*es.BulkOutcome, error) {
	if len(docs) == 0 {
		return nil, apperr.Validation("no documents to index")
	}
	return s.bulk(ctx, writeOps(es.BulkIndex, docs))
}

// BulkRename sets the name field of every employee document to name.
func (s *Service) BulkRename(ctx context.Context, name string) (*es.BulkOutcome, error) {
	if name == "" {
		name = DefaultRenameTo
	}
	res, err := s.fetchAll(ctx, s.employee, nil)
	if err != nil {
		return nil, err
	}
	ops := make([]es.BulkOperation, 0, len(res.Hits))
	for _, h := range res.Hits {
		ops = append(ops, es.BulkOperation{Action: es.BulkUpdate, ID: h.ID, Doc: es.Document{"name": name}})
	}
	return s.bulk(ctx, ops)
}

// BulkDeleteDemo inserts two sample companies and deletes them again by the ids the insert
// returned. The delete outcome is returned.
func (s *Service) BulkDeleteDemo(ctx context.Context) (*es.BulkOutcome, error) {
	inserted, err := s.bulk(ctx, writeOps(es.BulkCreate, []es.Document{
		{"name": "abc", "companyLocation": "banglore"},
		{"name": "xyz", "companyLocation": "mysuru"},
	}))
	if err != nil {
		return nil, fmt.Errorf("insert demo documents: %w", err)
	}
	return s.bulk(ctx, deleteOps(inserted.IDs()))
}

// BulkAll inserts docs, renames every employee document and deletes what the insert created.
// Each step runs even when an earlier one failed.
func (s *Service) BulkAll(ctx context.Context, docs []es.Document) (*BulkAllResult, error) {
	if len(docs) == 0 {
		return nil, apperr.Validation("no documents to insert")
	}
	result := &BulkAllResult{Completed: true}
	record := func(step string, outcome *es.BulkOutcome, err error) {
		r := StepResult{Step: step, Outcome: outcome}
		switch {
		case err != nil:
			r.Error = err.Error()
			result.Completed = false
		case outcome.Errors:
			result.Completed = false
		}
		s.logger.Debug("bulk step", zap.String("step", step), zap.Bool("ok", r.Error == "" && (outcome == nil || !outcome.Errors)))
		result.Steps = append(result.Steps, r)
	}

	inserted, err := s.bulk(ctx, writeOps(es.BulkCreate, docs))
	record("insert", inserted, err)

	updated, err := s.BulkRename(ctx, DefaultRenameTo)
	record("update", updated, err)

	var ids []string
	if inserted != nil {
		ids = inserted.IDs()
	}
	deleted, err := s.bulk(ctx, deleteOps(ids))
	record("delete", deleted, err)

	return result, nil
}

// bulk sends ops to the employee index.
func (s *Service) bulk(ctx context.Context, ops []es.BulkOperation) (*es.BulkOutcome, error) {
	return s.bulkInto(ctx, s.employee, ops)
}

// bulkInto sends ops to index. An empty batch is answered locally.
func (s *Service) bulkInto(ctx context.Context, index string, ops []es.BulkOperation) (*es.BulkOutcome, error) {
	if len(ops) == 0 {
		return &es.BulkOutcome{Items: []es.BulkItemResult{}}, nil
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	out, err := s.engine.Bulk(cctx, index, ops)
	if err != nil {
		return nil, fmt.Errorf("bulk %s: %w", index, err)
	}
	if out.Errors {
		s.logger.Warn("bulk items failed", zap.String("index", index), zap.Int("failed", out.Failed()), zap.Int("items", out.ItemCount))
	}
	return out, nil
}

func writeOps(action es.BulkAction, docs []es.Document) []es.BulkOperation {
	ops := make([]es.BulkOperation, 0, len(docs))
	for _, d := range docs {
		ops = append(ops, es.BulkOperation{Action: action, ID: documentID(d), Doc: d})
	}
	return ops
}

func deleteOps(ids []string) []es.BulkOperation {
	ops := make([]es.BulkOperation, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, es.BulkOperation{Action: es.BulkDelete, ID: id})
	}
	return ops
}
