package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/service"
)

// Topic suffixes selecting the document operation.
const (
	ActionIndex  = "index"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// DocumentEvent is the payload of the facade.document.* topics.
type DocumentEvent struct {
	Scheme   string         `json:"scheme"`
	ID       string         `json:"id,omitempty"`
	Document map[string]any `json:"document,omitempty"`
	// Mode is "create" to fail when the id is taken, anything else overwrites.
	Mode string `json:"mode,omitempty"`
}

// DocumentService is the part of the façade the worker writes through.
type DocumentService interface {
	IndexDocument(ctx context.Context, scheme string, doc es.Document, id string, mode es.IndexMode) (string, error)
	MergeDocument(ctx context.Context, scheme, id string, patch service.PartialUpdate) (string, error)
	DeleteDocument(ctx context.Context, scheme, id string) (*service.DeleteResult, error)
}

// Recorder counts handled messages per topic and result.
type Recorder interface {
	RecordMessage(topic, result string)
}

type Dispatcher struct {
	svc      DocumentService
	logger   *zap.Logger
	recorder Recorder
}

func NewDispatcher(svc DocumentService, logger *zap.Logger, recorder Recorder) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{svc: svc, logger: logger, recorder: recorder}
}

// Handle applies one message. Malformed events are validation errors; the caller logs and
// skips them since redelivery cannot fix them.
func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	err := d.handle(ctx, msg)
	result := "ok"
	switch {
	case err == nil:
		d.logger.Debug("kafka: event applied", zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset))
	case apperr.Is(err, apperr.KindValidation):
		result = "invalid"
		d.logger.Warn("kafka: event skipped", zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset), zap.Error(err))
	default:
		result = "failed"
		d.logger.Error("kafka: event failed", zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset), zap.Error(err))
	}
	if d.recorder != nil {
		d.recorder.RecordMessage(msg.Topic, result)
	}
	return err
}

func (d *Dispatcher) handle(ctx context.Context, msg kafka.Message) error {
	var ev DocumentEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return apperr.Validation("decode event: %s", err.Error())
	}
	if ev.Scheme == "" {
		return apperr.Validation("event has no scheme")
	}

	switch action(msg.Topic) {
	case ActionIndex:
		mode := es.ModeIndex
		if strings.EqualFold(ev.Mode, "create") {
			mode = es.ModeCreate
		}
		if _, err := d.svc.IndexDocument(ctx, ev.Scheme, ev.Document, ev.ID, mode); err != nil {
			return fmt.Errorf("index %s/%s: %w", ev.Scheme, ev.ID, err)
		}
	case ActionUpdate:
		if ev.ID == "" {
			return apperr.Validation("update event needs an id")
		}
		if _, err := d.svc.MergeDocument(ctx, ev.Scheme, ev.ID, service.PartialUpdate(ev.Document)); err != nil {
			return fmt.Errorf("update %s/%s: %w", ev.Scheme, ev.ID, err)
		}
	case ActionDelete:
		if ev.ID == "" {
			return apperr.Validation("delete event needs an id")
		}
		if _, err := d.svc.DeleteDocument(ctx, ev.Scheme, ev.ID); err != nil {
			return fmt.Errorf("delete %s/%s: %w", ev.Scheme, ev.ID, err)
		}
	default:
		return apperr.Validation("unknown topic %q", msg.Topic)
	}
	return nil
}

// action returns the last dot separated segment of topic, e.g. "index" for facade.document.index.
func action(topic string) string {
	if i := strings.LastIndex(topic, "."); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
