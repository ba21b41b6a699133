package kafka

import (
	"context"
	"fmt"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/service"
)

type journal []string

func (j *journal) RecordMessage(topic, result string) { *j = append(*j, "handled "+topic+" "+result) }

type sliceReader struct {
	msgs    []kafka.Message
	journal *journal
	cancel  context.CancelFunc
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		*r.journal = append(*r.journal, fmt.Sprintf("commit %d", m.Offset))
	}
	return nil
}

func TestConsume_CommitsThenAppliesEachMessage(t *testing.T) {
	engine := es.NewEmbedded()
	t.Cleanup(func() { _ = engine.Close() })
	svc := service.New(engine, service.Options{})
	_, err := svc.RecreateIndex(context.Background(), es.SchemePOCO)
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	j := &journal{}
	d := NewDispatcher(svc, logger, j)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &sliceReader{
		journal: j,
		cancel:  cancel,
		msgs: []kafka.Message{
			{Topic: "facade.document.index", Offset: 1, Value: []byte(`{"scheme":"poco","id":"c1","document":{"name":"Acme"}}`)},
			{Topic: "facade.document.index", Offset: 2, Value: []byte(`{`)},
			{Topic: "facade.document.delete", Offset: 3, Value: []byte(`{"scheme":"poco","id":"c1"}`)},
		},
	}

	consume(ctx, r, d, logger)

	assert.Equal(t, journal{
		"commit 1", "handled facade.document.index ok",
		"commit 2", "handled facade.document.index invalid",
		"commit 3", "handled facade.document.delete ok",
	}, *j)
	assert.Equal(t, 1, logs.FilterMessage("kafka: event skipped").Len(), "a bad event does not stop the loop")

	_, err = engine.GetDocument(context.Background(), "employee_poco", "c1", nil)
	require.Error(t, err)
}
