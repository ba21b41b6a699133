package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/service"
)

type countingRecorder map[string]int

func (r countingRecorder) RecordMessage(topic, result string) { r[topic+":"+result]++ }

func newTestDispatcher(t *testing.T) (*Dispatcher, *es.Embedded, countingRecorder) {
	t.Helper()
	engine := es.NewEmbedded()
	t.Cleanup(func() { _ = engine.Close() })
	svc := service.New(engine, service.Options{})
	_, err := svc.RecreateIndex(context.Background(), es.SchemePOCO)
	require.NoError(t, err)
	rec := countingRecorder{}
	return NewDispatcher(svc, nil, rec), engine, rec
}

func message(topic, value string) kafka.Message {
	return kafka.Message{Topic: topic, Value: []byte(value)}
}

func TestDispatcher_Lifecycle(t *testing.T) {
	ctx := context.Background()
	d, engine, rec := newTestDispatcher(t)

	require.NoError(t, d.Handle(ctx, message("facade.document.index",
		`{"scheme":"poco","id":"c1","document":{"name":"Acme","companyLocation":"NY"}}`)))
	require.NoError(t, d.Handle(ctx, message("facade.document.update",
		`{"scheme":"POCO","id":"c1","document":{"companyLocation":"LA"}}`)))

	doc, err := engine.GetDocument(ctx, "employee_poco", "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, es.Document{"name": "Acme", "companyLocation": "LA"}, doc)

	err = d.Handle(ctx, message("facade.document.index",
		`{"scheme":"poco","id":"c1","mode":"create","document":{"name":"Again"}}`))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, d.Handle(ctx, message("facade.document.delete", `{"scheme":"poco","id":"c1"}`)))
	_, err = engine.GetDocument(ctx, "employee_poco", "c1", nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.Equal(t, 1, rec["facade.document.index:ok"])
	assert.Equal(t, 1, rec["facade.document.index:failed"])
	assert.Equal(t, 1, rec["facade.document.update:ok"])
	assert.Equal(t, 1, rec["facade.document.delete:ok"])
}

func TestDispatcher_RejectsMalformedEvents(t *testing.T) {
	ctx := context.Background()
	d, _, rec := newTestDispatcher(t)

	testCases := []struct {
		name string
		msg  kafka.Message
	}{
		{"not json", message("facade.document.index", "{")},
		{"no scheme", message("facade.document.index", `{"document":{"name":"x"}}`)},
		{"unknown scheme", message("facade.document.index", `{"scheme":"xml","document":{"name":"x"}}`)},
		{"update without id", message("facade.document.update", `{"scheme":"poco","document":{"name":"x"}}`)},
		{"delete without id", message("facade.document.delete", `{"scheme":"poco"}`)},
		{"unknown action", message("facade.document.upsert", `{"scheme":"poco","id":"1"}`)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := d.Handle(ctx, tc.msg)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
	assert.Equal(t, 3, rec["facade.document.index:invalid"])
}

func TestAction(t *testing.T) {
	assert.Equal(t, ActionIndex, action("facade.document.index"))
	assert.Equal(t, ActionDelete, action("delete"))
}
