package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/psds-microservice/search-facade/internal/apperr"
)

func TestNormalize_Success(t *testing.T) {
	payload := map[string]any{"recordCount": 3}
	env := Normalize(payload, nil)
	assert.Equal(t, http.StatusOK, env.Status)
	assert.Equal(t, payload, env.Body)
}

func TestNormalize_Status(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("pageIndex must be at least 1"), http.StatusBadRequest},
		{"not found", apperr.NotFound("document 1 not found"), http.StatusNotFound},
		{"conflict", apperr.Engine(409, "version_conflict_engine_exception", "exists"), http.StatusConflict},
		{"unreachable", apperr.Unreachable("search", errors.New("connection refused")), http.StatusBadGateway},
		{"timeout", apperr.Unreachable("search", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"bare deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"engine 4xx", apperr.Engine(400, "search_phase_execution_exception", "bad sort"), http.StatusBadRequest},
		{"engine 5xx", apperr.Engine(503, "cluster_block_exception", "blocked"), http.StatusBadGateway},
		{"plain error", errors.New("boom"), http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := Normalize(nil, tc.err)
			assert.Equal(t, tc.want, env.Status)
			assert.IsType(t, ErrorBody{}, env.Body)
		})
	}
}

func TestError_Message(t *testing.T) {
	env := Error(fmt.Errorf("create index: %w", apperr.Engine(400, "resource_already_exists_exception", "index [employee] already exists")))
	body := env.Body.(ErrorBody)
	assert.Equal(t, apperr.KindConflict, body.Error.Kind)
	assert.Equal(t, "resource_already_exists_exception", body.Error.Type)
	assert.Equal(t, "index [employee] already exists", body.Error.Message, "engine reason wins over the wrapping text")

	env = Error(apperr.Unreachable("ping", errors.New("dial tcp 127.0.0.1:9200: connect: connection refused")))
	body = env.Body.(ErrorBody)
	assert.Equal(t, apperr.KindUnreachable, body.Error.Kind)
	assert.Equal(t, "ping: dial tcp 127.0.0.1:9200: connect: connection refused", body.Error.Message)
}

func TestInternal(t *testing.T) {
	env := Internal("unexpected failure")
	assert.Equal(t, http.StatusInternalServerError, env.Status)
	assert.Equal(t, KindInternal, env.Body.(ErrorBody).Error.Kind)
}
