package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSplitFields(t *testing.T) {
	assert.Nil(t, splitFields(""))
	assert.Equal(t, []string{"a", "b"}, splitFields(" a, ,b,"))
}

// downEngine answers every ping with a transport failure.
type downEngine struct {
	*es.Embedded
}

func (downEngine) Ping(context.Context) error {
	return apperr.Unreachable("ping", errors.New("connection refused"))
}

func TestHealthHandler(t *testing.T) {
	embedded := es.NewEmbedded()
	t.Cleanup(func() { _ = embedded.Close() })

	up := NewHealthHandler(service.New(embedded, service.Options{}))
	down := NewHealthHandler(service.New(downEngine{embedded}, service.Options{}))

	r := gin.New()
	r.GET("/health", up.Health)
	r.GET("/ready", up.Ready)
	r.GET("/down/ready", down.Ready)

	for path, want := range map[string]int{
		"/health":     http.StatusOK,
		"/ready":      http.StatusOK,
		"/down/ready": http.StatusServiceUnavailable,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
