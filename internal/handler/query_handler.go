package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/search-facade/internal/query"
	"github.com/psds-microservice/search-facade/internal/service"
)

type QueryHandler struct {
	svc *service.Service
}

func NewQueryHandler(svc *service.Service) *QueryHandler {
	return &QueryHandler{svc: svc}
}

// Structured GET /api/query/structured?from=2020-03-16
func (h *QueryHandler) Structured(c *gin.Context) {
	res, err := h.svc.Structured(c.Request.Context(), c.Query("from"))
	respond(c, res, err)
}

// Unstructured GET /api/query/unstructured?q=Eddie
func (h *QueryHandler) Unstructured(c *gin.Context) {
	res, err := h.svc.Unstructured(c.Request.Context(), c.Query("q"))
	respond(c, res, err)
}

// UnstructuredNested GET /api/query/unstructurednested?q=Asia
func (h *QueryHandler) UnstructuredNested(c *gin.Context) {
	res, err := h.svc.UnstructuredNested(c.Request.Context(), c.Query("q"))
	respond(c, res, err)
}

// Compound GET /api/query/compound?continent=&city=&from=
func (h *QueryHandler) Compound(c *gin.Context) {
	res, err := h.svc.Compound(c.Request.Context(), c.Query("continent"), c.Query("city"), c.Query("from"))
	respond(c, res, err)
}

// Query POST /api/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req query.Request
	if err := bindJSON(c, &req); err != nil {
		respond(c, nil, err)
		return
	}
	res, err := h.svc.Query(c.Request.Context(), req)
	respond(c, res, err)
}
