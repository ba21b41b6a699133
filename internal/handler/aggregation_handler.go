package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/search-facade/internal/apperr"
	"github.com/psds-microservice/search-facade/internal/service"
	"github.com/psds-microservice/search-facade/internal/validator"
)

type AggregationHandler struct {
	svc       *service.Service
	validator *validator.Validator
}

func NewAggregationHandler(svc *service.Service, v *validator.Validator) *AggregationHandler {
	return &AggregationHandler{svc: svc, validator: v}
}

// Matrix GET /api/aggregation/bucket/matrix
func (h *AggregationHandler) Matrix(c *gin.Context) {
	res, err := h.svc.AdjacencyMatrix(c.Request.Context())
	respond(c, res, err)
}

// AutoDateHistogram GET /api/aggregation/bucket/autodatehistogram/:bucketSize
func (h *AggregationHandler) AutoDateHistogram(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("bucketSize"))
	if err != nil {
		respond(c, nil, apperr.Validation("bucket size must be an integer, got %q", c.Param("bucketSize")))
		return
	}
	if err := h.validator.ValidateBucketSize(n); err != nil {
		respond(c, nil, err)
		return
	}
	res, err := h.svc.AutoDateHistogram(c.Request.Context(), n)
	respond(c, res, err)
}
