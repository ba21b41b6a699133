package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/search-facade/internal/model"
	"github.com/psds-microservice/search-facade/internal/service"
	"github.com/psds-microservice/search-facade/internal/validator"
)

type SearchHandler struct {
	svc       *service.Service
	validator *validator.Validator
}

func NewSearchHandler(svc *service.Service, v *validator.Validator) *SearchHandler {
	return &SearchHandler{svc: svc, validator: v}
}

// All GET /api/search
func (h *SearchHandler) All(c *gin.Context) {
	res, err := h.svc.All(c.Request.Context())
	respond(c, res, err)
}

// Test GET /api/search/test
func (h *SearchHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, "controller is accessible")
}

// Sort POST /api/search/sort
func (h *SearchHandler) Sort(c *gin.Context) {
	body, ok := h.bindBody(c, true)
	if !ok {
		return
	}
	res, err := h.svc.Sorted(c.Request.Context(), body)
	respond(c, res, err)
}

// Pagination POST /api/search/pagination
func (h *SearchHandler) Pagination(c *gin.Context) {
	body, ok := h.bindBody(c, false)
	if !ok {
		return
	}
	res, err := h.svc.Paginated(c.Request.Context(), body)
	respond(c, res, err)
}

// Records POST /api/search/records
func (h *SearchHandler) Records(c *gin.Context) {
	body, ok := h.bindBody(c, true)
	if !ok {
		return
	}
	res, err := h.svc.Records(c.Request.Context(), body)
	respond(c, res, err)
}

// Order GET /api/search/order/:orderId
func (h *SearchHandler) Order(c *gin.Context) {
	id := c.Param("orderId")
	if err := h.validator.ValidateDocumentID(id, true); err != nil {
		respond(c, nil, err)
		return
	}
	doc, err := h.svc.Order(c.Request.Context(), id)
	respond(c, doc, err)
}

func (h *SearchHandler) bindBody(c *gin.Context, needSort bool) (model.PostRequestBody, bool) {
	var body model.PostRequestBody
	if err := bindJSON(c, &body); err != nil {
		respond(c, nil, err)
		return body, false
	}
	if err := h.validator.ValidatePostRequestBody(&body, needSort); err != nil {
		respond(c, nil, err)
		return body, false
	}
	return body, true
}
