package handler

import (
	"github.com/gin-gonic/gin"

	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/model"
	"github.com/psds-microservice/search-facade/internal/service"
	"github.com/psds-microservice/search-facade/internal/validator"
)

type BulkHandler struct {
	svc       *service.Service
	validator *validator.Validator
}

func NewBulkHandler(svc *service.Service, v *validator.Validator) *BulkHandler {
	return &BulkHandler{svc: svc, validator: v}
}

// Bulk POST /api/bulkoperation
func (h *BulkHandler) Bulk(c *gin.Context) {
	var ops []es.BulkOperation
	if err := bindJSON(c, &ops); err != nil {
		respond(c, nil, err)
		return
	}
	if err := h.validator.ValidateBulkOperations(ops); err != nil {
		respond(c, nil, err)
		return
	}
	out, err := h.svc.Bulk(c.Request.Context(), ops)
	respond(c, out, err)
}

// Insert POST /api/bulkoperation/bulkInsert
func (h *BulkHandler) Insert(c *gin.Context) {
	docs, err := bindCompanies(c)
	if err != nil {
		respond(c, nil, err)
		return
	}
	out, err := h.svc.BulkInsert(c.Request.Context(), docs)
	respond(c, out, err)
}

// Rename GET /api/bulkoperation/bulkUpdate?name=
func (h *BulkHandler) Rename(c *gin.Context) {
	out, err := h.svc.BulkRename(c.Request.Context(), c.Query("name"))
	respond(c, out, err)
}

// DeleteDemo DELETE /api/bulkoperation
func (h *BulkHandler) DeleteDemo(c *gin.Context) {
	out, err := h.svc.BulkDeleteDemo(c.Request.Context())
	respond(c, out, err)
}

// All POST /api/bulkoperation/bulkAll
func (h *BulkHandler) All(c *gin.Context) {
	docs, err := bindCompanies(c)
	if err != nil {
		respond(c, nil, err)
		return
	}
	out, err := h.svc.BulkAll(c.Request.Context(), docs)
	respond(c, out, err)
}

// MultiDoc POST /api/bulkoperation/multiDoc
func (h *BulkHandler) MultiDoc(c *gin.Context) {
	docs, err := bindCompanies(c)
	if err != nil {
		respond(c, nil, err)
		return
	}
	out, err := h.svc.IndexMany(c.Request.Context(), docs)
	respond(c, out, err)
}

func bindCompanies(c *gin.Context) ([]es.Document, error) {
	var companies []model.Company
	if err := bindJSON(c, &companies); err != nil {
		return nil, err
	}
	return model.ToDocuments(companies)
}
