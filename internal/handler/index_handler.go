package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/model"
	"github.com/psds-microservice/search-facade/internal/service"
	"github.com/psds-microservice/search-facade/internal/validator"
)

type IndexHandler struct {
	svc       *service.Service
	validator *validator.Validator
}

func NewIndexHandler(svc *service.Service, v *validator.Validator) *IndexHandler {
	return &IndexHandler{svc: svc, validator: v}
}

// Recreate GET /api/index/:scheme drops and recreates employee_<scheme> with the scheme's mapping.
func (h *IndexHandler) Recreate(c *gin.Context) {
	scheme := c.Param("scheme")
	if err := h.validator.ValidateScheme(scheme); err != nil {
		respond(c, nil, err)
		return
	}
	fields, err := h.svc.RecreateIndex(c.Request.Context(), scheme)
	respond(c, fields, err)
}

// Mapping GET /api/index/:scheme/mapping
func (h *IndexHandler) Mapping(c *gin.Context) {
	scheme := c.Param("scheme")
	if err := h.validator.ValidateScheme(scheme); err != nil {
		respond(c, nil, err)
		return
	}
	fields, err := h.svc.FieldNames(c.Request.Context(), scheme)
	respond(c, fields, err)
}

// Index POST /api/index/:scheme?id=&mode=create
func (h *IndexHandler) Index(c *gin.Context) {
	scheme := c.Param("scheme")
	id := c.Query("id")
	if err := h.checkTarget(scheme, id, false); err != nil {
		respond(c, nil, err)
		return
	}
	mode := es.ModeIndex
	switch strings.ToLower(c.Query("mode")) {
	case "", "index":
	case "create":
		mode = es.ModeCreate
	default:
		respond(c, nil, apperr.Validation("mode must be index or create"))
		return
	}
	doc, err := decodeDocument(c, scheme)
	if err != nil {
		respond(c, nil, err)
		return
	}
	id, err = h.svc.IndexDocument(c.Request.Context(), scheme, doc, id, mode)
	respond(c, gin.H{"id": id}, err)
}

// Get GET /api/index/:scheme/:id?fields=a,b
func (h *IndexHandler) Get(c *gin.Context) {
	scheme, id := c.Param("scheme"), c.Param("id")
	if err := h.checkTarget(scheme, id, true); err != nil {
		respond(c, nil, err)
		return
	}
	doc, err := h.svc.GetDocument(c.Request.Context(), scheme, id, splitFields(c.Query("fields")))
	respond(c, doc, err)
}

// Replace PUT /api/index/:scheme?id=
func (h *IndexHandler) Replace(c *gin.Context) {
	scheme := c.Param("scheme")
	id := c.Query("id")
	if err := h.checkTarget(scheme, id, false); err != nil {
		respond(c, nil, err)
		return
	}
	doc, err := decodeDocument(c, scheme)
	if err != nil {
		respond(c, nil, err)
		return
	}
	id, err = h.svc.ReplaceDocument(c.Request.Context(), scheme, id, doc)
	respond(c, gin.H{"id": id}, err)
}

// Merge PATCH /api/index/:scheme?id=
func (h *IndexHandler) Merge(c *gin.Context) {
	scheme := c.Param("scheme")
	id := c.Query("id")
	if err := h.checkTarget(scheme, id, false); err != nil {
		respond(c, nil, err)
		return
	}
	var patch service.PartialUpdate
	if err := bindJSON(c, &patch); err != nil {
		respond(c, nil, err)
		return
	}
	id, err := h.svc.MergeDocument(c.Request.Context(), scheme, id, patch)
	respond(c, gin.H{"id": id}, err)
}

// DeleteFirst DELETE /api/index deletes the company named by the optional body from the
// fluentattribute index, or its first document when no id is given.
func (h *IndexHandler) DeleteFirst(c *gin.Context) {
	var company model.Company
	if _, err := bindOptionalJSON(c, &company); err != nil {
		respond(c, nil, err)
		return
	}
	if err := h.validator.ValidateDocumentID(company.ID, false); err != nil {
		respond(c, nil, err)
		return
	}
	res, err := h.svc.DeleteDocument(c.Request.Context(), es.SchemeFluentAttribute, company.ID)
	respond(c, res, err)
}

// Delete DELETE /api/index/:scheme/:id
func (h *IndexHandler) Delete(c *gin.Context) {
	scheme, id := c.Param("scheme"), c.Param("id")
	if err := h.checkTarget(scheme, id, true); err != nil {
		respond(c, nil, err)
		return
	}
	res, err := h.svc.DeleteDocument(c.Request.Context(), scheme, id)
	respond(c, res, err)
}

// Drop DELETE /api/index/:scheme
func (h *IndexHandler) Drop(c *gin.Context) {
	scheme := c.Param("scheme")
	if err := h.validator.ValidateScheme(scheme); err != nil {
		respond(c, nil, err)
		return
	}
	index, _ := h.svc.IndexName(scheme)
	err := h.svc.DropIndex(c.Request.Context(), scheme)
	respond(c, gin.H{"index": index, "acknowledged": true}, err)
}

func (h *IndexHandler) checkTarget(scheme, id string, idRequired bool) error {
	if err := h.validator.ValidateScheme(scheme); err != nil {
		return err
	}
	return h.validator.ValidateDocumentID(id, idRequired)
}

// decodeDocument binds the body to the model of the scheme's index and converts it to a document.
func decodeDocument(c *gin.Context, scheme string) (es.Document, error) {
	if strings.EqualFold(scheme, es.SchemeAttribute) {
		var employee model.EmployeeWithAttribute
		if err := bindJSON(c, &employee); err != nil {
			return nil, err
		}
		return model.ToDocument(employee)
	}
	var company model.Company
	if err := bindJSON(c, &company); err != nil {
		return nil, err
	}
	return model.ToDocument(company)
}
