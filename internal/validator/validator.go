package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/model"
	"github.com/psds-microservice/search-facade/internal/service"
)

// maxIDLength is the longest document id the engine accepts, in bytes.
const maxIDLength = 512

// Validator validates input DTOs for the façade endpoints
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// ValidatePostRequestBody checks the paging fields of a sort, pagination or records request.
// needSort additionally requires a sort field.
func (v *Validator) ValidatePostRequestBody(body *model.PostRequestBody, needSort bool) error {
	if err := v.v.Struct(body); err != nil {
		return translate(err)
	}
	if needSort && strings.TrimSpace(body.SortField) == "" {
		return apperr.Validation("sortField is required")
	}
	return nil
}

// ValidateBucketSize checks the bucket target of the auto date histogram.
func (v *Validator) ValidateBucketSize(n int) error {
	if err := v.v.Var(n, fmt.Sprintf("min=1,max=%d", service.MaxHistogramBuckets)); err != nil {
		return apperr.Validation("bucket size must be between 1 and %d, got %d", service.MaxHistogramBuckets, n)
	}
	return nil
}

// ValidateScheme checks that scheme names a supported mapping scheme.
func (v *Validator) ValidateScheme(scheme string) error {
	oneof := "oneof=" + strings.Join(es.Schemes(), " ")
	if err := v.v.Var(strings.ToLower(scheme), "required,"+oneof); err != nil {
		return apperr.Validation("scheme must be one of: %s", strings.Join(es.Schemes(), ", "))
	}
	return nil
}

// ValidateDocumentID checks an id taken from a path or query parameter. Empty is allowed
// unless required is set.
func (v *Validator) ValidateDocumentID(id string, required bool) error {
	tag := fmt.Sprintf("omitempty,max=%d", maxIDLength)
	if required {
		tag = fmt.Sprintf("required,max=%d", maxIDLength)
	}
	if err := v.v.Var(strings.TrimSpace(id), tag); err != nil {
		if required && strings.TrimSpace(id) == "" {
			return apperr.Validation("document id is required")
		}
		return apperr.Validation("document id must not exceed %d bytes", maxIDLength)
	}
	if strings.HasPrefix(id, "_") {
		return apperr.Validation("document id must not start with an underscore")
	}
	return nil
}

// ValidateBulkOperations checks the shape of each operation of a raw bulk request.
func (v *Validator) ValidateBulkOperations(ops []es.BulkOperation) error {
	if len(ops) == 0 {
		return apperr.Validation("bulk request has no operations")
	}
	for i, op := range ops {
		switch op.Action {
		case es.BulkIndex, es.BulkCreate:
			if len(op.Doc) == 0 {
				return apperr.Validation("operation %d: %s needs a document", i, op.Action)
			}
		case es.BulkUpdate:
			if op.ID == "" || len(op.Doc) == 0 {
				return apperr.Validation("operation %d: update needs an id and a document", i)
			}
		case es.BulkDelete:
			if op.ID == "" {
				return apperr.Validation("operation %d: delete needs an id", i)
			}
		default:
			return apperr.Validation("operation %d: unknown action %q", i, op.Action)
		}
		if err := v.ValidateDocumentID(op.ID, false); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("%s", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}
