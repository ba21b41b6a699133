package elasticsearch

import (
	"fmt"
	"math"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/psds-microservice/search-facade/internal/apperr"
)

var numericTypes = map[string]bool{
	"long": true, "integer": true, "short": true, "byte": true, "unsigned_long": true,
	"double": true, "float": true, "half_float": true, "scaled_float": true,
}

func isObject(p Property) bool {
	return p.Type == "object" || p.Type == "nested" || (p.Type == "" && len(p.Properties) > 0)
}

// validateMapping rejects field types the engine has no handler for.
func validateMapping(prefix string, props map[string]Property) error {
	for name, p := range props {
		path := prefix + name
		if isObject(p) {
			if err := validateMapping(path+".", p.Properties); err != nil {
				return err
			}
			continue
		}
		if newFieldMapping(p.Type) == nil {
			return mapperParsing(p.Type, path)
		}
		for sub, sp := range p.Fields {
			if newFieldMapping(sp.Type) == nil {
				return mapperParsing(sp.Type, path+"."+sub)
			}
		}
	}
	return nil
}

func mapperParsing(typ, field string) error {
	return apperr.Engine(400, "mapper_parsing_exception",
		fmt.Sprintf("No handler for type [%s] declared on field [%s]", typ, field))
}

// indexMapping translates an engine mapping into a bleve one. Multi-fields become extra
// field mappings named "<field>.<sub>" so "name.keyword" can be queried and sorted on.
func indexMapping(m Mapping) mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultMapping = documentMapping(m.Properties)
	return im
}

func documentMapping(props map[string]Property) *mapping.DocumentMapping {
	dm := bleve.NewDocumentMapping()
	for name, p := range props {
		if isObject(p) {
			dm.AddSubDocumentMapping(name, documentMapping(p.Properties))
			continue
		}
		fm := newFieldMapping(p.Type)
		if fm == nil {
			continue
		}
		if p.Index != nil && !*p.Index {
			fm.Index = false
		}
		fms := []*mapping.FieldMapping{fm}
		for sub, sp := range p.Fields {
			sfm := newFieldMapping(sp.Type)
			if sfm == nil {
				continue
			}
			sfm.Name = name + "." + sub
			fms = append(fms, sfm)
		}
		dm.AddFieldMappingsAt(name, fms...)
	}
	return dm
}

func newFieldMapping(typ string) *mapping.FieldMapping {
	var fm *mapping.FieldMapping
	switch {
	case typ == "text":
		fm = bleve.NewTextFieldMapping()
	case typ == "keyword", typ == "ip", typ == "constant_keyword":
		fm = bleve.NewKeywordFieldMapping()
	case numericTypes[typ]:
		fm = bleve.NewNumericFieldMapping()
	case typ == "date":
		fm = bleve.NewDateTimeFieldMapping()
	case typ == "boolean":
		fm = bleve.NewBooleanFieldMapping()
	case typ == "geo_point":
		fm = bleve.NewGeoPointFieldMapping()
	default:
		return nil
	}
	// sources are kept outside the index
	fm.Store = false
	return fm
}

// addDynamicFields extends props with fields of doc the mapping does not declare yet,
// inferring types the way the engine's dynamic mapping does. It reports whether props changed.
func addDynamicFields(props map[string]Property, doc map[string]any) bool {
	changed := false
	for name, v := range doc {
		existing, ok := props[name]
		if ok {
			sub, isMap := v.(map[string]any)
			if isMap && isObject(existing) {
				if existing.Properties == nil {
					existing.Properties = map[string]Property{}
				}
				if addDynamicFields(existing.Properties, sub) {
					props[name] = existing
					changed = true
				}
			}
			continue
		}
		if p, ok := inferProperty(v); ok {
			props[name] = p
			changed = true
		}
	}
	return changed
}

func inferProperty(v any) (Property, bool) {
	switch t := v.(type) {
	case string:
		if _, err := parseDate(t); err == nil {
			return Property{Type: "date"}, true
		}
		return Property{
			Type:   "text",
			Fields: map[string]Property{"keyword": {Type: "keyword", IgnoreAbove: 256}},
		}, true
	case float64:
		if t == math.Trunc(t) {
			return Property{Type: "long"}, true
		}
		return Property{Type: "float"}, true
	case bool:
		return Property{Type: "boolean"}, true
	case map[string]any:
		props := map[string]Property{}
		addDynamicFields(props, t)
		return Property{Properties: props}, true
	case []any:
		for _, el := range t {
			if p, ok := inferProperty(el); ok {
				return p, true
			}
		}
	}
	return Property{}, false
}
