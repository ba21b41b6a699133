package service

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/psds-microservice/search-facade/internal/apperr"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

// PartialUpdate maps field names to their new values. A nil value clears the field. Dotted
// names address fields of object properties.
type PartialUpdate map[string]any

var integerTypes = map[string]bool{"long": true, "integer": true, "short": true, "byte": true}

var floatTypes = map[string]bool{
	"double": true, "float": true, "half_float": true, "scaled_float": true, "unsigned_long": true,
}

// Validate checks every field of p against the declared mapping: the field must be mapped
// and its value must fit the declared type.
func (p PartialUpdate) Validate(m es.Mapping) error {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prop, ok := resolveProperty(m.Properties, name)
		if !ok {
			return apperr.Validation("field %q is not mapped", name)
		}
		if err := checkValue(name, prop, p[name]); err != nil {
			return err
		}
	}
	return nil
}

// Document expands dotted names into nested objects, so {"a.b": 1} becomes {"a": {"b": 1}}.
func (p PartialUpdate) Document() es.Document {
	doc := es.Document{}
	for name, v := range p {
		parts := strings.Split(name, ".")
		cur := map[string]any(doc)
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[part] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
	return doc
}

func resolveProperty(props map[string]es.Property, path string) (es.Property, bool) {
	parts := strings.Split(path, ".")
	var prop es.Property
	for i, part := range parts {
		p, ok := props[part]
		if !ok {
			return es.Property{}, false
		}
		prop = p
		if i < len(parts)-1 {
			props = p.Properties
		}
	}
	return prop, true
}

func checkValue(name string, prop es.Property, v any) error {
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if err := checkValue(name, prop, item); err != nil {
				return err
			}
		}
		return nil
	}

	switch {
	case prop.Type == "" || prop.Type == "object" || prop.Type == "nested":
		obj, ok := v.(map[string]any)
		if !ok {
			return mismatch(name, "an object", v)
		}
		if len(prop.Properties) == 0 {
			return nil
		}
		return PartialUpdate(obj).Validate(es.Mapping{Properties: prop.Properties})
	case prop.Type == "text" || prop.Type == "keyword" || prop.Type == "ip":
		if _, ok := v.(string); !ok {
			return mismatch(name, "a string", v)
		}
	case prop.Type == "date":
		switch v.(type) {
		case string:
		default:
			if _, ok := number(v); !ok {
				return mismatch(name, "a date string or epoch millis", v)
			}
		}
	case prop.Type == "boolean":
		switch b := v.(type) {
		case bool:
		case string:
			if b != "true" && b != "false" {
				return mismatch(name, "a boolean", v)
			}
		default:
			return mismatch(name, "a boolean", v)
		}
	case integerTypes[prop.Type] || floatTypes[prop.Type]:
		f, ok := number(v)
		if !ok {
			s, isString := v.(string)
			coerce := prop.Coerce == nil || *prop.Coerce
			if !isString || !coerce {
				return mismatch(name, "a number", v)
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return mismatch(name, "a number", v)
			}
			f = parsed
		}
		if integerTypes[prop.Type] && f != math.Trunc(f) && (prop.Coerce != nil && !*prop.Coerce) {
			return mismatch(name, "an integer", v)
		}
	case prop.Type == "geo_point":
		switch v.(type) {
		case string, map[string]any:
		default:
			return mismatch(name, "a geo point", v)
		}
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func mismatch(name, want string, got any) error {
	return apperr.Validation("field %q must be %s, got %T", name, want, got)
}
