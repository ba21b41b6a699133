package elasticsearch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/psds-microservice/search-facade/internal/apperr"
)

// translator turns query DSL into bleve queries. The mapping decides how term and range
// values are compared (numeric, date, boolean or exact term).
type translator struct {
	mapping Mapping
	now     func() time.Time
}

func (t translator) translate(q Query) (query.Query, error) {
	if len(q) == 0 {
		return bleve.NewMatchAllQuery(), nil
	}
	if len(q) != 1 {
		return nil, parsingError("query malformed, expected exactly one clause but found %d", len(q))
	}
	for kind, body := range q {
		switch kind {
		case "match_all":
			return bleve.NewMatchAllQuery(), nil
		case "match_none":
			return bleve.NewMatchNoneQuery(), nil
		case "match":
			return t.match(body, false)
		case "match_phrase":
			return t.match(body, true)
		case "multi_match":
			return t.multiMatch(body)
		case "query_string":
			params, ok := asMap(body)
			if !ok {
				return nil, parsingError("[query_string] expects an object")
			}
			return bleve.NewQueryStringQuery(fmt.Sprint(params["query"])), nil
		case "term":
			field, value, err := singleField(kind, body, "value")
			if err != nil {
				return nil, err
			}
			return t.term(field, value)
		case "terms":
			return t.terms(body)
		case "range":
			return t.rangeQuery(body)
		case "ids":
			params, ok := asMap(body)
			if !ok {
				return nil, parsingError("[ids] expects an object")
			}
			return bleve.NewDocIDQuery(toStrings(params["values"])), nil
		case "bool":
			return t.boolQuery(body)
		case "constant_score":
			params, ok := asMap(body)
			if !ok {
				return nil, parsingError("[constant_score] expects an object")
			}
			return t.clause(params["filter"])
		default:
			return nil, parsingError("unknown query [%s]", kind)
		}
	}
	return nil, nil
}

// clause accepts a query either as Query or as the decoded map[string]any form.
func (t translator) clause(v any) (query.Query, error) {
	switch c := v.(type) {
	case Query:
		return t.translate(c)
	case map[string]any:
		return t.translate(Query(c))
	default:
		return nil, parsingError("expected a query object, got %T", v)
	}
}

// clauses accepts a single query or a list of them, as bool sections do.
func (t translator) clauses(v any) ([]query.Query, error) {
	if v == nil {
		return nil, nil
	}
	var items []any
	switch c := v.(type) {
	case []any:
		items = c
	case []Query:
		for _, q := range c {
			items = append(items, q)
		}
	case []map[string]any:
		for _, q := range c {
			items = append(items, q)
		}
	default:
		items = []any{v}
	}
	out := make([]query.Query, 0, len(items))
	for _, it := range items {
		q, err := t.clause(it)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (t translator) boolQuery(body any) (query.Query, error) {
	params, ok := asMap(body)
	if !ok {
		return nil, parsingError("[bool] expects an object")
	}
	must, err := t.clauses(params["must"])
	if err != nil {
		return nil, err
	}
	filter, err := t.clauses(params["filter"])
	if err != nil {
		return nil, err
	}
	should, err := t.clauses(params["should"])
	if err != nil {
		return nil, err
	}
	mustNot, err := t.clauses(params["must_not"])
	if err != nil {
		return nil, err
	}

	required := append(must, filter...)
	if len(required) == 0 && len(should) == 0 && len(mustNot) == 0 {
		return bleve.NewMatchAllQuery(), nil
	}
	bq := bleve.NewBooleanQuery()
	if len(required) > 0 {
		bq.AddMust(required...)
	}
	if len(should) > 0 {
		bq.AddShould(should...)
		if msm, ok := params["minimum_should_match"]; ok {
			n, err := strconv.ParseFloat(fmt.Sprint(msm), 64)
			if err != nil {
				return nil, parsingError("[minimum_should_match] must be a number")
			}
			bq.SetMinShould(n)
		} else if len(required) == 0 {
			bq.SetMinShould(1)
		}
	}
	if len(mustNot) > 0 {
		bq.AddMustNot(mustNot...)
		if len(required) == 0 && len(should) == 0 {
			bq.AddMust(bleve.NewMatchAllQuery())
		}
	}
	return bq, nil
}

func (t translator) match(body any, phrase bool) (query.Query, error) {
	kind := "match"
	if phrase {
		kind = "match_phrase"
	}
	field, value, err := singleField(kind, body, "query")
	if err != nil {
		return nil, err
	}
	if typ := t.fieldType(field); typ == "date" || typ == "boolean" || numericTypes[typ] {
		return t.term(field, value)
	}
	text := fmt.Sprint(value)
	if phrase {
		q := bleve.NewMatchPhraseQuery(text)
		q.SetField(field)
		return q, nil
	}
	q := bleve.NewMatchQuery(text)
	q.SetField(field)
	if params, ok := asMap(body); ok {
		if opts, ok := asMap(params[field]); ok && strings.EqualFold(fmt.Sprint(opts["operator"]), "and") {
			q.SetOperator(query.MatchQueryOperatorAnd)
		}
	}
	return q, nil
}

func (t translator) multiMatch(body any) (query.Query, error) {
	params, ok := asMap(body)
	if !ok {
		return nil, parsingError("[multi_match] expects an object")
	}
	text := fmt.Sprint(params["query"])
	fields := toStrings(params["fields"])
	if len(fields) == 0 {
		return bleve.NewMatchQuery(text), nil
	}
	disjuncts := make([]query.Query, 0, len(fields))
	for _, f := range fields {
		q := bleve.NewMatchQuery(text)
		q.SetField(f)
		disjuncts = append(disjuncts, q)
	}
	return bleve.NewDisjunctionQuery(disjuncts...), nil
}

func (t translator) term(field string, value any) (query.Query, error) {
	typ := t.fieldType(field)
	switch v := value.(type) {
	case bool:
		q := bleve.NewBoolFieldQuery(v)
		q.SetField(field)
		return q, nil
	case float64:
		return numericEquals(field, v), nil
	case int:
		return numericEquals(field, float64(v)), nil
	case int64:
		return numericEquals(field, float64(v)), nil
	case time.Time:
		return dateEquals(field, v), nil
	case string:
		switch {
		case typ == "boolean":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, parsingError("failed to parse [%s] as boolean for field [%s]", v, field)
			}
			q := bleve.NewBoolFieldQuery(b)
			q.SetField(field)
			return q, nil
		case numericTypes[typ]:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, parsingError("failed to parse [%s] as number for field [%s]", v, field)
			}
			return numericEquals(field, f), nil
		case typ == "date":
			ts, err := t.resolveDate(v)
			if err != nil {
				return nil, err
			}
			return dateEquals(field, ts), nil
		}
		q := bleve.NewTermQuery(v)
		q.SetField(field)
		return q, nil
	case nil:
		return nil, parsingError("[term] value for field [%s] must not be null", field)
	default:
		q := bleve.NewTermQuery(fmt.Sprint(v))
		q.SetField(field)
		return q, nil
	}
}

func (t translator) terms(body any) (query.Query, error) {
	params, ok := asMap(body)
	if !ok || len(params) != 1 {
		return nil, parsingError("[terms] expects exactly one field")
	}
	for field, raw := range params {
		values, ok := raw.([]any)
		if !ok {
			for _, s := range toStrings(raw) {
				values = append(values, s)
			}
		}
		if len(values) == 0 {
			return bleve.NewMatchNoneQuery(), nil
		}
		disjuncts := make([]query.Query, 0, len(values))
		for _, v := range values {
			q, err := t.term(field, v)
			if err != nil {
				return nil, err
			}
			disjuncts = append(disjuncts, q)
		}
		return bleve.NewDisjunctionQuery(disjuncts...), nil
	}
	return nil, nil
}

func (t translator) rangeQuery(body any) (query.Query, error) {
	params, ok := asMap(body)
	if !ok || len(params) != 1 {
		return nil, parsingError("[range] expects exactly one field")
	}
	for field, raw := range params {
		bounds, ok := asMap(raw)
		if !ok {
			return nil, parsingError("[range] bounds for [%s] must be an object", field)
		}
		lower, lowerIncl := bounds["gte"], true
		if lower == nil {
			lower, lowerIncl = bounds["gt"], false
		}
		upper, upperIncl := bounds["lte"], true
		if upper == nil {
			upper, upperIncl = bounds["lt"], false
		}
		if lower == nil && upper == nil {
			return bleve.NewMatchAllQuery(), nil
		}

		typ := t.fieldType(field)
		switch {
		case numericTypes[typ] || isNumber(lower) || isNumber(upper):
			min, err := toFloat(lower)
			if err != nil {
				return nil, err
			}
			max, err := toFloat(upper)
			if err != nil {
				return nil, err
			}
			q := bleve.NewNumericRangeInclusiveQuery(min, max, &lowerIncl, &upperIncl)
			q.SetField(field)
			return q, nil
		case typ == "date" || t.isDate(lower) || t.isDate(upper):
			var start, end time.Time
			var err error
			if lower != nil {
				if start, err = t.resolveDate(lower); err != nil {
					return nil, err
				}
			}
			if upper != nil {
				if end, err = t.resolveDate(upper); err != nil {
					return nil, err
				}
			}
			q := bleve.NewDateRangeInclusiveQuery(start, end, &lowerIncl, &upperIncl)
			q.SetField(field)
			return q, nil
		default:
			q := bleve.NewTermRangeInclusiveQuery(toString(lower), toString(upper), &lowerIncl, &upperIncl)
			q.SetField(field)
			return q, nil
		}
	}
	return nil, nil
}

// fieldType resolves a dotted path, including multi-fields such as "manufacturer.keyword".
func (t translator) fieldType(field string) string {
	props := t.mapping.Properties
	parts := strings.Split(field, ".")
	for i, p := range parts {
		prop, ok := props[p]
		if !ok {
			return ""
		}
		if i == len(parts)-1 {
			return prop.Type
		}
		if sub, ok := prop.Fields[parts[i+1]]; ok && i+1 == len(parts)-1 {
			return sub.Type
		}
		props = prop.Properties
	}
	return ""
}

func (t translator) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t translator) isDate(v any) bool {
	switch s := v.(type) {
	case time.Time:
		return true
	case string:
		_, err := t.resolveDate(s)
		return err == nil
	}
	return false
}

// resolveDate accepts absolute dates and the "now[+-]N<unit>" date math the engine supports.
func (t translator) resolveDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case float64:
		return time.UnixMilli(int64(d)).UTC(), nil
	case string:
		if strings.HasPrefix(d, "now") {
			return applyDateMath(t.clock(), strings.TrimPrefix(d, "now"))
		}
		ts, err := parseDate(d)
		if err != nil {
			return time.Time{}, parsingError("failed to parse date field [%s]", d)
		}
		return ts, nil
	}
	return time.Time{}, parsingError("failed to parse date value [%v]", v)
}

func applyDateMath(base time.Time, expr string) (time.Time, error) {
	if expr == "" {
		return base, nil
	}
	sign := 1
	switch expr[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return time.Time{}, parsingError("unsupported date math [now%s]", expr)
	}
	body := expr[1:]
	if len(body) < 2 {
		return time.Time{}, parsingError("unsupported date math [now%s]", expr)
	}
	n, err := strconv.Atoi(body[:len(body)-1])
	if err != nil {
		return time.Time{}, parsingError("unsupported date math [now%s]", expr)
	}
	n *= sign
	switch body[len(body)-1] {
	case 's':
		return base.Add(time.Duration(n) * time.Second), nil
	case 'm':
		return base.Add(time.Duration(n) * time.Minute), nil
	case 'h', 'H':
		return base.Add(time.Duration(n) * time.Hour), nil
	case 'd':
		return base.AddDate(0, 0, n), nil
	case 'w':
		return base.AddDate(0, 0, 7*n), nil
	case 'M':
		return base.AddDate(0, n, 0), nil
	case 'y':
		return base.AddDate(n, 0, 0), nil
	}
	return time.Time{}, parsingError("unsupported date math [now%s]", expr)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func numericEquals(field string, v float64) query.Query {
	incl := true
	q := bleve.NewNumericRangeInclusiveQuery(&v, &v, &incl, &incl)
	q.SetField(field)
	return q
}

func dateEquals(field string, ts time.Time) query.Query {
	incl := true
	q := bleve.NewDateRangeInclusiveQuery(ts, ts, &incl, &incl)
	q.SetField(field)
	return q
}

// singleField unpacks {"field": value} or {"field": {"<key>": value, ...}}.
func singleField(kind string, body any, key string) (string, any, error) {
	params, ok := asMap(body)
	if !ok || len(params) != 1 {
		return "", nil, parsingError("[%s] query doesn't support multiple fields", kind)
	}
	for field, v := range params {
		if opts, ok := asMap(v); ok {
			return field, opts[key], nil
		}
		return field, v, nil
	}
	return "", nil, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Query:
		return map[string]any(m), true
	case Document:
		return map[string]any(m), true
	}
	return nil, false
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, el := range s {
			out = append(out, fmt.Sprint(el))
		}
		return out
	case string:
		return []string{s}
	}
	return nil
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		return true
	}
	return false
}

func toFloat(v any) (*float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, parsingError("failed to parse [%s] as number", n)
		}
		f = parsed
	default:
		return nil, parsingError("failed to parse [%v] as number", v)
	}
	return &f, nil
}

func parsingError(format string, args ...any) error {
	return apperr.Engine(400, "parsing_exception", fmt.Sprintf(format, args...))
}
