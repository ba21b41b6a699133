package elasticsearch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/psds-microservice/search-facade/internal/apperr"
)

func (m *memIndex) aggregate(ctx context.Context, tr translator, base query.Query, agg Aggregation) (AggregationResult, error) {
	switch {
	case agg.AdjacencyMatrix != nil:
		return m.adjacencyMatrix(ctx, tr, base, agg.AdjacencyMatrix)
	case agg.AutoDateHistogram != nil:
		return m.autoDateHistogram(ctx, base, agg.AutoDateHistogram)
	}
	return AggregationResult{}, apperr.Engine(400, "parsing_exception", "aggregation definition is empty")
}

// adjacencyMatrix emits one bucket per filter and per pair of filters ("A&B"), skipping empty ones.
func (m *memIndex) adjacencyMatrix(ctx context.Context, tr translator, base query.Query, agg *AdjacencyMatrix) (AggregationResult, error) {
	names := sortedKeys(agg.Filters)
	sets := make(map[string]map[string]struct{}, len(names))
	for _, name := range names {
		fq, err := tr.translate(agg.Filters[name])
		if err != nil {
			return AggregationResult{}, err
		}
		ids, err := m.matching(ctx, bleve.NewConjunctionQuery(base, fq))
		if err != nil {
			return AggregationResult{}, err
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		sets[name] = set
	}

	out := AggregationResult{Buckets: []Bucket{}}
	for i, a := range names {
		if n := len(sets[a]); n > 0 {
			out.Buckets = append(out.Buckets, Bucket{Key: a, DocCount: int64(n)})
		}
		for _, b := range names[i+1:] {
			var n int64
			for id := range sets[a] {
				if _, ok := sets[b][id]; ok {
					n++
				}
			}
			if n > 0 {
				out.Buckets = append(out.Buckets, Bucket{Key: a + "&" + b, DocCount: n})
			}
		}
	}
	sort.Slice(out.Buckets, func(i, j int) bool { return out.Buckets[i].Key < out.Buckets[j].Key })
	return out, nil
}

type rounding struct {
	n    int
	unit byte
}

func (r rounding) String() string { return fmt.Sprintf("%d%c", r.n, r.unit) }

// floor truncates t to the start of its base unit.
func (r rounding) floor(t time.Time) time.Time {
	t = t.UTC()
	switch r.unit {
	case 's':
		return t.Truncate(time.Second)
	case 'm':
		return t.Truncate(time.Minute)
	case 'h':
		return t.Truncate(time.Hour)
	case 'd':
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case 'M':
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
}

func (r rounding) next(t time.Time) time.Time {
	switch r.unit {
	case 's':
		return t.Add(time.Duration(r.n) * time.Second)
	case 'm':
		return t.Add(time.Duration(r.n) * time.Minute)
	case 'h':
		return t.Add(time.Duration(r.n) * time.Hour)
	case 'd':
		return t.AddDate(0, 0, r.n)
	case 'M':
		return t.AddDate(0, r.n, 0)
	default:
		return t.AddDate(r.n, 0, 0)
	}
}

// roundings is the engine's ladder of candidate intervals, finest first.
var roundings = []rounding{
	{1, 's'}, {5, 's'}, {10, 's'}, {30, 's'},
	{1, 'm'}, {5, 'm'}, {10, 'm'}, {30, 'm'},
	{1, 'h'}, {3, 'h'}, {12, 'h'},
	{1, 'd'}, {7, 'd'},
	{1, 'M'}, {3, 'M'},
	{1, 'y'}, {5, 'y'}, {10, 'y'}, {20, 'y'}, {50, 'y'}, {100, 'y'},
}

var minimumIntervalUnits = map[string]byte{
	"second": 's', "minute": 'm', "hour": 'h', "day": 'd', "month": 'M', "year": 'y',
}

const unitOrder = "smhdMy"

// autoDateHistogram picks the finest interval that yields at most Buckets buckets, then counts
// every matching document (or the Missing date for documents without the field) into it.
func (m *memIndex) autoDateHistogram(ctx context.Context, base query.Query, agg *AutoDateHistogram) (AggregationResult, error) {
	if agg.Buckets < 1 {
		return AggregationResult{}, apperr.Engine(400, "illegal_argument_exception", "[buckets] must be greater than 0")
	}
	ladder := roundings
	if agg.MinimumInterval != "" {
		unit, ok := minimumIntervalUnits[agg.MinimumInterval]
		if !ok {
			return AggregationResult{}, apperr.Engine(400, "illegal_argument_exception",
				fmt.Sprintf("minimum_interval must be one of %v", sortedKeys(minimumIntervalUnits)))
		}
		for i, r := range roundings {
			if strings.IndexByte(unitOrder, r.unit) >= strings.IndexByte(unitOrder, unit) {
				ladder = roundings[i:]
				break
			}
		}
	}

	ids, err := m.matching(ctx, base)
	if err != nil {
		return AggregationResult{}, err
	}
	values := make([]time.Time, 0, len(ids))
	for _, id := range ids {
		raw, ok := lookupPath(m.docs[id], agg.Field)
		if ts, parsed := dateValue(raw); ok && parsed {
			values = append(values, ts)
			continue
		}
		if agg.Missing != nil {
			values = append(values, agg.Missing.UTC())
		}
	}

	out := AggregationResult{Buckets: []Bucket{}}
	if len(values) == 0 {
		out.Interval = ladder[0].String()
		return out, nil
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Before(values[j]) })
	lo, hi := values[0], values[len(values)-1]

	chosen := ladder[len(ladder)-1]
	for _, r := range ladder {
		if bucketCount(r, lo, hi, agg.Buckets) <= agg.Buckets {
			chosen = r
			break
		}
	}

	layout := javaDateLayout(agg.Format)
	vi := 0
	for start := chosen.floor(lo); !start.After(hi); start = chosen.next(start) {
		end := chosen.next(start)
		var n int64
		for vi < len(values) && values[vi].Before(end) {
			n++
			vi++
		}
		out.Buckets = append(out.Buckets, Bucket{
			Key:         strconv.FormatInt(start.UnixMilli(), 10),
			KeyAsString: start.Format(layout),
			DocCount:    n,
		})
	}
	out.Interval = chosen.String()
	return out, nil
}

// bucketCount counts buckets between lo and hi, stopping once limit is exceeded.
func bucketCount(r rounding, lo, hi time.Time, limit int) int {
	n := 0
	for start := r.floor(lo); !start.After(hi); start = r.next(start) {
		n++
		if n > limit {
			break
		}
	}
	return n
}

func dateValue(v any) (time.Time, bool) {
	switch d := v.(type) {
	case string:
		ts, err := parseDate(d)
		return ts.UTC(), err == nil
	case float64:
		return time.UnixMilli(int64(d)).UTC(), true
	}
	return time.Time{}, false
}

var javaDateTokens = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"SSS", "000",
	"'T'", "T",
	"'Z'", "Z",
	"XXX", "Z07:00",
)

// javaDateLayout converts the common subset of engine date patterns into a Go layout.
func javaDateLayout(format string) string {
	if format == "" {
		return "2006-01-02T15:04:05.000Z"
	}
	return javaDateTokens.Replace(format)
}
