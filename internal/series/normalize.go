package series

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"finance-dashboard/models"
)

// Normalize converts any supported upstream shape into an ordered series.
// Unrecognized input yields an empty series; it never fails.
func Normalize(raw any) models.Series {
	var out models.Series

	switch DetectShape(raw) {
	case ShapeBars:
		out = FromBars(raw)
	case ShapeTimestampArrays:
		out = FromTimestampArrays(raw.(map[string]any))
	case ShapeQuotes:
		out = FromQuotes(raw.(map[string]any))
	}

	if out == nil {
		return models.Series{}
	}
	EnsureChronological(out)
	return out
}

// FromBars converts an array of bar-like objects
func FromBars(raw any) models.Series {
	items := objects(raw)
	out := make(models.Series, 0, len(items))
	for _, item := range items {
		if p, ok := barObject(item); ok {
			out = append(out, p)
		}
	}
	return out
}

// FromQuotes converts an object carrying a quotes[] array
func FromQuotes(raw map[string]any) models.Series {
	return FromBars(raw["quotes"])
}

// FromTimestampArrays converts a timestamp[] payload with parallel arrays. The
// arrays may sit next to timestamp[] or under indicators.quote[0], with an
// optional indicators.adjclose[0].adjclose close fallback.
func FromTimestampArrays(raw map[string]any) models.Series {
	stamps := list(raw["timestamp"])
	quote, adj := indicatorArrays(raw)

	opens := list(quote["open"])
	highs := list(quote["high"])
	lows := list(quote["low"])
	closes := list(quote["close"])
	volumes := list(quote["volume"])

	out := make(models.Series, 0, len(stamps))
	for i, ts := range stamps {
		secs, ok := toFloat(ts)
		if !ok || secs == 0 {
			continue
		}
		closeVal, ok := at(closes, i)
		if !ok {
			if closeVal, ok = at(adj, i); !ok {
				continue
			}
		}
		bar := models.Bar{
			Timestamp: unixTime(secs),
			Open:      atOrZero(opens, i),
			High:      atOrZero(highs, i),
			Low:       atOrZero(lows, i),
			Close:     closeVal,
			Volume:    atOrZero(volumes, i),
		}
		out = append(out, bar.Point())
	}
	return out
}

// EnsureChronological stable-sorts the series by date when any point is out of
// order. It reports whether a sort was needed.
func EnsureChronological(s models.Series) bool {
	for i := 1; i < len(s); i++ {
		if s[i].Date.Before(s[i-1].Date) {
			slices.SortStableFunc(s, func(a, b models.ChartPoint) int {
				return a.Date.Compare(b.Date)
			})
			return true
		}
	}
	return false
}

func indicatorArrays(raw map[string]any) (quote map[string]any, adj []any) {
	quote = raw
	adj = list(raw["adjclose"])
	if adj == nil {
		adj = list(raw["adjClose"])
	}

	indicators, ok := raw["indicators"].(map[string]any)
	if !ok {
		return quote, adj
	}
	if quotes := objects(indicators["quote"]); len(quotes) > 0 {
		quote = quotes[0]
	}
	if adjs := objects(indicators["adjclose"]); len(adjs) > 0 {
		adj = list(adjs[0]["adjclose"])
	}
	return quote, adj
}

func barObject(item map[string]any) (models.ChartPoint, bool) {
	closeVal, ok := toFloat(item["close"])
	if !ok {
		return models.ChartPoint{}, false
	}

	dateVal, present := item["date"]
	if !present {
		dateVal = item["timestamp"]
	}
	ts, ok := toTime(dateVal)
	if !ok {
		return models.ChartPoint{}, false
	}

	bar := models.Bar{
		Timestamp: ts,
		Open:      orZero(item["open"]),
		High:      orZero(item["high"]),
		Low:       orZero(item["low"]),
		Close:     closeVal,
		Volume:    orZero(item["volume"]),
	}
	return bar.Point(), true
}

func at(values []any, i int) (float64, bool) {
	if i >= len(values) {
		return 0, false
	}
	return toFloat(values[i])
}

func atOrZero(values []any, i int) float64 {
	v, _ := at(values, i)
	return v
}

func orZero(v any) float64 {
	f, _ := toFloat(v)
	return f
}

// toFloat coerces JSON and Go numeric values. Null, absent and unparseable
// values report false.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, !d.IsZero()
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}

	n, ok := toFloat(v)
	if !ok || n == 0 {
		return time.Time{}, false
	}
	return unixTime(n), true
}

// unixTime treats values beyond 1e12 as milliseconds
func unixTime(n float64) time.Time {
	if math.Abs(n) >= 1e12 {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
