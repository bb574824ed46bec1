package search_repo

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cmsearch/internal/core/id"
)

// Filter values arrive as decoded JSON, so numbers are float64 or
// json.Number. Every helper here reports ok=false instead of failing; the
// caller drops the predicate.

// toDecimal parses numbers and numeric strings.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

// numberArg renders a numeric value as int64 when integral, float64 otherwise.
func numberArg(v any) (any, bool) {
	d, ok := toDecimal(v)
	if !ok {
		return nil, false
	}
	if d.IsInteger() && d.Abs().LessThan(decimal.New(1, 18)) {
		return d.IntPart(), true
	}
	return d.InexactFloat64(), true
}

// textValue renders scalars the way they are stored in text columns.
func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case nil:
		return "", false
	}
	if d, ok := toDecimal(v); ok {
		return d.String(), true
	}
	return "", false
}

// isComparable accepts the value types ordering operators work on.
func isComparable(v any) bool {
	switch v.(type) {
	case string, float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}

// coerce converts a filter value into an argument for a column of kind.
func coerce(kind columnKind, v any) (any, bool) {
	switch kind {
	case kindText:
		s, ok := textValue(v)
		return s, ok
	case kindNumber, kindTimestamp:
		return numberArg(v)
	case kindUUID:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		parsed, err := id.Parse(s)
		if err != nil {
			return nil, false
		}
		return parsed, true
	case kindBool:
		switch t := v.(type) {
		case bool:
			return t, true
		case string:
			switch strings.ToLower(t) {
			case "true", "1":
				return true, true
			case "false", "0":
				return false, true
			}
		}
	}
	return nil, false
}

// listValues unpacks an array value. Non-slices yield ok=false.
func listValues(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate converts a calendar date/time (UTC unless zoned) to unix seconds.
func parseDate(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}

// dateArg converts a date_* operand. Calendar strings become unix seconds;
// numeric timestamps pass through with their fraction intact.
func dateArg(v any) (any, bool) {
	if s, ok := v.(string); ok {
		if ts, ok := parseDate(s); ok {
			return ts, true
		}
	}
	d, ok := toDecimal(v)
	if !ok {
		return nil, false
	}
	if d.IsInteger() && d.Abs().LessThan(decimal.New(1, 18)) {
		return d.IntPart(), true
	}
	return json.Number(d.String()), true
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// integerBounds returns the floor and ceiling of a numeric value, clamped to
// the int64 range, and whether the value is integral. Integer columns must
// be compared against these: pgx truncates a fractional float64 parameter
// bound to BIGINT or INTEGER.
func integerBounds(v any) (floor, ceil int64, integral, ok bool) {
	if !isComparable(v) {
		return 0, 0, false, false
	}
	d, ok := toDecimal(v)
	if !ok {
		return 0, 0, false, false
	}
	clamp := func(x decimal.Decimal) int64 {
		if x.LessThan(minInt64) {
			return math.MinInt64
		}
		if x.GreaterThan(maxInt64) {
			return math.MaxInt64
		}
		return x.IntPart()
	}
	integral = d.IsInteger() && !d.LessThan(minInt64) && !d.GreaterThan(maxInt64)
	return clamp(d.Floor()), clamp(d.Ceil()), integral, true
}

// likePattern escapes LIKE metacharacters in s and wraps it.
func likePattern(prefix, s, suffix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return prefix + r.Replace(s) + suffix
}

// describe is used in log lines for dropped filters.
func describe(v any) string {
	return fmt.Sprintf("%T", v)
}
