package mango

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// typeClass ranks JSON value types in CouchDB collation order.
type typeClass int

const (
	classNull typeClass = iota
	classBool
	classNumber
	classString
	classArray
	classObject
	classUnknown
)

// Normalize converts Go values into their JSON-decoded shape so that
// built selectors and stored documents compare the same way.
// Integers become float64 and times become domain.TimeLayout strings, the
// layout documents are stored with.
func Normalize(v any) any {
	switch n := v.(type) {
	case nil, bool, float64, string:
		return v
	case time.Time:
		return domain.FormatTime(n)
	case *time.Time:
		if n == nil {
			return nil
		}
		return domain.FormatTime(*n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = Normalize(item)
		}
		return out
	case []string:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = item
		}
		return out
	}
	if f, ok := toFloat64(v); ok {
		return f
	}
	return v
}

// toFloat64 coerces a numeric value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func classOf(v any) typeClass {
	switch v.(type) {
	case nil:
		return classNull
	case bool:
		return classBool
	case float64:
		return classNumber
	case string:
		return classString
	case []any:
		return classArray
	case map[string]any:
		return classObject
	}
	return classUnknown
}

// Compare orders two JSON values the way CouchDB collates view keys:
// null < false < true < numbers < strings < arrays < objects.
// It returns -1, 0 or +1.
func Compare(a, b any) int {
	a, b = asPlain(Normalize(a)), asPlain(Normalize(b))

	ca, cb := classOf(a), classOf(b)
	if ca != cb {
		return cmpInt(int(ca), int(cb))
	}

	switch ca {
	case classBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case classNumber:
		af, bf := a.(float64), b.(float64)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case classString:
		return strings.Compare(a.(string), b.(string))
	case classArray:
		aa, ba := a.([]any), b.([]any)
		for i := 0; i < len(aa) && i < len(ba); i++ {
			if c := Compare(aa[i], ba[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(aa), len(ba))
	case classObject:
		return compareObjects(a.(map[string]any), b.(map[string]any))
	}
	return 0
}

func compareObjects(a, b map[string]any) int {
	ak, bk := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := Compare(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return cmpInt(len(ak), len(bk))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asPlain unwraps named map types so class detection sees map[string]any.
func asPlain(v any) any {
	if m, ok := asMap(v); ok {
		return m
	}
	return v
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case domain.Selector:
		return map[string]any(m), true
	case domain.RawDoc:
		return map[string]any(m), true
	}
	return nil, false
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// asTime returns v as a time when it is a time.Time or a non-nil *time.Time.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

// finite reports whether a normalized value is not NaN or an infinity.
func finite(v any) bool {
	f, ok := v.(float64)
	return !ok || !(math.IsNaN(f) || math.IsInf(f, 0))
}

// orderable reports whether v can be a range bound.
func orderable(v any) bool {
	c := classOf(v)
	return c == classNumber || c == classString
}
