package mango

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// filterOps is ordered so that two-character operators win over their prefixes.
var filterOps = []string{">=", "<=", ">", "<", "~", "="}

// FromFilters parses command-line filter expressions into a builder for kind.
//
//	price>=10          inclusive lower bound
//	price=10..20       inclusive range
//	status=pending     equality
//	category~A|B       membership
//
// Values that parse as numbers or booleans are typed; quote a value to
// keep it a string ("status=\"1\"").
func FromFilters(kind domain.Kind, exprs []string) (*Builder, error) {
	b := NewBuilder(kind)
	for _, expr := range exprs {
		cond, err := ParseFilter(expr)
		if err != nil {
			return nil, err
		}
		b.Where(cond)
	}
	if b.err != nil {
		return nil, b.err
	}
	return b, nil
}

// ParseFilter parses one filter expression into a condition.
func ParseFilter(expr string) (Condition, error) {
	field, op, raw, ok := splitFilter(expr)
	if !ok {
		return Condition{}, fmt.Errorf("%w: filter %q must look like field<op>value with op one of = > >= < <= ~", domain.ErrInvalidInput, expr)
	}

	var cond Condition
	switch op {
	case "=":
		if lo, hi, isRange := strings.Cut(raw, ".."); isRange {
			cond = Range(field, parseValue(lo), parseValue(hi))
		} else {
			cond = Eq(field, parseValue(raw))
		}
	case ">":
		cond = Gt(field, parseValue(raw))
	case ">=":
		cond = Gte(field, parseValue(raw))
	case "<":
		cond = Lt(field, parseValue(raw))
	case "<=":
		cond = Lte(field, parseValue(raw))
	case "~":
		parts := strings.Split(raw, "|")
		values := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, parseValue(p))
			}
		}
		cond = In(field, values...)
	}
	return cond, cond.Err()
}

func splitFilter(expr string) (field, op, value string, ok bool) {
	idx, found := -1, ""
	for _, candidate := range filterOps {
		if i := strings.Index(expr, candidate); i > 0 && (idx == -1 || i < idx || (i == idx && len(candidate) > len(found))) {
			idx, found = i, candidate
		}
	}
	if idx <= 0 {
		return "", "", "", false
	}
	field = strings.TrimSpace(expr[:idx])
	value = strings.TrimSpace(expr[idx+len(found):])
	if field == "" || value == "" || strings.ContainsAny(field, "<>=~") {
		return "", "", "", false
	}
	return field, found, value, true
}

func parseValue(s string) any {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
		return s[1 : len(s)-1]
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	// ParseFloat also accepts NaN and Inf; those stay strings.
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

// SortBy parses "field" or "field:desc" and appends the sort key.
func (b *Builder) SortBy(spec string) *Builder {
	field, dir, _ := strings.Cut(strings.TrimSpace(spec), ":")
	return b.Sort(field, domain.SortDirection(strings.ToLower(dir)))
}
