package mango

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// Match reports whether doc satisfies selector. Field paths may be dotted
// to reach nested objects. A missing field only satisfies $exists:false
// and $ne/$nin. Unknown operators are an error.
func Match(selector domain.Selector, doc map[string]any) (bool, error) {
	return matchSelector(map[string]any(selector), doc)
}

func matchSelector(sel map[string]any, doc map[string]any) (bool, error) {
	for key, cond := range sel {
		ok, err := matchKey(key, cond, doc)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchKey(key string, cond any, doc map[string]any) (bool, error) {
	switch key {
	case OpAnd, OpOr:
		clauses, ok := cond.([]any)
		if !ok {
			return false, fmt.Errorf("%w: %s expects a list of selectors", domain.ErrInvalidInput, key)
		}
		for _, raw := range clauses {
			sub, ok := asMap(raw)
			if !ok {
				return false, fmt.Errorf("%w: %s entry must be a selector", domain.ErrInvalidInput, key)
			}
			hit, err := matchSelector(sub, doc)
			if err != nil {
				return false, err
			}
			if key == OpOr && hit {
				return true, nil
			}
			if key == OpAnd && !hit {
				return false, nil
			}
		}
		return key == OpAnd, nil
	}
	if strings.HasPrefix(key, "$") {
		return false, fmt.Errorf("%w: unsupported combination operator %s", domain.ErrInvalidInput, key)
	}

	value, found := lookup(doc, key)

	ops, isOps := operatorMap(cond)
	if !isOps {
		return found && Compare(value, cond) == 0, nil
	}
	for op, arg := range ops {
		ok, err := apply(op, value, found, arg)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// operatorMap returns cond as an operator map when every key is an operator.
func operatorMap(cond any) (map[string]any, bool) {
	m, ok := asMap(cond)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func apply(op string, value any, found bool, arg any) (bool, error) {
	switch op {
	case OpExists:
		want, ok := arg.(bool)
		if !ok {
			return false, fmt.Errorf("%w: $exists expects a boolean", domain.ErrInvalidInput)
		}
		return found == want, nil
	case OpNe:
		return !found || Compare(value, arg) != 0, nil
	case OpNin:
		values, ok := Normalize(arg).([]any)
		if !ok {
			return false, fmt.Errorf("%w: $nin expects a list", domain.ErrInvalidInput)
		}
		return !found || !contains(values, value), nil
	}

	if !found {
		switch op {
		case OpEq, OpGt, OpGte, OpLt, OpLte, OpIn:
			return false, nil
		}
	}

	switch op {
	case OpEq:
		return Compare(value, arg) == 0, nil
	case OpGt:
		return Compare(value, arg) > 0, nil
	case OpGte:
		return Compare(value, arg) >= 0, nil
	case OpLt:
		return Compare(value, arg) < 0, nil
	case OpLte:
		return Compare(value, arg) <= 0, nil
	case OpIn:
		values, ok := Normalize(arg).([]any)
		if !ok {
			return false, fmt.Errorf("%w: $in expects a list", domain.ErrInvalidInput)
		}
		return contains(values, value), nil
	}
	return false, fmt.Errorf("%w: unsupported operator %s", domain.ErrInvalidInput, op)
}

func contains(values []any, v any) bool {
	for _, candidate := range values {
		if Compare(candidate, v) == 0 {
			return true
		}
	}
	return false
}

// lookup resolves a dotted path inside doc.
func lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
