// Package mango builds and evaluates CouchDB Mango selectors.
//
// A Builder turns filter primitives (equality, ranges, set membership and
// AND-combinations) into a domain.Query for one document kind. Match
// evaluates a selector against a decoded document with the same semantics
// the server applies, which lets the in-memory store stand in for CouchDB.
package mango

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/logger"
)

// Operators understood by the builder and the matcher.
const (
	OpEq     = "$eq"
	OpNe     = "$ne"
	OpGt     = "$gt"
	OpGte    = "$gte"
	OpLt     = "$lt"
	OpLte    = "$lte"
	OpIn     = "$in"
	OpNin    = "$nin"
	OpExists = "$exists"
	OpAnd    = "$and"
	OpOr     = "$or"
)

// Condition is a single filter primitive or an AND group of them.
// Build conditions with Eq, Gt, Gte, Lt, Lte, Range, In and And.
type Condition struct {
	field string
	ops   map[string]any
	group []Condition
	err   error
}

// Field returns the field the condition constrains; empty for groups.
func (c Condition) Field() string {
	return c.field
}

// Err returns the validation error recorded when the condition was built.
func (c Condition) Err() error {
	if c.err != nil {
		return c.err
	}
	for _, child := range c.group {
		if err := child.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c Condition) selector() domain.Selector {
	if c.group != nil {
		clauses := make([]any, len(c.group))
		for i, child := range c.group {
			clauses[i] = child.selector()
		}
		return domain.Selector{OpAnd: clauses}
	}
	ops := make(map[string]any, len(c.ops))
	for op, v := range c.ops {
		ops[op] = v
	}
	return domain.Selector{c.field: ops}
}

func invalid(format string, args ...any) Condition {
	return Condition{err: fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))}
}

func single(field, op string, v any) Condition {
	if strings.TrimSpace(field) == "" {
		return invalid("field name must not be empty")
	}
	n := Normalize(v)
	if !finite(n) {
		return invalid("%s on %q needs a finite number, got %v", op, field, v)
	}
	return Condition{field: field, ops: map[string]any{op: n}}
}

// Eq matches documents whose field equals v.
func Eq(field string, v any) Condition { return single(field, OpEq, v) }

// Gt matches documents whose field is greater than v.
func Gt(field string, v any) Condition { return single(field, OpGt, v) }

// Gte matches documents whose field is greater than or equal to v.
func Gte(field string, v any) Condition { return single(field, OpGte, v) }

// Lt matches documents whose field is less than v.
func Lt(field string, v any) Condition { return single(field, OpLt, v) }

// Lte matches documents whose field is less than or equal to v.
func Lte(field string, v any) Condition { return single(field, OpLte, v) }

// Range matches lo <= field <= hi. Bounds must be of the same orderable
// type (numbers, strings or times) and lo must not exceed hi.
func Range(field string, lo, hi any) Condition {
	if strings.TrimSpace(field) == "" {
		return invalid("field name must not be empty")
	}
	lt, loTime := asTime(lo)
	ht, hiTime := asTime(hi)
	if loTime && hiTime && lt.After(ht) {
		return invalid("range on %q has lower bound %s above upper bound %s",
			field, domain.FormatTime(lt), domain.FormatTime(ht))
	}
	l, h := Normalize(lo), Normalize(hi)
	if !finite(l) || !finite(h) {
		return invalid("range on %q needs finite bounds, got %v and %v", field, lo, hi)
	}
	if !orderable(l) || !orderable(h) {
		return invalid("range on %q needs number, string or time bounds, got %T and %T", field, lo, hi)
	}
	if classOf(l) != classOf(h) {
		return invalid("range on %q mixes bound types %T and %T", field, lo, hi)
	}
	if Compare(l, h) > 0 {
		return invalid("range on %q has lower bound %v above upper bound %v", field, l, h)
	}
	return Condition{field: field, ops: map[string]any{OpGte: l, OpLte: h}}
}

// In matches documents whose field equals one of values.
func In(field string, values ...any) Condition {
	if len(values) == 0 {
		return invalid("membership on %q needs at least one value", field)
	}
	for _, v := range values {
		if !finite(Normalize(v)) {
			return invalid("membership on %q needs finite numbers, got %v", field, v)
		}
	}
	return single(field, OpIn, values)
}

// And groups conditions that must all hold.
func And(conds ...Condition) Condition {
	if len(conds) == 0 {
		return invalid("and needs at least one condition")
	}
	return Condition{group: append([]Condition{}, conds...)}
}

// Builder accumulates filter, sort and paging options for one kind.
// Methods record the first validation error and Build reports it.
type Builder struct {
	kind   domain.Kind
	conds  []Condition
	sort   []domain.SortField
	limit  int
	skip   int
	fields []string
	err    error
}

// NewBuilder starts a query for kind. An empty kind queries every kind.
func NewBuilder(kind domain.Kind) *Builder {
	b := &Builder{kind: kind}
	if kind != "" && !kind.IsValid() {
		b.err = fmt.Errorf("%w: unknown document kind %q", domain.ErrInvalidInput, kind)
	}
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Where adds prebuilt conditions.
func (b *Builder) Where(conds ...Condition) *Builder {
	for _, c := range conds {
		if err := c.Err(); err != nil {
			return b.fail(err)
		}
		b.conds = append(b.conds, c)
	}
	return b
}

// Eq adds an equality constraint.
func (b *Builder) Eq(field string, v any) *Builder { return b.Where(Eq(field, v)) }

// Gt adds a strict lower bound.
func (b *Builder) Gt(field string, v any) *Builder { return b.Where(Gt(field, v)) }

// Gte adds an inclusive lower bound.
func (b *Builder) Gte(field string, v any) *Builder { return b.Where(Gte(field, v)) }

// Lt adds a strict upper bound.
func (b *Builder) Lt(field string, v any) *Builder { return b.Where(Lt(field, v)) }

// Lte adds an inclusive upper bound.
func (b *Builder) Lte(field string, v any) *Builder { return b.Where(Lte(field, v)) }

// Range adds an inclusive range constraint.
func (b *Builder) Range(field string, lo, hi any) *Builder { return b.Where(Range(field, lo, hi)) }

// In adds a set membership constraint.
func (b *Builder) In(field string, values ...any) *Builder { return b.Where(In(field, values...)) }

// And adds an explicit AND group.
func (b *Builder) And(conds ...Condition) *Builder { return b.Where(And(conds...)) }

// Sort appends a sort key.
func (b *Builder) Sort(field string, dir domain.SortDirection) *Builder {
	if strings.TrimSpace(field) == "" {
		return b.fail(fmt.Errorf("%w: sort field must not be empty", domain.ErrInvalidInput))
	}
	switch dir {
	case "":
		dir = domain.SortAsc
	case domain.SortAsc, domain.SortDesc:
	default:
		return b.fail(fmt.Errorf("%w: sort direction %q must be asc or desc", domain.ErrInvalidInput, dir))
	}
	b.sort = append(b.sort, domain.SortField{Field: field, Direction: dir})
	return b
}

// Limit caps the number of returned documents. Zero means the store default.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		return b.fail(fmt.Errorf("%w: limit must not be negative, got %d", domain.ErrInvalidInput, n))
	}
	b.limit = n
	return b
}

// Skip sets the number of documents to skip.
func (b *Builder) Skip(n int) *Builder {
	if n < 0 {
		return b.fail(fmt.Errorf("%w: skip must not be negative, got %d", domain.ErrInvalidInput, n))
	}
	b.skip = n
	return b
}

// Fields restricts the returned fields.
func (b *Builder) Fields(fields ...string) *Builder {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return b.fail(fmt.Errorf("%w: projected field must not be empty", domain.ErrInvalidInput))
		}
	}
	b.fields = append(b.fields, fields...)
	return b
}

// Build returns the query descriptor. It has no side effects.
func (b *Builder) Build() (domain.Query, error) {
	if b.err != nil {
		return domain.Query{}, b.err
	}

	b.checkFields()

	clauses := make([]domain.Selector, 0, len(b.conds)+1)
	if b.kind != "" {
		clauses = append(clauses, domain.Selector{"type": string(b.kind)})
	}
	for _, c := range b.conds {
		clauses = append(clauses, c.selector())
	}

	q := domain.Query{
		Kind:     b.kind,
		Selector: combine(clauses),
		Limit:    b.limit,
		Skip:     b.skip,
	}
	if len(b.sort) > 0 {
		q.Sort = append([]domain.SortField{}, b.sort...)
	}
	if len(b.fields) > 0 {
		q.Fields = append([]string{}, b.fields...)
	}
	return q, nil
}

// checkFields logs fields outside the kind's declared schema.
func (b *Builder) checkFields() {
	if b.kind == "" {
		return
	}
	var names []string
	var walk func([]Condition)
	walk = func(conds []Condition) {
		for _, c := range conds {
			if c.group != nil {
				walk(c.group)
				continue
			}
			names = append(names, c.field)
		}
	}
	walk(b.conds)
	for _, s := range b.sort {
		names = append(names, s.Field)
	}
	names = append(names, b.fields...)

	for _, name := range names {
		if !b.kind.HasField(name) {
			logger.Debug("mango: field %q is not declared for %s, passing through", name, b.kind)
		}
	}
}

// combine merges clauses into one selector. Clauses on distinct keys are
// merged flat; any key collision falls back to an explicit $and.
func combine(clauses []domain.Selector) domain.Selector {
	switch len(clauses) {
	case 0:
		return domain.Selector{}
	case 1:
		return clauses[0]
	}

	merged := domain.Selector{}
	for _, clause := range clauses {
		for k, v := range clause {
			if _, taken := merged[k]; taken {
				all := make([]any, len(clauses))
				for i, c := range clauses {
					all[i] = c
				}
				return domain.Selector{OpAnd: all}
			}
			merged[k] = v
		}
	}
	return merged
}
