package domain

import "time"

// FilterOp is a metadata predicate operator.
type FilterOp string

// Supported filter operators.
const (
	OpEq  FilterOp = "eq"
	OpNe  FilterOp = "ne"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
	OpIn  FilterOp = "in"
	OpAnd FilterOp = "and"
)

// Filter is a metadata predicate applied to chunk metadata during search.
// Leaf filters compare a single key against a value; OpAnd combines
// sub-filters conjunctively.
type Filter struct {
	// Op is the predicate operator.
	Op FilterOp

	// Key is the metadata key for leaf predicates.
	Key string

	// Value is the comparison value for leaf predicates. For OpIn it
	// must be a slice.
	Value any

	// Filters are the conjuncts for OpAnd.
	Filters []*Filter
}

// Eq builds an equality filter.
func Eq(key string, value any) *Filter { return &Filter{Op: OpEq, Key: key, Value: value} }

// Ne builds an inequality filter.
func Ne(key string, value any) *Filter { return &Filter{Op: OpNe, Key: key, Value: value} }

// Gt builds a greater-than filter.
func Gt(key string, value any) *Filter { return &Filter{Op: OpGt, Key: key, Value: value} }

// Gte builds a greater-or-equal filter.
func Gte(key string, value any) *Filter { return &Filter{Op: OpGte, Key: key, Value: value} }

// Lt builds a less-than filter.
func Lt(key string, value any) *Filter { return &Filter{Op: OpLt, Key: key, Value: value} }

// Lte builds a less-or-equal filter.
func Lte(key string, value any) *Filter { return &Filter{Op: OpLte, Key: key, Value: value} }

// In builds a membership filter.
func In(key string, values ...any) *Filter { return &Filter{Op: OpIn, Key: key, Value: values} }

// And combines filters conjunctively. Nil sub-filters are dropped.
func And(filters ...*Filter) *Filter {
	kept := make([]*Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	return &Filter{Op: OpAnd, Filters: kept}
}

// Matches reports whether the given metadata satisfies the filter.
// A nil filter matches everything. Comparisons against missing keys or
// non-comparable values are false rather than errors, so a malformed
// filter narrows results instead of failing the search.
func (f *Filter) Matches(metadata map[string]any) bool {
	if f == nil {
		return true
	}

	switch f.Op {
	case OpAnd:
		for _, sub := range f.Filters {
			if !sub.Matches(metadata) {
				return false
			}
		}
		return true

	case OpEq:
		v, ok := metadata[f.Key]
		return ok && looseEqual(v, f.Value)

	case OpNe:
		v, ok := metadata[f.Key]
		return ok && !looseEqual(v, f.Value)

	case OpGt, OpGte, OpLt, OpLte:
		v, ok := metadata[f.Key]
		if !ok {
			return false
		}
		cmp, ok := compareValues(v, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}

	case OpIn:
		v, ok := metadata[f.Key]
		if !ok {
			return false
		}
		candidates, ok := f.Value.([]any)
		if !ok {
			return false
		}
		for _, c := range candidates {
			if looseEqual(v, c) {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// looseEqual compares values with numeric coercion, since metadata
// round-tripped through JSON arrives as float64.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && as == bs
}

// compareValues returns -1, 0, or 1 for ordered values, or ok=false when
// the pair is not comparable.
func compareValues(a, b any) (int, bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	default:
		return 0, true
	}
}

// toFloat coerces numeric types to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
