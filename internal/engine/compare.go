package engine

import (
	"regexp"
	"strings"
)

// compareValues evaluates `stored op want`. Comparisons are strictly
// type-sensitive: values of different dynamic types are never equal and
// never ordered, there is no numeric-string coercion.
func compareValues(stored any, op string, want any) (bool, error) {
	switch op {
	case "=":
		return strictEqual(stored, want), nil
	case "!=", "<>":
		return !strictEqual(stored, want), nil
	case ">", "<", ">=", "<=":
		return strictOrdered(stored, op, want), nil
	case "LIKE":
		return likeMatch(stored, want), nil
	}
	return false, NewQueryError(ErrUnsupportedOperator, "Unsupported operator %s", op)
}

func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case int64:
		b, ok := b.(int64)
		return ok && a == b
	case float64:
		b, ok := b.(float64)
		return ok && a == b
	case string:
		b, ok := b.(string)
		return ok && a == b
	case bool:
		b, ok := b.(bool)
		return ok && a == b
	}
	return false
}

func strictOrdered(a any, op string, b any) bool {
	switch a := a.(type) {
	case int64:
		if b, ok := b.(int64); ok {
			return orderHolds(op, a < b, a == b)
		}
	case float64:
		if b, ok := b.(float64); ok {
			return orderHolds(op, a < b, a == b)
		}
	case string:
		if b, ok := b.(string); ok {
			return orderHolds(op, a < b, a == b)
		}
	}
	return false
}

func orderHolds(op string, less, equal bool) bool {
	switch op {
	case "<":
		return less
	case "<=":
		return less || equal
	case ">":
		return !less && !equal
	case ">=":
		return !less
	}
	return false
}

// likeMatch translates a LIKE pattern (% for any run, _ for one char)
// into a case-insensitive whole-string match. A LIKE against anything
// that is not a string evaluates false rather than erroring.
func likeMatch(stored, pattern any) bool {
	s, ok := stored.(string)
	if !ok {
		return false
	}
	p, ok := pattern.(string)
	if !ok {
		return false
	}

	var sb strings.Builder
	sb.WriteString("(?i)^")
	for _, r := range p {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
