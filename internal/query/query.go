// Package query builds parameterised PostgreSQL filter and ordering clauses
// from composable predicates. Column names are always supplied by the caller
// from a fixed whitelist; only values travel as bind arguments.
package query

import (
	"strconv"
	"strings"
)

// Args accumulates positional bind arguments while predicates render.
type Args struct {
	values []any
}

// Add appends a value and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// Values returns the collected arguments in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// Predicate renders one boolean SQL expression.
type Predicate interface {
	Render(args *Args) string
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(args *Args) string

// Render calls f.
func (f PredicateFunc) Render(args *Args) string {
	return f(args)
}

func compare(column, op string, v any) Predicate {
	return PredicateFunc(func(args *Args) string {
		return column + " " + op + " " + args.Add(v)
	})
}

// Eq matches column = v.
func Eq(column string, v any) Predicate { return compare(column, "=", v) }

// Lt matches column < v.
func Lt(column string, v any) Predicate { return compare(column, "<", v) }

// Gt matches column > v.
func Gt(column string, v any) Predicate { return compare(column, ">", v) }

// Between matches lo <= column <= hi.
func Between(column string, lo, hi any) Predicate {
	return PredicateFunc(func(args *Args) string {
		return column + " BETWEEN " + args.Add(lo) + " AND " + args.Add(hi)
	})
}

// IEq matches column case-insensitively.
func IEq(column, v string) Predicate {
	return PredicateFunc(func(args *Args) string {
		return "LOWER(" + column + ") = LOWER(" + args.Add(v) + ")"
	})
}

// IContains matches columns containing v case-insensitively.
func IContains(column, v string) Predicate {
	return PredicateFunc(func(args *Args) string {
		return column + " ILIKE " + args.Add("%"+EscapeLike(v)+"%")
	})
}

// DateEq matches the UTC calendar date of a timestamptz column.
func DateEq(column string, date any) Predicate {
	return PredicateFunc(func(args *Args) string {
		return "(" + column + " AT TIME ZONE 'UTC')::date = " + args.Add(date) + "::date"
	})
}

// And joins predicates with AND.
func And(preds ...Predicate) Predicate { return join(" AND ", preds) }

// Or joins predicates with OR.
func Or(preds ...Predicate) Predicate { return join(" OR ", preds) }

func join(sep string, preds []Predicate) Predicate {
	return PredicateFunc(func(args *Args) string {
		parts := make([]string, 0, len(preds))
		for _, p := range preds {
			parts = append(parts, p.Render(args))
		}
		switch len(parts) {
		case 0:
			return "TRUE"
		case 1:
			return parts[0]
		}
		return "(" + strings.Join(parts, sep) + ")"
	})
}

// EscapeLike escapes LIKE wildcards so v matches literally.
func EscapeLike(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(v)
}

// Where renders " WHERE ..." for the predicates, or "" when there are none.
func Where(preds []Predicate, args *Args) string {
	if len(preds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, p.Render(args))
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// OrderBy renders " ORDER BY ..." followed by the tiebreak column so that
// pagination stays stable.
func OrderBy(terms []Order, tiebreak string) string {
	parts := make([]string, 0, len(terms)+1)
	for _, t := range terms {
		dir := " ASC"
		if t.Desc {
			dir = " DESC"
		}
		parts = append(parts, t.Column+dir)
	}
	parts = append(parts, tiebreak+" ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

// Spec describes a list query.
type Spec struct {
	Where   []Predicate
	OrderBy []Order
	Limit   int
	Offset  int
}

// Page renders " LIMIT .. OFFSET .." when a limit is set.
func (s Spec) Page(args *Args) string {
	if s.Limit <= 0 {
		return ""
	}
	return " LIMIT " + args.Add(s.Limit) + " OFFSET " + args.Add(s.Offset)
}
