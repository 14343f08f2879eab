// Package filter translates request query parameters into query predicates.
// Malformed values surface as *model.ValidationError keyed by parameter name.
package filter

import (
	"net/url"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/query"

	"github.com/shopspring/decimal"
)

// Query parameter names.
const (
	SearchParam   = "search"
	OrderingParam = "ordering"
)

const dateLayout = "2006-01-02"

// InStock keeps only products with stock on hand.
func InStock() query.Predicate {
	return query.Gt("stock", 0)
}

// Product builds the product filter set: name iexact/icontains and
// price exact/lt/gt/range. Absent or empty parameters impose no constraint.
func Product(params url.Values) ([]query.Predicate, error) {
	var preds []query.Predicate
	verr := model.NewValidationError()

	for _, key := range []string{"name", "name__iexact"} {
		if v := params.Get(key); v != "" {
			preds = append(preds, query.IEq("name", v))
		}
	}
	if v := params.Get("name__icontains"); v != "" {
		preds = append(preds, query.IContains("name", v))
	}

	priceLookups := []struct {
		param string
		build func(decimal.Decimal) query.Predicate
	}{
		{"price", func(d decimal.Decimal) query.Predicate { return query.Eq("price", d) }},
		{"price__lt", func(d decimal.Decimal) query.Predicate { return query.Lt("price", d) }},
		{"price__gt", func(d decimal.Decimal) query.Predicate { return query.Gt("price", d) }},
	}
	for _, lookup := range priceLookups {
		v := params.Get(lookup.param)
		if v == "" {
			continue
		}
		d, ok := parseNumber(v)
		if !ok {
			verr.Add(lookup.param, "Enter a number.")
			continue
		}
		preds = append(preds, lookup.build(d))
	}

	if v := params.Get("price__range"); v != "" {
		bounds := strings.Split(v, ",")
		if len(bounds) != 2 {
			verr.Add("price__range", "Range query expects two values.")
		} else {
			lo, loOK := parseNumber(bounds[0])
			hi, hiOK := parseNumber(bounds[1])
			if !loOK || !hiOK {
				verr.Add("price__range", "Enter a number.")
			} else {
				preds = append(preds, query.Between("price", lo, hi))
			}
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return preds, nil
}

// maxNumberDigits bounds filter numbers so they stay within what PostgreSQL
// numeric parameters accept.
const maxNumberDigits = 32

// parseNumber reads a decimal filter value, rejecting values whose digits
// before or after the point exceed maxNumberDigits.
func parseNumber(v string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, false
	}

	digits := len(strings.TrimPrefix(d.Coefficient().String(), "-"))
	exp := int(d.Exponent())
	if exp < -maxNumberDigits || digits+exp > maxNumberDigits {
		return decimal.Zero, false
	}
	return d, true
}

// Search requires every search term to appear in at least one of the columns.
// Terms are separated by whitespace or commas.
func Search(params url.Values, columns ...string) []query.Predicate {
	raw := strings.ReplaceAll(params.Get(SearchParam), "\x00", "")
	terms := strings.Fields(strings.ReplaceAll(raw, ",", " "))

	preds := make([]query.Predicate, 0, len(terms))
	for _, term := range terms {
		ors := make([]query.Predicate, 0, len(columns))
		for _, col := range columns {
			ors = append(ors, query.IContains(col, term))
		}
		preds = append(preds, query.Or(ors...))
	}
	return preds
}

// Ordering reads a comma-separated list of allowed fields, each optionally
// prefixed with "-" for descending order. Unknown fields are ignored.
func Ordering(params url.Values, allowed ...string) []query.Order {
	var terms []query.Order
	for _, field := range strings.Split(params.Get(OrderingParam), ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		name := strings.TrimPrefix(field, "-")
		for _, a := range allowed {
			if name == a {
				terms = append(terms, query.Order{Column: name, Desc: desc})
				break
			}
		}
	}
	return terms
}

// ProductList composes the product list filter chain: search over name and
// description, ordering by name or price, the product filter set and the
// in-stock filter.
func ProductList(params url.Values) ([]query.Predicate, []query.Order, error) {
	preds := Search(params, "name", "description")
	ordering := Ordering(params, "name", "price")

	productPreds, err := Product(params)
	if err != nil {
		return nil, nil, err
	}
	preds = append(preds, productPreds...)
	preds = append(preds, InStock())

	return preds, ordering, nil
}

// Order builds the order filter set: status exact match, created_at calendar
// date and created_at__lt / created_at__gt timestamp bounds.
func Order(params url.Values) ([]query.Predicate, error) {
	var preds []query.Predicate
	verr := model.NewValidationError()

	if v := params.Get("status"); v != "" {
		status, ok := model.ParseOrderStatus(v)
		if !ok {
			verr.Add("status", "Select a valid choice. "+v+" is not one of the available choices.")
		} else {
			preds = append(preds, query.Eq("status", string(status)))
		}
	}

	if v := params.Get("created_at"); v != "" {
		day, err := time.Parse(dateLayout, strings.TrimSpace(v))
		if err != nil {
			verr.Add("created_at", "Enter a valid date.")
		} else {
			preds = append(preds, query.DateEq("created_at", day.Format(dateLayout)))
		}
	}

	bounds := []struct {
		param string
		build func(time.Time) query.Predicate
	}{
		{"created_at__lt", func(ts time.Time) query.Predicate { return query.Lt("created_at", ts) }},
		{"created_at__gt", func(ts time.Time) query.Predicate { return query.Gt("created_at", ts) }},
	}
	for _, bound := range bounds {
		v := params.Get(bound.param)
		if v == "" {
			continue
		}
		ts, err := parseTimestamp(v)
		if err != nil {
			verr.Add(bound.param, "Enter a valid date/time.")
			continue
		}
		preds = append(preds, bound.build(ts))
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return preds, nil
}

// parseTimestamp accepts RFC 3339, "YYYY-MM-DD HH:MM:SS" and bare dates,
// the latter two read as UTC.
func parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", dateLayout}

	var err error
	for _, layout := range layouts {
		var ts time.Time
		if ts, err = time.ParseInLocation(layout, v, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}
