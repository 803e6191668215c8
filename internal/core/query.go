package core

import (
	"net/url"
	"strings"

	"github.com/JonMunkholm/productimport/internal/precise"
)

// RangeSeparator splits the bounds of a range parameter ("10.00..25.50").
const RangeSeparator = ".."

// ParseProductQuery reads listing parameters:
//
//	name=<exact name>
//	ord=asc|desc
//	ordby=usd|eur|jpy|brl|btc|exp
//	range=<start>..<end>   decimal amounts, either side may be empty
//	rangeby=usd|eur|jpy|brl|btc
//
// Unrecognized or malformed values are ignored and the listing default
// applies, so a stray parameter never turns a listing into an error.
func ParseProductQuery(values url.Values) ProductQuery {
	var q ProductQuery

	q.Name = values.Get("name")

	switch SortOrder(values.Get("ord")) {
	case SortAsc:
		q.Order = SortAsc
	case SortDesc:
		q.Order = SortDesc
	}

	switch s := ProductSort(values.Get("ordby")); s {
	case SortByUSD, SortByEUR, SortByJPY, SortByBRL, SortByBTC, SortByExpiration:
		q.OrderBy = s
	}

	q.RangeBy = USD
	if c, ok := ParseCurrency(values.Get("rangeby")); ok {
		q.RangeBy = c
	}

	if raw := values.Get("range"); raw != "" {
		if start, end, ok := parseRange(raw, q.RangeBy.Precision()); ok {
			q.RangeStart, q.RangeEnd = start, end
		}
	}

	return q
}

// parseRange reads "<start>..<end>" into minor units of the given precision.
// Amounts with more fractional digits than the precision are truncated.
func parseRange(raw string, unit int) (*int64, *int64, bool) {
	parts := strings.Split(raw, RangeSeparator)
	if len(parts) != 2 {
		return nil, nil, false
	}

	bounds := make([]*int64, 2)
	for i, part := range parts {
		if part == "" {
			continue
		}
		n, ok := precise.Parse(part)
		if !ok {
			return nil, nil, false
		}
		v, ok := n.MustNormalize(unit, precise.Truncate).Int64()
		if !ok {
			return nil, nil, false
		}
		bounds[i] = &v
	}
	return bounds[0], bounds[1], true
}
