package core

import (
	"net/url"
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }

func TestParseProductQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  ProductQuery
	}{
		{
			name:  "empty",
			query: "",
			want:  ProductQuery{RangeBy: USD},
		},
		{
			name:  "all parameters",
			query: "name=Apple&ord=asc&ordby=exp&range=1.50..20&rangeby=eur",
			want: ProductQuery{
				Name: "Apple", Order: SortAsc, OrderBy: SortByExpiration,
				RangeBy: EUR, RangeStart: int64Ptr(150), RangeEnd: int64Ptr(2000),
			},
		},
		{
			name:  "open end",
			query: "range=10..",
			want:  ProductQuery{RangeBy: USD, RangeStart: int64Ptr(1000)},
		},
		{
			name:  "open start in btc",
			query: "range=..0.5&rangeby=btc",
			want:  ProductQuery{RangeBy: BTC, RangeEnd: int64Ptr(50000000)},
		},
		{
			name:  "yen truncates fraction",
			query: "range=100.99..200&rangeby=jpy",
			want:  ProductQuery{RangeBy: JPY, RangeStart: int64Ptr(100), RangeEnd: int64Ptr(200)},
		},
		{
			name:  "invalid values ignored",
			query: "ord=up&ordby=price&rangeby=gbp&range=abc..1",
			want:  ProductQuery{RangeBy: USD},
		},
		{
			name:  "range without separator ignored",
			query: "range=10",
			want:  ProductQuery{RangeBy: USD},
		},
		{
			name:  "range with two separators ignored",
			query: "range=1..2..3",
			want:  ProductQuery{RangeBy: USD},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			got := ParseProductQuery(values)

			if got.Name != tt.want.Name || got.Order != tt.want.Order ||
				got.OrderBy != tt.want.OrderBy || got.RangeBy != tt.want.RangeBy {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if !equalBound(got.RangeStart, tt.want.RangeStart) {
				t.Errorf("RangeStart = %v, want %v", deref(got.RangeStart), deref(tt.want.RangeStart))
			}
			if !equalBound(got.RangeEnd, tt.want.RangeEnd) {
				t.Errorf("RangeEnd = %v, want %v", deref(got.RangeEnd), deref(tt.want.RangeEnd))
			}
		})
	}
}

func equalBound(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
