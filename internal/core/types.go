package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/productimport/internal/precise"
	"github.com/google/uuid"
)

// CurrencyCode identifies one of the supported currencies.
type CurrencyCode string

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	JPY CurrencyCode = "JPY"
	BRL CurrencyCode = "BRL"
	BTC CurrencyCode = "BTC"
)

// Currencies lists every supported currency in canonical order.
var Currencies = []CurrencyCode{USD, EUR, JPY, BRL, BTC}

// Precision returns the number of minor-unit decimal places of the currency.
// It panics for a code outside the supported set.
func (c CurrencyCode) Precision() int {
	switch c {
	case USD, EUR, BRL:
		return 2
	case JPY:
		return 0
	case BTC:
		return 8
	default:
		panic(fmt.Sprintf("core: unsupported currency %q", string(c)))
	}
}

// Valid reports whether c is a supported currency.
func (c CurrencyCode) Valid() bool {
	switch c {
	case USD, EUR, JPY, BRL, BTC:
		return true
	default:
		return false
	}
}

// ParseCurrency reads a currency code case-insensitively ("usd", "USD").
func ParseCurrency(s string) (CurrencyCode, bool) {
	c := CurrencyCode(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Strategy controls how row-level issues affect a batch.
type Strategy string

const (
	// StrategyAtomic rejects the whole batch when any row has an issue.
	StrategyAtomic Strategy = "atomic"
	// StrategyPartial imports valid rows and reports the rest.
	StrategyPartial Strategy = "partial"
)

// IssueType is the short machine-readable category of a ValidationIssue.
type IssueType string

const (
	IssueNotFound      IssueType = "not_found"
	IssueInvalidFormat IssueType = "invalid_format"
	IssueInvalidData   IssueType = "invalid_data"
)

// ValidationIssue describes one problem found in the request or the file.
// Path is nil for stream-level problems that do not belong to a row.
type ValidationIssue struct {
	Message string    `json:"message"`
	Path    *string   `json:"path"`
	Type    IssueType `json:"type"`
}

func rowPath(index int) *string {
	p := fmt.Sprintf("$.row.%d", index)
	return &p
}

func fieldPath(name string) *string {
	p := "$." + name
	return &p
}

// ExchangeRate holds the amount of each currency that one USD buys.
type ExchangeRate struct {
	USD precise.Number
	EUR precise.Number
	JPY precise.Number
	BRL precise.Number
	BTC precise.Number
}

// Rate returns the rate for c. It panics for a code outside the supported set.
func (r ExchangeRate) Rate(c CurrencyCode) precise.Number {
	switch c {
	case USD:
		return r.USD
	case EUR:
		return r.EUR
	case JPY:
		return r.JPY
	case BRL:
		return r.BRL
	case BTC:
		return r.BTC
	default:
		panic(fmt.Sprintf("core: unsupported currency %q", string(c)))
	}
}

// CurrencyType is an amount in the minor units of its currency
// (cents for USD, satoshi for BTC).
type CurrencyType struct {
	Code   CurrencyCode `json:"code"`
	Amount int64        `json:"amount"`
}

// Prices carries one converted amount per supported currency.
type Prices struct {
	USD CurrencyType `json:"usd"`
	EUR CurrencyType `json:"eur"`
	JPY CurrencyType `json:"jpy"`
	BRL CurrencyType `json:"brl"`
	BTC CurrencyType `json:"btc"`
}

// Get returns the price in c. It panics for a code outside the supported set.
func (p Prices) Get(c CurrencyCode) CurrencyType {
	switch c {
	case USD:
		return p.USD
	case EUR:
		return p.EUR
	case JPY:
		return p.JPY
	case BRL:
		return p.BRL
	case BTC:
		return p.BTC
	default:
		panic(fmt.Sprintf("core: unsupported currency %q", string(c)))
	}
}

// Product is one imported row. Expiration is a calendar date at UTC midnight.
type Product struct {
	ID         uuid.UUID     `json:"id"`
	Created    time.Time     `json:"created"`
	BatchID    uuid.NullUUID `json:"batch_id"`
	Name       string        `json:"name"`
	Prices     Prices        `json:"prices"`
	Expiration time.Time     `json:"expiration"`
}

// ProductBatch records one import call.
type ProductBatch struct {
	ID       uuid.UUID `json:"id"`
	Created  time.Time `json:"created"`
	Strategy Strategy  `json:"strategy"`
	Filename string    `json:"filename"`
}

// NewProductBatch starts a batch with a fresh time-ordered id.
func NewProductBatch(filename string, strategy Strategy) (ProductBatch, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return ProductBatch{}, fmt.Errorf("generate batch id: %w", err)
	}
	return ProductBatch{
		ID:       id,
		Created:  time.Now().UTC(),
		Strategy: strategy,
		Filename: filename,
	}, nil
}

// SortOrder is the direction of a product listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ProductSort names the column a listing is ordered by.
type ProductSort string

const (
	SortByID         ProductSort = "id"
	SortByUSD        ProductSort = "usd"
	SortByEUR        ProductSort = "eur"
	SortByJPY        ProductSort = "jpy"
	SortByBRL        ProductSort = "brl"
	SortByBTC        ProductSort = "btc"
	SortByExpiration ProductSort = "exp"
)

// ProductQuery filters and orders a product listing.
//
// RangeStart is inclusive and RangeEnd exclusive; both are minor units of
// RangeBy and either may be nil.
type ProductQuery struct {
	Name       string
	Order      SortOrder
	OrderBy    ProductSort
	RangeBy    CurrencyCode
	RangeStart *int64
	RangeEnd   *int64
}
