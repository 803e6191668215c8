package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CSV field names, lower-cased.
const (
	FieldName       = "name"
	FieldPrice      = "price"
	FieldExpiration = "expiration"
)

// Record maps field names to the raw cell values of one CSV row.
// A field missing from the map was not present in the row at all.
type Record map[string]string

// RowResult is the outcome of parsing one record: exactly one of Product or
// Issue is set.
type RowResult struct {
	Product *Product
	Issue   *ValidationIssue
}

// ParseRow validates one record and converts its price.
//
// Expected problems (a missing or malformed field) are returned as an Issue.
// The error result is reserved for faults that are not the row's fault, such
// as an id that could not be generated or an amount that does not fit the
// minor-unit column.
func ParseRow(rec Record, index int, batchID uuid.UUID, rate ExchangeRate) (RowResult, error) {
	rawName, ok := rec[FieldName]
	if !ok {
		return rowIssue(IssueNotFound, "name", index, rawName), nil
	}
	name, ok := ParseName(rawName)
	if !ok {
		return rowIssue(IssueInvalidFormat, "name", index, rawName), nil
	}

	rawPrice, ok := rec[FieldPrice]
	if !ok {
		return rowIssue(IssueNotFound, "price in USD", index, rawPrice), nil
	}
	usd, ok := ParsePrice(rawPrice)
	if !ok {
		return rowIssue(IssueInvalidFormat, "price in USD", index, rawPrice), nil
	}

	rawExp, ok := rec[FieldExpiration]
	if !ok {
		return rowIssue(IssueNotFound, "expiration date", index, rawExp), nil
	}
	expiration, ok := ParseDate(rawExp)
	if !ok {
		return rowIssue(IssueInvalidFormat, "expiration date", index, rawExp), nil
	}

	prices, err := ConvertPrices(usd, rate)
	if err != nil {
		return RowResult{}, fmt.Errorf("row %d: %w", index, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return RowResult{}, fmt.Errorf("row %d: generate product id: %w", index, err)
	}

	return RowResult{Product: &Product{
		ID:         id,
		Created:    time.Now().UTC(),
		BatchID:    uuid.NullUUID{UUID: batchID, Valid: true},
		Name:       name,
		Prices:     prices,
		Expiration: expiration,
	}}, nil
}

func rowIssue(typ IssueType, field string, index int, raw string) RowResult {
	return RowResult{Issue: &ValidationIssue{
		Message: fmt.Sprintf("Expected %s in row index %d is invalid '%s'", field, index, raw),
		Path:    rowPath(index),
		Type:    typ,
	}}
}
