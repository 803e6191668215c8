package core

// pipeline.go reads a product CSV and turns it into a batch of products and
// row issues.
//
// The pipeline moves through four states:
//
//	start -> header detection -> row iteration -> complete | aborted
//
// Row problems never stop the pipeline; they become issues in row order.
// Only stream-level failures abort: bytes that are not UTF-8 (atomic
// strategy only) and records the CSV reader cannot parse. An abort is
// returned as a *ValidationError with a single issue and no products.
//
// Quoting is lenient: a bare '"' inside a cell is kept as text and an
// unterminated quoted cell runs to the end of the file. A cell longer than
// MaxFieldLength characters is a structure error.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Delimiter is the CSV field separator.
const Delimiter = ';'

// ContextCheckInterval is how many rows are processed between cancellation checks.
const ContextCheckInterval = 100

// MaxFieldLength caps the characters in one cell.
const MaxFieldLength = 131072

// errFieldTooLong reports a cell over MaxFieldLength.
var errFieldTooLong = errors.New("field larger than field limit")

// Messages of the stream-level issues.
const (
	MsgNotUTF8    = "Expected file must be UTF-8 encoded"
	MsgInvalidCSV = "Expected file must be a valid CSV file delimited by ;"
)

// PipelineResult is the outcome of a completed pipeline run.
type PipelineResult struct {
	Batch    ProductBatch
	Products []Product
	Issues   []ValidationIssue

	// BytesRead counts raw bytes consumed from the upload.
	BytesRead int64
}

// RunPipeline parses the CSV in r for one import.
//
// The returned error is a *ValidationError when the file itself is unusable,
// the context error when ctx ends, or a wrapped read error when the upload
// could not be read.
func RunPipeline(ctx context.Context, r io.Reader, filename string, strategy Strategy, rate ExchangeRate) (*PipelineResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch, err := NewProductBatch(filename, strategy)
	if err != nil {
		return nil, err
	}

	text, counter := newTextReader(r, strategy)
	reader := csv.NewReader(text)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &PipelineResult{Batch: batch}

	first, err := readRecord(reader)
	if err == io.EOF {
		result.BytesRead = counter.n
		return result, nil
	}
	if err != nil {
		return nil, abortError(err)
	}

	fields, isHeader := detectHeader(first)

	index := 0
	process := func(cells []string) {
		index++
		if isEmptyRecord(cells) {
			return
		}
		res, err := parseRowSafe(toRecord(fields, cells), index, batch, rate)
		switch {
		case err != nil:
			result.Issues = append(result.Issues, ValidationIssue{
				Message: fmt.Sprintf("Error in row %d", index),
				Path:    rowPath(index),
				Type:    IssueInvalidData,
			})
		case res.Issue != nil:
			result.Issues = append(result.Issues, *res.Issue)
		case res.Product != nil:
			result.Products = append(result.Products, *res.Product)
		}
	}

	if !isHeader {
		process(first)
	}

	for {
		if index%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cells, err := readRecord(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, abortError(err)
		}
		process(cells)
	}

	result.BytesRead = counter.n
	return result, nil
}

// readRecord reads the next record and enforces MaxFieldLength.
func readRecord(reader *csv.Reader) ([]string, error) {
	cells, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, cell := range cells {
		if len(cell) > MaxFieldLength && utf8.RuneCountInString(cell) > MaxFieldLength {
			line, col := reader.FieldPos(i)
			return nil, &csv.ParseError{StartLine: line, Line: line, Column: col, Err: errFieldTooLong}
		}
	}
	return cells, nil
}

// detectHeader decides whether the first record names the columns. A header
// must contain name, price and expiration (any order, case and padding);
// otherwise the file is read in that fixed column order and the first record
// is data.
func detectHeader(first []string) ([]string, bool) {
	names := make([]string, len(first))
	seen := make(map[string]bool, len(first))
	for i, cell := range first {
		names[i] = strings.ToLower(strings.TrimSpace(cell))
		seen[names[i]] = true
	}

	if seen[FieldName] && seen[FieldPrice] && seen[FieldExpiration] {
		return names, true
	}
	return []string{FieldName, FieldPrice, FieldExpiration}, false
}

// toRecord pairs cells with field names. Cells beyond the known fields are
// dropped; fields beyond the cells are left out of the record. For a repeated
// header name the last column wins.
func toRecord(fields, cells []string) Record {
	rec := make(Record, len(fields))
	for i, name := range fields {
		if i >= len(cells) {
			break
		}
		rec[name] = cells[i]
	}
	return rec
}

func isEmptyRecord(cells []string) bool {
	for _, v := range cells {
		if v != "" {
			return false
		}
	}
	return true
}

// rowParser parses each record; tests replace it to inject faults.
var rowParser = ParseRow

// parseRowSafe runs rowParser and turns a panic into an error so one bad row
// cannot take down the batch.
func parseRowSafe(rec Record, index int, batch ProductBatch, rate ExchangeRate) (res RowResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("row %d: panic: %v", index, r)
		}
	}()
	return rowParser(rec, index, batch.ID, rate)
}

// abortError classifies an error from the CSV reader.
func abortError(err error) error {
	if isSourceError(err) {
		return err
	}

	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return newValidationError(SegmentMultipartFile, ValidationIssue{
			Message: MsgInvalidCSV,
			Type:    IssueInvalidFormat,
		})
	}

	return newValidationError(SegmentMultipartFile, ValidationIssue{
		Message: MsgNotUTF8,
		Type:    IssueInvalidFormat,
	})
}
