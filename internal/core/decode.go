package core

// decode.go turns the uploaded byte stream into UTF-8 text for the CSV reader.
//
// The chain is: source -> byte counter -> BOM skipper -> UTF-8 transformer.
// Under the atomic strategy the transformer validates and fails on the first
// invalid byte; under the partial strategy it replaces invalid bytes with
// U+FFFD and keeps going.
//
// Errors surfacing from the chain are classified so the pipeline can tell a
// broken upload (I/O, size limit) apart from a file that is not UTF-8.

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sourceError marks an error returned by the underlying upload reader.
type sourceError struct {
	err error
}

func (e *sourceError) Error() string { return "read upload: " + e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

// countingReader tracks bytes read from the source and tags source errors.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if err != nil && err != io.EOF {
		err = &sourceError{err: err}
	}
	return n, err
}

// bomSkippingReader drops a leading UTF-8 byte order mark.
type bomSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: bufio.NewReader(r)}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		// A short or failed peek means there is no full BOM; Read reports
		// any error below.
		if head, err := b.r.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// newTextReader builds the decoding chain for strategy. The returned counter
// reports how many raw bytes were consumed.
func newTextReader(r io.Reader, strategy Strategy) (io.Reader, *countingReader) {
	counter := &countingReader{r: r}
	src := newBOMSkippingReader(counter)

	var t transform.Transformer
	if strategy == StrategyAtomic {
		t = encoding.UTF8Validator
	} else {
		t = unicode.UTF8.NewDecoder()
	}
	return transform.NewReader(src, t), counter
}

// isSourceError reports whether err came from the upload itself rather than
// from decoding.
func isSourceError(err error) bool {
	var se *sourceError
	return errors.As(err, &se)
}
