package core

// fields.go holds the parsers for single CSV cells and form fields.
//
// Every parser is total: it returns the parsed value and true, or the zero
// value and false. The grammars are strict on purpose; a price or date that
// does not match exactly is rejected instead of being guessed at.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/productimport/internal/precise"
)

// MaxNameLength is the longest accepted product name, in characters.
const MaxNameLength = 1024

var (
	// $<dollars>.<cents>; no leading zero except a bare 0, exactly two cents digits.
	pricePattern = regexp.MustCompile(`^\$(0|[1-9][0-9]*)\.([0-9]{2})$`)

	// <month>/<day>/<year>
	datePattern = regexp.MustCompile(`^([0-9]{1,2})/([0-9]{1,2})/([0-9]{3,4})$`)
)

// ParseName trims the value and accepts 1 to MaxNameLength characters.
func ParseName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", false
	}
	return name, true
}

// ParsePrice reads a USD price such as "$163.88" into cents (unit 2).
func ParsePrice(raw string) (precise.Number, bool) {
	m := pricePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return precise.Number{}, false
	}
	return precise.Parse(m[1] + "." + m[2])
}

// ParseDate reads a US-style M/D/YYYY date. The numbers must name a real
// calendar day; "2/30/2023" and "13/1/2023" are rejected. The result is
// midnight UTC of that day.
func ParseDate(raw string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return time.Time{}, false
	}

	// The pattern bounds every group to at most four digits.
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if year < 1 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	// time.Date normalizes overflow (Feb 30 -> Mar 2); a changed field means
	// the input was not a real date.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ParseStrategy accepts exactly "atomic" or "partial".
func ParseStrategy(raw string) (Strategy, bool) {
	switch Strategy(raw) {
	case StrategyAtomic:
		return StrategyAtomic, true
	case StrategyPartial:
		return StrategyPartial, true
	default:
		return "", false
	}
}
