package store

import (
	"strconv"
	"strings"
)

// whereBuilder accumulates AND-ed conditions with positional arguments.
type whereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{argIndex: 1}
}

// Add appends "column = $n". Empty values are skipped.
func (w *whereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	w.addCondition(column, "=", value)
}

// AddRange appends an inclusive lower and an exclusive upper bound.
// A nil bound is left open.
func (w *whereBuilder) AddRange(column string, start, end *int64) {
	if start != nil {
		w.addCondition(column, ">=", *start)
	}
	if end != nil {
		w.addCondition(column, "<", *end)
	}
}

func (w *whereBuilder) addCondition(column, op string, value any) {
	w.conditions = append(w.conditions,
		quoteIdentifier(column)+" "+op+" $"+strconv.Itoa(w.argIndex))
	w.args = append(w.args, value)
	w.argIndex++
}

// Build returns the WHERE clause with a leading space, or "" and nil args
// when no condition was added.
func (w *whereBuilder) Build() (string, []any) {
	if len(w.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(w.conditions, " AND "), w.args
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
