package store

import (
	"fmt"
	"regexp"
	"strings"
)

// Order is a sort direction.
type Order int

const (
	Asc Order = iota
	Desc
)

func (o Order) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Query is a small SELECT builder covering the select, filter-by-membership
// and ordering primitives the admin view relies on.
//
//	q, params, err := From("investments").
//		Select("id", "user_id").
//		OrderBy("created_at", Desc).
//		Build()
type Query struct {
	table   string
	fields  []string
	inField string
	inVals  []any
	hasIn   bool
	orderBy string
	order   Order
}

// From starts a query on table.
func From(table string) *Query {
	return &Query{table: table}
}

// Select sets the projected fields. Entries may be field names or SurrealQL
// expressions with an alias. No fields means *.
func (q *Query) Select(fields ...string) *Query {
	q.fields = append(q.fields, fields...)
	return q
}

// WhereIn restricts the result to rows whose field is one of values.
func (q *Query) WhereIn(field string, values []any) *Query {
	q.inField = field
	q.inVals = values
	q.hasIn = true
	return q
}

// OrderBy sorts the result on field.
func (q *Query) OrderBy(field string, order Order) *Query {
	q.orderBy = field
	q.order = order
	return q
}

// Build renders the SurrealQL statement and its bound parameters.
func (q *Query) Build() (string, map[string]any, error) {
	if !identPattern.MatchString(q.table) {
		return "", nil, fmt.Errorf("invalid table name %q", q.table)
	}

	var b strings.Builder
	params := map[string]any{}

	b.WriteString("SELECT ")
	if len(q.fields) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(q.fields, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(q.table)

	if q.hasIn {
		if !identPattern.MatchString(q.inField) {
			return "", nil, fmt.Errorf("invalid filter field %q", q.inField)
		}
		vals := q.inVals
		if vals == nil {
			vals = []any{}
		}
		fmt.Fprintf(&b, " WHERE %s IN $%s_in", q.inField, q.inField)
		params[q.inField+"_in"] = vals
	}

	if q.orderBy != "" {
		if !identPattern.MatchString(q.orderBy) {
			return "", nil, fmt.Errorf("invalid order field %q", q.orderBy)
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", q.orderBy, q.order)
	}

	return b.String(), params, nil
}
