package postgres

import (
	"fmt"
	"strings"
)

// whereBuilder assembles a parameterized WHERE clause. Placeholders are
// numbered from 1 in the order conditions are added.
type whereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{argIndex: 1}
}

// Add appends "col = $n".
func (wb *whereBuilder) Add(col string, value any) {
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", quoteIdentifier(col), wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddSearch appends a case-insensitive substring match over cols, joined
// with OR. An empty term adds nothing.
func (wb *whereBuilder) AddSearch(term string, cols ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return
	}

	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", quoteIdentifier(col), wb.argIndex)
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+escapeLike(term)+"%")
	wb.argIndex++
}

// Build returns the clause with a leading space, or "" when empty.
func (wb *whereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex returns the next free placeholder number.
func (wb *whereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// escapeLike escapes LIKE wildcards so a search term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// listQuery is a count query and a page query sharing one WHERE clause.
type listQuery struct {
	Count  string
	Select string
	Args   []any // for Count; Select takes Args plus limit and offset
}

func buildListQuery(table string, columns []string, orderBy string, wb *whereBuilder) listQuery {
	where, args := wb.Build()
	n := wb.NextArgIndex()
	return listQuery{
		Count: fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdentifier(table), where),
		Select: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
			strings.Join(columns, ", "), quoteIdentifier(table), where, orderBy, n, n+1),
		Args: args,
	}
}
