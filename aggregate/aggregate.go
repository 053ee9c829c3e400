// Package aggregate builds the relation-valued subqueries that derive friend
// counts from the friendships edge table. Every builder returns SQL that
// yields (user_id, <count>) rows and is meant to be LEFT JOINed by the
// caller; users with nothing to count are absent and must be coalesced to 0.
//
// The SQL sticks to joins, filters, GROUP BY and COUNT so that it runs
// unchanged on MySQL and SQLite.
package aggregate

import (
	"strings"

	"friendlink/models"
)

// Query is a SQL fragment with its positional arguments in textual order.
type Query struct {
	SQL  string
	Args []interface{}
}

// Builder concatenates fragments while keeping placeholder arguments aligned
// with their position in the final statement.
type Builder struct {
	sb   strings.Builder
	args []interface{}
}

func (b *Builder) Write(sql string, args ...interface{}) *Builder {
	b.sb.WriteString(sql)
	b.args = append(b.args, args...)
	return b
}

// Subquery writes "(<q>) alias".
func (b *Builder) Subquery(q Query, alias string) *Builder {
	b.sb.WriteString("(")
	b.sb.WriteString(q.SQL)
	b.sb.WriteString(") ")
	b.sb.WriteString(alias)
	b.args = append(b.args, q.Args...)
	return b
}

func (b *Builder) Query() Query {
	args := make([]interface{}, len(b.args))
	copy(args, b.args)
	return Query{SQL: b.sb.String(), Args: args}
}

var accepted = string(models.StatusAccepted)
