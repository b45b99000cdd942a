package storage

import (
	"strings"

	"ems/internal/core"
)

// likeEscaper neutralises LIKE metacharacters. Backslash goes first so the
// escapes it introduces are not escaped again.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Predicate is a compiled WHERE clause over a record table aliased "r".
type Predicate struct {
	clauses []string
	args    []any
}

// BuildFilter compiles criteria into a predicate. Ownership is always part of
// the result, so no query built from a predicate can see another user's rows.
func BuildFilter(c core.RecordCriteria) Predicate {
	var p Predicate
	p.add("r.user_id = ?", c.UserID.String())

	if kw := c.TrimmedKeyword(); kw != "" {
		pattern := "%" + EscapeLike(Fold(kw)) + "%"
		p.add(`(`+foldFunc+`(r.title) LIKE ? ESCAPE '\' OR `+foldFunc+`(r.note) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if c.CategoryID.Valid {
		p.add("r.category_id = ?", c.CategoryID.UUID.String())
	}
	if !c.StartDate.IsEmpty() {
		p.add("r.date >= ?", c.StartDate.String())
	}
	if !c.EndDate.IsEmpty() {
		p.add("r.date <= ?", c.EndDate.String())
	}
	return p
}

// EscapeLike escapes %, _ and backslash for a LIKE pattern using '\' as the
// escape character.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (p *Predicate) add(clause string, args ...any) {
	p.clauses = append(p.clauses, clause)
	p.args = append(p.args, args...)
}

// Where returns the clause without the WHERE keyword.
func (p Predicate) Where() string {
	if len(p.clauses) == 0 {
		return "1 = 1"
	}
	return strings.Join(p.clauses, " AND ")
}

func (p Predicate) Args() []any {
	out := make([]any, len(p.args))
	copy(out, p.args)
	return out
}
