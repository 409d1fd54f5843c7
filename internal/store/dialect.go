package store

import (
	"fmt"
	"strconv"
	"strings"
)

// dialect captures the few SQL differences between the supported drivers.
type dialect struct {
	name string
	// numbered placeholders ($1, $2, ...) instead of "?"
	numbered bool
	// cellExpr extracts one JSON array element from the cells column; the
	// element selector is bound as the single "?" inside it.
	cellExpr string
	cellArg  func(index int) any
	// appendLock, when set, serializes appends to one sheet for the rest of
	// the transaction. The sheet name is bound as its only parameter.
	appendLock string
}

var sqliteDialect = dialect{
	name:     "sqlite",
	cellExpr: "json_extract(cells, ?)",
	cellArg:  func(index int) any { return fmt.Sprintf("$[%d]", index) },
}

var postgresDialect = dialect{
	name:       "postgres",
	numbered:   true,
	cellExpr:   "(cells::jsonb ->> CAST(? AS INTEGER))",
	cellArg:    func(index int) any { return index },
	appendLock: "SELECT pg_advisory_xact_lock(hashtext(?))",
}

// rebind rewrites "?" placeholders for drivers that want numbered ones.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
