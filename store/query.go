package store

import (
	"strings"

	"github.com/falcon-search/falcon/internal/util"
)

// inClauseQuery builds "<prefix>?, ?, ...)" for a variadic IN clause
// over uint64 ids, returning the query and its positional args.
func inClauseQuery(prefix string, ids []uint64) (string, []any) {
	return inClause(prefix, util.TransformSlice(ids, func(id uint64) any { return id }))
}

// inClauseQueryStrings is the string-keyed analogue, used by IndexStore
// for token lookups.
func inClauseQueryStrings(prefix string, keys []string) (string, []any) {
	return inClause(prefix, util.TransformSlice(keys, func(k string) any { return k }))
}

func inClause(prefix string, args []any) (string, []any) {
	var sb strings.Builder
	sb.WriteString(prefix)
	for i := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}
	sb.WriteString(")")
	return sb.String(), args
}
