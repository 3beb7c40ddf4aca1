package batch

import (
	"fmt"
	"strings"
)

// InClauseQuery builds a single parameterized query over a deduplicated id
// list, the one-shot fan-in companion to Loader (e.g. "all jobs for these
// company ids"). The ids are passed as one array parameter for a
// Postgres-style "= ANY($1)" clause, so the query shape is stable regardless
// of how many ids are supplied.
func InClauseQuery[K comparable](baseQuery string, ids []K, column string) (string, []interface{}) {
	deduped := Dedup(ids)

	var b strings.Builder
	b.WriteString(baseQuery)
	if strings.Contains(strings.ToUpper(baseQuery), " WHERE ") {
		b.WriteString(" AND ")
	} else {
		b.WriteString(" WHERE ")
	}
	fmt.Fprintf(&b, "%s = ANY($1)", column)

	return b.String(), []interface{}{deduped}
}

// Dedup returns the distinct elements of ids in first-seen order.
func Dedup[K comparable](ids []K) []K {
	seen := make(map[K]struct{}, len(ids))
	out := make([]K, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
