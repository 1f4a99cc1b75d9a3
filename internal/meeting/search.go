package meeting

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Match is a search hit. Index is the position of the record in the
// slice that was searched, which is also the index accepted by a run.
type Match struct {
	Index      int
	Record     Record
	Similarity float64
}

// Search ranks the records by how closely their title resembles
// the query, best match first. Records scoring below minSimilarity
// are dropped. Titles containing the query verbatim always match.
func Search(records []Record, query string, minSimilarity float64) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Match, len(records))
		for i, r := range records {
			out[i] = Match{Index: i, Record: r, Similarity: 1}
		}
		return out
	}

	metric := metrics.NewJaroWinkler()
	metric.CaseSensitive = false

	lowered := strings.ToLower(query)
	matches := make([]Match, 0, len(records))
	for i, r := range records {
		score := strutil.Similarity(r.Title, query, metric)
		if strings.Contains(strings.ToLower(r.Title), lowered) {
			score = 1
		}

		if score >= minSimilarity {
			matches = append(matches, Match{Index: i, Record: r, Similarity: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	return matches
}
