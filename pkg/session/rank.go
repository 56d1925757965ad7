package session

import "sort"

// RankLanguages computes the one global, stable ordering of every language
// ever observed across results: descending by share of the final commit's
// totalLines, exact ties broken by ascending name. Languages absent from the
// final commit (or a zero final total) rank with share 0.
//
// The returned slice is the fixed index space for voice assignment; a
// language's index never changes within one session.
func RankLanguages(results []CommitRecord) []string {
	seen := map[string]struct{}{}

	for _, rec := range results {
		for name := range rec.Languages {
			seen[name] = struct{}{}
		}
	}

	languages := make([]string, 0, len(seen))
	for name := range seen {
		languages = append(languages, name)
	}

	shares := map[string]float64{}

	if len(results) > 0 {
		final := results[len(results)-1]
		if final.TotalLines > 0 {
			for name, ls := range final.Languages {
				shares[name] = float64(ls.Code) / float64(final.TotalLines)
			}
		}
	}

	sort.Slice(languages, func(i, j int) bool {
		si, sj := shares[languages[i]], shares[languages[j]]
		if si != sj {
			return si > sj
		}

		return languages[i] < languages[j]
	})

	return languages
}
