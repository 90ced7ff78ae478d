package ingest

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/duynguyendang/evogen/pkg/evol"
)

// dupSimilarity is the levenshtein similarity above which two document
// prefixes are considered the same document uploaded twice.
const dupSimilarity = 0.97

// dupPrefixChars bounds the comparison window. Comparing full documents
// is quadratic in length; near-duplicates from double uploads share a
// prefix anyway.
const dupPrefixChars = 2000

// FilterDuplicates drops documents that are near-identical to an earlier
// document in the batch. Order is preserved; the first occurrence wins.
func FilterDuplicates(docs []evol.Document) (kept []evol.Document, dropped int) {
	prefixes := make([]string, 0, len(docs))
	for _, doc := range docs {
		prefix := normalizePrefix(doc.Content)
		dup := false
		for _, seen := range prefixes {
			if levenshtein.Similarity(prefix, seen, nil) > dupSimilarity {
				dup = true
				break
			}
		}
		if dup {
			dropped++
			continue
		}
		prefixes = append(prefixes, prefix)
		kept = append(kept, doc)
	}
	return kept, dropped
}

func normalizePrefix(content string) string {
	s := strings.ToLower(strings.Join(strings.Fields(content), " "))
	if len(s) > dupPrefixChars {
		s = s[:dupPrefixChars]
	}
	return s
}
