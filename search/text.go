package search

import "strings"

// Stop words ignored when checking for verbatim keyword matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenize splits text into lowercased words with punctuation trimmed and
// stop words removed
func tokenize(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllQueryWords reports whether every filtered query word appears
// somewhere in the chunk text
func containsAllQueryWords(chunkText, query string) bool {
	queryWords := tokenize(query)
	if len(queryWords) == 0 {
		return false
	}

	wordSet := make(map[string]bool)
	for _, word := range tokenize(chunkText) {
		wordSet[word] = true
	}

	for _, word := range queryWords {
		if !wordSet[word] {
			return false
		}
	}

	return true
}
