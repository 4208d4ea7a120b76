package metricscalculator

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// LexicalSimilarity scores how close a generated answer is to the expected
// answer on a word level, as 1 - normalized edit distance in [0,1]. It is a
// cheap complement to judge scores: free of API calls and fully
// deterministic, but blind to paraphrase.
func LexicalSimilarity(expected string, generated string) float64 {
	expectedWords := strings.Fields(strings.ToLower(expected))
	generatedWords := strings.Fields(strings.ToLower(generated))

	if len(expectedWords) == 0 && len(generatedWords) == 0 {
		return 1.0
	}
	if len(expectedWords) == 0 || len(generatedWords) == 0 {
		return 0.0
	}

	// DistanceForStrings operates on runes, so each distinct word is encoded
	// as one rune; the distance then counts whole-word edits.
	ids := map[string]rune{}
	encode := func(words []string) []rune {
		encoded := make([]rune, len(words))
		for i, w := range words {
			id, ok := ids[w]
			if !ok {
				id = rune(len(ids))
				ids[w] = id
			}
			encoded[i] = id
		}
		return encoded
	}

	distance := levenshtein.DistanceForStrings(
		encode(expectedWords), encode(generatedWords), levenshtein.DefaultOptionsWithSub)

	longest := len(expectedWords)
	if len(generatedWords) > longest {
		longest = len(generatedWords)
	}
	similarity := 1.0 - float64(distance)/float64(longest)
	if similarity < 0 {
		similarity = 0
	}
	return similarity
}
