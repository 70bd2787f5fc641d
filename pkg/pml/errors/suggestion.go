package errors

import (
	"fmt"
	"strings"
)

// SuggestName suggests the closest of candidates to an unknown slot or value
// name. It uses Levenshtein distance and falls back to listing a few
// candidates when nothing is close.
func SuggestName(unknown string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	minDistance := 1000
	var bestMatch string

	for _, c := range candidates {
		dist := levenshteinDistance(strings.ToLower(unknown), strings.ToLower(c))
		if dist < minDistance {
			minDistance = dist
			bestMatch = c
		}
	}

	// Only suggest if the distance is reasonable
	if minDistance <= max(2, len(unknown)/3) {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}

	if len(candidates) > 5 {
		return fmt.Sprintf("Valid names include: %s, ...", strings.Join(candidates[:5], ", "))
	}
	return fmt.Sprintf("Valid names: %s", strings.Join(candidates, ", "))
}

// SuggestAnswer suggests how to fix a reference to an answer the question
// does not offer.
func SuggestAnswer(unknown string, answers []string) string {
	if len(answers) == 0 {
		return "The question has no answers"
	}
	if s := SuggestName(unknown, answers); strings.HasPrefix(s, "Did you mean") {
		return s
	}
	return fmt.Sprintf("Valid answers: %s", strings.Join(answers, ", "))
}

// levenshteinDistance computes the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	// Two rows are enough.
	prev := make([]int, len2+1)
	cur := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		cur[0] = i
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // Deletion
				cur[j-1]+1,     // Insertion
				prev[j-1]+cost, // Substitution
			)
		}
		prev, cur = cur, prev
	}

	return prev[len2]
}
