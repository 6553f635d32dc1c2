package usecase

import (
	"fmt"
	"strings"
)

// Similarity computes a case-insensitive closeness ratio in [0,1] between two strings
type Similarity interface {
	Ratio(a, b string) float64
}

// SimilarityFunc adapts a plain function to the Similarity interface
type SimilarityFunc func(a, b string) float64

// Ratio calls f(a, b)
func (f SimilarityFunc) Ratio(a, b string) float64 {
	return f(a, b)
}

// Supported similarity algorithm names
const (
	SimilarityIndel       = "indel"
	SimilarityLevenshtein = "levenshtein"
)

var (
	// IndelRatio is 2*LCS/(|a|+|b|), the insert/delete-only edit ratio
	IndelRatio Similarity = SimilarityFunc(indelRatio)

	// LevenshteinRatio is 1 - distance/max(|a|,|b|)
	LevenshteinRatio Similarity = SimilarityFunc(levenshteinRatio)
)

// NewSimilarity returns the similarity algorithm registered under name.
// An empty name selects the indel ratio.
func NewSimilarity(name string) (Similarity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SimilarityIndel:
		return IndelRatio, nil
	case SimilarityLevenshtein:
		return LevenshteinRatio, nil
	default:
		return nil, fmt.Errorf("unknown similarity algorithm %q", name)
	}
}

func indelRatio(a, b string) float64 {
	r1 := []rune(strings.ToLower(a))
	r2 := []rune(strings.ToLower(b))
	total := len(r1) + len(r2)
	if total == 0 {
		return 1.0
	}
	return 2 * float64(longestCommonSubsequence(r1, r2)) / float64(total)
}

func levenshteinRatio(a, b string) float64 {
	r1 := []rune(strings.ToLower(a))
	r2 := []rune(strings.ToLower(b))
	longest := max(len(r1), len(r2))
	if longest == 0 {
		return 1.0
	}
	return 1 - float64(levenshteinDistance(r1, r2))/float64(longest)
}

// longestCommonSubsequence returns the LCS length using two rolling rows
func longestCommonSubsequence(r1, r2 []rune) int {
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for i := 1; i <= len(r1); i++ {
		for j := 1; j <= len(r2); j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// levenshteinDistance calculates the edit distance between two rune slices
func levenshteinDistance(r1, r2 []rune) int {
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
