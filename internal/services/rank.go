package services

import (
	"strings"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/sahilm/fuzzy"
)

type candidateSource []models.Candidate

func (c candidateSource) String(i int) string { return strings.ToLower(c[i].Title) }
func (c candidateSource) Len() int            { return len(c) }

// RankCandidates orders candidates by fuzzy match score against query. Titles
// that do not match at all keep their original order after the matches.
func RankCandidates(query string, candidates []models.Candidate) []models.Candidate {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(candidates) < 2 {
		return candidates
	}

	matches := fuzzy.FindFrom(query, candidateSource(candidates))
	ranked := make([]models.Candidate, 0, len(candidates))
	seen := make([]bool, len(candidates))
	for _, m := range matches {
		ranked = append(ranked, candidates[m.Index])
		seen[m.Index] = true
	}
	for i, c := range candidates {
		if !seen[i] {
			ranked = append(ranked, c)
		}
	}
	return ranked
}
