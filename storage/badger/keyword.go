package badger

import (
	"context"
	"strings"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
)

// MatchPhrases returns the IDs of tenders containing any of phrases as a
// contiguous, case-insensitive word sequence in one of the searchable fields.
func (s *Store) MatchPhrases(ctx context.Context, phrases []string) (map[string]struct{}, error) {
	matches := make(map[string]struct{})

	queries := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		if words := tokenize(p); len(words) > 0 {
			queries = append(queries, words)
		}
	}
	if len(queries) == 0 {
		return matches, nil
	}
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	err := s.backend.scanPrefix([]byte(tenderPrefix), false, func(_, val []byte) error {
		tender, err := storage.Unmarshal[core.Tender](val)
		if err != nil {
			return err
		}
		if tenderMatches(tender, queries) {
			matches[tender.ID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func tenderMatches(tender *core.Tender, queries [][]string) bool {
	for _, field := range tender.SearchableFields() {
		words := tokenize(field)
		for _, q := range queries {
			if containsPhrase(words, q) {
				return true
			}
		}
	}
	return false
}

// tokenize splits text into words, lowercases, and trims punctuation.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		cleaned := strings.ToLower(strings.Trim(f, ".,!?;:'\"-()[]{}/"))
		if cleaned != "" {
			words = append(words, cleaned)
		}
	}
	return words
}

// containsPhrase reports whether phrase occurs as a contiguous run in words.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(words); i++ {
		for j, p := range phrase {
			if words[i+j] != p {
				continue outer
			}
		}
		return true
	}
	return false
}
