// Package rerank implements the lexical relevance reranker (exact phrase,
// keyword frequency, and proximity scoring) and the parent-level citation
// aggregator that collapses chunk-level documents into one citation per
// source.
package rerank

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/historiqa/corpusqa/internal/model"
)

const (
	weightExactMatch  = 0.5
	weightKeywordFreq = 0.3
	weightProximity   = 0.2

	exactMatchScore    = 10.0
	maxKeywordScore    = 5.0
	proximityWindow    = 50
	metadataMatchBonus = 0.5
	maxScore           = 10.0
	minTermLength      = 3
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "with": true,
	"by": true, "about": true, "as": true, "is": true, "are": true, "was": true,
	"were": true, "has": true, "have": true, "had": true, "be": true,
	"been": true, "being": true, "of": true, "from": true, "it": true,
}

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// metadataFieldsConsidered is the fixed set of metadata fields that can earn
// the metadata match bonus. Keyword hits in any other metadata field add
// nothing to the score.
var metadataFieldsConsidered = []string{
	model.MetaTitle, model.MetaCorpus, model.MetaSourceFile,
	model.MetaSenderName, model.MetaRecipient,
}

// keywords extracts the query terms eligible for scoring: stop words and
// terms shorter than minTermLength are dropped.
func keywords(query string) []string {
	matches := wordPattern.FindAllString(strings.ToLower(query), -1)
	out := make([]string, 0, len(matches))
	for _, w := range matches {
		if stopWords[w] || len(w) < minTermLength {
			continue
		}
		out = append(out, w)
	}
	return out
}

func keywordPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
}

func proximityPattern(kw1, kw2 string) *regexp.Regexp {
	window := strconv.Itoa(proximityWindow)
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(kw1) + `(.{0,` + window + `})` + regexp.QuoteMeta(kw2) + `\b`)
}

// relevanceScore computes the lexical relevance of one document against a
// query: exact phrase match, keyword frequency, and keyword proximity,
// weighted and combined, plus a bonus for keyword hits in a fixed set of
// stable metadata fields, capped at maxScore.
func relevanceScore(doc model.Document, query string, terms []string) float64 {
	content := strings.ToLower(doc.Text)
	queryLower := strings.ToLower(query)

	phraseScore := 0.0
	if strings.Contains(content, queryLower) {
		phraseScore = exactMatchScore
	}

	keywordScore := 0.0
	for _, kw := range terms {
		count := len(keywordPattern(kw).FindAllString(content, -1))
		score := float64(count)
		if score > maxKeywordScore {
			score = maxKeywordScore
		}
		keywordScore += score
	}

	proximityScore := 0.0
	if len(terms) > 1 {
		for i, kw1 := range terms[:len(terms)-1] {
			for _, kw2 := range terms[i+1:] {
				if proximityPattern(kw1, kw2).MatchString(content) {
					proximityScore += 1.0
				}
				if proximityPattern(kw2, kw1).MatchString(content) {
					proximityScore += 1.0
				}
			}
		}
	}

	total := phraseScore*weightExactMatch + keywordScore*weightKeywordFreq + proximityScore*weightProximity

	for _, field := range metadataFieldsConsidered {
		value := strings.ToLower(doc.MetaString(field))
		if value == "" {
			continue
		}
		for _, kw := range terms {
			if strings.Contains(value, kw) {
				total += metadataMatchBonus
				break
			}
		}
	}

	if total > maxScore {
		total = maxScore
	}
	return total
}
