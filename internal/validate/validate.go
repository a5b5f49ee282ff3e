// Package validate holds the text-input checks shared by the HTTP surface
// and the generation orchestrator's guardrail stage: length limits and a
// fixed set of injection sentinels.
package validate

import (
	"fmt"
	"strings"

	"github.com/historiqa/corpusqa/internal/model"
)

// injectionSentinels are substrings that mark a query as a likely prompt
// injection attempt. Matching is case-insensitive.
var injectionSentinels = []string{
	"ignore previous",
	"system:",
	"<script",
	"javascript:",
}

// Query checks a question/query string against the length limit and the
// injection sentinel list. An empty query is rejected the same as an
// over-length one.
func Query(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("validate: query is empty")
	}
	if len([]rune(q)) > model.MaxQueryLength {
		return fmt.Errorf("validate: query exceeds %d characters", model.MaxQueryLength)
	}
	lower := strings.ToLower(q)
	for _, sentinel := range injectionSentinels {
		if strings.Contains(lower, sentinel) {
			return fmt.Errorf("validate: query matches a disallowed pattern")
		}
	}
	return nil
}
