package orchestrator

import (
	"strings"
	"testing"

	"github.com/historiqa/corpusqa/internal/model"
)

func TestBuildContextBlock_IncludesOnlyStableFields(t *testing.T) {
	doc := model.RankedDocument{Document: model.Document{
		Text: "Orchids fascinate me.",
		Metadata: map[string]any{
			model.MetaTitle:      "Letter to Hooker",
			model.MetaCorpus:     "all",
			model.MetaTEIPersons: []string{"J.D. Hooker"},
		},
	}}

	block := buildContextBlock([]model.RankedDocument{doc})
	if !strings.Contains(block, "Document 1 [") {
		t.Errorf("missing document header: %s", block)
	}
	if !strings.Contains(block, "title=Letter to Hooker") {
		t.Errorf("missing title field: %s", block)
	}
	if strings.Contains(block, "tei_persons") {
		t.Errorf("unstable field leaked into context block: %s", block)
	}
}

func TestRenderHistory_FormatsTurns(t *testing.T) {
	history := []ChatTurn{
		{User: "Who did Darwin write to?", Assistant: "Joseph Hooker, among others."},
	}
	rendered := renderHistory(history)
	want := "User: Who did Darwin write to?\nAssistant: Joseph Hooker, among others.\n"
	if rendered != want {
		t.Errorf("renderHistory = %q, want %q", rendered, want)
	}
}

func TestBuildUserPrompt_EndsWithAnswerCue(t *testing.T) {
	prompt := buildUserPrompt(nil, "What about barnacles?")
	if !strings.HasSuffix(prompt, "What about barnacles?\nAnswer:") {
		t.Errorf("buildUserPrompt = %q", prompt)
	}
}

func TestReplacePlaceholder(t *testing.T) {
	out := replacePlaceholder("The answer is {answer}.")
	if strings.Contains(out, "{answer}") {
		t.Errorf("placeholder not replaced: %q", out)
	}
}
