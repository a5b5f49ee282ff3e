package orchestrator

import (
	"fmt"
	"strings"

	"github.com/historiqa/corpusqa/internal/model"
)

// ChatTurn is one prior question/answer pair supplied by the client as
// conversational context.
type ChatTurn struct {
	User      string
	Assistant string
}

// stableMetaFields are the only metadata fields interpolated into the
// context block; everything else about a document (TEI entities, chunk
// index, ids) stays out of the prompt to keep it stable across otherwise
// equivalent documents and friendly to provider-side prompt caching.
var stableMetaFields = []string{model.MetaDate, model.MetaTitle, model.MetaSourceFile, model.MetaCorpus, model.MetaPage}

// buildContextBlock renders the ranked documents as the numbered context
// block the system prompt references, each preceded by its stable metadata.
func buildContextBlock(docs []model.RankedDocument) string {
	var sb strings.Builder
	for i, d := range docs {
		sb.WriteString(fmt.Sprintf("Document %d [%s]:\n%s\n", i+1, stableMetaSummary(d.Document), d.Text))
	}
	return sb.String()
}

func stableMetaSummary(d model.Document) string {
	parts := make([]string, 0, len(stableMetaFields))
	for _, field := range stableMetaFields {
		if v := d.MetaString(field); v != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", field, v))
		}
	}
	return strings.Join(parts, ", ")
}

// renderHistory renders prior turns as "User: x\nAssistant: y\n…\n".
func renderHistory(history []ChatTurn) string {
	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString("User: ")
		sb.WriteString(turn.User)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(turn.Assistant)
		sb.WriteString("\n")
	}
	return sb.String()
}

// buildUserPrompt appends rendered chat history, the current question, and
// the trailing "Answer:" cue after the cached system+context portion.
func buildUserPrompt(history []ChatTurn, question string) string {
	var sb strings.Builder
	sb.WriteString(renderHistory(history))
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

// answerPlaceholder is literal text the model occasionally echoes back
// uninstantiated; it is replaced with answerFallback wherever it appears in
// streamed output.
const answerPlaceholder = "{answer}"

const answerFallback = "I don't have enough information in the retrieved sources to answer that."

func replacePlaceholder(chunk string) string {
	return strings.ReplaceAll(chunk, answerPlaceholder, answerFallback)
}
