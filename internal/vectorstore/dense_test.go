package vectorstore

import (
	"strings"
	"testing"

	"github.com/historiqa/corpusqa/internal/retriever"
)

func TestAppendFilterClauses_NoFilter(t *testing.T) {
	query := "SELECT 1"
	args := appendFilterClauses(&query, []any{"embedding-placeholder"}, retriever.Filter{})

	if len(args) != 1 {
		t.Fatalf("args = %v, want unchanged", args)
	}
	if query != "SELECT 1" {
		t.Fatalf("query = %q, want unchanged", query)
	}
}

func TestAppendFilterClauses_Corpus(t *testing.T) {
	query := ""
	args := appendFilterClauses(&query, []any{"embedding"}, retriever.Filter{Corpus: "darwin"})

	if !strings.Contains(query, "metadata->>'corpus' = $2") {
		t.Errorf("query = %q, want corpus predicate at $2", query)
	}
	if len(args) != 2 || args[1] != "darwin" {
		t.Errorf("args = %v, want [embedding, darwin]", args)
	}
}

func TestAppendFilterClauses_DirectionSent(t *testing.T) {
	query := ""
	appendFilterClauses(&query, []any{"embedding"}, retriever.Filter{Direction: "sent"})

	if !strings.Contains(query, "sender_name") {
		t.Errorf("query = %q, want sender_name predicate", query)
	}
}

func TestAppendFilterClauses_DirectionReceived(t *testing.T) {
	query := ""
	appendFilterClauses(&query, []any{"embedding"}, retriever.Filter{Direction: "received"})

	if !strings.Contains(query, "recipient_name") {
		t.Errorf("query = %q, want recipient_name predicate", query)
	}
}

func TestAppendFilterClauses_YearEquals(t *testing.T) {
	query := ""
	args := appendFilterClauses(&query, []any{"embedding"}, retriever.Filter{
		HasYearEquals: true,
		YearEquals:    1859,
	})

	if !strings.Contains(query, "(metadata->>'year')::int = $2") {
		t.Errorf("query = %q, want year-equals predicate at $2", query)
	}
	if len(args) != 2 || args[1] != 1859 {
		t.Errorf("args = %v, want [embedding, 1859]", args)
	}
}

func TestAppendFilterClauses_YearRange(t *testing.T) {
	query := ""
	args := appendFilterClauses(&query, []any{"embedding"}, retriever.Filter{
		HasYearRange: true,
		YearFrom:     1850,
		YearTo:       1860,
	})

	if !strings.Contains(query, "BETWEEN $2 AND $3") {
		t.Errorf("query = %q, want year-range predicate between $2 and $3", query)
	}
	if len(args) != 3 || args[1] != 1850 || args[2] != 1860 {
		t.Errorf("args = %v, want [embedding, 1850, 1860]", args)
	}
}

func TestAppendFilterClauses_CorpusAndYearCombine(t *testing.T) {
	query := ""
	args := appendFilterClauses(&query, []any{"embedding"}, retriever.Filter{
		Corpus:        "hansard",
		HasYearEquals: true,
		YearEquals:    1901,
	})

	if !strings.Contains(query, "$2") || !strings.Contains(query, "$3") {
		t.Errorf("query = %q, want both predicates with sequential placeholders", query)
	}
	if len(args) != 3 {
		t.Fatalf("args = %v, want 3 entries", args)
	}
}

func TestPlaceholder(t *testing.T) {
	if got := placeholder(4); got != "$4" {
		t.Errorf("placeholder(4) = %q, want $4", got)
	}
}
