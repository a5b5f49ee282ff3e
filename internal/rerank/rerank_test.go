package rerank

import (
	"context"
	"testing"

	"github.com/historiqa/corpusqa/internal/model"
)

func rankedDoc(id, parentID string, chunkIndex int, text string) model.RankedDocument {
	return model.RankedDocument{Document: model.Document{
		ID: id, ParentID: parentID, ChunkIndex: chunkIndex, Text: text,
	}}
}

func TestRerank_ExactPhraseOutscoresUnrelated(t *testing.T) {
	r := New(10)
	docs := []model.RankedDocument{
		rankedDoc("a", "a", 0, "this document discusses natural selection at length"),
		rankedDoc("b", "b", 0, "a letter about the weather in Kent"),
	}

	got, err := r.Rerank(context.Background(), "natural selection", docs)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if got[0].ID != "a" {
		t.Fatalf("expected exact-phrase doc ranked first, got order %v", []string{got[0].ID, got[1].ID})
	}
	if got[0].RerankScore <= got[1].RerankScore {
		t.Errorf("expected a's score > b's score, got %v vs %v", got[0].RerankScore, got[1].RerankScore)
	}
}

func TestRerank_EmptyQueryPreservesOrder(t *testing.T) {
	r := New(10)
	docs := []model.RankedDocument{rankedDoc("a", "a", 0, "x"), rankedDoc("b", "b", 0, "y")}

	got, err := r.Rerank(context.Background(), "  ", docs)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("expected original order preserved, got %v", []string{got[0].ID, got[1].ID})
	}
}

func TestRerank_TruncatesToMaxDocs(t *testing.T) {
	r := New(1)
	docs := []model.RankedDocument{rankedDoc("a", "a", 0, "x"), rankedDoc("b", "b", 0, "y")}

	got, err := r.Rerank(context.Background(), "x", docs)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(got))
	}
}

func TestAggregateCitations_GroupsByParent(t *testing.T) {
	docs := []model.RankedDocument{
		rankedDoc("l1-0", "l1", 0, "first chunk of letter one"),
		rankedDoc("l2-0", "l2", 0, "first chunk of letter two"),
		rankedDoc("l1-1", "l1", 1, "second chunk of letter one"),
	}

	got := AggregateCitations(docs, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 citations (one per parent), got %d", len(got))
	}
	if got[0].ParentID != "l1" {
		t.Errorf("expected first-seen parent l1 first, got %q", got[0].ParentID)
	}
	if len(got[0].ChunkIndices) != 2 {
		t.Errorf("expected l1 to aggregate 2 chunk indices, got %v", got[0].ChunkIndices)
	}
}

func TestAggregateCitations_MissingParentKeyReturnsEmpty(t *testing.T) {
	docs := []model.RankedDocument{
		rankedDoc("l1-0", "l1", 0, "text"),
		rankedDoc("l2-0", "", 0, "text"),
	}

	got := AggregateCitations(docs, 10)
	if got != nil {
		t.Errorf("expected nil when a document lacks a parent id, got %v", got)
	}
}

func TestAggregateCitations_DarwinCanonicalURL(t *testing.T) {
	doc := model.RankedDocument{Document: model.Document{
		ID: "x", ParentID: "DCP-LETT-1234", ChunkIndex: 0, Text: "text",
		Metadata: map[string]any{model.MetaLetterID: "DCP-LETT-1234"},
	}}

	got := AggregateCitations([]model.RankedDocument{doc}, 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(got))
	}
	wantURL := "https://www.darwinproject.ac.uk/letter/?docId=letters/DCP-LETT-1234.xml"
	if got[0].URL != wantURL {
		t.Errorf("URL = %q, want %q", got[0].URL, wantURL)
	}
	wantCitation := `Darwin Correspondence Project, "Letter no. 1234," ` + wantURL
	if got[0].RecommendedCitation != wantCitation {
		t.Errorf("RecommendedCitation = %q, want %q", got[0].RecommendedCitation, wantCitation)
	}
}
