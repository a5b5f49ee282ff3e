package retriever

import (
	"errors"
	"testing"

	"github.com/historiqa/corpusqa/internal/model"
)

func TestBuildFilter_UnsupportedDimensionIgnored(t *testing.T) {
	caps := Capabilities{} // no dimension supported
	req := model.RetrievalRequest{
		Query:            "q",
		CorpusFilter:     "1901_au",
		DirectionFilter:  "sent",
		TimePeriodFilter: "1880-1882",
	}

	f, err := BuildFilter(req, caps)
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if f.Corpus != "" || f.Direction != "" || f.HasYearRange {
		t.Errorf("expected all dimensions ignored, got %+v", f)
	}
}

func TestBuildFilter_UnknownCorpusIsInvalidInput(t *testing.T) {
	caps := Capabilities{CorpusFiltering: true, CorpusOptions: []string{"1901_au"}}
	req := model.RetrievalRequest{Query: "q", CorpusFilter: "1999_xx"}

	_, err := BuildFilter(req, caps)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildFilter_YearEquals(t *testing.T) {
	caps := Capabilities{TimePeriodFiltering: true}
	req := model.RetrievalRequest{Query: "q", TimePeriodFilter: "1881"}

	f, err := BuildFilter(req, caps)
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if !f.HasYearEquals || f.YearEquals != 1881 {
		t.Errorf("expected YearEquals=1881, got %+v", f)
	}
}

func TestBuildFilter_YearRange(t *testing.T) {
	caps := Capabilities{TimePeriodFiltering: true}
	req := model.RetrievalRequest{Query: "q", TimePeriodFilter: "1880-1882"}

	f, err := BuildFilter(req, caps)
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if !f.HasYearRange || f.YearFrom != 1880 || f.YearTo != 1882 {
		t.Errorf("expected range 1880-1882, got %+v", f)
	}
}

func TestFilter_Matches(t *testing.T) {
	f := Filter{Corpus: "1901_au", HasYearEquals: true, YearEquals: 1901}
	match := model.Document{Metadata: map[string]any{model.MetaCorpus: "1901_au", model.MetaYear: 1901}}
	mismatch := model.Document{Metadata: map[string]any{model.MetaCorpus: "1901_nz", model.MetaYear: 1901}}

	if !f.Matches(match) {
		t.Error("expected match to satisfy filter")
	}
	if f.Matches(mismatch) {
		t.Error("expected mismatch to fail filter")
	}
}
