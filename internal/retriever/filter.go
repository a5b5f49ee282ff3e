package retriever

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/historiqa/corpusqa/internal/model"
)

// Capabilities declares which filter dimensions a retriever implementation
// supports and the accepted values for each, per spec §4.3.
type Capabilities struct {
	CorpusFiltering     bool
	CorpusOptions       []string
	DirectionFiltering  bool
	TimePeriodFiltering bool
}

// DirectionOptions are the only accepted values for a direction filter.
var DirectionOptions = []string{"sent", "received"}

// Filter is the resolved, post-construction predicate a search backend
// applies. Zero values mean "no constraint on this dimension".
type Filter struct {
	Corpus        string
	Direction     string // "sent" | "received"
	YearEquals    int
	YearFrom      int
	YearTo        int
	HasYearEquals bool
	HasYearRange  bool
}

// BuildFilter resolves a RetrievalRequest's filter fields against a
// retriever's declared capabilities. Any field the retriever doesn't
// support is silently ignored rather than treated as an error; an
// unsupported VALUE for a supported field (e.g. an unknown corpus tag) is
// an ErrInvalidInput.
func BuildFilter(req model.RetrievalRequest, caps Capabilities) (Filter, error) {
	var f Filter

	if caps.CorpusFiltering && req.CorpusFilter != "" && req.CorpusFilter != model.CorpusAll {
		if !model.ValidCorpus(req.CorpusFilter, caps.CorpusOptions) {
			return Filter{}, fmt.Errorf("%w: unknown corpus filter %q", ErrInvalidInput, req.CorpusFilter)
		}
		f.Corpus = req.CorpusFilter
	}

	if caps.DirectionFiltering && req.DirectionFilter != "" {
		if req.DirectionFilter != "sent" && req.DirectionFilter != "received" {
			return Filter{}, fmt.Errorf("%w: unknown direction filter %q", ErrInvalidInput, req.DirectionFilter)
		}
		f.Direction = req.DirectionFilter
	}

	if caps.TimePeriodFiltering && req.TimePeriodFilter != "" {
		yearEq, yearFrom, yearTo, isRange, err := parseTimePeriod(req.TimePeriodFilter)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		if isRange {
			f.HasYearRange = true
			f.YearFrom = yearFrom
			f.YearTo = yearTo
		} else {
			f.HasYearEquals = true
			f.YearEquals = yearEq
		}
	}

	return f, nil
}

// parseTimePeriod accepts "YYYY" or "YYYY-YYYY".
func parseTimePeriod(v string) (yearEq, yearFrom, yearTo int, isRange bool, err error) {
	parts := strings.SplitN(v, "-", 2)
	if len(parts) == 1 {
		y, perr := strconv.Atoi(strings.TrimSpace(parts[0]))
		if perr != nil {
			return 0, 0, 0, false, fmt.Errorf("malformed time_period %q", v)
		}
		return y, 0, 0, false, nil
	}
	from, ferr := strconv.Atoi(strings.TrimSpace(parts[0]))
	to, terr := strconv.Atoi(strings.TrimSpace(parts[1]))
	if ferr != nil || terr != nil || from > to {
		return 0, 0, 0, false, fmt.Errorf("malformed time_period %q", v)
	}
	return 0, from, to, true, nil
}

// Matches reports whether a document satisfies the filter. Search backends
// that can't push a predicate down to storage may use this for
// post-filtering (e.g. re-applying the metadata filter to unfiltered BM25
// results, per spec §4.3).
func (f Filter) Matches(doc model.Document) bool {
	if f.Corpus != "" && doc.MetaString(model.MetaCorpus) != f.Corpus {
		return false
	}
	if f.Direction != "" {
		switch f.Direction {
		case "sent":
			if doc.MetaString(model.MetaSenderName) == "" {
				return false
			}
		case "received":
			if doc.MetaString(model.MetaRecipient) == "" {
				return false
			}
		}
	}
	if f.HasYearEquals {
		if y, ok := docYear(doc); !ok || y != f.YearEquals {
			return false
		}
	}
	if f.HasYearRange {
		y, ok := docYear(doc)
		if !ok || y < f.YearFrom || y > f.YearTo {
			return false
		}
	}
	return true
}

func docYear(doc model.Document) (int, bool) {
	if v, ok := doc.Metadata[model.MetaYear]; ok {
		switch vv := v.(type) {
		case int:
			return vv, true
		case float64:
			return int(vv), true
		case string:
			if n, err := strconv.Atoi(vv); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
