package rerank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/historiqa/corpusqa/internal/model"
)

const darwinLetterIDPrefix = "DCP-LETT-"

// AggregateCitations groups ranked documents by parent ID (a letter or a
// Hansard entry) and emits one Citation per parent, preserving the
// first-seen order of parents so a citation's rank reflects the best
// rank any of its chunks achieved. If any document is missing a parent
// ID, aggregation is abandoned and an empty slice is returned: a partial
// citation list would be misleading about coverage.
func AggregateCitations(docs []model.RankedDocument, limit int) []model.Citation {
	if len(docs) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = model.DefaultCitationLimit
	}

	groups := make(map[string][]model.RankedDocument)
	var order []string
	for _, d := range docs {
		parentID := d.ParentID
		if parentID == "" {
			return nil
		}
		if _, ok := groups[parentID]; !ok {
			order = append(order, parentID)
		}
		groups[parentID] = append(groups[parentID], d)
	}

	if len(order) > limit {
		order = order[:limit]
	}

	citations := make([]model.Citation, 0, len(order))
	for _, parentID := range order {
		citations = append(citations, buildCitation(parentID, groups[parentID]))
	}
	return citations
}

func buildCitation(parentID string, group []model.RankedDocument) model.Citation {
	rep := group[0].Document

	chunkSet := map[int]struct{}{}
	totalChunks := 1
	for _, d := range group {
		chunkSet[d.ChunkIndex] = struct{}{}
		if tc := metaInt(d.Metadata, model.MetaTotalChunks); tc > totalChunks {
			totalChunks = tc
		}
	}
	chunkIndices := make([]int, 0, len(chunkSet))
	for idx := range chunkSet {
		chunkIndices = append(chunkIndices, idx)
	}
	sort.Ints(chunkIndices)

	var related []string
	for _, d := range group[1:] {
		if len(related) >= model.MaxRelatedSnippets {
			break
		}
		related = append(related, preview(d.Text))
	}

	title := rep.MetaString(model.MetaTitle)
	if title == "" {
		title = fmt.Sprintf("Letter from %s to %s (%s)",
			orUnknown(rep.MetaString(model.MetaSenderName)),
			orUnknown(rep.MetaString(model.MetaRecipient)),
			rep.MetaString(model.MetaDateSent))
	}

	letterID := rep.MetaString(model.MetaLetterID)
	if letterID == "" {
		letterID = rep.MetaString(model.MetaID)
	}
	if letterID == "" {
		letterID = parentID
	}

	canonicalURL := ""
	recommendedCitation := ""
	if strings.HasPrefix(letterID, darwinLetterIDPrefix) {
		canonicalURL = fmt.Sprintf("https://www.darwinproject.ac.uk/letter/?docId=letters/%s.xml", letterID)
		letterNo := strings.TrimPrefix(letterID, darwinLetterIDPrefix)
		recommendedCitation = fmt.Sprintf("Darwin Correspondence Project, \"Letter no. %s,\" %s", letterNo, canonicalURL)
	}

	url := canonicalURL
	if url == "" {
		url = rep.MetaString(model.MetaURL)
	}

	return model.Citation{
		ParentID:             parentID,
		Title:                title,
		URL:                  url,
		Date:                 rep.MetaString(model.MetaDateSent),
		Preview:              preview(rep.Text),
		ChunkIndices:         chunkIndices,
		TotalChunks:          totalChunks,
		RepresentativeText:   rep.Text,
		Entities:             entityBadges(rep),
		RecommendedCitation:  recommendedCitation,
		RelatedSnippets:      related,
	}
}

func entityBadges(doc model.Document) map[string][]string {
	return map[string][]string{
		"persons": doc.MetaStringSlice(model.MetaTEIPersons),
		"places":  doc.MetaStringSlice(model.MetaTEIPlaces),
		"orgs":    doc.MetaStringSlice(model.MetaTEIOrgs),
		"taxa":    doc.MetaStringSlice(model.MetaTEITaxa),
	}
}

func preview(text string) string {
	if len(text) <= model.MaxPreviewChars {
		return text
	}
	return text[:model.MaxPreviewChars] + "..."
}

func metaInt(meta map[string]any, key string) int {
	v, ok := meta[key]
	if !ok {
		return 0
	}
	switch vv := v.(type) {
	case int:
		return vv
	case float64:
		return int(vv)
	}
	return 0
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
