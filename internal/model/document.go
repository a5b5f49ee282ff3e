// Package model holds the data types shared across the retrieval, reranking,
// generation, and transport layers.
package model

// Document is an immutable post-ingestion record: a single chunk of a parent
// source (a Hansard entry or a Darwin letter) together with its metadata.
//
// Identity is (ParentID, ChunkIndex). For Darwin letters ParentID is the
// letter_id; for Hansard entries ParentID is the entry id.
type Document struct {
	ID         string         `json:"id"`
	ParentID   string         `json:"parentId"`
	ChunkIndex int            `json:"chunkIndex"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata"`
}

// Metadata keys in common use across both corpora.
const (
	MetaCorpus       = "corpus"
	MetaDate         = "date"
	MetaYear         = "year"
	MetaSourceFile   = "source_file"
	MetaChunkIndex   = "chunk_index"
	MetaTotalChunks  = "total_chunks"
	MetaLetterID     = "letter_id"
	MetaID           = "id"
	MetaSenderName   = "sender_name"
	MetaRecipient    = "recipient_name"
	MetaSenderPlace  = "sender_place"
	MetaDateSent     = "date_sent"
	MetaTitle        = "title"
	MetaURL          = "url"
	MetaPage         = "page"
	MetaTEIPersons   = "tei_persons"
	MetaTEIPlaces    = "tei_places"
	MetaTEIOrgs      = "tei_orgs"
	MetaTEITaxa      = "tei_taxa"
	MetaTEIBibl      = "tei_bibl"
)

// MetaString returns d.Metadata[key] as a string, or "" if absent or not a string.
func (d Document) MetaString(key string) string {
	v, ok := d.Metadata[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// MetaStringSlice returns d.Metadata[key] as a []string, accepting both
// []string and []any (the shape produced by decoding JSON metadata).
func (d Document) MetaStringSlice(key string) []string {
	v, ok := d.Metadata[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
