package model

// CorpusAll is the tag that selects every corpus the retriever serves.
const CorpusAll = "all"

// HansardCorpora are the corpus tags a Hansard-backed retriever declares.
// Darwin retrievers serve a single untagged corpus and ignore this list.
var HansardCorpora = []string{"1901_au", "1901_nz", "1901_uk"}

// ValidCorpus reports whether tag is CorpusAll or one of options.
func ValidCorpus(tag string, options []string) bool {
	if tag == CorpusAll {
		return true
	}
	for _, o := range options {
		if o == tag {
			return true
		}
	}
	return false
}
