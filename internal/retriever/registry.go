package retriever

import "fmt"

// Deps bundles the shared, already-constructed dependencies a registered
// retriever constructor wires into a Retriever value.
type Deps struct {
	Embedder Embedder
	Dense    DenseSearcher
	Lexical  LexicalSearcher // nil if no BM25 sidecar is available
	Reranker Reranker
}

type constructor func(Deps) *Retriever

// registry maps the RETRIEVER_MODULE configuration string to a
// constructor. Adding a corpus means adding one entry here, not
// subclassing a base retriever type.
var registry = map[string]constructor{
	"darwin":   newDarwinRetriever,
	"hansard":  newHansardRetriever,
	"combined": newCombinedRetriever,
}

// New builds the Retriever registered under module, or an error if the
// name is unrecognized.
func New(module string, deps Deps) (*Retriever, error) {
	ctor, ok := registry[module]
	if !ok {
		return nil, fmt.Errorf("retriever: unknown RETRIEVER_MODULE %q", module)
	}
	return ctor(deps), nil
}

func newDarwinRetriever(deps Deps) *Retriever {
	return &Retriever{
		Name: "darwin",
		Capabilities: Capabilities{
			DirectionFiltering:  true,
			TimePeriodFiltering: true,
		},
		embedder: deps.Embedder,
		dense:    deps.Dense,
		lexical:  deps.Lexical,
		reranker: deps.Reranker,
	}
}

func newHansardRetriever(deps Deps) *Retriever {
	return &Retriever{
		Name: "hansard",
		Capabilities: Capabilities{
			CorpusFiltering:     true,
			CorpusOptions:       []string{"1901_au", "1901_nz", "1901_uk"},
			TimePeriodFiltering: true,
		},
		embedder: deps.Embedder,
		dense:    deps.Dense,
		lexical:  deps.Lexical,
		reranker: deps.Reranker,
	}
}

// newCombinedRetriever serves queries that span both corpora. It
// supports corpus filtering over the Hansard jurisdictions plus the
// literal tag "darwin", and direction filtering for the Darwin side.
func newCombinedRetriever(deps Deps) *Retriever {
	return &Retriever{
		Name: "combined",
		Capabilities: Capabilities{
			CorpusFiltering:     true,
			CorpusOptions:       []string{"darwin", "1901_au", "1901_nz", "1901_uk"},
			DirectionFiltering:  true,
			TimePeriodFiltering: true,
		},
		embedder: deps.Embedder,
		dense:    deps.Dense,
		lexical:  deps.Lexical,
		reranker: deps.Reranker,
	}
}
