package httpapi

import (
	"net/http"

	"github.com/historiqa/corpusqa/internal/retriever"
)

// filterDim describes one filter dimension's support and accepted values.
type filterDim struct {
	Supported bool     `json:"supported"`
	Options   []string `json:"options,omitempty"`
}

type filtersResponse struct {
	Corpus     filterDim `json:"corpus"`
	Direction  filterDim `json:"direction"`
	TimePeriod filterDim `json:"time_period"`
}

func (d *Dependencies) filtersHandler(w http.ResponseWriter, r *http.Request) {
	caps := d.Retriever.Capabilities

	resp := filtersResponse{
		Corpus:     filterDim{Supported: caps.CorpusFiltering, Options: caps.CorpusOptions},
		TimePeriod: filterDim{Supported: caps.TimePeriodFiltering},
	}
	if caps.DirectionFiltering {
		resp.Direction = filterDim{Supported: true, Options: retriever.DirectionOptions}
	}

	writeJSON(w, http.StatusOK, resp)
}
