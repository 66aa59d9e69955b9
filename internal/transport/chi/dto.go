package chi

import (
	dombatch "github.com/kailas-cloud/lookbook/internal/domain/batch"
)

type searchParams struct {
	K       int               `json:"k"`
	Sort    string            `json:"sort"`
	Filters map[string]string `json:"filters"`
}

type searchBody struct {
	Query string `json:"query"`
	searchParams
}

type tagSearchBody struct {
	Tags []string `json:"tags"`
	searchParams
}

type hitView struct {
	Rank       int               `json:"rank"`
	ID         string            `json:"id"`
	Tags       string            `json:"tags"`
	Metadata   map[string]string `json:"metadata"`
	Distance   float64           `json:"distance"`
	Confidence float64           `json:"confidence"`
}

type searchResponse struct {
	Query string    `json:"query"`
	Sort  string    `json:"sort"`
	Total int       `json:"total"`
	Items []hitView `json:"items"`
}

type uploadResult struct {
	File   string `json:"file"`
	ID     string `json:"id,omitempty"`
	Tags   string `json:"tags,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type uploadResponse struct {
	Items     []uploadResult `json:"items"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

type itemView struct {
	ID       string            `json:"id"`
	Tags     string            `json:"tags"`
	Metadata map[string]string `json:"metadata"`
}

type previewResponse struct {
	Total int        `json:"total"`
	Items []itemView `json:"items"`
}

type suggestionsResponse struct {
	Tags   []string `json:"tags"`
	Recent []string `json:"recent"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

type sessionResponse struct {
	ID        string   `json:"id"`
	Recent    []string `json:"recent"`
	LastQuery string   `json:"last_query,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func uploadResultFromDomain(r dombatch.Result) uploadResult {
	out := uploadResult{
		File:   r.File(),
		ID:     r.ID(),
		Tags:   r.Tags(),
		Status: string(r.Status()),
	}
	if r.Err() != nil {
		out.Error = safeDomainMessage(r.Err())
	}
	return out
}
