package models

// SearchResult is one hit of the text search endpoint.
type SearchResult struct {
	ID      int64   `json:"id"`
	Title   string  `json:"title"`
	Theme   *string `json:"theme,omitempty"`
	DocType *string `json:"doc_type,omitempty"`
	Status  string  `json:"status"`
	Snippet string  `json:"snippet"`
}

// SearchResponse is the search payload.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
