package model

// PagedResultPagingMetadata describes the window of a search result.
type PagedResultPagingMetadata struct {
	Offset int   `json:"offset"`
	Size   *int  `json:"size,omitempty"`
	Total  int64 `json:"total"`
}
