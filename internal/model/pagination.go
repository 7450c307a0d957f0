package model

// Pagination is the cursor block returned by every list endpoint.
type Pagination struct {
	Page    int            `json:"page"`
	Pages   int            `json:"pages"`
	PerPage int            `json:"per_page"`
	Items   int            `json:"items"`
	URLs    PaginationURLs `json:"urls"`
}

// PaginationURLs holds the neighbouring page links. Next is empty on the last page.
type PaginationURLs struct {
	Last string `json:"last,omitempty"`
	Next string `json:"next,omitempty"`
}

// HasNext reports whether another page follows.
func (p Pagination) HasNext() bool {
	return p.URLs.Next != ""
}
