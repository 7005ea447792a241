// Package pagination provides offset-based pagination support for list
// endpoints.
package pagination

const (
	// DefaultLimit is the default number of items per page.
	DefaultLimit = 20
	// MaxLimit is the maximum allowed items per page.
	MaxLimit = 100
	// MinLimit is the minimum allowed items per page.
	MinLimit = 1
)

// PageRequest holds the page and size a list request asked for.
type PageRequest struct {
	Page  int // 1-indexed
	Limit int // Items per page
}

// PageResponse is one page of items plus paging metadata.
type PageResponse[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageInfo `json:"pagination"`
}

// PageInfo is the paging metadata attached to a PageResponse.
type PageInfo struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// DefaultPageRequest returns the first page at the default size.
func DefaultPageRequest() PageRequest {
	return PageRequest{
		Page:  1,
		Limit: DefaultLimit,
	}
}

// Validate clamps the request into the allowed range.
func (pr *PageRequest) Validate() {
	if pr.Limit < MinLimit {
		pr.Limit = DefaultLimit
	}
	if pr.Limit > MaxLimit {
		pr.Limit = MaxLimit
	}
	if pr.Page < 1 {
		pr.Page = 1
	}
}

// GetOffset converts the page number into a row offset.
func (pr *PageRequest) GetOffset() int {
	return (pr.Page - 1) * pr.Limit
}

// NewPageResponse builds a PageResponse for one page of items. hasNext should
// be true when the underlying query saw more rows than the requested limit.
func NewPageResponse[T any](items []T, req PageRequest, hasNext bool) *PageResponse[T] {
	return &PageResponse[T]{
		Data: items,
		Pagination: PageInfo{
			Page:        req.Page,
			Limit:       req.Limit,
			HasNext:     hasNext,
			HasPrevious: req.Page > 1,
		},
	}
}
