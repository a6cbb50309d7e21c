package pagination

// DefaultPerPage is applied when a caller omits or zeroes the page size.
const DefaultPerPage = 20

// MaxPerPage caps the page size to bound result-set cost.
const MaxPerPage = 100

// Params carries page-number pagination inputs.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps the parameters into their allowed ranges.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Meta is the pagination envelope returned alongside query results.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewMeta derives the response envelope from normalized params and a total
// row count.
func NewMeta(p Params, totalCount int64) Meta {
	totalPages := int(totalCount / int64(p.PerPage))
	if totalCount%int64(p.PerPage) != 0 {
		totalPages++
	}
	return Meta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
