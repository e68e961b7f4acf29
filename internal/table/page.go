package table

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is one slice of a list plus the numbers a pager needs.
type Page[T any] struct {
	Items      []T       `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
	Sort       SortState `json:"sort"`
}

// Paginate returns page (1-based) of items. Out of range pages are empty;
// non-positive values fall back to the first page and DefaultLimit.
func Paginate[T any](items []T, page, limit int) Page[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	total := len(items)
	p := Page[T]{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
	// Compare page numbers before multiplying so huge pages cannot overflow.
	if page-1 >= p.TotalPages {
		p.Items = []T{}
		return p
	}
	start := (page - 1) * limit
	end := start + limit
	if end > total {
		end = total
	}
	p.Items = append([]T(nil), items[start:end]...)
	return p
}
