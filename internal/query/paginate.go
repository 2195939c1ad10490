package query

// PageSize is the number of rows per page.
const PageSize = 50

// Page is one window over a filtered row set.
type Page struct {
	Number     int `json:"page"`
	TotalPages int `json:"totalPages"`
	Start      int `json:"start"`
	End        int `json:"end"`
}

// Paginate clamps requested into [1, totalPages] and returns the half-open
// [Start, End) range for a set of n rows. totalPages is at least 1.
func Paginate(n, requested int) Page {
	total := (n + PageSize - 1) / PageSize
	if total < 1 {
		total = 1
	}
	page := requested
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > n {
		end = n
	}
	return Page{Number: page, TotalPages: total, Start: start, End: end}
}
