package services

const (
	DefaultBooksPerPage   = 10
	DefaultReviewsPerPage = 5
)

// normalizePage replaces a page number or limit below 1 with 1 or
// defaultLimit respectively.
func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

func offset(page, limit int) int {
	return (page - 1) * limit
}

// totalPages is ceil(total/limit).
func totalPages(total, limit int) int {
	return (total + limit - 1) / limit
}
