package models

// NewsRequest is the query of GET /api/news.
type NewsRequest struct {
	Symbols string `query:"symbols" validate:"max=512"`
}

// SearchRequest is the query of GET /api/stocks/search.
type SearchRequest struct {
	Query string `query:"q" validate:"max=64"`
}

// QuotesRequest is the query of GET /api/stocks/quotes.
type QuotesRequest struct {
	Symbols string `query:"symbols" validate:"required,max=1024"`
}
