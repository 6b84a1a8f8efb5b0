package models

// RawArticle is a news record as the provider sends it. ID and Datetime are
// left untyped; the provider is not consistent about their JSON types.
type RawArticle struct {
	ID       any    `json:"id"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime any    `json:"datetime"`
	Category string `json:"category"`
	Related  string `json:"related"`
	Image    string `json:"image"`
}

// Article is a validated, display-ready news item.
type Article struct {
	ID       string `json:"id"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"` // unix seconds
	Category string `json:"category"`
	Related  string `json:"related"`
	Image    string `json:"image,omitempty"`
}
