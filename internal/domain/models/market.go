package models

// Profile is the subset of a company profile the engine reads.
type Profile struct {
	Name                 string   `json:"name"`
	Ticker               string   `json:"ticker"`
	Exchange             string   `json:"exchange"`
	MarketCapitalization *float64 `json:"marketCapitalization"`
}

// Quote is the subset of a live quote the engine reads.
type Quote struct {
	Current       *float64 `json:"c"`
	ChangePercent *float64 `json:"dp"`
}

// SymbolMatch is one provider symbol lookup hit.
type SymbolMatch struct {
	Symbol        string `json:"symbol"`
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Type          string `json:"type"`
}

type SearchResult struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Exchange      string `json:"exchange"`
	Type          string `json:"type"`
	IsInWatchlist bool   `json:"isInWatchlist"`
}

// QuoteSnapshot is the display view of one symbol. Numbers the provider did
// not report stay nil.
type QuoteSnapshot struct {
	Symbol          string   `json:"symbol"`
	Company         string   `json:"company"`
	CurrentPrice    *float64 `json:"currentPrice,omitempty"`
	ChangePercent   *float64 `json:"changePercent,omitempty"`
	PriceFormatted  string   `json:"priceFormatted,omitempty"`
	ChangeFormatted string   `json:"changeFormatted,omitempty"`
	MarketCap       string   `json:"marketCap,omitempty"`
}
