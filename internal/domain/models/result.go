package models

// Status tells callers whether a result is complete.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Reason explains a degraded result.
type Reason string

const (
	ReasonMissingCredential   Reason = "missing_credential"
	ReasonUpstreamUnavailable Reason = "upstream_unavailable"
	ReasonPartial             Reason = "partial"
	ReasonInternal            Reason = "internal"
)

type NewsFeed struct {
	Articles []Article `json:"articles"`
	Status   Status    `json:"status"`
	Reason   Reason    `json:"reason,omitempty"`
}

type SearchResults struct {
	Results []SearchResult `json:"results"`
	Status  Status         `json:"status"`
	Reason  Reason         `json:"reason,omitempty"`
}

type QuoteBatch struct {
	Quotes []QuoteSnapshot `json:"quotes"`
	Status Status          `json:"status"`
	Reason Reason          `json:"reason,omitempty"`
}
