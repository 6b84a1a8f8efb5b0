package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"Signalist/internal/domain/models"
)

const (
	DefaultCategory = "general"

	companySource = "Company News"
	marketSource  = "Market News"
)

// Ranked is an Article plus the round it was picked in. Callers sort on
// TieBreak when datetimes are equal.
type Ranked struct {
	models.Article
	TieBreak int
}

// Validate reports whether raw can be shown: headline and url are non-blank
// and datetime is a non-zero number or numeric string.
func Validate(raw models.RawArticle) bool {
	if strings.TrimSpace(raw.Headline) == "" || strings.TrimSpace(raw.URL) == "" {
		return false
	}
	ts, ok := Datetime(raw.Datetime)
	return ok && ts != 0
}

// Format maps a validated raw article to its display form. Scoped articles
// belong to symbol and have related set to it.
func Format(raw models.RawArticle, scoped bool, symbol string, tieBreak int) Ranked {
	ts, _ := Datetime(raw.Datetime)
	url := strings.TrimSpace(raw.URL)

	a := models.Article{
		ID:       articleID(raw.ID, url),
		Headline: strings.TrimSpace(raw.Headline),
		Summary:  strings.TrimSpace(raw.Summary),
		Source:   strings.TrimSpace(raw.Source),
		URL:      url,
		Datetime: ts,
		Category: strings.TrimSpace(raw.Category),
		Related:  raw.Related,
		Image:    strings.TrimSpace(raw.Image),
	}
	if a.Category == "" {
		a.Category = DefaultCategory
	}
	if scoped {
		a.Related = symbol
		if a.Source == "" {
			a.Source = companySource
		}
	} else if a.Source == "" {
		a.Source = marketSource
	}
	return Ranked{Article: a, TieBreak: tieBreak}
}

// Datetime coerces an untyped epoch-seconds value.
func Datetime(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatSeconds(f)
	case float64:
		return floatSeconds(t)
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return floatSeconds(f)
	default:
		return 0, false
	}
}

func floatSeconds(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}

func articleID(v any, url string) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	}
	return URLID(url)
}

// URLID derives a stable id from an article url.
func URLID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}
