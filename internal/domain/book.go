// Package domain defines the reading-tracker data model: catalog books, library
// entries, collections, reviews and the server-derived reading statistics.
package domain

import (
	"fmt"
	"strings"
)

// Maturity is the catalog's content rating for a book.
type Maturity int

const (
	// MaturityNotMature is the default rating.
	MaturityNotMature Maturity = iota
	// MaturityMature marks adult content ("18+").
	MaturityMature
)

func (m Maturity) String() string {
	switch m {
	case MaturityNotMature:
		return "NOT_MATURE"
	case MaturityMature:
		return "MATURE"
	default:
		return "UNKNOWN"
	}
}

// Valid returns true if m is a recognized rating.
func (m Maturity) Valid() bool {
	return m == MaturityNotMature || m == MaturityMature
}

// ParseMaturity converts a wire value into a Maturity.
// An empty value is treated as NOT_MATURE, which is what the catalog omits it for.
func ParseMaturity(s string) (Maturity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NOT_MATURE":
		return MaturityNotMature, nil
	case "MATURE":
		return MaturityMature, nil
	default:
		return MaturityNotMature, fmt.Errorf("unknown maturity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Maturity) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid maturity %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Maturity) UnmarshalText(text []byte) error {
	parsed, err := ParseMaturity(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// CatalogBook is a book as described by the external catalog.
// It is immutable once fetched; identity is ID.
type CatalogBook struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverURL    string `json:"cover_url,omitempty"`
	Description string `json:"description,omitempty"` // Markdown
	// DescriptionHTML is the description exactly as the catalog returned it.
	DescriptionHTML string   `json:"description_html,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	PublishedYear   int      `json:"published_year,omitempty"`
	PageCount       int      `json:"page_count,omitempty"`
	Maturity        Maturity `json:"maturity"`
}

// ValidCatalogID reports whether id can name a catalog record. Ids travel as
// URL path segments, so blank ids and the dot segments "." and ".." are invalid.
func ValidCatalogID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != "." && id != ".."
}

// SourceDescription returns the description in the catalog's original form,
// falling back to the Markdown one for records built without it.
func (b *CatalogBook) SourceDescription() string {
	if b.DescriptionHTML != "" {
		return b.DescriptionHTML
	}
	return b.Description
}

// SearchHit is one catalog search result. Full is false when the provider only
// returned a summary; such hits must be resolved through the cache before use.
type SearchHit struct {
	Book CatalogBook `json:"book"`
	Full bool        `json:"full"`
}
