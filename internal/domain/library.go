package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Status is the reading state of a library entry. Absence from the library is
// not a status: it is the lack of an entry.
type Status int

const (
	StatusPlanned Status = iota + 1
	StatusReading
	StatusFinished
	StatusDropped
)

// AllStatuses returns every valid status in display order.
func AllStatuses() []Status {
	return []Status{StatusPlanned, StatusReading, StatusFinished, StatusDropped}
}

func (s Status) String() string {
	switch s {
	case StatusPlanned:
		return "planned"
	case StatusReading:
		return "reading"
	case StatusFinished:
		return "finished"
	case StatusDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Valid returns true if s is one of the four statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusReading, StatusFinished, StatusDropped:
		return true
	}
	return false
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "planned":
		return StatusPlanned, nil
	case "reading":
		return StatusReading, nil
	case "finished":
		return StatusFinished, nil
	case "dropped":
		return StatusDropped, nil
	default:
		return 0, fmt.Errorf("unknown status %q", v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// LibraryEntry is the user's personal record of a catalog book.
// BookID is assigned by the library store on first creation and never changes.
type LibraryEntry struct {
	BookID      int64    `json:"book_id"`
	CatalogID   string   `json:"catalog_id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Status      Status   `json:"status"`
	Collections []string `json:"collections"`
}

// InCollection reports whether the entry belongs to the named collection.
func (e *LibraryEntry) InCollection(name string) bool {
	return slices.Contains(e.Collections, name)
}

// AddCollection records membership in the named collection.
// Returns false if the entry was already a member.
func (e *LibraryEntry) AddCollection(name string) bool {
	if e.InCollection(name) {
		return false
	}
	e.Collections = append(e.Collections, name)
	return true
}

// Clone returns a deep copy, so callers never share the index's slices.
func (e *LibraryEntry) Clone() *LibraryEntry {
	c := *e
	c.Collections = slices.Clone(e.Collections)
	return &c
}
