package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

// Raw API types (internal). Field names follow the backend's camelCase JSON.

type rawBook struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	CoverURL      string   `json:"coverUrl"`
	Description   string   `json:"description"`
	Categories    []string `json:"categories"`
	PublishedYear int      `json:"publishedYear"`
	PageCount     int      `json:"pageCount"`
	Maturity      string   `json:"maturity"`
}

func (r *rawBook) toDomain() (*domain.CatalogBook, error) {
	maturity, err := domain.ParseMaturity(r.Maturity)
	if err != nil {
		return nil, domainerrors.InvalidField("maturity", err.Error())
	}
	return &domain.CatalogBook{
		ID:              r.ID,
		Title:           strings.TrimSpace(r.Title),
		Author:          strings.TrimSpace(r.Author),
		CoverURL:        r.CoverURL,
		Description:     htmlToMarkdown(r.Description),
		DescriptionHTML: r.Description,
		Categories:      nonNil(r.Categories),
		PublishedYear:   r.PublishedYear,
		PageCount:       r.PageCount,
		Maturity:        maturity,
	}, nil
}

type rawMyBook struct {
	BookID      int64    `json:"bookId"`
	GoogleID    string   `json:"googleId"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	CoverURL    string   `json:"coverUrl"`
	Status      string   `json:"status"`
	Collections []string `json:"collections"`
}

func (r *rawMyBook) toDomain() (*domain.LibraryEntry, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, domainerrors.InvalidField("status", err.Error())
	}
	return &domain.LibraryEntry{
		BookID:      r.BookID,
		CatalogID:   r.GoogleID,
		Title:       r.Title,
		Author:      r.Author,
		CoverURL:    r.CoverURL,
		Status:      status,
		Collections: nonNil(r.Collections),
	}, nil
}

type addBookRequest struct {
	GoogleID      string   `json:"googleId"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	CoverURL      string   `json:"coverUrl"`
	Description   string   `json:"description"`
	Categories    []string `json:"categories"`
	PublishedYear int      `json:"publishedYear"`
	PageCount     int      `json:"pageCount"`
	Maturity      string   `json:"maturity"`
	Status        string   `json:"status"`
}

type changeStatusRequest struct {
	BookID int64  `json:"bookId"`
	Status string `json:"status"`
}

type rawCollection struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (r *rawCollection) toDomain() domain.Collection {
	return domain.Collection{ID: r.ID, Name: r.Name, MemberCount: r.Count}
}

type createCollectionRequest struct {
	Name    string  `json:"name"`
	BookIDs []int64 `json:"bookIds"`
}

type addBooksRequest struct {
	CollectionID int64    `json:"collectionId"`
	GoogleIDs    []string `json:"googleIds"`
}

type rawReview struct {
	ID        flexID `json:"id"`
	UserName  string `json:"userName"`
	CreatedAt string `json:"createdAt"`
	Rating    *int   `json:"rating"`
	Text      string `json:"text"`
}

func (r *rawReview) toDomain() domain.Review {
	review := domain.Review{
		ID:          string(r.ID),
		AuthorLabel: r.UserName,
		CreatedAt:   parseTimestamp(r.CreatedAt),
		Text:        r.Text,
	}
	if r.Rating != nil {
		review.Rating = *r.Rating
	}
	return review
}

type createReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

type rawStats struct {
	Genres []struct {
		Genre string `json:"genre"`
		Count int    `json:"cnt"`
	} `json:"genres"`
	Months []struct {
		Month string `json:"month"`
		Count int    `json:"cnt"`
	} `json:"months"`
}

func (r *rawStats) toDomain() *domain.AggregateStats {
	st := &domain.AggregateStats{
		GenreCounts: make(map[string]int, len(r.Genres)),
		MonthCounts: make(map[string]int, len(r.Months)),
	}
	for _, g := range r.Genres {
		st.GenreCounts[g.Genre] += g.Count
	}
	for _, m := range r.Months {
		st.MonthCounts[m.Month] += m.Count
	}
	return st
}

type rawUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (r *rawUser) toDomain() domain.User {
	return domain.User{ID: r.ID, Email: r.Email, Name: r.Name}
}

type rawAuth struct {
	Token string  `json:"token"`
	User  rawUser `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type profileRequest struct {
	Name string `json:"name"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// flexID accepts both JSON strings and numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999", // server-local timestamps without an offset
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// parseTimestamp parses the backend's timestamp formats. Unparseable values
// become the zero time, which sorts last.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
