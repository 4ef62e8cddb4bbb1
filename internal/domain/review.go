package domain

import "time"

const (
	// MinRating and MaxRating bound a review's star rating.
	MinRating = 1
	MaxRating = 5
)

// Review is a user-authored review of a catalog book.
// Rating is 0 when the review was stored without one.
type Review struct {
	ID          string    `json:"id"`
	AuthorLabel string    `json:"author_label"`
	CreatedAt   time.Time `json:"created_at"`
	Rating      int       `json:"rating,omitempty"`
	Text        string    `json:"text"`
}

// Rated reports whether the review carries a star rating.
func (r *Review) Rated() bool {
	return r.Rating >= MinRating && r.Rating <= MaxRating
}
