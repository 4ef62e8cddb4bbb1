package backend

import (
	"context"
	"net/http"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/session"
)

// ListReviews returns a book's reviews in the order the backend sends them.
func (c *Client) ListReviews(ctx context.Context, catalogID string) ([]domain.Review, error) {
	var raw []rawReview
	err := c.do(ctx, call{
		op:     "listReviews",
		method: http.MethodGet,
		path:   pathf("/api/books/reviews/%s", catalogID),
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}

	reviews := make([]domain.Review, len(raw))
	for i := range raw {
		reviews[i] = raw[i].toDomain()
	}
	return reviews, nil
}

// CreateReview posts a review and returns it as stored.
func (c *Client) CreateReview(ctx context.Context, sess *session.Session, catalogID string, rating int, text string) (*domain.Review, error) {
	var raw rawReview
	err := c.do(ctx, call{
		op:         "createReview",
		method:     http.MethodPost,
		path:       pathf("/api/books/reviews/%s", catalogID),
		sess:       sess,
		body:       createReviewRequest{Rating: rating, Text: text},
		out:        &raw,
		notFoundID: catalogID,
	})
	if err != nil {
		return nil, err
	}

	review := raw.toDomain()
	if review.Text == "" {
		review.Text = text
	}
	if review.Rating == 0 {
		review.Rating = rating
	}
	if review.AuthorLabel == "" && sess != nil {
		review.AuthorLabel = sess.Name
	}
	return &review, nil
}
