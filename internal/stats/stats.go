// Package stats passes the backend's reading statistics through to callers.
// The numbers are computed server-side; nothing here recomputes them.
package stats

import (
	"context"
	"log/slog"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/session"
)

// Provider returns the user's aggregate reading statistics.
type Provider interface {
	Stats(ctx context.Context, sess *session.Session) (*domain.AggregateStats, error)
}

// Service fronts the stats provider.
type Service struct {
	provider Provider
	logger   *slog.Logger
}

// NewService creates a stats service.
func NewService(provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{provider: provider, logger: logger}
}

// Stats returns the user's statistics. Missing maps come back empty, never nil.
func (s *Service) Stats(ctx context.Context, sess *session.Session) (*domain.AggregateStats, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}

	st, err := s.provider.Stats(ctx, sess)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &domain.AggregateStats{}
	}
	if st.GenreCounts == nil {
		st.GenreCounts = map[string]int{}
	}
	if st.MonthCounts == nil {
		st.MonthCounts = map[string]int{}
	}

	s.logger.Debug("stats loaded",
		"user_id", sess.UserID,
		"genres", len(st.GenreCounts),
		"months", len(st.MonthCounts),
	)
	return st, nil
}
