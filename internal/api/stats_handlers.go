package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get reading statistics",
		Description: "Returns the backend's reading statistics for the caller",
		Tags:        []string{"Stats"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetStats)
}

// StatsResponse contains reading statistics in API responses.
type StatsResponse struct {
	GenreCounts map[string]int `json:"genre_counts" doc:"Books per genre"`
	MonthCounts map[string]int `json:"month_counts" doc:"Books finished per month (YYYY-MM)"`
	Genres      []string       `json:"genres" doc:"Genres by count, descending"`
	Months      []string       `json:"months" doc:"Months in ascending order"`
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	Body StatsResponse
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	st, err := s.services.Stats.Stats(ctx, currentSession(ctx))
	if err != nil {
		return nil, err
	}

	genres := st.Genres()
	if genres == nil {
		genres = []string{}
	}
	months := st.Months()
	if months == nil {
		months = []string{}
	}

	return &StatsOutput{
		Body: StatsResponse{
			GenreCounts: st.GenreCounts,
			MonthCounts: st.MonthCounts,
			Genres:      genres,
			Months:      months,
		},
	}, nil
}
