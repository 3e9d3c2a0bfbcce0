package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Loquest/Mentl2/internal/analytics"
	"github.com/Loquest/Mentl2/internal/storage"
)

const (
	DefaultAnalyticsDays = 30
	MaxAnalyticsDays     = 365
)

// AnalyticsService fetches a bounded window of mood logs and runs the pure analyzers over it.
// Results are recomputed on every call.
type AnalyticsService struct {
	logs       storage.MoodLogRepository
	maxRecords int
	now        func() time.Time
}

func NewAnalyticsService(logs storage.MoodLogRepository, maxRecords int) *AnalyticsService {
	if maxRecords <= 0 {
		maxRecords = MaxMoodLogLimit
	}
	return &AnalyticsService{logs: logs, maxRecords: maxRecords, now: time.Now}
}

// Window returns the user's logs dated within [now-days, now], at most maxRecords of them.
func (s *AnalyticsService) Window(ctx context.Context, userID string, days int) (analytics.Window, error) {
	if days == 0 {
		days = DefaultAnalyticsDays
	}
	if days < 1 || days > MaxAnalyticsDays {
		return analytics.Window{}, invalid("days must be between 1 and %d", MaxAnalyticsDays)
	}
	now := s.now().UTC()
	logs, err := s.logs.ListMoodLogs(ctx, userID, storage.MoodLogFilter{
		StartDate: now.AddDate(0, 0, -days).Format(DateLayout),
		EndDate:   now.Format(DateLayout),
		Limit:     s.maxRecords,
	})
	if err != nil {
		return analytics.Window{}, fmt.Errorf("fetch mood window: %w", err)
	}
	return analytics.NewWindow(logs), nil
}

func (s *AnalyticsService) TrendSummary(ctx context.Context, userID string, days int) (analytics.TrendSummary, error) {
	w, err := s.Window(ctx, userID, days)
	if err != nil {
		return analytics.TrendSummary{}, err
	}
	return analytics.Summarize(w), nil
}

func (s *AnalyticsService) PatternReport(ctx context.Context, userID string, days int) (analytics.PatternReport, error) {
	w, err := s.Window(ctx, userID, days)
	if err != nil {
		return analytics.PatternReport{}, err
	}
	return analytics.Analyze(w), nil
}
