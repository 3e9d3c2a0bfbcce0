package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/analytics"
)

func seedDays(t *testing.T, svcLogs interface {
	CreateMoodLog(context.Context, *internal.MoodLog) error
}, userID string, from time.Time, ratings ...int) {
	t.Helper()
	for i, r := range ratings {
		date := from.AddDate(0, 0, i).Format(DateLayout)
		require.NoError(t, svcLogs.CreateMoodLog(context.Background(), &internal.MoodLog{
			ID:         fmt.Sprintf("%s-%d", userID, i),
			UserID:     userID,
			Date:       date,
			MoodRating: r,
			Symptoms:   internal.Symptoms{},
		}))
	}
}

func TestAnalyticsService_WindowBounds(t *testing.T) {
	repos := newRepos(t)
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	seedDays(t, repos.MoodLogs, "u1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 8, 8, 8, 8, 8, 8, 8, 8)

	svc := NewAnalyticsService(repos.MoodLogs, 1000)
	svc.now = func() time.Time { return now }

	w, err := svc.Window(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, 8, w.Len(), "2024-03-24 through 2024-03-31")
	assert.Equal(t, "2024-03-24", w.Records()[0].Date)

	summary, err := svc.TrendSummary(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, 8.0, summary.AverageMood)
	assert.Equal(t, 8, summary.TotalLogs)

	summary, err = svc.TrendSummary(context.Background(), "u1", 30)
	require.NoError(t, err)
	assert.Equal(t, 31, summary.TotalLogs)
	assert.Equal(t, analytics.TrendImproving, summary.MoodTrend)
}

func TestAnalyticsService_CapKeepsNewest(t *testing.T) {
	repos := newRepos(t)
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	seedDays(t, repos.MoodLogs, "u1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 1, 1, 1, 1, 1, 9, 9, 9)

	svc := NewAnalyticsService(repos.MoodLogs, 3)
	svc.now = func() time.Time { return now }

	w, err := svc.Window(context.Background(), "u1", 30)
	require.NoError(t, err)
	require.Equal(t, 3, w.Len())
	for _, r := range w.Records() {
		assert.Equal(t, 9, r.MoodRating)
	}
}

func TestAnalyticsService_EmptyAndInvalid(t *testing.T) {
	repos := newRepos(t)
	svc := NewAnalyticsService(repos.MoodLogs, 1000)

	summary, err := svc.TrendSummary(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalLogs)
	assert.Equal(t, []string{"Start logging your mood to see insights!"}, summary.Insights)

	report, err := svc.PatternReport(context.Background(), "nobody", 30)
	require.NoError(t, err)
	assert.Empty(t, report.Patterns)
	assert.Nil(t, report.SleepMoodCorrelation)

	_, err = svc.TrendSummary(context.Background(), "u1", -1)
	assert.ErrorIs(t, err, internal.ErrValidation)
	_, err = svc.PatternReport(context.Background(), "u1", 400)
	assert.ErrorIs(t, err, internal.ErrValidation)
}
