package analytics

import (
	"testing"

	"github.com/Loquest/Mentl2/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hours(h float64) *float64 { return &h }

func TestAnalyze_EmptyWindowIsEmptyShaped(t *testing.T) {
	r := Analyze(NewWindow(nil))

	assert.NotNil(t, r.Patterns)
	assert.Empty(t, r.Patterns)
	assert.NotNil(t, r.Triggers)
	assert.Empty(t, r.Triggers)
	assert.Empty(t, r.DayOfWeekAnalysis)
	assert.Empty(t, r.MoodDistribution)
	assert.Empty(t, r.SymptomMoodCorrelation)
	assert.Nil(t, r.SleepMoodCorrelation)
	assert.Nil(t, r.MedicationImpact)
}

func TestAnalyze_SleepCorrelation(t *testing.T) {
	logs := series(3, 4, 3, 7, 8, 7)
	for i := range logs {
		if i < 3 {
			logs[i].SleepHours = hours(4)
		} else {
			logs[i].SleepHours = hours(7.5)
		}
	}

	r := Analyze(NewWindow(logs))

	require.NotNil(t, r.SleepMoodCorrelation)
	assert.Equal(t, "7-8 hrs", r.SleepMoodCorrelation.OptimalSleep)
	bins := r.SleepMoodCorrelation.Bins
	require.Len(t, bins, 5)
	assert.Equal(t, "<5 hrs", bins[0].Range)
	require.NotNil(t, bins[0].AverageMood)
	assert.InDelta(t, 3.3, *bins[0].AverageMood, 1e-9)
	assert.Equal(t, 3, bins[0].Count)
	assert.Nil(t, bins[1].AverageMood)
	assert.Equal(t, 0, bins[1].Count)
	require.NotNil(t, bins[3].AverageMood)
	assert.InDelta(t, 7.3, *bins[3].AverageMood, 1e-9)

	var sleepTrigger *Trigger
	for i := range r.Triggers {
		if r.Triggers[i].Type == "sleep" {
			sleepTrigger = &r.Triggers[i]
		}
	}
	require.NotNil(t, sleepTrigger)
	assert.Equal(t, -4.0, sleepTrigger.Impact)
}

func TestAnalyze_SleepNeedsFiveRecords(t *testing.T) {
	logs := series(3, 4, 3, 7, 8)
	for i := 0; i < 4; i++ {
		logs[i].SleepHours = hours(6.5)
	}
	assert.Nil(t, Analyze(NewWindow(logs)).SleepMoodCorrelation)
}

func TestAnalyze_SleepBinBoundaries(t *testing.T) {
	logs := series(1, 2, 3, 4, 5, 6)
	for i, h := range []float64{4.99, 5, 6, 7, 8, 12} {
		logs[i].SleepHours = hours(h)
	}
	r := Analyze(NewWindow(logs))
	require.NotNil(t, r.SleepMoodCorrelation)
	counts := []int{}
	for _, b := range r.SleepMoodCorrelation.Bins {
		counts = append(counts, b.Count)
	}
	assert.Equal(t, []int{1, 1, 1, 1, 2}, counts)
	assert.Equal(t, "8+ hrs", r.SleepMoodCorrelation.OptimalSleep)
}

func TestAnalyze_OptimalSleepTieGoesToFirstBin(t *testing.T) {
	logs := series(6, 6, 6, 6, 6)
	for i, h := range []float64{5.5, 5.5, 7.5, 7.5, 7.5} {
		logs[i].SleepHours = hours(h)
	}
	r := Analyze(NewWindow(logs))
	require.NotNil(t, r.SleepMoodCorrelation)
	assert.Equal(t, "5-6 hrs", r.SleepMoodCorrelation.OptimalSleep)
}

func TestAnalyze_MoodDistribution(t *testing.T) {
	r := Analyze(NewWindow(series(1, 3, 3, 10, 7, 7, 7)))

	require.Len(t, r.MoodDistribution, 10)
	total, pct := 0, 0.0
	for i, b := range r.MoodDistribution {
		assert.Equal(t, i+1, b.Rating)
		total += b.Count
		pct += b.Percentage
	}
	assert.Equal(t, 7, total)
	assert.InDelta(t, 100.0, pct, 0.5)
	assert.Equal(t, 0, r.MoodDistribution[1].Count)
	assert.Equal(t, 3, r.MoodDistribution[6].Count)
	assert.Equal(t, 42.9, r.MoodDistribution[6].Percentage)
}

func TestAnalyze_DayOfWeek(t *testing.T) {
	// 2024-01-01 is a Monday
	logs := []internal.MoodLog{
		logOn("2024-01-01", 4),
		logOn("2024-01-08", 6),
		logOn("2024-01-06", 9),
		logOn("not-a-date", 1),
	}

	r := Analyze(NewWindow(logs))

	require.Len(t, r.DayOfWeekAnalysis, 2)
	mon := r.DayOfWeekAnalysis[0]
	assert.Equal(t, "Monday", mon.Day)
	assert.Equal(t, 0, mon.DayIndex)
	assert.Equal(t, 5.0, mon.AverageMood)
	assert.Equal(t, 2, mon.LogCount)
	assert.Equal(t, 4, mon.MinMood)
	assert.Equal(t, 6, mon.MaxMood)
	sat := r.DayOfWeekAnalysis[1]
	assert.Equal(t, "Saturday", sat.Day)
	assert.Equal(t, 5, sat.DayIndex)

	// the malformed record is still part of the distribution
	assert.Equal(t, 1, r.MoodDistribution[0].Count)
}

func TestAnalyze_WeekendBoostAndDayTrigger(t *testing.T) {
	// Mon..Sun twice: weekdays 4, weekends 8
	logs := series(4, 4, 4, 4, 4, 8, 8, 4, 4, 4, 4, 4, 8, 8)

	r := Analyze(NewWindow(logs))

	patterns := map[string]Pattern{}
	for _, p := range r.Patterns {
		patterns[p.Pattern] = p
	}
	assert.Contains(t, patterns, "weekend_boost")
	assert.NotContains(t, patterns, "weekday_preference")

	var day *Trigger
	for i := range r.Triggers {
		if r.Triggers[i].Type == "day_of_week" {
			day = &r.Triggers[i]
		}
	}
	require.NotNil(t, day)
	assert.Equal(t, "Monday", day.Trigger)
	assert.Equal(t, -4.0, day.Impact)
}

func TestAnalyze_WeekdayPreference(t *testing.T) {
	logs := series(8, 8, 8, 8, 8, 5, 5)
	r := Analyze(NewWindow(logs))
	found := false
	for _, p := range r.Patterns {
		if p.Pattern == "weekday_preference" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyze_LowMoodStreak(t *testing.T) {
	r := Analyze(NewWindow(series(6, 4, 3, 2, 7, 1, 1)))
	var streak *Pattern
	for i := range r.Patterns {
		if r.Patterns[i].Pattern == "low_mood_streak" {
			streak = &r.Patterns[i]
		}
	}
	require.NotNil(t, streak)
	assert.Contains(t, streak.Description, "3 consecutive")

	r = Analyze(NewWindow(series(4, 4, 5, 4, 4)))
	for _, p := range r.Patterns {
		assert.NotEqual(t, "low_mood_streak", p.Pattern)
	}
}

func TestAnalyze_HighVariability(t *testing.T) {
	r := Analyze(NewWindow(series(1, 10, 1, 10, 1, 10, 1)))
	patterns := []string{}
	for _, p := range r.Patterns {
		patterns = append(patterns, p.Pattern)
	}
	assert.Contains(t, patterns, "high_variability")

	// fewer than seven records never flags variability
	r = Analyze(NewWindow(series(1, 10, 1, 10, 1, 10)))
	for _, p := range r.Patterns {
		assert.NotEqual(t, "high_variability", p.Pattern)
	}
}

func TestAnalyze_MedicationImpact(t *testing.T) {
	logs := series(8, 7, 4, 5)
	logs[0].MedicationTaken = true
	logs[1].MedicationTaken = true

	r := Analyze(NewWindow(logs))

	require.NotNil(t, r.MedicationImpact)
	assert.Equal(t, 7.5, r.MedicationImpact.WithMedication.AverageMood)
	assert.Equal(t, 2, r.MedicationImpact.WithMedication.Count)
	assert.Equal(t, 4.5, r.MedicationImpact.WithoutMedication.AverageMood)
	assert.Equal(t, 3.0, r.MedicationImpact.Difference)

	for i := range logs {
		logs[i].MedicationTaken = true
	}
	assert.Nil(t, Analyze(NewWindow(logs)).MedicationImpact)
}

func TestAnalyze_SymptomCorrelation(t *testing.T) {
	logs := series(3, 2, 3, 8, 8, 8, 5, 5, 5)
	for i := 0; i < 3; i++ {
		logs[i].Symptoms = internal.Symptoms{"racing_thoughts": internal.BoolSymptom(true)}
	}
	for i := 6; i < 9; i++ {
		logs[i].Symptoms = internal.Symptoms{"mild_headache": internal.NumberSymptom(2)}
	}
	// seen only twice, below the occurrence floor
	logs[3].Symptoms = internal.Symptoms{"nausea": internal.BoolSymptom(true)}
	logs[4].Symptoms = internal.Symptoms{"nausea": internal.BoolSymptom(true)}

	r := Analyze(NewWindow(logs))

	require.Len(t, r.SymptomMoodCorrelation, 2)
	first := r.SymptomMoodCorrelation[0]
	assert.Equal(t, "racing_thoughts", first.Key)
	assert.Equal(t, "Racing Thoughts", first.Symptom)
	assert.Equal(t, 3, first.Occurrences)
	assert.Equal(t, 2.7, first.AverageWith)
	require.NotNil(t, first.AverageWithout)
	assert.Equal(t, 6.5, *first.AverageWithout)
	require.NotNil(t, first.Impact)
	assert.Equal(t, -3.8, *first.Impact)
	assert.Equal(t, "mild_headache", r.SymptomMoodCorrelation[1].Key)

	symptomTriggers := []string{}
	for _, tr := range r.Triggers {
		if tr.Type == "symptom" {
			symptomTriggers = append(symptomTriggers, tr.Trigger)
		}
	}
	assert.Equal(t, []string{"Racing Thoughts"}, symptomTriggers)
}

func TestAnalyze_SymptomPresentEverywhereHasNullImpact(t *testing.T) {
	logs := series(5, 6, 6)
	for i := range logs {
		logs[i].Symptoms = internal.Symptoms{"fatigue": internal.BoolSymptom(true)}
	}
	r := Analyze(NewWindow(logs))
	require.Len(t, r.SymptomMoodCorrelation, 1)
	assert.Nil(t, r.SymptomMoodCorrelation[0].Impact)
	assert.Nil(t, r.SymptomMoodCorrelation[0].AverageWithout)
	assert.Empty(t, r.Triggers)
}

func TestAnalyze_TriggersRankedMostNegativeFirst(t *testing.T) {
	logs := series(2, 2, 2, 9, 9, 9, 9, 6, 6, 6)
	for i := 0; i < 3; i++ {
		logs[i].Symptoms = internal.Symptoms{"panic": internal.BoolSymptom(true)}
	}
	for i := 7; i < 10; i++ {
		logs[i].Symptoms = internal.Symptoms{"tired": internal.BoolSymptom(true)}
	}
	r := Analyze(NewWindow(logs))
	for i := 1; i < len(r.Triggers); i++ {
		assert.LessOrEqual(t, r.Triggers[i-1].Impact, r.Triggers[i].Impact)
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Racing Thoughts", humanize("racing_thoughts"))
	assert.Equal(t, "Low-Energy", humanize("low-energy"))
	assert.Equal(t, "Anxiety", humanize("ANXIETY"))
}

func TestAnalyze_Idempotent(t *testing.T) {
	logs := series(3, 9, 4, 7, 2, 8, 6, 1)
	for i := range logs {
		logs[i].SleepHours = hours(float64(4 + i%5))
		logs[i].MedicationTaken = i%2 == 0
	}
	w := NewWindow(logs)
	assert.Equal(t, Analyze(w), Analyze(w))
}
