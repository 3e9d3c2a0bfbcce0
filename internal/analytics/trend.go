package analytics

import (
	"fmt"
	"sort"

	"github.com/Loquest/Mentl2/internal"
	"github.com/samber/lo"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// trendDeadband is the minimum half-to-half mean change that counts as a trend.
const trendDeadband = 0.5

const (
	maxCommonSymptoms   = 5
	adherenceThreshold  = 0.7
	emptyWindowInsight  = "Start logging your mood to see insights!"
	lowMoodInsight      = "Your average mood has been below 5. Consider reaching out to a mental health professional."
	positiveMoodInsight = "Great job! Your mood has been generally positive."
	decliningInsight    = "Your mood shows a declining trend. This might be a good time to use extra coping strategies."
	improvingInsight    = "Your mood is improving! Keep up the good work with your self-care routine."
)

type SymptomCount struct {
	Symptom string `json:"symptom"`
	Count   int    `json:"count"`
}

type TrendSummary struct {
	AverageMood        float64        `json:"average_mood"`
	TotalLogs          int            `json:"total_logs"`
	MoodTrend          Trend          `json:"mood_trend"`
	MostCommonSymptoms []SymptomCount `json:"most_common_symptoms"`
	Insights           []string       `json:"insights"`
}

// Summarize computes the trend summary for a window. An empty window is a valid input.
func Summarize(w Window) TrendSummary {
	if w.Len() == 0 {
		return TrendSummary{
			AverageMood:        0.0,
			TotalLogs:          0,
			MoodTrend:          TrendStable,
			MostCommonSymptoms: []SymptomCount{},
			Insights:           []string{emptyWindowInsight},
		}
	}

	ratings := w.ratings()
	avg := mean(ratings)
	trend := trendOf(ratings)

	return TrendSummary{
		AverageMood:        round1(avg),
		TotalLogs:          w.Len(),
		MoodTrend:          trend,
		MostCommonSymptoms: commonSymptoms(w.records, maxCommonSymptoms),
		Insights:           insights(w.records, avg, trend),
	}
}

func trendOf(ratings []float64) Trend {
	half := len(ratings) / 2
	if half == 0 {
		return TrendStable
	}
	return classifyTrend(mean(ratings[:half]), mean(ratings[half:]))
}

// classifyTrend uses an exclusive deadband: a change of exactly 0.5 is stable.
func classifyTrend(first, second float64) Trend {
	switch {
	case second > first+trendDeadband:
		return TrendImproving
	case second < first-trendDeadband:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func commonSymptoms(records []internal.MoodLog, limit int) []SymptomCount {
	var order []string
	counts := map[string]int{}
	for _, r := range records {
		// map iteration is random; walk keys sorted so first-seen order is reproducible
		for _, name := range sortedKeys(r.Symptoms) {
			if !r.Symptoms[name].Present() {
				continue
			}
			if _, seen := counts[name]; !seen {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	out := lo.Map(order, func(name string, _ int) SymptomCount {
		return SymptomCount{Symptom: name, Count: counts[name]}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func insights(records []internal.MoodLog, avg float64, trend Trend) []string {
	out := []string{}
	if avg < 5 {
		out = append(out, lowMoodInsight)
	} else if avg >= 7 {
		out = append(out, positiveMoodInsight)
	}

	switch trend {
	case TrendDeclining:
		out = append(out, decliningInsight)
	case TrendImproving:
		out = append(out, improvingInsight)
	}

	taken := lo.CountBy(records, func(r internal.MoodLog) bool { return r.MedicationTaken })
	if taken > 0 {
		rate := float64(taken) / float64(len(records))
		if rate < adherenceThreshold {
			out = append(out, fmt.Sprintf("Medication adherence: %d%%. Try setting reminders to maintain consistency.", int(rate*100)))
		}
	}
	return out
}

func sortedKeys(s internal.Symptoms) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
