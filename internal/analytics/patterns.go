package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Loquest/Mentl2/internal"
	"github.com/samber/lo"
)

const (
	minSleepRecords        = 5
	minSymptomOccurrences  = 3
	maxSymptomCorrelations = 10
	triggerSymptomScan     = 5
	lowMoodCeiling         = 4
	minLowMoodStreak       = 3
	minVariabilityRecords  = 7
	variabilityThreshold   = 2.5
	weekPatternThreshold   = 0.5
	symptomTriggerImpact   = -1.0
	sleepTriggerGap        = 1.0
	daySpreadThreshold     = 1.5
)

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type DayOfWeekStat struct {
	Day         string  `json:"day"`
	DayIndex    int     `json:"day_index"` // Monday=0 … Sunday=6
	AverageMood float64 `json:"average_mood"`
	LogCount    int     `json:"log_count"`
	MinMood     int     `json:"min_mood"`
	MaxMood     int     `json:"max_mood"`
}

type RatingBucket struct {
	Rating     int     `json:"rating"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type SleepBin struct {
	Range       string   `json:"range"`
	AverageMood *float64 `json:"average_mood"`
	Count       int      `json:"count"`
}

type SleepCorrelation struct {
	Bins         []SleepBin `json:"bins"`
	OptimalSleep string     `json:"optimal_sleep"`
}

type MedicationGroup struct {
	AverageMood float64 `json:"average_mood"`
	Count       int     `json:"count"`
}

type MedicationImpact struct {
	WithMedication    MedicationGroup `json:"with_medication"`
	WithoutMedication MedicationGroup `json:"without_medication"`
	Difference        float64         `json:"difference"`
}

type SymptomCorrelation struct {
	Symptom        string   `json:"symptom"`
	Key            string   `json:"key"`
	Occurrences    int      `json:"occurrences"`
	AverageWith    float64  `json:"average_mood_with"`
	AverageWithout *float64 `json:"average_mood_without"`
	Impact         *float64 `json:"impact"`
}

type Pattern struct {
	Type        string `json:"type"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
}

type Trigger struct {
	Trigger     string  `json:"trigger"`
	Type        string  `json:"type"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

type PatternReport struct {
	Patterns               []Pattern            `json:"patterns"`
	Triggers               []Trigger            `json:"triggers"`
	DayOfWeekAnalysis      []DayOfWeekStat      `json:"day_of_week_analysis"`
	MoodDistribution       []RatingBucket       `json:"mood_distribution"`
	SleepMoodCorrelation   *SleepCorrelation    `json:"sleep_mood_correlation"`
	MedicationImpact       *MedicationImpact    `json:"medication_impact"`
	SymptomMoodCorrelation []SymptomCorrelation `json:"symptom_mood_correlation"`
}

func emptyReport() PatternReport {
	return PatternReport{
		Patterns:               []Pattern{},
		Triggers:               []Trigger{},
		DayOfWeekAnalysis:      []DayOfWeekStat{},
		MoodDistribution:       []RatingBucket{},
		SymptomMoodCorrelation: []SymptomCorrelation{},
	}
}

// Analyze runs the pattern and correlation passes over a window.
func Analyze(w Window) PatternReport {
	report := emptyReport()
	if w.Len() == 0 {
		return report
	}

	days := bucketByWeekday(w.records)
	sleep := binSleep(w.records)
	symptoms := correlateSymptoms(w.records)

	report.DayOfWeekAnalysis = days.emit()
	report.MoodDistribution = distribution(w.records)
	if sleep != nil {
		report.SleepMoodCorrelation = sleep.emit()
	}
	report.MedicationImpact = medicationImpact(w.records)
	report.SymptomMoodCorrelation = lo.Map(symptoms, func(s symptomStat, _ int) SymptomCorrelation { return s.emit() })
	report.Patterns = detectPatterns(w, days)
	report.Triggers = identifyTriggers(days, sleep, symptoms)
	return report
}

// --- day of week ---

type dayStat struct {
	sum      float64
	count    int
	min, max int
}

func (d dayStat) mean() float64 { return d.sum / float64(d.count) }

type weekBuckets [7]dayStat

func weekdayIndex(date string) (int, bool) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, false
	}
	return (int(t.Weekday()) + 6) % 7, true
}

func bucketByWeekday(records []internal.MoodLog) weekBuckets {
	var b weekBuckets
	for _, r := range records {
		idx, ok := weekdayIndex(r.Date)
		if !ok {
			continue
		}
		d := &b[idx]
		if d.count == 0 || r.MoodRating < d.min {
			d.min = r.MoodRating
		}
		if d.count == 0 || r.MoodRating > d.max {
			d.max = r.MoodRating
		}
		d.sum += float64(r.MoodRating)
		d.count++
	}
	return b
}

func (b weekBuckets) emit() []DayOfWeekStat {
	out := []DayOfWeekStat{}
	for i, d := range b {
		if d.count == 0 {
			continue
		}
		out = append(out, DayOfWeekStat{
			Day:         dayNames[i],
			DayIndex:    i,
			AverageMood: round1(d.mean()),
			LogCount:    d.count,
			MinMood:     d.min,
			MaxMood:     d.max,
		})
	}
	return out
}

// spanMean averages the per-day means of the non-empty days in [from, to].
func (b weekBuckets) spanMean(from, to int) (float64, bool) {
	var means []float64
	for i := from; i <= to; i++ {
		if b[i].count > 0 {
			means = append(means, b[i].mean())
		}
	}
	if len(means) == 0 {
		return 0, false
	}
	return mean(means), true
}

// extremes returns the worst and best day; ties go to the earlier weekday.
func (b weekBuckets) extremes() (worst, best int, ok bool) {
	worst, best = -1, -1
	for i, d := range b {
		if d.count == 0 {
			continue
		}
		if worst < 0 || d.mean() < b[worst].mean() {
			worst = i
		}
		if best < 0 || d.mean() > b[best].mean() {
			best = i
		}
	}
	return worst, best, worst >= 0
}

// --- distribution ---

func distribution(records []internal.MoodLog) []RatingBucket {
	var counts [10]int
	for _, r := range records {
		if r.MoodRating >= 1 && r.MoodRating <= 10 {
			counts[r.MoodRating-1]++
		}
	}
	total := float64(len(records))
	out := make([]RatingBucket, 0, len(counts))
	for i, c := range counts {
		out = append(out, RatingBucket{
			Rating:     i + 1,
			Count:      c,
			Percentage: round1(float64(c) / total * 100),
		})
	}
	return out
}

// --- sleep ---

type sleepBin struct {
	label string
	upper float64 // exclusive; the last bin is unbounded
	sum   float64
	count int
}

type sleepBins []sleepBin

func newSleepBins() sleepBins {
	return sleepBins{
		{label: "<5 hrs", upper: 5},
		{label: "5-6 hrs", upper: 6},
		{label: "6-7 hrs", upper: 7},
		{label: "7-8 hrs", upper: 8},
		{label: "8+ hrs", upper: math.Inf(1)},
	}
}

func binSleep(records []internal.MoodLog) sleepBins {
	withSleep := lo.Filter(records, func(r internal.MoodLog, _ int) bool { return r.SleepHours != nil })
	if len(withSleep) < minSleepRecords {
		return nil
	}
	bins := newSleepBins()
	for _, r := range withSleep {
		for i := range bins {
			if *r.SleepHours < bins[i].upper {
				bins[i].sum += float64(r.MoodRating)
				bins[i].count++
				break
			}
		}
	}
	return bins
}

func (b sleepBins) find(label string) (sleepBin, bool) {
	return lo.Find(b, func(bin sleepBin) bool { return bin.label == label })
}

func (b sleepBins) emit() *SleepCorrelation {
	out := &SleepCorrelation{Bins: make([]SleepBin, 0, len(b))}
	bestAvg := math.Inf(-1)
	for _, bin := range b {
		sb := SleepBin{Range: bin.label, Count: bin.count}
		if bin.count > 0 {
			avg := bin.sum / float64(bin.count)
			sb.AverageMood = round1Ptr(&avg)
			if avg > bestAvg {
				bestAvg = avg
				out.OptimalSleep = bin.label
			}
		}
		out.Bins = append(out.Bins, sb)
	}
	return out
}

// --- medication ---

func medicationImpact(records []internal.MoodLog) *MedicationImpact {
	taken, notTaken := lo.FilterReject(records, func(r internal.MoodLog, _ int) bool { return r.MedicationTaken })
	if len(taken) == 0 || len(notTaken) == 0 {
		return nil
	}
	withAvg := mean(NewWindow(taken).ratings())
	withoutAvg := mean(NewWindow(notTaken).ratings())
	return &MedicationImpact{
		WithMedication:    MedicationGroup{AverageMood: round1(withAvg), Count: len(taken)},
		WithoutMedication: MedicationGroup{AverageMood: round1(withoutAvg), Count: len(notTaken)},
		Difference:        round1(withAvg - withoutAvg),
	}
}

// --- symptoms ---

type symptomStat struct {
	key                   string
	presentSum, absentSum float64
	present, absent       int
}

func (s symptomStat) avgWith() float64 { return s.presentSum / float64(s.present) }

func (s symptomStat) avgWithout() *float64 {
	if s.absent == 0 {
		return nil
	}
	v := s.absentSum / float64(s.absent)
	return &v
}

func (s symptomStat) impact() *float64 {
	without := s.avgWithout()
	if without == nil {
		return nil
	}
	v := s.avgWith() - *without
	return &v
}

// sortImpact treats a missing impact as zero.
func (s symptomStat) sortImpact() float64 {
	if v := s.impact(); v != nil {
		return *v
	}
	return 0
}

func (s symptomStat) emit() SymptomCorrelation {
	return SymptomCorrelation{
		Symptom:        humanize(s.key),
		Key:            s.key,
		Occurrences:    s.present,
		AverageWith:    round1(s.avgWith()),
		AverageWithout: round1Ptr(s.avgWithout()),
		Impact:         round1Ptr(s.impact()),
	}
}

// correlateSymptoms returns symptoms seen at least three times, most mood-lowering first.
func correlateSymptoms(records []internal.MoodLog) []symptomStat {
	var keys []string
	seen := map[string]bool{}
	for _, r := range records {
		for _, k := range sortedKeys(r.Symptoms) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	var stats []symptomStat
	for _, k := range keys {
		s := symptomStat{key: k}
		for _, r := range records {
			if r.Symptoms[k].Present() {
				s.presentSum += float64(r.MoodRating)
				s.present++
			} else {
				s.absentSum += float64(r.MoodRating)
				s.absent++
			}
		}
		if s.present >= minSymptomOccurrences {
			stats = append(stats, s)
		}
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].sortImpact() < stats[j].sortImpact() })
	if len(stats) > maxSymptomCorrelations {
		stats = stats[:maxSymptomCorrelations]
	}
	if stats == nil {
		stats = []symptomStat{}
	}
	return stats
}

// humanize turns "racing_thoughts" into "Racing Thoughts".
func humanize(key string) string {
	s := []rune(strings.ReplaceAll(key, "_", " "))
	prevLetter := false
	for i, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				s[i] = unicode.ToLower(r)
			} else {
				s[i] = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(s)
}

// --- patterns ---

func detectPatterns(w Window, days weekBuckets) []Pattern {
	out := []Pattern{}

	weekday, okWeekday := days.spanMean(0, 4)
	weekend, okWeekend := days.spanMean(5, 6)
	if okWeekday && okWeekend {
		switch {
		case weekend > weekday+weekPatternThreshold:
			out = append(out, Pattern{
				Type:        "weekly",
				Pattern:     "weekend_boost",
				Description: fmt.Sprintf("Your mood tends to be higher on weekends (%.1f) than on weekdays (%.1f).", round1(weekend), round1(weekday)),
			})
		case weekday > weekend+weekPatternThreshold:
			out = append(out, Pattern{
				Type:        "weekly",
				Pattern:     "weekday_preference",
				Description: fmt.Sprintf("Your mood tends to be higher on weekdays (%.1f) than on weekends (%.1f).", round1(weekday), round1(weekend)),
			})
		}
	}

	if streak := longestLowStreak(w.records); streak >= minLowMoodStreak {
		out = append(out, Pattern{
			Type:        "streak",
			Pattern:     "low_mood_streak",
			Description: fmt.Sprintf("You had %d consecutive low-mood entries (rated %d or below). Leaning on your support network during stretches like this can help.", streak, lowMoodCeiling),
		})
	}

	if w.Len() >= minVariabilityRecords {
		if sd := populationStdDev(w.ratings()); sd > variabilityThreshold {
			out = append(out, Pattern{
				Type:        "variability",
				Pattern:     "high_variability",
				Description: fmt.Sprintf("Your mood varies considerably (standard deviation %.1f). Tracking sleep and routines may show what drives the swings.", round1(sd)),
			})
		}
	}
	return out
}

func longestLowStreak(records []internal.MoodLog) int {
	longest, current := 0, 0
	for _, r := range records {
		if r.MoodRating <= lowMoodCeiling {
			current++
			longest = max(longest, current)
		} else {
			current = 0
		}
	}
	return longest
}

// --- triggers ---

type rankedTrigger struct {
	Trigger
	raw float64
}

func identifyTriggers(days weekBuckets, sleep sleepBins, symptoms []symptomStat) []Trigger {
	var found []rankedTrigger

	for _, s := range symptoms[:min(len(symptoms), triggerSymptomScan)] {
		impact := s.impact()
		if impact == nil || *impact >= symptomTriggerImpact {
			continue
		}
		name := humanize(s.key)
		found = append(found, rankedTrigger{
			Trigger: Trigger{
				Trigger:     name,
				Type:        "symptom",
				Impact:      round1(*impact),
				Description: fmt.Sprintf("Your mood averages %.1f points lower when you experience %s (%d occurrences).", round1(-*impact), strings.ToLower(name), s.present),
			},
			raw: *impact,
		})
	}

	if sleep != nil {
		short, okShort := sleep.find("<5 hrs")
		rested, okRested := sleep.find("7-8 hrs")
		if okShort && okRested && short.count > 0 && rested.count > 0 {
			shortAvg := short.sum / float64(short.count)
			restedAvg := rested.sum / float64(rested.count)
			if shortAvg < restedAvg-sleepTriggerGap {
				gap := shortAvg - restedAvg
				found = append(found, rankedTrigger{
					Trigger: Trigger{
						Trigger:     "Less than 5 hours of sleep",
						Type:        "sleep",
						Impact:      round1(gap),
						Description: fmt.Sprintf("Your mood averages %.1f points lower after less than 5 hours of sleep than after 7-8 hours.", round1(-gap)),
					},
					raw: gap,
				})
			}
		}
	}

	if worst, best, ok := days.extremes(); ok {
		spread := days[best].mean() - days[worst].mean()
		if spread > daySpreadThreshold {
			found = append(found, rankedTrigger{
				Trigger: Trigger{
					Trigger:     dayNames[worst],
					Type:        "day_of_week",
					Impact:      round1(-spread),
					Description: fmt.Sprintf("%s tends to be your hardest day (average %.1f vs %.1f on %s).", dayNames[worst], round1(days[worst].mean()), round1(days[best].mean()), dayNames[best]),
				},
				raw: -spread,
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].raw < found[j].raw })
	return lo.Map(found, func(t rankedTrigger, _ int) Trigger { return t.Trigger })
}
