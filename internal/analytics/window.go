// Package analytics turns a user's mood log window into summary statistics and
// pattern reports. Everything here is pure: callers fetch the records, cap the
// window size, and hand over an immutable slice.
package analytics

import (
	"math"
	"sort"

	"github.com/Loquest/Mentl2/internal"
	"github.com/samber/lo"
)

const DateLayout = "2006-01-02"

// Window is a date-ascending view over one user's mood logs.
type Window struct {
	records []internal.MoodLog
}

// NewWindow copies records and orders them by date. Equal dates keep their input order.
func NewWindow(records []internal.MoodLog) Window {
	cp := make([]internal.MoodLog, len(records))
	copy(cp, records)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Date < cp[j].Date })
	return Window{records: cp}
}

func (w Window) Len() int { return len(w.records) }

func (w Window) Records() []internal.MoodLog { return w.records }

func (w Window) ratings() []float64 {
	return lo.Map(w.records, func(r internal.MoodLog, _ int) float64 { return float64(r.MoodRating) })
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return lo.Sum(xs) / float64(len(xs))
}

// populationStdDev divides by n, not n-1.
func populationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// round1 rounds half-up to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round1Ptr(x *float64) *float64 {
	if x == nil {
		return nil
	}
	v := round1(*x)
	return &v
}
