package forecast

import (
	"fmt"
	"math"
	"math/rand/v2"

	"TrendCast/internal/domain/models"
)

// DefaultFolds is the number of cross-validation folds used to score a window.
const DefaultFolds = 5

// CandidateScore is the mean cross-validated R² of one lookback window.
type CandidateScore struct {
	WindowDays int     `json:"window_days"`
	R2         float64 `json:"r2"`
}

// Selection is the outcome of window selection.
type Selection struct {
	WindowDays int
	R2         float64
	Scores     []CandidateScore
}

// CandidateWindows lists lookback windows in days for a month horizon, smallest first:
// half the horizon rounded up (at least one month), then 1x, 2x, 3x and 4x the horizon.
func CandidateWindows(months int) []int {
	if months < 1 {
		return nil
	}
	half := months/2 + months%2
	out := make([]int, 0, 5)
	for _, c := range [...]struct{ months, mult int }{
		{half, 1}, {months, 1}, {months, 2}, {months, 3}, {months, 4},
	} {
		days, ok := windowDays(c.months, c.mult)
		if !ok {
			break
		}
		if len(out) > 0 && out[len(out)-1] == days {
			continue
		}
		out = append(out, days)
	}
	return out
}

// windowDays returns mult*months*DaysPerMonth, or false when it overflows int.
func windowDays(months, mult int) (int, bool) {
	if months > math.MaxInt/mult/models.DaysPerMonth {
		return 0, false
	}
	return models.HorizonDays(months * mult), true
}

// WindowSelector picks the lookback window whose linear fit generalises best.
// Fold assignment is random, so the chosen window can differ between runs unless the
// random source is seeded. Not safe for concurrent use because of the shared source.
type WindowSelector struct {
	rng   *rand.Rand
	folds int
}

// NewWindowSelector creates a selector drawing fold shuffles from rng.
func NewWindowSelector(rng *rand.Rand, folds int) *WindowSelector {
	if folds < 2 {
		folds = DefaultFolds
	}
	return &WindowSelector{rng: rng, folds: folds}
}

// Select scores every candidate that fits in the series and returns the best one.
func (s *WindowSelector) Select(series models.PriceSeries, months int) (Selection, error) {
	if months < 1 {
		return Selection{}, ErrInvalidHorizon
	}
	candidates := CandidateWindows(months)
	prices := series.Prices()

	scores := make([]CandidateScore, 0, len(candidates))
	for _, w := range candidates {
		if w <= 0 || w > len(prices) {
			continue
		}
		r2, err := crossValidatedR2(prices[len(prices)-w:], s.folds, s.rng)
		if err != nil {
			return Selection{}, fmt.Errorf("score window %d: %w", w, err)
		}
		scores = append(scores, CandidateScore{WindowDays: w, R2: r2})
	}
	if len(scores) == 0 {
		return Selection{}, &InsufficientDataError{
			Method:    models.MethodLinearTrend,
			Required:  requiredDays(candidates),
			Available: len(prices),
		}
	}

	best := bestCandidate(scores)
	return Selection{WindowDays: best.WindowDays, R2: best.R2, Scores: scores}, nil
}

func requiredDays(candidates []int) int {
	if len(candidates) == 0 {
		return math.MaxInt
	}
	return candidates[0]
}

// bestCandidate folds over scores in order, replacing the accumulator only on strict
// improvement so ties keep the smaller window. NaN scores never win unless all are NaN.
func bestCandidate(scores []CandidateScore) CandidateScore {
	best := CandidateScore{R2: math.Inf(-1)}
	for _, c := range scores {
		if c.R2 > best.R2 {
			best = c
		}
	}
	if best.WindowDays == 0 {
		return scores[0]
	}
	return best
}
