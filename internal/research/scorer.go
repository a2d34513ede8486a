package research

import (
	"math"

	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/util"
)

// Neutral values substituted for missing signals. A keyword with no data at
// all scores as an unremarkable mid-field keyword.
var NeutralDefaults = map[domain.SignalName]float64{
	domain.SignalSearchVolume:     1000,
	domain.SignalCompetitionCount: 10000,
	domain.SignalReviewCount:      100,
	domain.SignalTrendMomentum:    1.0,
}

// Normalization ceilings. Values at or above a ceiling score 100.
const (
	volumeCeiling      = 100_000
	competitionCeiling = 1_000_000
	reviewCeiling      = 10_000
	momentumCeiling    = 3.0
)

// Score maps a signal set to bounded scores. It is pure and total: missing or
// malformed signals take their neutral default, and every output is finite,
// clamped to [0,100] and rounded to two decimals.
func Score(signals domain.SignalSet) domain.Scores {
	volume := signalOrDefault(signals, domain.SignalSearchVolume)
	competition := signalOrDefault(signals, domain.SignalCompetitionCount)
	reviews := signalOrDefault(signals, domain.SignalReviewCount)
	momentum := signalOrDefault(signals, domain.SignalTrendMomentum)

	competitionScore := logNorm(competition, competitionCeiling)
	reviewScore := logNorm(reviews, reviewCeiling)
	volumeScore := logNorm(volume, volumeCeiling)
	momentumScore := util.Clamp(momentum/momentumCeiling*100, 0, 100)
	rising := util.Clamp((momentum-1)/2, 0, 1)

	difficulty := util.Clamp(0.65*competitionScore+0.35*reviewScore-10*rising, 0, 100)
	profitability := util.Clamp(0.5*volumeScore+0.2*momentumScore+0.3*(100-difficulty), 0, 100)
	opportunity := util.Clamp(0.7*profitability+0.3*(100-difficulty), 0, 100)

	return domain.Scores{
		CompetitionScore:   util.Round2(competitionScore),
		DifficultyScore:    util.Round2(difficulty),
		ProfitabilityScore: util.Round2(profitability),
		OpportunityScore:   util.Round2(opportunity),
	}
}

func signalOrDefault(signals domain.SignalSet, name domain.SignalName) float64 {
	if v, ok := signals.Get(name); ok {
		return v
	}
	return NeutralDefaults[name]
}

// logNorm scales x onto [0,100] by log10(1+x)/log10(1+ceiling).
func logNorm(x, ceiling float64) float64 {
	if x <= 0 || math.IsNaN(x) {
		return 0
	}
	return util.Clamp(100*math.Log10(1+x)/math.Log10(1+ceiling), 0, 100)
}

// Grade buckets an opportunity score for display.
type Grade string

const (
	GradeGood Grade = "good"
	GradeFair Grade = "fair"
	GradeWeak Grade = "weak"
	GradePoor Grade = "poor"
)

func GradeFor(opportunity float64) Grade {
	switch {
	case opportunity >= 70:
		return GradeGood
	case opportunity >= 50:
		return GradeFair
	case opportunity >= 30:
		return GradeWeak
	default:
		return GradePoor
	}
}

// Recommend phrases the scores as advice for an author.
func Recommend(s domain.Scores) string {
	switch {
	case s.OpportunityScore >= 80 && s.DifficultyScore <= 30:
		return "Excellent - High opportunity, low competition"
	case s.OpportunityScore >= 70 && s.DifficultyScore <= 50:
		return "Very Good - Strong potential with manageable competition"
	case s.OpportunityScore >= 60 && s.DifficultyScore <= 60:
		return "Good - Decent opportunity, moderate effort required"
	case s.OpportunityScore >= 50:
		return "Moderate - Some potential, higher effort needed"
	case s.DifficultyScore <= 30:
		return "Low Competition - Easy to rank but limited volume"
	default:
		return "Challenging - High competition or low opportunity"
	}
}

// CompetitionLevel buckets a marketplace result count.
func CompetitionLevel(results int) string {
	switch {
	case results > 50000:
		return "Very High"
	case results > 10000:
		return "High"
	case results > 1000:
		return "Medium"
	default:
		return "Low"
	}
}
