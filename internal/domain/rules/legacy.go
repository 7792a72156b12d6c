package rules

import (
	"math"

	"github.com/okian/brecher/internal/domain/model"
)

// VersionLegacy is the first rule generation of the league. It is kept so
// old seasons can be re-scored the way they were played.
const VersionLegacy = "v1"

// Categories only present in the legacy generation.
const (
	Study    model.Category = "Study"
	Recovery model.Category = "Recovery"
	Podcast  model.Category = "Podcast/Read"
)

// Recovery day token of the legacy generation.
const recoveryToken = "R"

// minRecoverySteps is the step floor that made a recovery day count.
const minRecoverySteps = 5000

// Legacy returns the first rule generation.
func Legacy() *RuleSet {
	return NewRuleSet(VersionLegacy,
		WithRules(
			NewNumericRule(Gym, capped(2, 4), thresholds(2, 1)),
			NewNumericRule(Food, capped(1, 3), thresholds(3, 2)),
			NewNumericRule(Saps, above(0, 1), binary(1)),
			NewNumericRule(Sleep, sleepPoints, sleepColor),
			NewNumericRule(Study, studyBand, thresholds(4, 2)),
			NewNumericRule(Steps, func(v float64) float64 { return math.Floor(v / 5000) }, thresholds(15000, 10000)),
			NewNumericRule(Hausarbeit, identity, thresholds(3, 2)),
			NewNumericRule(Work, func(v float64) float64 { return v / 100 }, thresholds(300, 150)),
			NewSentinelRule(Recovery, func(float64) float64 { return 0 }, recoveryColor, map[string]Cell{
				recoveryToken: {Points: 1, Color: model.Green},
			}),
			NewNumericRule(Podcast, capped(2, 6), thresholds(3, 1)),
			NewNumericRule(Fehler, scaled(-2), legacyErrorColor),
		),
		WithValidators(RecoveryGate{
			Category: Recovery,
			Token:    recoveryToken,
			Gym:      Gym,
			Steps:    Steps,
			MinSteps: minRecoverySteps,
		}),
		WithChartCategories(Gym, Food, Sleep, Study, Steps, Work),
	)
}

func studyBand(v float64) float64 {
	switch {
	case v >= 4:
		return 3
	case v >= 2:
		return 2
	case v >= 1:
		return 1
	default:
		return 0
	}
}

// recoveryColor: a numeric zero marks a plain rest day, anything else is
// not a valid recovery entry.
func recoveryColor(v float64) model.Color {
	if v == 0 {
		return model.DarkGreen
	}
	return model.Red
}

func legacyErrorColor(v float64) model.Color {
	switch {
	case v == 0:
		return model.Green
	case v <= 2:
		return model.Orange
	default:
		return model.Red
	}
}
