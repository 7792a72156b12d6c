package rules

import "github.com/okian/brecher/internal/domain/model"

// VersionCurrent is the rule generation in force.
const VersionCurrent = "v2"

// Categories of the current rule generation.
const (
	Gym           model.Category = "Gym"
	Food          model.Category = "Food"
	Saps          model.Category = "Saps"
	Sleep         model.Category = "Sleep"
	FH            model.Category = "FH"
	Steps         model.Category = "Steps"
	Hausarbeit    model.Category = "Hausarbeit"
	Work          model.Category = "Work"
	Read          model.Category = "Read"
	Morgenroutine model.Category = "Morgenroutine"
	Abendroutine  model.Category = "Abendroutine"
	Business      model.Category = "Business"
	Fehler        model.Category = "Fehler"
)

// RestDay marks a planned gym rest day.
const RestDay = "R"

// Current returns the rule generation in force.
func Current() *RuleSet {
	return NewRuleSet(VersionCurrent,
		WithRules(
			NewSentinelRule(Gym, scaled(2), binaryOrange(1), map[string]Cell{
				RestDay: {Points: 2, Color: model.Green},
			}),
			NewNumericRule(Food, capped(1, 3), thresholds(3, 2)),
			NewNumericRule(Saps, above(0, 1), positive),
			NewNumericRule(Sleep, sleepPoints, sleepColor),
			NewNumericRule(FH, scaled(0.5), thresholds(4, 2)),
			NewNumericRule(Steps, func(v float64) float64 { return (v * 2) / 10000 }, thresholds(15000, 10000)),
			NewNumericRule(Hausarbeit, identity, thresholds(3, 2)),
			NewNumericRule(Work, func(v float64) float64 { return v / 100 }, thresholds(300, 150)),
			NewNumericRule(Read, scaled(2), thresholds(3, 1)),
			NewNumericRule(Morgenroutine, flag(1, 2), binary(1)),
			NewNumericRule(Abendroutine, flag(1, 2), binary(1)),
			NewNumericRule(Business, identity, thresholds(6, 2)),
			NewErrorToleranceRule(Fehler),
		),
		WithValidators(OncePerWeek{Category: Gym, Token: RestDay}),
		WithBonuses(
			ConsistencyBonus{Category: Gym, Sentinel: RestDay, Threshold: 5, Points: 2},
			CleanWeekBonus{Category: Fehler, Points: 2},
		),
		WithChartCategories(Gym, Food, Sleep, FH, Steps, Work),
	)
}

// above pays points for any value strictly greater than limit.
func above(limit, points float64) func(float64) float64 {
	return func(v float64) float64 {
		if v > limit {
			return points
		}
		return 0
	}
}

// binaryOrange colors green at or above atLeast and orange below.
func binaryOrange(atLeast float64) func(float64) model.Color {
	return func(v float64) model.Color {
		if v >= atLeast {
			return model.Green
		}
		return model.Orange
	}
}
