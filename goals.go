package main

import (
	"errors"
	"fmt"
	"math"
)

// kcalPerKgFat is the energy content used to turn a weekly weight change into
// a daily calorie delta (7700 kcal ≈ 1 kg of body fat).
const kcalPerKgFat = 7700.0

// proteinPerKgGoalWeight is the protein multiplier in g per kg of goal weight.
const proteinPerKgGoalWeight = 2.0

// factorPerWorkout is added to the step-tier activity factor for each weekly
// strength session.
const factorPerWorkout = 0.05

// Activity factor bounds. With five step tiers and at most 7 workouts the
// factor tops out at 2.15, so the clamp only guards future tier changes.
const (
	minActivityFactor = 1.0
	maxActivityFactor = 2.2
)

// stepTiers maps a minimum daily step count to its base activity factor.
// Ordered from the highest threshold down; the first match wins.
var stepTiers = []struct {
	minSteps int
	factor   float64
}{
	{12000, 1.8},
	{10000, 1.6},
	{8000, 1.4},
	{5000, 1.3},
	{0, 1.2},
}

// validGoalChanges is the set of weekly change rates offered by the form (kg/week).
var validGoalChanges = map[float64]bool{
	0.25: true,
	0.5:  true,
	0.75: true,
	1.0:  true,
}

/* ─── Errors ─────────────────────────────────────────────────────────── */

// invalidInputError reports a single biometric field outside its domain.
// computeGoals joins one of these per offending field.
type invalidInputError struct {
	Field  string
	Reason string
}

func (e *invalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// invalidFields flattens a (possibly joined) validation error into
// field -> reason. Returns nil if err carries no invalidInputError.
func invalidFields(err error) map[string]string {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	var fields map[string]string
	for _, e := range errs {
		var inv *invalidInputError
		if errors.As(e, &inv) {
			if fields == nil {
				fields = make(map[string]string)
			}
			fields[inv.Field] = inv.Reason
		}
	}
	return fields
}

/* ─── Validation ─────────────────────────────────────────────────────── */

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// validate checks every field and returns all violations joined, or nil.
func (in biometricInput) validate() error {
	var errs []error
	bad := func(field, reason string) {
		errs = append(errs, &invalidInputError{Field: field, Reason: reason})
	}

	if in.Gender != genderMale && in.Gender != genderFemale {
		bad("gender", "must be male or female")
	}
	if in.Age < 10 || in.Age > 99 {
		bad("age", "must be between 10 and 99")
	}
	if !isFinite(in.HeightM) || in.HeightM <= 1.0 || in.HeightM > 2.5 {
		bad("height_m", "must be greater than 1.0 and at most 2.5")
	}
	if !isFinite(in.WeightKG) || in.WeightKG <= 20 || in.WeightKG > 300 {
		bad("weight_kg", "must be greater than 20 and at most 300")
	}
	if !isFinite(in.GoalWeightKG) || in.GoalWeightKG <= 20 || in.GoalWeightKG > 300 {
		bad("goal_weight_kg", "must be greater than 20 and at most 300")
	}
	if in.WorkoutsPerWeek < 0 || in.WorkoutsPerWeek > 7 {
		bad("workouts_per_week", "must be between 0 and 7")
	}
	if in.DailySteps < 0 {
		bad("daily_steps", "must not be negative")
	}
	if in.GoalType != goalLose && in.GoalType != goalGain {
		bad("goal_type", "must be lose or gain")
	}
	if !validGoalChanges[in.GoalChangePerWeek] {
		bad("goal_change_per_week", "must be one of 0.25, 0.5, 0.75, 1.0")
	}

	return errors.Join(errs...)
}

/* ─── Formula pipeline ───────────────────────────────────────────────── */

// computeBMI returns weight / height² rounded to one decimal.
func computeBMI(weightKG, heightM float64) (float64, error) {
	if !isFinite(heightM) || heightM <= 0 {
		return 0, &invalidInputError{Field: "height_m", Reason: "must be positive"}
	}
	return roundTo(weightKG/(heightM*heightM), 1), nil
}

// computeBMR estimates basal metabolic rate (kcal/day) with the Harris-Benedict
// equations. Height is converted to centimeters.
func computeBMR(age int, g gender, weightKG, heightM float64) float64 {
	heightCM := heightM * 100
	if g == genderMale {
		return 66.47 + 13.7*weightKG + 5.0*heightCM - 6.8*float64(age)
	}
	return 655.1 + 9.6*weightKG + 1.8*heightCM - 4.7*float64(age)
}

// computeActivityFactor picks the base factor from the daily step tier, adds
// factorPerWorkout per weekly workout and clamps to the physiological band.
func computeActivityFactor(workoutsPerWeek, dailySteps int) float64 {
	factor := stepTiers[len(stepTiers)-1].factor
	for _, tier := range stepTiers {
		if dailySteps >= tier.minSteps {
			factor = tier.factor
			break
		}
	}
	factor += float64(workoutsPerWeek) * factorPerWorkout
	return math.Min(math.Max(factor, minActivityFactor), maxActivityFactor)
}

func computeTDEE(bmr, activityFactor float64) float64 {
	return bmr * activityFactor
}

// computeCalorieTarget shifts TDEE by the daily delta implied by the weekly
// goal: below TDEE when losing, above when gaining.
func computeCalorieTarget(tdee, goalChangePerWeek float64, g goalType) float64 {
	delta := goalChangePerWeek * kcalPerKgFat / 7
	if g == goalLose {
		return tdee - delta
	}
	return tdee + delta
}

func computeProteinTarget(goalWeightKG, multiplier float64) float64 {
	return goalWeightKG * multiplier
}

// computeGoals validates the input and runs the pipeline in order: BMI, BMR,
// activity factor, TDEE, calorie target, protein target. Only the final values
// are rounded; the calorie target is derived from the unrounded TDEE.
func computeGoals(in biometricInput) (goalResult, error) {
	if err := in.validate(); err != nil {
		return goalResult{}, err
	}

	bmi, err := computeBMI(in.WeightKG, in.HeightM)
	if err != nil {
		return goalResult{}, err
	}
	bmr := computeBMR(in.Age, in.Gender, in.WeightKG, in.HeightM)
	factor := computeActivityFactor(in.WorkoutsPerWeek, in.DailySteps)
	tdee := computeTDEE(bmr, factor)
	calories := computeCalorieTarget(tdee, in.GoalChangePerWeek, in.GoalType)
	protein := computeProteinTarget(in.GoalWeightKG, proteinPerKgGoalWeight)

	return goalResult{
		BMI:            bmi,
		BMR:            int(math.Round(bmr)),
		TDEE:           int(math.Round(tdee)),
		CalorieTarget:  int(math.Round(calories)),
		ProteinTargetG: int(math.Round(protein)),
	}, nil
}

// roundTo rounds v half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
