package main

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// proteinShortfallG is how far below the protein target (in g) a day has to
// land before the balance flags it.
const proteinShortfallG = 20

const (
	proteinStatusLow = "protein_low"
	proteinStatusMet = "protein_met"
)

// foodItem is one recognised food in a nutrition lookup.
type foodItem struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
}

// nutrientTotals is the result of a nutrition lookup: the foods found plus
// their summed nutrients.
type nutrientTotals struct {
	Foods    []foodItem `json:"foods"`
	Calories float64    `json:"calories"`
	ProteinG float64    `json:"protein_g"`
	FatG     float64    `json:"fat_g"`
	CarbsG   float64    `json:"carbs_g"`
}

// add appends a food and folds its nutrients into the totals.
func (t *nutrientTotals) add(f foodItem) {
	t.Foods = append(t.Foods, f)
	t.Calories += f.Calories
	t.ProteinG += f.ProteinG
	t.FatG += f.FatG
	t.CarbsG += f.CarbsG
}

// dayBalance compares a day's intake against the goal targets. Positive
// diffs mean the day is over target.
type dayBalance struct {
	Calories      int     `json:"calories"`
	ProteinG      float64 `json:"protein_g"`
	CalorieDiff   int     `json:"calorie_diff"`
	ProteinDiffG  int     `json:"protein_diff_g"`
	ProteinStatus string  `json:"protein_status,omitempty"`
}

func computeDayBalance(totals nutrientTotals, goals goalResult) dayBalance {
	b := dayBalance{
		Calories:     int(math.Round(totals.Calories)),
		ProteinG:     roundTo(totals.ProteinG, 1),
		CalorieDiff:  int(math.Round(totals.Calories - float64(goals.CalorieTarget))),
		ProteinDiffG: int(math.Round(totals.ProteinG - float64(goals.ProteinTargetG))),
	}
	switch {
	case b.ProteinDiffG < -proteinShortfallG:
		b.ProteinStatus = proteinStatusLow
	case b.ProteinDiffG >= 0:
		b.ProteinStatus = proteinStatusMet
	}
	return b
}

// formatNutritionReply renders the per-food lines and, when goals are known,
// the day's balance against them.
func formatNutritionReply(totals nutrientTotals, goals *goalResult) string {
	var sb strings.Builder
	for i, f := range totals.Foods {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s: %.0f kcal, %.1f g protein", titleCase(f.Name), math.Round(f.Calories), f.ProteinG)
	}

	fmt.Fprintf(&sb, "\n\nDay's balance: %.0f kcal, %.1f g protein", math.Round(totals.Calories), roundTo(totals.ProteinG, 1))
	if goals == nil {
		return sb.String()
	}

	b := computeDayBalance(totals, *goals)
	fmt.Fprintf(&sb, "\nDifference: %+d kcal, %+d g protein", b.CalorieDiff, b.ProteinDiffG)
	switch b.ProteinStatus {
	case proteinStatusLow:
		sb.WriteString("\nYou ate too little protein.")
	case proteinStatusMet:
		sb.WriteString("\nProtein target reached.")
	}
	return sb.String()
}

// titleCase upper-cases the first letter of each word ("greek yogurt" ->
// "Greek Yogurt").
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
