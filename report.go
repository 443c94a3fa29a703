package main

import (
	"strconv"
	"strings"
)

const reportTitle = "SmartFit Coaching Report"

// Section titles, in the order renderReport emits them.
const (
	sectionIntroduction   = "Introduction"
	sectionYourData       = "Your data"
	sectionKeyGoals       = "Key goals"
	sectionRecommendation = "Recommendation"
	sectionClosing        = "Closing"
)

// Static copy is written with typographic punctuation; renderReport passes it
// through normalizeText like everything else.
var (
	introLines = []string{
		"Thank you for choosing SmartFit – we’re glad you’re here.",
		"Here is your personal fitness overview at a glance…",
	}
	recommendationLines = []string{
		"At least 3 strength sessions per week",
		"Spread your protein intake evenly across the day",
		"Stay within your calorie balance",
		"7000+ steps per day",
		"2–3 liters of water daily",
	}
	closingLines = []string{
		"Stay consistent and patient.",
		"You’re on the right track!",
		"",
		"Your SmartFit coach",
	}
)

/* ─── Document model ─────────────────────────────────────────────────── */

// reportDocument is the renderer's output: an ordered list of sections that a
// serializer (see renderPDF) turns into bytes.
type reportDocument struct {
	Title    string          `json:"title"`
	Sections []reportSection `json:"sections"`
}

// reportSection has rows, free lines, or both. Rows come first when laid out.
type reportSection struct {
	Title string      `json:"title"`
	Rows  []reportRow `json:"rows,omitempty"`
	Lines []string    `json:"lines,omitempty"`
}

// reportRow is a label/value pair with an optional unit. Highlight marks the
// key goals that get boxed in the PDF.
type reportRow struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Unit      string `json:"unit,omitempty"`
	Highlight bool   `json:"highlight,omitempty"`
}

// renderError is returned when renderReport gets a goalResult that could not
// have come from computeGoals.
type renderError struct {
	Reason string
}

func (e *renderError) Error() string {
	return "render report: " + e.Reason
}

/* ─── Text normalization ─────────────────────────────────────────────── */

// asciiReplacer maps typographic punctuation onto ASCII. Every replacement is
// plain ASCII, so applying it twice is the same as applying it once.
var asciiReplacer = strings.NewReplacer(
	"\u2013", "-", // en dash
	"\u2014", "-", // em dash
	"\u2212", "-", // minus sign
	"\u2018", "'",
	"\u2019", "'",
	"\u201a", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u201e", `"`,
	"\u2026", "...",
	"\u00a0", " ", // no-break space
	"\u202f", " ", // narrow no-break space
	"\u2009", " ", // thin space
	"\u2007", " ", // figure space
)

// normalizeText transliterates typographic punctuation that the PDF core fonts
// cannot draw.
func normalizeText(s string) string {
	return asciiReplacer.Replace(s)
}

/* ─── Rendering ──────────────────────────────────────────────────────── */

// renderReport builds the five-section coaching report for one submission.
// It performs no I/O.
func renderReport(in biometricInput, res goalResult) (reportDocument, error) {
	if err := checkRenderable(res); err != nil {
		return reportDocument{}, err
	}

	yourData := []reportRow{
		{Label: "Gender", Value: string(in.Gender)},
		{Label: "Age", Value: strconv.Itoa(in.Age), Unit: "years"},
		{Label: "Height", Value: formatNumber(in.HeightM), Unit: "m"},
		{Label: "Weight", Value: formatNumber(in.WeightKG), Unit: "kg"},
		{Label: "Goal weight", Value: formatNumber(in.GoalWeightKG), Unit: "kg"},
		{Label: "Strength training per week", Value: strconv.Itoa(in.WorkoutsPerWeek)},
		{Label: "Steps per day", Value: strconv.Itoa(in.DailySteps)},
		{Label: "Goal", Value: string(in.GoalType)},
		{Label: "Goal change", Value: formatNumber(in.GoalChangePerWeek), Unit: "kg/week"},
		{Label: "Basal metabolic rate (BMR)", Value: strconv.Itoa(res.BMR), Unit: "kcal"},
		{Label: "Total daily energy expenditure (TDEE)", Value: strconv.Itoa(res.TDEE), Unit: "kcal"},
	}

	keyGoals := []reportRow{
		{Label: "Calorie target", Value: strconv.Itoa(res.CalorieTarget), Unit: "kcal", Highlight: true},
		{Label: "Protein target", Value: strconv.Itoa(res.ProteinTargetG), Unit: "g", Highlight: true},
		{Label: "BMI", Value: strconv.FormatFloat(res.BMI, 'f', 1, 64), Highlight: true},
	}

	recommendations := make([]string, len(recommendationLines))
	for i, line := range recommendationLines {
		recommendations[i] = "- " + line
	}

	doc := reportDocument{
		Title: reportTitle,
		Sections: []reportSection{
			{Title: sectionIntroduction, Lines: introLines},
			{Title: sectionYourData, Rows: yourData},
			{Title: sectionKeyGoals, Rows: keyGoals},
			{Title: sectionRecommendation, Lines: recommendations},
			{Title: sectionClosing, Lines: closingLines},
		},
	}
	return normalizeDocument(doc), nil
}

func checkRenderable(res goalResult) error {
	switch {
	case !isFinite(res.BMI) || res.BMI <= 0:
		return &renderError{Reason: "bmi must be positive"}
	case res.BMR <= 0:
		return &renderError{Reason: "bmr must be positive"}
	case res.TDEE <= 0:
		return &renderError{Reason: "tdee must be positive"}
	case res.CalorieTarget <= 0:
		return &renderError{Reason: "calorie target must be positive"}
	case res.ProteinTargetG <= 0:
		return &renderError{Reason: "protein target must be positive"}
	}
	return nil
}

// normalizeDocument returns a copy of doc with every string normalized.
// The static line slices are shared package state, so they are never
// modified in place.
func normalizeDocument(doc reportDocument) reportDocument {
	out := reportDocument{
		Title:    normalizeText(doc.Title),
		Sections: make([]reportSection, len(doc.Sections)),
	}
	for i, s := range doc.Sections {
		ns := reportSection{Title: normalizeText(s.Title)}
		for _, r := range s.Rows {
			ns.Rows = append(ns.Rows, reportRow{
				Label:     normalizeText(r.Label),
				Value:     normalizeText(r.Value),
				Unit:      normalizeText(r.Unit),
				Highlight: r.Highlight,
			})
		}
		for _, l := range s.Lines {
			ns.Lines = append(ns.Lines, normalizeText(l))
		}
		out.Sections[i] = ns
	}
	return out
}

// formatNumber keeps the shortest exact form: 85, 1.75, 0.25.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String renders a row the way it appears as a plain line: "Label: value unit".
func (r reportRow) String() string {
	if r.Unit == "" {
		return r.Label + ": " + r.Value
	}
	return r.Label + ": " + r.Value + " " + r.Unit
}
