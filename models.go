package main

import (
	"time"
)

type gender string

const (
	genderMale   gender = "male"
	genderFemale gender = "female"
)

type goalType string

const (
	goalLose goalType = "lose"
	goalGain goalType = "gain"
)

/* ─── Domain structs ─────────────────────────────────────────────────── */

// biometricInput is one form submission: the user's measurements and goal.
// Height is in meters, weights in kilograms, goal change in kg/week.
type biometricInput struct {
	Gender            gender   `json:"gender"`
	Age               int      `json:"age"`
	HeightM           float64  `json:"height_m"`
	WeightKG          float64  `json:"weight_kg"`
	GoalWeightKG      float64  `json:"goal_weight_kg"`
	WorkoutsPerWeek   int      `json:"workouts_per_week"`
	DailySteps        int      `json:"daily_steps"`
	GoalType          goalType `json:"goal_type"`
	GoalChangePerWeek float64  `json:"goal_change_per_week"`
}

// goalResult is derived from a biometricInput by computeGoals and never
// modified afterwards. BMI has one decimal; everything else is whole kcal or g.
type goalResult struct {
	BMI            float64 `json:"bmi"`
	BMR            int     `json:"bmr"`
	TDEE           int     `json:"tdee"`
	CalorieTarget  int     `json:"calorie_target"`
	ProteinTargetG int     `json:"protein_target_g"`
}

const (
	speakerCoach = "coach"
	speakerUser  = "user"
)

// chatMessage is one entry in a session's chat history.
type chatMessage struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	Route   string    `json:"route,omitempty"` // "coach" or "nutrition" for coach replies
	At      time.Time `json:"at"`
}

// coachRating is a 1-5 score for one coach reply. Generation counts form
// submissions within the session and MessageIndex is the reply's position in
// that submission's history; (SessionID, Generation, MessageIndex) is unique.
type coachRating struct {
	SessionID    string    `json:"session_id"    db:"session_id"`
	Generation   int       `json:"generation"    db:"generation"`
	MessageIndex int       `json:"message_index" db:"message_index"`
	Reply        string    `json:"reply"         db:"reply"`
	Rating       int       `json:"rating"        db:"rating"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}

/* ─── Request / Response types ───────────────────────────────────────── */

// goalsResponse is returned by POST /api/goals and POST /api/sessions/:id/profile.
type goalsResponse struct {
	Input   biometricInput `json:"input"`
	Goals   goalResult     `json:"goals"`
	Report  reportDocument `json:"report"`
	History []chatMessage  `json:"history,omitempty"`
}

// sessionView is the response shape for GET /api/sessions/:id.
// Input and Goals are null until the form has been submitted.
type sessionView struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Generation int             `json:"generation"`
	Input      *biometricInput `json:"input"`
	Goals      *goalResult     `json:"goals"`
	HasReport  bool            `json:"has_report"`
	History    []chatMessage   `json:"history"`
}

// chatRequest is the request body for POST /api/sessions/:id/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse carries the coach reply and the index it was stored at, which
// is the index a rating refers to.
type chatResponse struct {
	Reply        string `json:"reply"`
	Route        string `json:"route"`
	MessageIndex int    `json:"message_index"`
}

// rateReplyRequest is the request body for POST /api/sessions/:id/ratings.
type rateReplyRequest struct {
	MessageIndex int `json:"message_index"`
	Rating       int `json:"rating"`
}
