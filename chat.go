package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	routeCoach     = "coach"
	routeNutrition = "nutrition"
)

// nutritionFallbackReply is sent when a food diary entry cannot be analysed.
const nutritionFallbackReply = "Sorry, I couldn't analyse your entry."

// foodDiaryWords mark a message as a food diary entry ("I ate two eggs for
// breakfast") rather than a question for the coach.
var foodDiaryWords = map[string]bool{
	"ate":       true,
	"eaten":     true,
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
}

// isFoodDiaryEntry reports whether text should go to the nutrition lookup.
// Matching is on whole words so "create" does not count as "ate".
func isFoodDiaryEntry(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "i had today") || strings.Contains(lower, "today i had") {
		return true
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if foodDiaryWords[w] {
			return true
		}
	}
	return false
}

// welcomeMessage opens the chat after a form submission.
func welcomeMessage(in biometricInput, goals goalResult) string {
	return fmt.Sprintf("Thanks for your details! You weigh %s kg at %s m and want to %s weight to reach %s kg.\n\n"+
		"Your calorie target is %d kcal and your protein target is %d g. You do %d strength sessions a week and walk about %d steps a day.\n\n"+
		"Ask me anything about training, food or progress.",
		formatNumber(in.WeightKG), formatNumber(in.HeightM), in.GoalType, formatNumber(in.GoalWeightKG),
		goals.CalorieTarget, goals.ProteinTargetG, in.WorkoutsPerWeek, in.DailySteps)
}

// chat answers one chat message. Food diary entries go to the nutrition
// lookup and are compared against the session's goals; everything else goes
// to the coach.
// POST /api/sessions/:id/chat. Body: { "message": "..." }.
func (h *Handler) chat(c *gin.Context) {
	s := currentSession(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		apiError(c, http.StatusBadRequest, "message is required")
		return
	}

	profile := s.profile()

	var reply, route string
	if isFoodDiaryEntry(message) {
		route = routeNutrition
		totals, err := h.nutrition.lookupNutrients(c.Request.Context(), message)
		if err != nil {
			log.Printf("[chat] nutrition lookup error for session %s: %v", s.id, err)
			incChatReply(route, "fallback")
			reply = nutritionFallbackReply
		} else {
			incChatReply(route, "ok")
			var goals *goalResult
			if profile != nil {
				goals = &profile.Goals
			}
			reply = formatNutritionReply(totals, goals)
		}
	} else {
		route = routeCoach
		var err error
		reply, err = h.coach.respond(c.Request.Context(), message, profile)
		if err != nil {
			log.Printf("[chat] coach error for session %s: %v", s.id, err)
			incChatReply(route, "error")
			apiError(c, http.StatusBadGateway, "coach request failed")
			return
		}
		incChatReply(route, "ok")
	}

	index := s.appendExchange(message, reply, route, h.now())
	c.JSON(http.StatusOK, chatResponse{Reply: reply, Route: route, MessageIndex: index})
}

// rateReply stores a 1-5 rating for a coach reply in the current history.
// Rating the same reply again replaces the earlier score; replies from before
// a form resubmission keep theirs.
// POST /api/sessions/:id/ratings. Body: { "message_index": 2, "rating": 4 }.
func (h *Handler) rateReply(c *gin.Context) {
	s := currentSession(c)

	var req rateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		apiError(c, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	msg, generation, ok := s.ratableReply(req.MessageIndex)
	if !ok {
		apiError(c, http.StatusNotFound, "no ratable coach reply at message_index")
		return
	}

	r := coachRating{
		SessionID:    s.id,
		Generation:   generation,
		MessageIndex: req.MessageIndex,
		Reply:        msg.Text,
		Rating:       req.Rating,
		CreatedAt:    h.now().UTC(),
	}
	if err := h.ratings.saveRating(c.Request.Context(), r); err != nil {
		log.Printf("[rateReply] save error for session %s: %v", s.id, err)
		apiError(c, http.StatusInternalServerError, "failed to save rating")
		return
	}
	incReplyRating(req.Rating)

	c.JSON(http.StatusCreated, r)
}

// exportRatings downloads the session's ratings.
// GET /api/sessions/:id/ratings/export?format=csv|xlsx (defaults to csv).
func (h *Handler) exportRatings(c *gin.Context) {
	s := currentSession(c)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		apiError(c, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	ratings, err := h.ratings.listRatings(c.Request.Context(), s.id)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch ratings")
		return
	}
	if len(ratings) == 0 {
		apiError(c, http.StatusNotFound, "no ratings to export")
		return
	}

	var buf bytes.Buffer
	mime := csvMIMEType
	if format == "xlsx" {
		mime = xlsxMIMEType
		err = writeRatingsXLSX(&buf, ratings)
	} else {
		err = writeRatingsCSV(&buf, ratings)
	}
	if err != nil {
		log.Printf("[exportRatings] %s export error for session %s: %v", format, s.id, err)
		apiError(c, http.StatusInternalServerError, "failed to export ratings")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="reply_ratings.%s"`, format))
	c.Data(http.StatusOK, mime, buf.Bytes())
}
