package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// buildGoalsReport runs the calculator and renderer for one submission.
func buildGoalsReport(in biometricInput) (goalResult, reportDocument, error) {
	goals, err := computeGoals(in)
	if err != nil {
		return goalResult{}, reportDocument{}, err
	}
	doc, err := renderReport(in, goals)
	if err != nil {
		return goalResult{}, reportDocument{}, err
	}
	return goals, doc, nil
}

// respondGoalsError maps calculator and renderer errors onto HTTP responses.
// Validation failures list every offending field.
func respondGoalsError(c *gin.Context, err error) {
	if fields := invalidFields(err); fields != nil {
		incInputsRejected()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": fields})
		return
	}
	var rerr *renderError
	if errors.As(err, &rerr) {
		log.Printf("[goals] render error: %v", err)
	}
	apiError(c, http.StatusInternalServerError, "failed to compute goals")
}

// computeGoalsReport computes goals and the report document without a session.
// POST /api/goals. Body: biometricInput.
func (h *Handler) computeGoalsReport(c *gin.Context) {
	var in biometricInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	goals, doc, err := buildGoalsReport(in)
	if err != nil {
		respondGoalsError(c, err)
		return
	}
	incGoalsComputed(in.GoalType)

	c.JSON(http.StatusOK, goalsResponse{Input: in, Goals: goals, Report: doc})
}

// createSession starts a new session. POST /api/sessions.
func (h *Handler) createSession(c *gin.Context) {
	s := h.sessions.create()
	c.JSON(http.StatusCreated, s.view())
}

// getSession returns the session's submission, goals and chat history.
// GET /api/sessions/:id.
func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).view())
}

// deleteSession ends a session. Returns 204 on success.
// DELETE /api/sessions/:id.
func (h *Handler) deleteSession(c *gin.Context) {
	if !h.sessions.remove(currentSession(c).id) {
		apiError(c, http.StatusNotFound, "session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// submitProfile handles a form submission: computes goals, renders the report
// and its PDF, and restarts the chat with a personalised welcome message.
// POST /api/sessions/:id/profile. Body: biometricInput.
func (h *Handler) submitProfile(c *gin.Context) {
	s := currentSession(c)

	var in biometricInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	goals, doc, err := buildGoalsReport(in)
	if err != nil {
		respondGoalsError(c, err)
		return
	}

	pdf, err := renderPDF(doc)
	if err != nil {
		log.Printf("[submitProfile] pdf error for session %s: %v", s.id, err)
		apiError(c, http.StatusInternalServerError, "failed to render report")
		return
	}
	incGoalsComputed(in.GoalType)
	incReportsRendered()

	history := s.submit(in, goals, doc, pdf, h.now())
	c.JSON(http.StatusOK, goalsResponse{Input: in, Goals: goals, Report: doc, History: history})
}

// downloadReport serves the PDF for the latest submission.
// GET /api/sessions/:id/report.pdf. 404 before the form has been submitted.
func (h *Handler) downloadReport(c *gin.Context) {
	pdf := currentSession(c).reportPDF()
	if pdf == nil {
		apiError(c, http.StatusNotFound, "no report yet, submit your profile first")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="smartfit_report.pdf"`)
	c.Data(http.StatusOK, pdfMIMEType, pdf)
}
