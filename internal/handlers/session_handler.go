package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/services"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/session"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/utils"
)

// SessionHandler exposes the quiz-taking lifecycle over HTTP: open a session,
// record answers and flags, watch the clock, and submit.
type SessionHandler struct {
	BaseHandler
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
	}
}

// ===== REQUEST/RESPONSE STRUCTURES =====

type OpenSessionRequest struct {
	QuizID    string `json:"quiz_id" binding:"required"`
	StudentID string `json:"student_id" binding:"required"`
}

type AnswerRequest struct {
	// Value is the student's answer; null clears the question back to
	// unanswered.
	Value *models.AnswerValue `json:"value"`
}

type SessionStatusResponse struct {
	State         string           `json:"state"`
	TimeRemaining *float64         `json:"time_remaining_seconds,omitempty"`
	Answers       models.AnswerMap `json:"answers"`
	Flagged       []string         `json:"flagged"`
}

// ===== HANDLERS =====

// OpenSession starts (or resumes) a quiz session for a student.
// POST /api/v1/sessions
func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	_, report, err := h.sessions.Open(c.Request.Context(), req.QuizID, req.StudentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Session active",
		Data:    report,
	})
}

// GetSession reports the current state of a live session.
// GET /api/v1/sessions/:quiz_id/students/:student_id
func (h *SessionHandler) GetSession(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	studentID := ParseStringIDParam(c, "student_id")
	if quizID == "" || studentID == "" {
		return
	}

	engine, ok := h.sessions.Get(quizID, studentID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No live session"})
		return
	}

	resp := SessionStatusResponse{
		State:   string(engine.State()),
		Answers: engine.Answers(),
		Flagged: engine.FlaggedQuestions(),
	}
	if remaining := engine.TimeRemaining(); remaining != nil {
		seconds := remaining.Seconds()
		resp.TimeRemaining = &seconds
	}
	c.JSON(http.StatusOK, resp)
}

// SaveAnswer records or clears one answer.
// PUT /api/v1/sessions/:quiz_id/students/:student_id/answers/:question_id
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	engine, questionID, ok := h.sessionAndQuestion(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := engine.Answer(questionID, req.Value); err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer saved"})
}

// FlagQuestion marks a question for review.
// POST /api/v1/sessions/:quiz_id/students/:student_id/flags/:question_id
func (h *SessionHandler) FlagQuestion(c *gin.Context) {
	engine, questionID, ok := h.sessionAndQuestion(c)
	if !ok {
		return
	}
	if err := engine.Flag(questionID); err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Question flagged"})
}

// UnflagQuestion removes a review mark.
// DELETE /api/v1/sessions/:quiz_id/students/:student_id/flags/:question_id
func (h *SessionHandler) UnflagQuestion(c *gin.Context) {
	engine, questionID, ok := h.sessionAndQuestion(c)
	if !ok {
		return
	}
	if err := engine.Unflag(questionID); err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Flag removed"})
}

// SubmitSession ends the session at the student's request.
// POST /api/v1/sessions/:quiz_id/students/:student_id/submit
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	studentID := ParseStringIDParam(c, "student_id")
	if quizID == "" || studentID == "" {
		return
	}

	engine, ok := h.sessions.Get(quizID, studentID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No live session"})
		return
	}

	result, err := engine.ManualSubmit(c.Request.Context())
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	h.sessions.Remove(quizID, studentID)
	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz submitted",
		Data:    result,
	})
}

// CloseSession drops the live session without submitting. Progress stays in
// the autosave snapshot and a later open resumes from it.
// DELETE /api/v1/sessions/:quiz_id/students/:student_id
func (h *SessionHandler) CloseSession(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	studentID := ParseStringIDParam(c, "student_id")
	if quizID == "" || studentID == "" {
		return
	}
	h.sessions.Remove(quizID, studentID)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Session closed"})
}

func (h *SessionHandler) sessionAndQuestion(c *gin.Context) (*session.Engine, string, bool) {
	quizID := ParseStringIDParam(c, "quiz_id")
	studentID := ParseStringIDParam(c, "student_id")
	questionID := ParseStringIDParam(c, "question_id")
	if quizID == "" || studentID == "" || questionID == "" {
		return nil, "", false
	}

	engine, ok := h.sessions.Get(quizID, studentID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No live session"})
		return nil, "", false
	}
	return engine, questionID, true
}

// handleSessionError adds session-specific mappings on top of the common ones.
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownQuestion):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrUnansweredQuestions):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: err.Error(),
			Code:    "unanswered_questions",
		})
	case errors.Is(err, services.ErrSessionNotActive),
		errors.Is(err, services.ErrSessionAlreadyEnded):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	default:
		h.handleServiceError(c, err)
	}
}
