package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/services"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/utils"
	appvalidator "github.com/VAL02142004/Online-Quiz--sub000/internal/validator"
)

// ResultHandler serves persisted results and teacher-initiated regrades.
type ResultHandler struct {
	BaseHandler
	results   services.ResultService
	regrades  services.RegradeService
	validator *appvalidator.Validator
}

func NewResultHandler(results services.ResultService, regrades services.RegradeService, validator *appvalidator.Validator, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger),
		results:     results,
		regrades:    regrades,
		validator:   validator,
	}
}

// GetResult returns a student's stored result for a quiz.
// GET /api/v1/results/:quiz_id/students/:student_id
func (h *ResultHandler) GetResult(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	studentID := ParseStringIDParam(c, "student_id")
	if quizID == "" || studentID == "" {
		return
	}

	result, err := h.results.GetResult(c.Request.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Regrade rescores a completed attempt against the requested question
// definitions. Teacher or admin only.
// POST /api/v1/regrades
func (h *ResultHandler) Regrade(c *gin.Context) {
	var req services.RegradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	result, err := h.regrades.Regrade(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt regraded",
		Data:    result,
	})
}
