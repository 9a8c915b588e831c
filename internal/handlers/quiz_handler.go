package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/cache"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/utils"
	appvalidator "github.com/VAL02142004/Online-Quiz--sub000/internal/validator"
)

// QuizHandler manages quiz definitions. Every create and update runs the full
// question consistency validation before anything is stored.
type QuizHandler struct {
	BaseHandler
	quizzes   repositories.QuizRepository
	cache     *cache.QuizCache
	validator *appvalidator.Validator
}

func NewQuizHandler(quizzes repositories.QuizRepository, quizCache *cache.QuizCache, validator *appvalidator.Validator, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizzes:     quizzes,
		cache:       quizCache,
		validator:   validator,
	}
}

// CreateQuiz stores a new quiz definition.
// POST /api/v1/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var quiz models.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.Validate(&quiz); err != nil {
		h.handleServiceError(c, err)
		return
	}

	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := time.Now()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now

	if err := h.quizzes.Create(c.Request.Context(), &quiz); err != nil {
		if repositories.IsConflictError(err) {
			c.JSON(http.StatusConflict, ErrorResponse{Message: "Quiz already exists"})
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to create quiz", err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Quiz created",
		Data:    quiz,
	})
}

// GetQuiz returns a quiz definition, served through the cache.
// GET /api/v1/quizzes/:quiz_id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}

	quiz, err := h.cache.GetQuiz(c.Request.Context(), quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "Quiz not found"})
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to get quiz", err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// UpdateQuiz replaces a quiz definition and invalidates the cached copy.
// PUT /api/v1/quizzes/:quiz_id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}

	var quiz models.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	quiz.ID = quizID

	if err := h.validator.Validate(&quiz); err != nil {
		h.handleServiceError(c, err)
		return
	}
	quiz.UpdatedAt = time.Now()

	if err := h.quizzes.Update(c.Request.Context(), &quiz); err != nil {
		if repositories.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "Quiz not found"})
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to update quiz", err)
		return
	}

	if err := h.cache.Invalidate(c.Request.Context(), quizID); err != nil {
		h.logger.Warn("Failed to invalidate quiz cache", "quiz_id", quizID, "error", err)
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz updated",
		Data:    quiz,
	})
}
