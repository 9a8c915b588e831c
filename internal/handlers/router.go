package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/cache"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/services"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/session"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/utils"
	appvalidator "github.com/VAL02142004/Online-Quiz--sub000/internal/validator"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	resultHandler  *ResultHandler
	quizHandler    *QuizHandler
}

func NewHandlerManager(
	sessions *session.Manager,
	results services.ResultService,
	regrades services.RegradeService,
	quizzes repositories.QuizRepository,
	quizCache *cache.QuizCache,
	validator *appvalidator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(sessions, logger),
		resultHandler:  NewResultHandler(results, regrades, validator, logger),
		quizHandler:    NewQuizHandler(quizzes, quizCache, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Quiz definition routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("/:quiz_id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:quiz_id", hm.quizHandler.UpdateQuiz)
		}

		// Session lifecycle routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.OpenSession)
			sessions.GET("/:quiz_id/students/:student_id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:quiz_id/students/:student_id", hm.sessionHandler.CloseSession)
			sessions.PUT("/:quiz_id/students/:student_id/answers/:question_id", hm.sessionHandler.SaveAnswer)
			sessions.POST("/:quiz_id/students/:student_id/flags/:question_id", hm.sessionHandler.FlagQuestion)
			sessions.DELETE("/:quiz_id/students/:student_id/flags/:question_id", hm.sessionHandler.UnflagQuestion)
			sessions.POST("/:quiz_id/students/:student_id/submit", hm.sessionHandler.SubmitSession)
		}

		// Result routes
		results := v1.Group("/results")
		{
			results.GET("/:quiz_id/students/:student_id", hm.resultHandler.GetResult)
		}

		// Regrade routes
		v1.POST("/regrades", hm.resultHandler.Regrade)
	}
}
