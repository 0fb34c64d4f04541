package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusexam/exam-portal/internal/auth"
	"github.com/campusexam/exam-portal/internal/services"
	"github.com/campusexam/exam-portal/internal/utils"
)

type HandlerManager struct {
	jwtSecret []byte

	authHandler     *AuthHandler
	userHandler     *UserHandler
	questionHandler *QuestionHandler
	testHandler     *TestHandler
	attemptHandler  *AttemptHandler
	requestHandler  *RequestHandler
}

func NewHandlerManager(
	serviceManager *services.ServiceManager,
	logger utils.Logger,
	jwtSecret string,
) *HandlerManager {
	return &HandlerManager{
		jwtSecret:       []byte(jwtSecret),
		authHandler:     NewAuthHandler(serviceManager.User(), logger),
		userHandler:     NewUserHandler(serviceManager.User(), logger),
		questionHandler: NewQuestionHandler(serviceManager.QuestionBank(), serviceManager.ImportExport(), logger),
		testHandler:     NewTestHandler(serviceManager.TestCatalog(), logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), logger),
		requestHandler:  NewRequestHandler(serviceManager.TestRequest(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "exam-portal",
		})
	})

	v1 := router.Group("/api/v1")

	// Public auth routes
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", hm.authHandler.Register)
		authRoutes.POST("/login", hm.authHandler.Login)
	}

	authed := v1.Group("")
	authed.Use(auth.Authenticate(hm.jwtSecret))
	admin := auth.RequireAdmin()
	{
		// Question set routes
		questionSets := authed.Group("/question-sets")
		{
			questionSets.POST("", admin, hm.questionHandler.CreateQuestionSet)
			questionSets.GET("", hm.questionHandler.ListQuestionSets)
			questionSets.GET("/:id", hm.questionHandler.GetQuestionSet)
			questionSets.DELETE("/:id", admin, hm.questionHandler.DeleteQuestionSet)

			// Question management within a set
			questionSets.POST("/:id/questions", admin, hm.questionHandler.CreateQuestion)
			questionSets.POST("/:id/questions/batch", admin, hm.questionHandler.CreateQuestionsBatch)

			// Spreadsheet import/export
			questionSets.POST("/:id/import", admin, hm.questionHandler.ImportQuestions)
			questionSets.GET("/:id/export", admin, hm.questionHandler.ExportQuestions)
		}

		// Question routes
		questions := authed.Group("/questions")
		{
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.DELETE("/:id", admin, hm.questionHandler.DeleteQuestion)
		}

		// Test routes
		tests := authed.Group("/tests")
		{
			tests.POST("", admin, hm.testHandler.CreateTest)
			tests.GET("", hm.testHandler.ListTests)
			tests.GET("/available", hm.testHandler.ListAvailableTests)
			tests.GET("/:id", hm.testHandler.GetTest)
			tests.DELETE("/:id", admin, hm.testHandler.DeleteTest)
			tests.GET("/:id/stats", admin, hm.testHandler.GetTestStats)
		}

		// Attempt routes
		attempts := authed.Group("/attempts")
		{
			attempts.POST("", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/result", hm.attemptHandler.GetResult)
		}

		// Test request routes
		requests := authed.Group("/test-requests")
		{
			requests.POST("", hm.requestHandler.CreateRequest)
			requests.GET("", hm.requestHandler.ListRequests)
			requests.POST("/:id/review", admin, hm.requestHandler.ReviewRequest)
		}

		// User routes
		users := authed.Group("/users")
		{
			users.POST("", admin, hm.userHandler.CreateUser)
			users.GET("", admin, hm.userHandler.SearchUsers)
			users.GET("/me", hm.userHandler.GetProfile)
			users.PUT("/me", hm.userHandler.UpdateProfile)
			users.PUT("/me/password", hm.userHandler.ChangePassword)
		}
	}
}
