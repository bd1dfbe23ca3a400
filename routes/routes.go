package routes

import (
	"time"

	"driveon/handlers"
	"driveon/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterLessonRoutes registers the lesson service contract.
func RegisterLessonRoutes(r *gin.Engine, h *handlers.LessonHandler) {
	api := r.Group("/lessons")
	api.Use(middleware.JWTAuthMiddleware())
	{
		api.GET("", h.ListLessons)
		api.GET("/instructors", middleware.RequireRole("instructor"), h.InstructorLessons)
		api.GET("/student", middleware.RequireRole("student"), h.StudentLessons)
		api.POST("/book", middleware.RequireRole("student"), h.BookLesson)
		api.POST("/cancel", h.CancelLesson)
		api.GET("/offer", middleware.RequireRole("instructor"), h.GetOffer)
		api.POST("/change", h.ChangeLesson)
	}
}

// CORSConfig returns the CORS policy for mobile and local web clients.
func CORSConfig() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
