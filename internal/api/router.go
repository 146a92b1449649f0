package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/stundenapp/stundenapp-back/docs"
	"github.com/stundenapp/stundenapp-back/internal/auth"
	"github.com/stundenapp/stundenapp-back/internal/config"
	"github.com/stundenapp/stundenapp-back/internal/db"
	"github.com/stundenapp/stundenapp-back/internal/untis"
)

// @title           Stundenapp API
// @version         1.0
// @description     Timetable aggregation backend: merged timetables, lesson search and cancellation alerts.
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func SetupRouter(cfg *config.Config, sealer *auth.Sealer, opener untis.Opener, h *Handler) *gin.Engine {
	r := gin.Default()

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		if err := db.PingDB(); err != nil {
			c.JSON(500, gin.H{"status": "db_ping_error"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/auth/login", auth.LoginHandler(cfg, sealer, opener))
	r.POST("/auth/refresh", auth.RefreshHandler(cfg))

	// Protected
	authGroup := r.Group("/")
	authGroup.Use(auth.AuthMiddleware(cfg, sealer))
	{
		authGroup.GET("/timetable", h.GetTimetable)
		authGroup.GET("/search", h.SearchLessons)
		authGroup.GET("/user/me", GetMe)
		authGroup.PATCH("/user/courses", UpdateCourses)
		authGroup.GET("/user/courses", GetUserCourses)
		authGroup.POST("/user/courses", AddUserCourse)
		authGroup.DELETE("/user/courses/:id", DeleteUserCourse)
	}

	return r
}
