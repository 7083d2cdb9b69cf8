package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/api/swagger"
	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/pkg/config"
	"github.com/noah-isme/enrollment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/requestid"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	CourseWithStudent *handler.CourseWithStudentHandler
	StudentWithCourse *handler.StudentWithCourseHandler
	Student           *handler.StudentHandler
	Course            *handler.CourseHandler
	Metrics           *handler.MetricsHandler
}

// New builds the gin engine with global middleware and every route mounted.
func New(cfg *config.Config, h Handlers, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(logr))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		swagger.BasePath = cfg.APIPrefix
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	byCourse := api.Group("/course-with-student")
	{
		byCourse.GET("", h.CourseWithStudent.Index)
		byCourse.POST("", h.CourseWithStudent.Store)
		byCourse.GET("/:courseId", h.CourseWithStudent.Show)
		byCourse.GET("/:courseId/roster", h.CourseWithStudent.Roster)
		byCourse.DELETE("/:courseId/:studentId", h.CourseWithStudent.Destroy)
	}

	byStudent := api.Group("/student-with-course")
	{
		byStudent.GET("", h.StudentWithCourse.Index)
		byStudent.POST("", h.StudentWithCourse.Store)
		byStudent.GET("/:studentId", h.StudentWithCourse.Show)
		byStudent.DELETE("/:studentId/:courseId", h.StudentWithCourse.Destroy)
	}

	students := api.Group("/students")
	{
		students.GET("", h.Student.List)
		students.POST("", h.Student.Create)
		students.GET("/:id", h.Student.Get)
		students.PUT("/:id", h.Student.Update)
		students.DELETE("/:id", h.Student.Delete)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", h.Course.List)
		courses.POST("", h.Course.Create)
		courses.GET("/:id", h.Course.Get)
		courses.PUT("/:id", h.Course.Update)
		courses.DELETE("/:id", h.Course.Delete)
	}

	return r
}
