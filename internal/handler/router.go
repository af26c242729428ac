package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studybuddy/studybuddy-api/internal/middleware"
	"github.com/studybuddy/studybuddy-api/internal/models"
	"github.com/studybuddy/studybuddy-api/internal/service"
)

// Routes bundles every handler the API exposes.
type Routes struct {
	Auth    *AuthHandler
	Courses *CourseHandler
	Content *ContentHandler
	Files   *FileHandler
}

// Register mounts all API routes under the given prefix.
func (r *Routes) Register(engine *gin.Engine, prefix string, auth *service.AuthService) {
	api := engine.Group(prefix)

	api.POST("/auth/register", r.Auth.Register)
	api.POST("/auth/login", r.Auth.Login)
	api.POST("/auth/refresh", r.Auth.Refresh)

	// Signed URLs carry their own authorization.
	api.GET("/files/:token", r.Files.Download)

	secured := api.Group("", middleware.JWT(auth))
	secured.POST("/auth/logout", r.Auth.Logout)
	secured.GET("/auth/me", r.Auth.Me)

	instructors := secured.Group("", middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin))
	instructors.GET("/courses", r.Courses.List)
	instructors.POST("/courses", r.Courses.Create)
	instructors.GET("/courses/:id", r.Courses.Get)
	instructors.DELETE("/courses/:id", r.Courses.Delete)
	instructors.POST("/courses/:id/activate", r.Courses.Activate)
	instructors.GET("/courses/:id/files", r.Courses.ListFiles)
	instructors.POST("/courses/:id/files", r.Courses.UploadFiles)

	instructors.POST("/generate-content", r.Content.Generate)
	instructors.POST("/courses/:id/generate-all", r.Content.GenerateAll)
	instructors.GET("/courses/:id/content", r.Content.GetContent)
	instructors.PATCH("/courses/:id/content/:week/status", r.Content.UpdateStatus)
	instructors.GET("/courses/:id/export/csv", r.Content.ExportCSV)
	instructors.GET("/courses/:id/export/quiz/:week", r.Content.ExportQuizPDF)
}
