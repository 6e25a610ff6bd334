package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"resume-analyzer-go/internal/api/handler"
)

// RegisterRoutes 注册 API 路由，ingest 中间件只作用于上传和抽取接口
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, ingest ...app.HandlerFunc) {
	api := h.Group("/api/v1")

	resume := api.Group("/resume", ingest...)
	resume.POST("/upload", resumeHandler.HandleResumeUpload)
	resume.POST("/extract", resumeHandler.HandleExtract)

	candidates := api.Group("/candidates")
	candidates.GET("", resumeHandler.HandleSearch)
	candidates.GET("/stats", resumeHandler.HandleStats)
	candidates.GET("/:id", resumeHandler.HandleGetCandidate)
	candidates.PUT("/:id/shortlist", resumeHandler.HandleShortlist)
	candidates.PUT("/:id/status", resumeHandler.HandleUpdateStatus)
	candidates.DELETE("/:id", resumeHandler.HandleDeleteCandidate)

	api.GET("/skills/suggest", resumeHandler.HandleSuggestSkills)
	api.GET("/health", resumeHandler.HandleHealth)
}
