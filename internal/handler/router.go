package handler

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"docbrief/internal/config"
	"docbrief/internal/middleware"
	"docbrief/internal/service"
)

type RouterDeps struct {
	Config    *config.Config
	Auth      *service.AuthService
	Stats     *service.StatsService
	Summarize *service.SummarizeService
	Tracking  *service.TrackingService
	Files     *FileHandler
}

func RegisterRoutes(engine *gin.Engine, deps RouterDeps) {
	engine.Use(middleware.CORS(deps.Config.CORSOrigins))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := NewAuthHandler(deps.Auth, deps.Tracking, deps.Config.Auth)
	dashHandler := NewDashHandler(deps.Stats)
	summarizeHandler := NewSummarizeHandler(deps.Summarize, deps.Auth, deps.Tracking)
	trackHandler := NewTrackHandler(deps.Tracking)

	auth := engine.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	jwtAuth := middleware.JWTAuth([]byte(deps.Config.Auth.AccessSecret))

	authed := auth.Group("", jwtAuth)
	authed.POST("/logout", authHandler.Logout)
	authed.GET("/get-profile", authHandler.GetProfile)
	authed.PUT("/change-name", authHandler.ChangeName)
	authed.PUT("/change-password", authHandler.ChangePassword)

	dash := engine.Group("/dash", jwtAuth)
	dash.GET("/get-details", dashHandler.GetDetails)

	// Summarization stays public so trial users can convert before signing
	// up; the handler picks up an identity from the bearer token when one
	// is present.
	summarize := engine.Group("/summarize", middleware.RateLimit(2*time.Second))
	summarize.POST("/pdf", summarizeHandler.SummarizePDF)

	engine.POST("/track", trackHandler.Track)

	if deps.Files != nil {
		engine.GET("/files/:key", deps.Files.Get)
	}
}
