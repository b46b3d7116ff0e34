package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khoahotran/cloudvid/pkg/auth"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

type RouterDeps struct {
	AuthHandler  *AuthHandler
	VideoHandler *VideoHandler
	RSSHandler   *RSSHandler
	JWTService   *auth.JWTService
	Logger       logger.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(MetricsMiddleware())
	router.Use(ErrorMiddleware(d.Logger))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
	api.POST("/auth/login", d.AuthHandler.Login)

	videos := api.Group("/videos")
	videos.Use(AuthMiddleware(d.JWTService, d.Logger))
	{
		videos.GET("", d.VideoHandler.ListVideos)
		videos.GET("/feed.rss", d.RSSHandler.GenerateRSS)
		videos.GET("/by-id/*publicId", d.VideoHandler.GetVideo)

		private := videos.Group("")
		private.Use(RequireCaller())
		{
			private.POST("", d.VideoHandler.UploadVideo)
			private.POST("/direct-upload/sign", d.VideoHandler.SignDirectUpload)
			private.POST("/direct-upload", d.VideoHandler.SaveDirectUpload)
			private.POST("/delete", d.VideoHandler.DeleteVideo)
			private.DELETE("/by-id/*publicId", d.VideoHandler.DeleteVideoByID)
		}
	}

	return router
}
