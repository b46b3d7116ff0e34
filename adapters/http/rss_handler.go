package http

import (
	"github.com/gin-gonic/gin"

	videoUC "github.com/khoahotran/cloudvid/internal/application/usecase/video"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

type RSSHandler struct {
	rssUseCase *videoUC.RSSUseCase
	logger     logger.Logger
}

func NewRSSHandler(uc *videoUC.RSSUseCase, log logger.Logger) *RSSHandler {
	return &RSSHandler{
		rssUseCase: uc,
		logger:     log,
	}
}

func (h *RSSHandler) GenerateRSS(c *gin.Context) {
	feed, err := h.rssUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	if err := feed.WriteRss(c.Writer); err != nil {
		h.logger.Error("Failed to write RSS feed to response", err)
	}
}
