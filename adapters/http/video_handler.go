package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	videoUC "github.com/khoahotran/cloudvid/internal/application/usecase/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

const (
	// Room for the title and description fields around the file part.
	multipartOverhead = 1 << 20

	defaultPageSize = 30
	maxPageSize     = 100
	// Keeps (page-1)*limit well inside int range.
	maxPage = 1 << 20
)

type VideoHandler struct {
	submitUC       *videoUC.SubmitVideoUseCase
	deleteUC       *videoUC.DeleteVideoUseCase
	listUC         *videoUC.ListVideosUseCase
	getUC          *videoUC.GetVideoUseCase
	maxUploadBytes int64
	logger         logger.Logger
}

func NewVideoHandler(
	submitUC *videoUC.SubmitVideoUseCase,
	deleteUC *videoUC.DeleteVideoUseCase,
	listUC *videoUC.ListVideosUseCase,
	getUC *videoUC.GetVideoUseCase,
	maxUploadBytes int64,
	log logger.Logger,
) *VideoHandler {
	return &VideoHandler{
		submitUC:       submitUC,
		deleteUC:       deleteUC,
		listUC:         listUC,
		getUC:          getUC,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// UploadVideo accepts multipart "file", "title" and "description". The owner
// always comes from the token; any owner field in the form is ignored.
func (h *VideoHandler) UploadVideo(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("upload requires an authenticated caller", nil))
		return
	}

	if c.Request.ContentLength > h.maxUploadBytes+multipartOverhead {
		c.Error(apperror.NewPayloadTooLarge(h.maxUploadBytes))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Error(apperror.NewPayloadTooLarge(h.maxUploadBytes))
			return
		}
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}

	var form UploadVideoForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(apperror.NewInvalidInput("'title' is required", err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open uploaded file", err))
		return
	}
	defer file.Close()

	input := videoUC.SubmitVideoInput{
		OwnerID:  ownerID,
		Title:    form.Title,
		File:     file,
		Size:     fileHeader.Size,
		Filename: fileHeader.Filename,
	}
	if form.Description != "" {
		input.Description = &form.Description
	}

	v, err := h.submitUC.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToVideoDTO(v))
}

// SignDirectUpload hands the browser signed parameters for uploading
// straight to the media provider.
func (h *VideoHandler) SignDirectUpload(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("upload requires an authenticated caller", nil))
		return
	}

	signed, err := h.submitUC.SignDirectUpload(c.Request.Context(), ownerID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSignedUploadDTO(signed))
}

// SaveDirectUpload records a video the browser uploaded with signed
// parameters. Size and duration are read back from the provider.
func (h *VideoHandler) SaveDirectUpload(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("upload requires an authenticated caller", nil))
		return
	}

	var req SaveDirectUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("'title' and 'publicId' are required", err))
		return
	}

	v, err := h.submitUC.SaveDirectUpload(c.Request.Context(), videoUC.SaveDirectUploadInput{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		PublicID:    req.PublicID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToVideoDTO(v))
}

// DeleteVideo handles POST {"publicId": "..."}.
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	var req DeleteVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("'publicId' is required", err))
		return
	}
	h.deleteByPublicID(c, req.PublicID)
}

// DeleteVideoByID handles DELETE /videos/by-id/*publicId.
func (h *VideoHandler) DeleteVideoByID(c *gin.Context) {
	h.deleteByPublicID(c, publicIDParam(c))
}

func (h *VideoHandler) deleteByPublicID(c *gin.Context, publicID string) {
	callerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("delete requires an authenticated caller", nil))
		return
	}

	input := videoUC.DeleteVideoInput{CallerID: callerID, PublicID: publicID}
	if err := h.deleteUC.Execute(c.Request.Context(), input); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *VideoHandler) GetVideo(c *gin.Context) {
	callerID, _ := GetOwnerIDFromGinContext(c)

	item, err := h.getUC.Execute(c.Request.Context(), publicIDParam(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToVideoCardDTO(*item, callerID))
}

// ListVideos serves ?page=&limit=&q=&mine=true, newest first.
func (h *VideoHandler) ListVideos(c *gin.Context) {
	callerID, _ := GetOwnerIDFromGinContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		c.Error(apperror.NewInvalidInput("'page' is too large", nil))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	input := videoUC.ListVideosInput{
		Limit:  limit,
		Offset: (page - 1) * limit,
		Query:  c.Query("q"),
	}
	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		if callerID == uuid.Nil {
			c.Error(apperror.NewUnauthorized("'mine' requires an authenticated caller", nil))
			return
		}
		input.OwnerID = callerID
	}

	output, err := h.listUC.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	items := make([]VideoCardDTO, len(output.Items))
	for i, it := range output.Items {
		items[i] = ToVideoCardDTO(it, callerID)
	}
	h.logger.Debug("Listed videos", zap.Int("count", len(items)), zap.Int("page", page))
	c.JSON(http.StatusOK, VideoPageDTO{Items: items, Page: page, Limit: output.Limit, Offset: output.Offset})
}

func publicIDParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("publicId"), "/")
}
