package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/jwyun/staffpass-backend/internal/errors"
	"github.com/jwyun/staffpass-backend/internal/storage"
	"github.com/jwyun/staffpass-backend/pkg/logger"
)

type UploadController struct {
	storage *storage.S3Storage
}

func NewUploadController(storage *storage.S3Storage) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Kind        string `json:"kind"` // selfie | code | store | profile
}

type GenerateViewURLRequest struct {
	Key string `json:"key" binding:"required"`
}

// 업로드 종류별 버킷 폴더 매핑. 모르는 종류는 셀피로 취급하지 않고 거부한다.
var uploadFolders = map[string]string{
	"selfie":  storage.FolderSelfies,
	"code":    storage.FolderCodePhotos,
	"store":   storage.FolderStores,
	"profile": storage.FolderProfiles,
}

// GeneratePresignedURL generates a presigned PUT URL for uploading evidence
// photos and other images to S3
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid presigned URL request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	// Validate content type (only allow images)
	allowedTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
	}
	if err := ctrl.storage.ValidateContentType(req.ContentType, allowedTypes); err != nil {
		logger.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "이미지 파일만 업로드할 수 있습니다 (JPEG, PNG, WEBP)")
		return
	}

	kind := req.Kind
	if kind == "" {
		kind = "selfie"
	}
	folder, ok := uploadFolders[kind]
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "올바르지 않은 업로드 종류입니다")
		return
	}

	response, err := ctrl.storage.GenerateUploadURL(req.Filename, req.ContentType, folder)
	if err != nil {
		logger.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
			"folder":       folder,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "업로드 URL 생성에 실패했습니다")
		return
	}

	logger.Info("Presigned URL generated successfully", map[string]interface{}{
		"filename":     req.Filename,
		"content_type": req.ContentType,
		"folder":       folder,
		"key":          response.Key,
	})

	c.JSON(http.StatusOK, gin.H{
		"upload_url": response.UploadURL,
		"file_url":   response.FileURL,
		"key":        response.Key,
	})
}

// GenerateViewURL generates a short-lived GET URL so admins can view private
// evidence photos during review
// POST /api/v1/admin/upload/view-url
func (ctrl *UploadController) GenerateViewURL(c *gin.Context) {
	var req GenerateViewURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	url, err := ctrl.storage.GenerateViewURL(req.Key)
	if err != nil {
		logger.Error("Failed to generate view URL", err, map[string]interface{}{
			"key": req.Key,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "조회 URL 생성에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"view_url": url,
	})
}
