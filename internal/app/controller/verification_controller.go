package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/service"
	apperrors "github.com/jwyun/staffpass-backend/internal/errors"
	"github.com/jwyun/staffpass-backend/internal/middleware"
	"github.com/jwyun/staffpass-backend/pkg/logger"
)

type VerificationController struct {
	verificationService service.VerificationService
	scoringService      service.ScoringService
}

func NewVerificationController(
	verificationService service.VerificationService,
	scoringService service.ScoringService,
) *VerificationController {
	return &VerificationController{
		verificationService: verificationService,
		scoringService:      scoringService,
	}
}

type SubmitVerificationRequest struct {
	StoreID          *uint      `json:"store_id"`
	PhotoURL         string     `json:"photo_url" binding:"required"`
	CodeImageURL     string     `json:"code_image_url"`
	SubmittedCode    string     `json:"submitted_code"`
	DeviceLat        *float64   `json:"device_lat"`
	DeviceLng        *float64   `json:"device_lng"`
	DeviceCapturedAt *time.Time `json:"device_captured_at"`
	ExifLat          *float64   `json:"exif_lat"`
	ExifLng          *float64   `json:"exif_lng"`
}

type RejectVerificationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RequestInfoRequest struct {
	Message string `json:"message" binding:"required"`
}

type ReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

// respondDecisionError 심사 액션 공통 에러 매핑
func respondDecisionError(c *gin.Context, log *logger.Logger, err error, context string) {
	var illegal *service.IllegalTransitionError
	switch {
	case errors.Is(err, service.ErrVerificationNotFound):
		apperrors.NotFound(c, apperrors.VerificationNotFound, "인증 요청을 찾을 수 없습니다")
	case errors.As(err, &illegal):
		log.Warn("Decision rejected: request already decided", map[string]interface{}{
			"status": illegal.Current,
			"action": illegal.Action,
		})
		apperrors.Conflict(c, apperrors.VerificationAlreadyDecided, "이미 심사가 종결된 요청입니다")
	case errors.Is(err, service.ErrInvalidRejectReason):
		apperrors.BadRequest(c, apperrors.VerificationInvalidReason, "올바르지 않은 반려 사유 코드입니다")
	case errors.Is(err, service.ErrEmptyMessage):
		apperrors.BadRequest(c, apperrors.ValidationRequired, "메시지 내용이 필요합니다")
	default:
		log.Error("Verification decision failed", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}

// Submit files a new verification request
// POST /api/v1/verifications
func (ctrl *VerificationController) Submit(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req SubmitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid verification submission", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	request, err := ctrl.verificationService.Submit(c.Request.Context(), userID, service.SubmitVerificationInput{
		StoreID:          req.StoreID,
		PhotoURL:         req.PhotoURL,
		CodeImageURL:     req.CodeImageURL,
		SubmittedCode:    req.SubmittedCode,
		DeviceLat:        req.DeviceLat,
		DeviceLng:        req.DeviceLng,
		DeviceCapturedAt: req.DeviceCapturedAt,
		ExifLat:          req.ExifLat,
		ExifLng:          req.ExifLng,
	})
	if err != nil {
		if errors.Is(err, service.ErrOpenRequestExists) {
			apperrors.Conflict(c, apperrors.VerificationAlreadyPending, "이미 심사 중인 인증 요청이 있습니다")
			return
		}
		log.Error("Verification submission failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "submit verification")
		return
	}

	log.Info("Verification request submitted", map[string]interface{}{
		"request_id": request.ID,
		"user_id":    userID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Verification request submitted",
		"request": request,
	})
}

// ListMine lists the authenticated applicant's requests
// GET /api/v1/verifications/me
func (ctrl *VerificationController) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	requests, err := ctrl.verificationService.ListMine(userID)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list verifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
	})
}

// GetDetail returns a request with its info-request and message history.
// Staff can only read their own requests; admins can read any.
// GET /api/v1/verifications/:id
func (ctrl *VerificationController) GetDetail(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	role, _ := middleware.GetUserRole(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := ctrl.verificationService.GetDetail(id, userID, role)
	if err != nil {
		if errors.Is(err, service.ErrVerificationNotFound) {
			apperrors.NotFound(c, apperrors.VerificationNotFound, "인증 요청을 찾을 수 없습니다")
			return
		}
		if errors.Is(err, service.ErrNotRequestOwner) {
			apperrors.Forbidden(c, "")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get verification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request": request,
	})
}

// Reply appends an applicant message to an open request
// POST /api/v1/verifications/:id/reply
func (ctrl *VerificationController) Reply(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	msg, err := ctrl.verificationService.Reply(id, userID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationNotFound):
			apperrors.NotFound(c, apperrors.VerificationNotFound, "인증 요청을 찾을 수 없습니다")
		case errors.Is(err, service.ErrNotRequestOwner):
			apperrors.Forbidden(c, "")
		default:
			log.Error("Reply failed", err, map[string]interface{}{
				"request_id": id,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "reply verification")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Reply added",
		"reply":   msg,
	})
}

// ListByStatus lists requests in a review queue (admin)
// GET /api/v1/admin/verifications?status=pending&page=&page_size=
func (ctrl *VerificationController) ListByStatus(c *gin.Context) {
	status := model.VerificationStatus(c.DefaultQuery("status", string(model.VerificationStatusPending)))
	switch status {
	case model.VerificationStatusPending, model.VerificationStatusNeedsInfo,
		model.VerificationStatusApproved, model.VerificationStatusRejected:
	default:
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "올바르지 않은 상태값입니다")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	requests, total, err := ctrl.verificationService.ListByStatus(status, page, pageSize)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list verifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":  requests,
		"total":     total,
		"status":    status,
		"page":      page,
		"page_size": pageSize,
	})
}

// Approve approves a request (admin)
// POST /api/v1/admin/verifications/:id/approve
func (ctrl *VerificationController) Approve(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := ctrl.verificationService.Approve(c.Request.Context(), id, adminID)
	if err != nil {
		respondDecisionError(c, log, err, "approve verification")
		return
	}

	log.Info("Verification approved", map[string]interface{}{
		"request_id": id,
		"admin_id":   adminID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Verification approved",
		"request": request,
	})
}

// Reject rejects a request with a closed-list reason code (admin)
// POST /api/v1/admin/verifications/:id/reject
func (ctrl *VerificationController) Reject(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RejectVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	request, err := ctrl.verificationService.Reject(c.Request.Context(), id, adminID, model.RejectReason(req.Reason))
	if err != nil {
		respondDecisionError(c, log, err, "reject verification")
		return
	}

	log.Info("Verification rejected", map[string]interface{}{
		"request_id": id,
		"admin_id":   adminID,
		"reason":     req.Reason,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Verification rejected",
		"request": request,
	})
}

// RequestInfo asks the applicant for more material (admin)
// POST /api/v1/admin/verifications/:id/request-info
func (ctrl *VerificationController) RequestInfo(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RequestInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	request, err := ctrl.verificationService.RequestInfo(c.Request.Context(), id, adminID, req.Message)
	if err != nil {
		respondDecisionError(c, log, err, "request info")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Additional information requested",
		"request": request,
	})
}

// Rescore forces a re-run of the auto-scoring pipeline (admin)
// POST /api/v1/admin/verifications/:id/rescore
func (ctrl *VerificationController) Rescore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := ctrl.scoringService.Rescore(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVerificationNotFound) {
			apperrors.NotFound(c, apperrors.VerificationNotFound, "인증 요청을 찾을 수 없습니다")
			return
		}
		log.Error("Rescore failed", err, map[string]interface{}{
			"request_id": id,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.VerificationScoringFailed, "자동 채점에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Request re-scored",
		"auto_score":      result.AutoScore,
		"reasons":         result.ReasonStrings(),
		"distance_meters": result.DistanceMeters,
		"location_source": result.LocationSource,
	})
}

// SendReminder nudges the applicant of a single open request (admin)
// POST /api/v1/admin/verifications/:id/remind
func (ctrl *VerificationController) SendReminder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := ctrl.verificationService.SendReminder(c.Request.Context(), id)
	if err != nil {
		respondDecisionError(c, log, err, "send reminder")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reminder sent",
		"request": request,
	})
}

// SendReminders triggers the stale needs_info reminder sweep on demand (admin)
// POST /api/v1/admin/verifications/remind
func (ctrl *VerificationController) SendReminders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	staleAfterHours, _ := strconv.Atoi(c.DefaultQuery("stale_after_hours", "72"))
	if staleAfterHours < 1 {
		staleAfterHours = 72
	}

	count, err := ctrl.verificationService.SendReminders(c.Request.Context(), time.Duration(staleAfterHours)*time.Hour)
	if err != nil {
		log.Error("Reminder sweep failed", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "send reminders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Reminder sweep finished",
		"reminders_sent": count,
	})
}
