package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOpenRequestExists   = errors.New("applicant already has an open verification request")
	ErrInvalidRejectReason = errors.New("invalid reject reason code")
	ErrNotRequestOwner     = errors.New("verification request belongs to another user")
	ErrEmptyMessage        = errors.New("message body is empty")
)

// IllegalTransitionError 현재 상태에서 허용되지 않는 심사 액션.
// 컨트롤러에서 409로 변환된다.
type IllegalTransitionError struct {
	Current model.VerificationStatus
	Action  model.VerificationAction
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: action %q not allowed from status %q", e.Action, e.Current)
}

// SubmitVerificationInput 스태프 인증 요청 제출 입력
type SubmitVerificationInput struct {
	StoreID          *uint
	PhotoURL         string
	CodeImageURL     string
	SubmittedCode    string
	DeviceLat        *float64
	DeviceLng        *float64
	DeviceCapturedAt *time.Time
	ExifLat          *float64
	ExifLng          *float64
}

type VerificationService interface {
	// 스태프
	Submit(ctx context.Context, applicantID uint, input SubmitVerificationInput) (*model.VerificationRequest, error)
	ListMine(applicantID uint) ([]model.VerificationRequest, error)
	GetDetail(requestID, requesterID uint, role model.UserRole) (*model.VerificationRequest, error)
	Reply(requestID, applicantID uint, body string) (*model.VerificationMessage, error)

	// 관리자
	ListByStatus(status model.VerificationStatus, page, pageSize int) ([]model.VerificationRequest, int64, error)
	Approve(ctx context.Context, requestID, adminID uint) (*model.VerificationRequest, error)
	Reject(ctx context.Context, requestID, adminID uint, reason model.RejectReason) (*model.VerificationRequest, error)
	RequestInfo(ctx context.Context, requestID, adminID uint, message string) (*model.VerificationRequest, error)
	SendReminder(ctx context.Context, requestID uint) (*model.VerificationRequest, error)
	SendReminders(ctx context.Context, staleAfter time.Duration) (int, error)
}

type verificationService struct {
	verificationRepo repository.VerificationRepository
	userRepo         repository.UserRepository
	scoringService   ScoringService
	notifier         NotificationService
	db               *gorm.DB
	now              func() time.Time
}

func NewVerificationService(
	verificationRepo repository.VerificationRepository,
	userRepo repository.UserRepository,
	scoringService ScoringService,
	notifier NotificationService,
	db *gorm.DB,
) VerificationService {
	return &verificationService{
		verificationRepo: verificationRepo,
		userRepo:         userRepo,
		scoringService:   scoringService,
		notifier:         notifier,
		db:               db,
		now:              time.Now,
	}
}

// Submit 인증 요청 제출. 생성 → 자동 채점 → 관리자 알림 순서로 진행하며,
// 채점이나 알림이 실패해도 제출 자체는 성공으로 남는다 (요청은 대기열에
// 있고 재채점이 가능하므로).
func (s *verificationService) Submit(ctx context.Context, applicantID uint, input SubmitVerificationInput) (*model.VerificationRequest, error) {
	applicant, err := s.userRepo.FindByID(applicantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 열린 요청이 있으면 중복 제출 금지
	existing, err := s.verificationRepo.ListByApplicant(applicantID)
	if err != nil {
		return nil, err
	}
	for _, prev := range existing {
		if !prev.Status.IsTerminal() {
			logger.Warn("Duplicate submission blocked", map[string]interface{}{
				"applicant_id": applicantID,
				"open_request": prev.ID,
			})
			return nil, ErrOpenRequestExists
		}
	}

	req := &model.VerificationRequest{
		ApplicantID:      applicantID,
		StoreID:          input.StoreID,
		PhotoURL:         input.PhotoURL,
		CodeImageURL:     input.CodeImageURL,
		SubmittedCode:    input.SubmittedCode,
		ApplicantEmail:   applicant.Email,
		ApplicantName:    applicant.Name,
		DeviceLat:        input.DeviceLat,
		DeviceLng:        input.DeviceLng,
		DeviceCapturedAt: input.DeviceCapturedAt,
		ExifLat:          input.ExifLat,
		ExifLng:          input.ExifLng,
		Status:           model.VerificationStatusPending,
	}

	if err := s.verificationRepo.Create(req); err != nil {
		return nil, err
	}

	logger.Info("Verification request submitted", map[string]interface{}{
		"request_id":   req.ID,
		"applicant_id": applicantID,
		"store_id":     input.StoreID,
	})

	// 자동 채점은 제출 결과에 영향을 주지 않는다
	if _, err := s.scoringService.ScoreRequest(ctx, req.ID); err != nil {
		logger.Error("Auto-scoring after submission failed", err, map[string]interface{}{
			"request_id": req.ID,
		})
	}

	// 채점 결과가 반영된 최신본으로 응답
	scored, err := s.verificationRepo.FindByID(req.ID)
	if err == nil {
		req = scored
	}

	s.notifier.NotifyAdminsNewRequest(req)

	return req, nil
}

func (s *verificationService) ListMine(applicantID uint) ([]model.VerificationRequest, error) {
	return s.verificationRepo.ListByApplicant(applicantID)
}

// GetDetail 요청 상세 + 이력 조회. 관리자는 전부, 스태프는 본인 것만.
func (s *verificationService) GetDetail(requestID, requesterID uint, role model.UserRole) (*model.VerificationRequest, error) {
	req, err := s.verificationRepo.FindByIDWithHistory(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}

	if role != model.RoleAdmin && req.ApplicantID != requesterID {
		return nil, ErrNotRequestOwner
	}

	return req, nil
}

// Reply 신청자 답변. 종결된 요청에도 기록을 남길 수 있고 (감사 추적),
// 답변이 붙어도 상태는 바뀌지 않는다.
func (s *verificationService) Reply(requestID, applicantID uint, body string) (*model.VerificationMessage, error) {
	if body == "" {
		return nil, ErrEmptyMessage
	}

	req, err := s.verificationRepo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}

	if req.ApplicantID != applicantID {
		return nil, ErrNotRequestOwner
	}

	msg := &model.VerificationMessage{
		RequestID: requestID,
		SenderID:  applicantID,
		Body:      body,
	}
	if err := s.verificationRepo.AppendMessage(msg); err != nil {
		return nil, err
	}

	logger.Info("Applicant replied to verification request", map[string]interface{}{
		"request_id": requestID,
	})

	s.notifier.NotifyAdminsApplicantReplied(req)

	return msg, nil
}

func (s *verificationService) ListByStatus(status model.VerificationStatus, page, pageSize int) ([]model.VerificationRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	return s.verificationRepo.ListByStatus(status, pageSize, offset)
}

// Approve 승인. 요청 상태 전이와 신청자 인증 플래그 갱신이 한 트랜잭션에서
// 함께 반영된다.
func (s *verificationService) Approve(ctx context.Context, requestID, adminID uint) (*model.VerificationRequest, error) {
	req, err := s.decide(requestID, adminID, model.ActionApprove, func(tx *gorm.DB, req *model.VerificationRequest, now time.Time) error {
		return tx.Model(&model.User{}).Where("id = ?", req.ApplicantID).Updates(map[string]interface{}{
			"is_verified":       true,
			"verified_at":       now,
			"store_id":          req.StoreID,
			"verification_note": "",
		}).Error
	}, nil)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyDecision(req)
	return req, nil
}

// Reject 반려. 사유 코드는 닫힌 목록만 허용한다.
func (s *verificationService) Reject(ctx context.Context, requestID, adminID uint, reason model.RejectReason) (*model.VerificationRequest, error) {
	if !reason.IsValid() {
		return nil, ErrInvalidRejectReason
	}

	req, err := s.decide(requestID, adminID, model.ActionReject, func(tx *gorm.DB, req *model.VerificationRequest, now time.Time) error {
		return tx.Model(&model.User{}).Where("id = ?", req.ApplicantID).Updates(map[string]interface{}{
			"is_verified":       false,
			"verified_at":       nil,
			"verification_note": string(reason),
		}).Error
	}, func(updates map[string]interface{}) {
		updates["rejection_reason"] = reason
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyDecision(req)
	return req, nil
}

// RequestInfo 추가 자료 요청. 같은 요청에 여러 번 쌓일 수 있다 (append-only).
func (s *verificationService) RequestInfo(ctx context.Context, requestID, adminID uint, message string) (*model.VerificationRequest, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}

	req, err := s.decide(requestID, adminID, model.ActionRequestInfo, func(tx *gorm.DB, req *model.VerificationRequest, now time.Time) error {
		return tx.Create(&model.VerificationInfoRequest{
			RequestID: req.ID,
			AdminID:   adminID,
			Message:   message,
		}).Error
	}, nil)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyInfoRequested(req, message)
	return req, nil
}

// decide 심사 액션 공통 처리. 트랜잭션 안에서 상태를 다시 읽어 전이 테이블로
// 적법성을 판정하므로, 동시에 들어온 심사 중 하나만 성공한다.
func (s *verificationService) decide(
	requestID, adminID uint,
	action model.VerificationAction,
	sideEffect func(tx *gorm.DB, req *model.VerificationRequest, now time.Time) error,
	extendUpdates func(updates map[string]interface{}),
) (*model.VerificationRequest, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during verification decision, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"request_id": requestID,
			})
		}
	}()

	// 트랜잭션 안에서 현재 상태를 다시 읽는다
	var req model.VerificationRequest
	if err := tx.First(&req, requestID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}

	next, ok := model.NextStatus(req.Status, action)
	if !ok {
		tx.Rollback()
		logger.Warn("Illegal verification transition rejected", map[string]interface{}{
			"request_id": requestID,
			"status":     req.Status,
			"action":     action,
		})
		return nil, &IllegalTransitionError{Current: req.Status, Action: action}
	}

	now := s.now()
	updates := map[string]interface{}{
		"status": next,
	}
	// 심사 시각은 종결 결정(승인/반려)에만 기록한다. 추가 자료 요청의
	// 이력은 verification_info_requests 행이 담당한다.
	if next.IsTerminal() {
		updates["reviewed_at"] = now
		updates["reviewed_by"] = adminID
	}
	if extendUpdates != nil {
		extendUpdates(updates)
	}

	if err := tx.Model(&model.VerificationRequest{}).Where("id = ?", req.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to update verification status", err, map[string]interface{}{
			"request_id": requestID,
		})
		return nil, err
	}

	if sideEffect != nil {
		if err := sideEffect(tx, &req, now); err != nil {
			tx.Rollback()
			logger.Error("Failed to apply decision side effect", err, map[string]interface{}{
				"request_id": requestID,
				"action":     action,
			})
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit verification decision", err, map[string]interface{}{
			"request_id": requestID,
		})
		return nil, err
	}

	logger.Info("Verification decision applied", map[string]interface{}{
		"request_id": requestID,
		"action":     action,
		"from":       req.Status,
		"to":         next,
		"admin_id":   adminID,
	})

	// 커밋 이후의 최신본을 반환
	req.Status = next
	if next.IsTerminal() {
		req.ReviewedAt = &now
		req.ReviewedBy = &adminID
	}
	if v, ok := updates["rejection_reason"]; ok {
		if reason, ok := v.(model.RejectReason); ok {
			req.RejectionReason = reason
		}
	}
	return &req, nil
}

// SendReminder 단건 독촉. 상태는 바뀌지 않으며, 종결된 요청에는 보낼 수 없다.
func (s *verificationService) SendReminder(ctx context.Context, requestID uint) (*model.VerificationRequest, error) {
	req, err := s.verificationRepo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}

	if _, ok := model.NextStatus(req.Status, model.ActionRemind); !ok {
		return nil, &IllegalTransitionError{Current: req.Status, Action: model.ActionRemind}
	}

	s.notifier.NotifyReminder(req)

	logger.Info("Verification reminder sent", map[string]interface{}{
		"request_id": requestID,
		"status":     req.Status,
	})
	return req, nil
}

// SendReminders needs_info 상태로 오래 머문 요청의 신청자에게 독촉 알림을
// 보낸다. 스케줄러가 주기적으로 호출한다.
func (s *verificationService) SendReminders(ctx context.Context, staleAfter time.Duration) (int, error) {
	cutoff := s.now().Add(-staleAfter)
	stale, err := s.verificationRepo.ListStaleNeedsInfo(cutoff)
	if err != nil {
		return 0, err
	}

	for i := range stale {
		s.notifier.NotifyReminder(&stale[i])
	}

	if len(stale) > 0 {
		logger.Info("Verification reminders sent", map[string]interface{}{
			"count":  len(stale),
			"cutoff": cutoff,
		})
	}
	return len(stale), nil
}
