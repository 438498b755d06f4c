package service

import (
	"fmt"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/internal/websocket"
	"github.com/jwyun/staffpass-backend/pkg/logger"
)

// NotificationService 알림 서비스 인터페이스
type NotificationService interface {
	GetNotifications(userID uint, notifType *model.NotificationType, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) (*model.Notification, error)
	MarkAllAsRead(userID uint) error
	DeleteNotification(notificationID, userID uint) error

	// 인증 워크플로에서 호출하는 생성 헬퍼. 모두 best-effort: 실패해도
	// 로그만 남기고 호출자에게 에러를 돌려주지 않는다.
	NotifyAdminsNewRequest(req *model.VerificationRequest)
	NotifyAdminsApplicantReplied(req *model.VerificationRequest)
	NotifyDecision(req *model.VerificationRequest)
	NotifyInfoRequested(req *model.VerificationRequest, message string)
	NotifyReminder(req *model.VerificationRequest)
}

type notificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	hub      *websocket.Hub
}

// NewNotificationService 알림 서비스 생성자
func NewNotificationService(
	repo repository.NotificationRepository,
	userRepo repository.UserRepository,
	hub *websocket.Hub,
) NotificationService {
	return &notificationService{
		repo:     repo,
		userRepo: userRepo,
		hub:      hub,
	}
}

// GetNotifications 알림 목록 조회
func (s *notificationService) GetNotifications(
	userID uint,
	notifType *model.NotificationType,
	isRead *bool,
	page, pageSize int,
) ([]model.Notification, int64, int64, error) {
	// 페이지 기본값
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

	notifications, total, err := s.repo.GetNotifications(userID, notifType, isRead, pageSize, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	// 안읽은 개수
	unreadCount, err := s.repo.GetUnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return notifications, total, unreadCount, nil
}

// GetUnreadCount 안읽은 알림 개수 조회
func (s *notificationService) GetUnreadCount(userID uint) (int64, error) {
	return s.repo.GetUnreadCount(userID)
}

// MarkAsRead 알림 읽음 처리
func (s *notificationService) MarkAsRead(notificationID, userID uint) (*model.Notification, error) {
	notification, err := s.repo.GetNotificationByID(notificationID)
	if err != nil {
		return nil, fmt.Errorf("알림을 찾을 수 없습니다")
	}

	// 권한 확인
	if notification.UserID != userID {
		return nil, fmt.Errorf("권한이 없습니다")
	}

	// 이미 읽은 알림이면 그대로 반환
	if notification.IsRead {
		return notification, nil
	}

	if err := s.repo.MarkAsRead(notificationID); err != nil {
		return nil, err
	}

	notification.IsRead = true
	return notification, nil
}

// MarkAllAsRead 모든 알림 읽음 처리
func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.repo.MarkAllAsRead(userID)
}

// DeleteNotification 알림 삭제
func (s *notificationService) DeleteNotification(notificationID, userID uint) error {
	notification, err := s.repo.GetNotificationByID(notificationID)
	if err != nil {
		return fmt.Errorf("알림을 찾을 수 없습니다")
	}

	// 권한 확인
	if notification.UserID != userID {
		return fmt.Errorf("권한이 없습니다")
	}

	return s.repo.DeleteNotification(notificationID)
}

// deliver 알림을 저장하고 WebSocket으로 푸시. 실패는 로그만 남긴다.
func (s *notificationService) deliver(notification *model.Notification) {
	if err := s.repo.CreateNotification(notification); err != nil {
		logger.Error("Failed to create notification", err, map[string]interface{}{
			"user_id": notification.UserID,
			"type":    notification.Type,
		})
		return
	}

	if s.hub == nil {
		return
	}

	unreadCount, _ := s.repo.GetUnreadCount(notification.UserID)
	wsMessage := map[string]interface{}{
		"type":         "new_notification",
		"unread_count": unreadCount,
		"notification": notification,
	}
	if err := s.hub.SendToUser(notification.UserID, wsMessage); err != nil {
		logger.Warn("Failed to push notification over WebSocket", map[string]interface{}{
			"user_id": notification.UserID,
			"error":   err.Error(),
		})
	}
}

// notifyAdmins 모든 관리자에게 같은 내용의 알림 생성
func (s *notificationService) notifyAdmins(build func(adminID uint) *model.Notification) {
	admins, err := s.userRepo.FindAdmins()
	if err != nil {
		logger.Error("Failed to find admins for notification", err)
		return
	}

	for _, admin := range admins {
		s.deliver(build(admin.ID))
	}
}

// NotifyAdminsNewRequest 새 인증 요청 접수 알림 (관리자용)
func (s *notificationService) NotifyAdminsNewRequest(req *model.VerificationRequest) {
	s.notifyAdmins(func(adminID uint) *model.Notification {
		return &model.Notification{
			UserID:           adminID,
			Type:             model.NotificationTypeRequestSubmitted,
			Title:            "새 스태프 인증 요청이 접수됐어요",
			Content:          fmt.Sprintf("%s (%s)", req.ApplicantName, req.ApplicantEmail),
			Link:             fmt.Sprintf("/admin/verifications/%d", req.ID),
			RelatedRequestID: &req.ID,
			RelatedStoreID:   req.StoreID,
			RelatedUserID:    &req.ApplicantID,
		}
	})
}

// NotifyAdminsApplicantReplied 신청자 답변 알림 (관리자용)
func (s *notificationService) NotifyAdminsApplicantReplied(req *model.VerificationRequest) {
	s.notifyAdmins(func(adminID uint) *model.Notification {
		return &model.Notification{
			UserID:           adminID,
			Type:             model.NotificationTypeApplicantReplied,
			Title:            "인증 요청에 답변이 달렸어요",
			Content:          fmt.Sprintf("%s (%s)", req.ApplicantName, req.ApplicantEmail),
			Link:             fmt.Sprintf("/admin/verifications/%d", req.ID),
			RelatedRequestID: &req.ID,
			RelatedUserID:    &req.ApplicantID,
		}
	})
}

// NotifyDecision 승인/반려 결과 알림 (신청자용). 요청의 현재 상태를 따른다.
func (s *notificationService) NotifyDecision(req *model.VerificationRequest) {
	var (
		notifType model.NotificationType
		title     string
		content   string
	)

	switch req.Status {
	case model.VerificationStatusApproved:
		notifType = model.NotificationTypeApproved
		title = "스태프 인증이 승인됐어요"
		content = "이제 스태프 기능을 사용할 수 있어요."
	case model.VerificationStatusRejected:
		notifType = model.NotificationTypeRejected
		title = "스태프 인증이 반려됐어요"
		content = string(req.RejectionReason)
	default:
		logger.Warn("NotifyDecision called with non-terminal status", map[string]interface{}{
			"request_id": req.ID,
			"status":     req.Status,
		})
		return
	}

	s.deliver(&model.Notification{
		UserID:           req.ApplicantID,
		Type:             notifType,
		Title:            title,
		Content:          content,
		Link:             fmt.Sprintf("/verifications/%d", req.ID),
		RelatedRequestID: &req.ID,
	})
}

// NotifyInfoRequested 추가 자료 요청 알림 (신청자용)
func (s *notificationService) NotifyInfoRequested(req *model.VerificationRequest, message string) {
	s.deliver(&model.Notification{
		UserID:           req.ApplicantID,
		Type:             model.NotificationTypeInfoRequested,
		Title:            "인증 심사에 추가 자료가 필요해요",
		Content:          message,
		Link:             fmt.Sprintf("/verifications/%d", req.ID),
		RelatedRequestID: &req.ID,
	})
}

// NotifyReminder 추가 자료 제출 독촉 알림 (신청자용)
func (s *notificationService) NotifyReminder(req *model.VerificationRequest) {
	s.deliver(&model.Notification{
		UserID:           req.ApplicantID,
		Type:             model.NotificationTypeReminder,
		Title:            "인증 심사가 답변을 기다리고 있어요",
		Content:          "요청받은 추가 자료를 제출하면 심사가 이어서 진행돼요.",
		Link:             fmt.Sprintf("/verifications/%d", req.ID),
		RelatedRequestID: &req.ID,
	})
}
