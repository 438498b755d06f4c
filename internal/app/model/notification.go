package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeRequestSubmitted NotificationType = "request_submitted" // 새 인증 요청 (관리자용)
	NotificationTypeInfoRequested    NotificationType = "info_requested"    // 추가 자료 요청 (신청자용)
	NotificationTypeReminder         NotificationType = "reminder"          // 제출 독촉 (신청자용)
	NotificationTypeApproved         NotificationType = "approved"          // 승인 (신청자용)
	NotificationTypeRejected         NotificationType = "rejected"          // 반려 (신청자용)
	NotificationTypeApplicantReplied NotificationType = "applicant_replied" // 신청자 답변 (관리자용)
)

// Notification 알림 모델
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 알림 받을 사용자
	UserID uint  `gorm:"not null;index" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// 알림 타입
	Type NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`

	// 알림 내용
	Title   string `gorm:"type:text;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	Link    string `gorm:"type:text;not null" json:"link"`

	// 상태
	IsRead bool `gorm:"default:false;index" json:"is_read"`

	// 관련 데이터 (nullable)
	RelatedRequestID *uint `gorm:"index" json:"related_request_id,omitempty"`
	RelatedStoreID   *uint `gorm:"index" json:"related_store_id,omitempty"`
	RelatedUserID    *uint `gorm:"index" json:"related_user_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
