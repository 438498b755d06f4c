package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type VerificationStatus string // 인증 요청 상태

const (
	VerificationStatusPending   VerificationStatus = "pending"    // 검토 대기
	VerificationStatusNeedsInfo VerificationStatus = "needs_info" // 추가 자료 요청됨
	VerificationStatusApproved  VerificationStatus = "approved"   // 승인됨 (종결)
	VerificationStatusRejected  VerificationStatus = "rejected"   // 반려됨 (종결)
)

// IsTerminal 종결 상태 여부
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationStatusApproved || s == VerificationStatusRejected
}

type VerificationAction string // 관리자 심사 액션

const (
	ActionApprove     VerificationAction = "approve"
	ActionReject      VerificationAction = "reject"
	ActionRequestInfo VerificationAction = "request_info"
	ActionRemind      VerificationAction = "remind"
)

// 상태 전이 테이블. 상태 변경의 적법성은 이 테이블 한 곳에서만 판정한다.
var verificationTransitions = map[VerificationAction]map[VerificationStatus]VerificationStatus{
	ActionApprove: {
		VerificationStatusPending:   VerificationStatusApproved,
		VerificationStatusNeedsInfo: VerificationStatusApproved,
	},
	ActionReject: {
		VerificationStatusPending:   VerificationStatusRejected,
		VerificationStatusNeedsInfo: VerificationStatusRejected,
	},
	ActionRequestInfo: {
		VerificationStatusPending:   VerificationStatusNeedsInfo,
		VerificationStatusNeedsInfo: VerificationStatusNeedsInfo,
	},
	// 독촉은 상태를 바꾸지 않는다. 종결된 요청에는 보낼 수 없다.
	ActionRemind: {
		VerificationStatusPending:   VerificationStatusPending,
		VerificationStatusNeedsInfo: VerificationStatusNeedsInfo,
	},
}

// NextStatus 현재 상태에서 액션을 적용했을 때의 다음 상태를 반환한다.
// 전이가 허용되지 않으면 ok=false.
func NextStatus(current VerificationStatus, action VerificationAction) (VerificationStatus, bool) {
	targets, ok := verificationTransitions[action]
	if !ok {
		return "", false
	}
	next, ok := targets[current]
	return next, ok
}

type RejectReason string // 반려 사유 코드 (닫힌 목록)

const (
	RejectLocationTooFar    RejectReason = "location_too_far"    // 매장과 거리 초과
	RejectLocationMissing   RejectReason = "location_missing"    // 위치 정보 없음
	RejectInvalidCode       RejectReason = "invalid_code"        // 인증 코드 불일치
	RejectFaceNotVisible    RejectReason = "face_not_visible"    // 얼굴 확인 불가
	RejectImageQuality      RejectReason = "image_quality"       // 이미지 품질 불량
	RejectMultiplePeople    RejectReason = "multiple_people"     // 여러 명이 찍힘
	RejectOutsideTimeWindow RejectReason = "outside_time_window" // 촬영 시간대 부적합
	RejectRosterMismatch    RejectReason = "roster_mismatch"     // 명부 불일치
	RejectEditedImage       RejectReason = "edited_image"        // 편집된 이미지
	RejectOther             RejectReason = "other"               // 기타
)

// IsValid 닫힌 목록에 포함된 코드인지 확인
func (r RejectReason) IsValid() bool {
	switch r {
	case RejectLocationTooFar, RejectLocationMissing, RejectInvalidCode,
		RejectFaceNotVisible, RejectImageQuality, RejectMultiplePeople,
		RejectOutsideTimeWindow, RejectRosterMismatch, RejectEditedImage,
		RejectOther:
		return true
	}
	return false
}

type LocationSource string // 위치 증거 출처

const (
	LocationSourceDevice LocationSource = "device" // 단말 GPS
	LocationSourceExif   LocationSource = "exif"   // 사진 EXIF
)

// VerificationRequest 스태프 인증 요청. 제출 1건당 1행이며 감사 추적을
// 위해 삭제하지 않는다 (소프트 삭제 포함).
type VerificationRequest struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ApplicantID uint  `gorm:"not null;index" json:"applicant_id"` // 신청자 ID
	Applicant   *User `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	StoreID     *uint `gorm:"index" json:"store_id,omitempty"` // 대상 매장 ID (nullable)

	// 제출 증거
	PhotoURL      string `gorm:"type:text" json:"photo_url"`      // 셀피 이미지 URL
	CodeImageURL  string `gorm:"type:text" json:"code_image_url"` // 코드 촬영 이미지 URL
	SubmittedCode string `gorm:"type:varchar(32)" json:"submitted_code"`

	// 신원 신호 (명부 대조용)
	ApplicantEmail string `gorm:"index" json:"applicant_email"`
	ApplicantName  string `json:"applicant_name"`

	// 위치 증거: 단말 GPS가 EXIF보다 우선한다
	DeviceLat        *float64   `gorm:"type:decimal(10,8)" json:"device_lat,omitempty"`
	DeviceLng        *float64   `gorm:"type:decimal(11,8)" json:"device_lng,omitempty"`
	DeviceCapturedAt *time.Time `json:"device_captured_at,omitempty"` // 단말 위치 수집 시각
	ExifLat          *float64   `gorm:"type:decimal(10,8)" json:"exif_lat,omitempty"`
	ExifLng          *float64   `gorm:"type:decimal(11,8)" json:"exif_lng,omitempty"`

	// 자동 채점 결과 (스코어링 파이프라인만 기록, 클라이언트는 쓰지 않음)
	AutoScore      *int            `json:"auto_score,omitempty"`                    // 0~100
	Reasons        pq.StringArray  `gorm:"type:text[]" json:"reasons,omitempty"`    // 계산 순서대로 누적
	DistanceMeters *int            `json:"distance_meters,omitempty"`               // 매장까지 거리(m)
	LocationSource *LocationSource `gorm:"type:varchar(10)" json:"location_source"` // device | exif | null
	ScoredAt       *time.Time      `json:"scored_at,omitempty"`                     // 채점 시각

	// 심사 상태
	Status          VerificationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`      // 심사 완료 일시
	ReviewedBy      *uint              `json:"reviewed_by,omitempty"`      // 심사한 관리자 ID
	RejectionReason RejectReason       `gorm:"type:varchar(30)" json:"rejection_reason,omitempty"`

	// 이력 (append-only)
	InfoRequests []VerificationInfoRequest `gorm:"foreignKey:RequestID" json:"info_requests,omitempty"`
	Messages     []VerificationMessage     `gorm:"foreignKey:RequestID" json:"messages,omitempty"`
}

func (VerificationRequest) TableName() string {
	return "verification_requests"
}

// VerificationInfoRequest 관리자의 추가 자료 요청 이력 (append-only)
type VerificationInfoRequest struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RequestID uint   `gorm:"not null;index" json:"request_id"` // 인증 요청 ID
	AdminID   uint   `gorm:"not null" json:"admin_id"`         // 요청한 관리자 ID
	Message   string `gorm:"type:text;not null" json:"message"`
}

func (VerificationInfoRequest) TableName() string {
	return "verification_info_requests"
}

// VerificationMessage 신청자의 답변 스레드 (append-only, 생성 시각 순)
type VerificationMessage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RequestID uint   `gorm:"not null;index" json:"request_id"` // 인증 요청 ID
	SenderID  uint   `gorm:"not null" json:"sender_id"`        // 작성자 ID (신청자)
	Body      string `gorm:"type:text;not null" json:"body"`
}

func (VerificationMessage) TableName() string {
	return "verification_messages"
}
