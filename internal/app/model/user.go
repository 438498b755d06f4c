package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string // 사용자 권한 타입

const (
	RoleStaff UserRole = "staff" // 매장 스태프 (인증 신청자)
	RoleBrand UserRole = "brand" // 브랜드 운영자
	RoleAdmin UserRole = "admin" // 플랫폼 관리자
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                         // 사용자 ID
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`            // 이메일
	PasswordHash string         `gorm:"not null" json:"-"`                            // 비밀번호 해시
	Name         string         `gorm:"not null" json:"name"`                         // 이름
	Phone        string         `json:"phone"`                                        // 전화번호 (숫자만, 예: 01012345678)
	ProfileImage string         `json:"profile_image"`                                // 프로필 이미지 URL
	Role         UserRole       `gorm:"type:varchar(20);default:'staff'" json:"role"` // 권한
	BrandID      *uint          `gorm:"index" json:"brand_id,omitempty"`              // 소속 브랜드 ID (브랜드 운영자용)
	StoreID      *uint          `gorm:"index" json:"store_id,omitempty"`              // 소속 매장 ID (스태프용)
	CreatedAt    time.Time      `json:"created_at"`                                   // 생성 시각
	UpdatedAt    time.Time      `json:"updated_at"`                                   // 수정 시각
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                               // 삭제 시각(소프트 삭제)

	// 스태프 인증 상태 (심사 워크플로에 의해서만 변경됨)
	IsVerified       bool       `gorm:"default:false;index" json:"is_verified"` // 인증 완료 여부
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`                  // 인증 완료 일시
	VerificationNote string     `gorm:"type:text" json:"-"`                     // 반려 사유 코드 (내부용)

	Brand *Brand `gorm:"foreignKey:BrandID" json:"brand,omitempty"` // 소속 브랜드
	Store *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"` // 소속 매장
}

func (User) TableName() string {
	return "users"
}
