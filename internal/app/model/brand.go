package model

import (
	"time"

	"gorm.io/gorm"
)

// Brand 브랜드(테넌트) 모델. 매장과 스태프는 모두 브랜드에 소속된다.
type Brand struct {
	ID        uint           `gorm:"primarykey" json:"id"` // 브랜드 ID
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"uniqueIndex;not null" json:"name"`     // 브랜드명
	LogoURL     string `json:"logo_url"`                             // 로고 이미지 URL
	Description string `gorm:"type:text" json:"description"`         // 브랜드 소개
	OwnerID     *uint  `gorm:"index" json:"owner_id,omitempty"`      // 브랜드 대표 계정 ID
	IsActive    bool   `gorm:"default:true;index" json:"is_active"`  // 활성 여부

	Stores []Store `gorm:"foreignKey:BrandID" json:"stores,omitempty"` // 소속 매장 목록
}

func (Brand) TableName() string {
	return "brands"
}
