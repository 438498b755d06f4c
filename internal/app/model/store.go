package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Store struct {
	ID          uint           `gorm:"primarykey" json:"id"`                 // 고유 매장 ID
	BrandID     uint           `gorm:"index;not null" json:"brand_id"`       // 소속 브랜드 ID
	Brand       Brand          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name        string         `gorm:"not null" json:"name"`                 // 매장명
	Slug        string         `gorm:"uniqueIndex" json:"slug"`              // URL용 고유 식별자
	Region      string         `gorm:"index;not null" json:"region"`         // 시·도
	District    string         `gorm:"index;not null" json:"district"`       // 구·군
	Address     string         `gorm:"type:text" json:"address"`             // 상세 주소
	Latitude    *float64       `gorm:"type:decimal(10,8)" json:"latitude"`   // 위도 (WGS84, nullable)
	Longitude   *float64       `gorm:"type:decimal(11,8)" json:"longitude"`  // 경도 (WGS84, nullable)
	PhoneNumber string         `gorm:"type:varchar(30)" json:"phone_number"` // 연락처
	ImageURL    string         `json:"image_url"`                            // 매장 이미지

	// 매장에 게시되는 인증 코드. 스태프가 제출한 코드와 대조하는 용도로
	// 관리자 심사 화면에 노출된다 (자동 점수에는 반영되지 않음).
	VerificationCode string `gorm:"type:varchar(12);index" json:"-"`

	IsActive  bool           `gorm:"default:true;index" json:"is_active"` // 운영 여부
	CreatedAt time.Time      `json:"created_at"`                          // 생성 시각
	UpdatedAt time.Time      `json:"updated_at"`                          // 수정 시각
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                      // 삭제 시각(소프트 삭제)

	Roster []RosterEntry `gorm:"foreignKey:StoreID" json:"roster,omitempty"` // 매장 스태프 명부
}

func (Store) TableName() string {
	return "stores"
}

// generateSlug는 매장명과 지역 정보로 URL용 slug를 생성합니다
func generateSlug(district, name string) string {
	// 공백을 하이픈으로 변경
	slug := fmt.Sprintf("%s-%s", district, name)

	// 특수문자 제거 (한글, 영문, 숫자, 하이픈만 허용)
	reg := regexp.MustCompile(`[^\p{L}\p{N}-]+`)
	slug = reg.ReplaceAllString(slug, "-")

	// 연속된 하이픈을 하나로
	reg = regexp.MustCompile(`-+`)
	slug = reg.ReplaceAllString(slug, "-")

	// 앞뒤 하이픈 제거
	slug = strings.Trim(slug, "-")

	// 소문자로 변환 (영문만)
	slug = strings.ToLower(slug)

	return slug
}

// BeforeCreate는 매장 생성 전에 slug를 자동 생성합니다
func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.Slug == "" {
		baseSlug := generateSlug(s.District, s.Name)
		slug := baseSlug

		// 중복 체크 및 숫자 붙이기
		counter := 1
		for {
			var count int64
			if err := tx.Model(&Store{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
				return err
			}

			if count == 0 {
				break
			}

			counter++
			slug = fmt.Sprintf("%s-%d", baseSlug, counter)
		}

		s.Slug = slug
	}
	return nil
}
