package model

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// RosterEntry 매장 스태프 명부 항목. 브랜드가 등록한 "이 매장에서 일하는
// 사람" 목록으로, 인증 신청의 신원 대조에 사용된다.
type RosterEntry struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StoreID uint  `gorm:"not null;index:idx_roster_store_email,unique" json:"store_id"` // 매장 ID
	Store   Store `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	// 이메일은 항상 소문자로 저장된다 (자연키)
	Email string `gorm:"not null;index:idx_roster_store_email,unique" json:"email"`
	Name  string `gorm:"not null" json:"name"` // 표시용 이름

	// 이름 대조용 정규화 문자열 (소문자, 문자/공백 외 제거)
	NormalizedName string `gorm:"index" json:"-"`

	Position string `gorm:"type:varchar(50)" json:"position"` // 직책 (선택)
}

func (RosterEntry) TableName() string {
	return "roster_entries"
}

var rosterNamePattern = regexp.MustCompile(`[^\p{L} ]+`)

// NormalizeRosterName 이름 대조에 쓰는 정규화: 소문자 변환 후
// 문자·공백 이외의 문자를 제거하고 앞뒤 공백을 정리한다.
func NormalizeRosterName(name string) string {
	normalized := strings.ToLower(name)
	normalized = rosterNamePattern.ReplaceAllString(normalized, "")
	return strings.TrimSpace(normalized)
}

// BeforeSave는 이메일 소문자화와 이름 정규화를 강제합니다
func (e *RosterEntry) BeforeSave(tx *gorm.DB) error {
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.NormalizedName = NormalizeRosterName(e.Name)
	return nil
}
