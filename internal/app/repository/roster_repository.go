package repository

import (
	"strings"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"gorm.io/gorm"
)

type RosterRepository interface {
	Create(entry *model.RosterEntry) error
	FindByID(id uint) (*model.RosterEntry, error)
	ListByStore(storeID uint, limit int) ([]model.RosterEntry, error)
	FindByStoreAndEmail(storeID uint, email string) (*model.RosterEntry, error)
	Update(entry *model.RosterEntry) error
	Delete(id uint) error
	CountByStore(storeID uint) (int64, error)
}

type rosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) Create(entry *model.RosterEntry) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to create roster entry in database", err, map[string]interface{}{
			"store_id": entry.StoreID,
			"email":    entry.Email,
		})
		return err
	}
	return nil
}

func (r *rosterRepository) FindByID(id uint) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	err := r.db.First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *rosterRepository) ListByStore(storeID uint, limit int) ([]model.RosterEntry, error) {
	query := r.db.Where("store_id = ?", storeID).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []model.RosterEntry
	if err := query.Find(&entries).Error; err != nil {
		logger.Error("Failed to list roster entries in database", err, map[string]interface{}{
			"store_id": storeID,
		})
		return nil, err
	}
	return entries, nil
}

// FindByStoreAndEmail 이메일로 명부 항목을 조회한다. 저장 시 소문자화가
// 강제되지만 과거 데이터를 대비해 정확 일치 → LOWER() 일치 순서로
// 두 번 조회한 뒤에야 불일치로 판정한다.
func (r *rosterRepository) FindByStoreAndEmail(storeID uint, email string) (*model.RosterEntry, error) {
	email = strings.TrimSpace(email)

	var entry model.RosterEntry
	err := r.db.Where("store_id = ? AND email = ?", storeID, email).First(&entry).Error
	if err == nil {
		return &entry, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	// 2차: 인덱스 필드 소문자 비교
	err = r.db.Where("store_id = ? AND LOWER(email) = LOWER(?)", storeID, email).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *rosterRepository) Update(entry *model.RosterEntry) error {
	if err := r.db.Save(entry).Error; err != nil {
		logger.Error("Failed to update roster entry in database", err, map[string]interface{}{
			"entry_id": entry.ID,
		})
		return err
	}
	return nil
}

func (r *rosterRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.RosterEntry{}, id).Error; err != nil {
		logger.Error("Failed to delete roster entry from database", err, map[string]interface{}{
			"entry_id": id,
		})
		return err
	}
	return nil
}

func (r *rosterRepository) CountByStore(storeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.RosterEntry{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}
