package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrRosterEntryNotFound = errors.New("roster entry not found")
	ErrEmptyRosterFile     = errors.New("roster file contains no entries")
)

// RosterImportResult XLSX 명부 일괄 등록 결과
type RosterImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type RosterService interface {
	AddEntry(storeID uint, email, name, position string) (*model.RosterEntry, error)
	GetEntry(id uint) (*model.RosterEntry, error)
	ListByStore(storeID uint, limit int) ([]model.RosterEntry, error)
	UpdateEntry(id uint, name, position string) (*model.RosterEntry, error)
	RemoveEntry(id uint) error
	CountByStore(storeID uint) (int64, error)

	// ImportXLSX 업로드된 XLSX 파일에서 명부를 일괄 등록한다.
	// 컬럼: email | name | position (첫 행은 헤더)
	ImportXLSX(storeID uint, r io.Reader) (*RosterImportResult, error)
}

type rosterService struct {
	rosterRepo repository.RosterRepository
	storeRepo  repository.StoreRepository
}

func NewRosterService(
	rosterRepo repository.RosterRepository,
	storeRepo repository.StoreRepository,
) RosterService {
	return &rosterService{
		rosterRepo: rosterRepo,
		storeRepo:  storeRepo,
	}
}

func (s *rosterService) AddEntry(storeID uint, email, name, position string) (*model.RosterEntry, error) {
	// 대상 매장이 실제로 존재해야 한다
	if _, err := s.storeRepo.FindByID(storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	entry := &model.RosterEntry{
		StoreID:  storeID,
		Email:    email,
		Name:     name,
		Position: position,
	}

	if err := s.rosterRepo.Create(entry); err != nil {
		logger.Error("Failed to add roster entry", err, map[string]interface{}{
			"store_id": storeID,
			"email":    email,
		})
		return nil, err
	}

	logger.Info("Roster entry added", map[string]interface{}{
		"store_id": storeID,
		"entry_id": entry.ID,
	})
	return entry, nil
}

func (s *rosterService) GetEntry(id uint) (*model.RosterEntry, error) {
	entry, err := s.rosterRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRosterEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *rosterService) ListByStore(storeID uint, limit int) ([]model.RosterEntry, error) {
	return s.rosterRepo.ListByStore(storeID, limit)
}

func (s *rosterService) UpdateEntry(id uint, name, position string) (*model.RosterEntry, error) {
	entry, err := s.rosterRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRosterEntryNotFound
		}
		return nil, err
	}

	if name != "" {
		entry.Name = name
	}
	if position != "" {
		entry.Position = position
	}

	if err := s.rosterRepo.Update(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *rosterService) RemoveEntry(id uint) error {
	if _, err := s.rosterRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRosterEntryNotFound
		}
		return err
	}
	return s.rosterRepo.Delete(id)
}

func (s *rosterService) CountByStore(storeID uint) (int64, error) {
	return s.rosterRepo.CountByStore(storeID)
}

func (s *rosterService) ImportXLSX(storeID uint, r io.Reader) (*RosterImportResult, error) {
	if _, err := s.storeRepo.FindByID(storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, ErrEmptyRosterFile
	}

	result := &RosterImportResult{}
	seen := make(map[string]bool) // 파일 내 중복 제거용 (소문자 이메일 기준)

	// 첫 행은 헤더이므로 스킵
	for i, row := range rows {
		if i == 0 {
			continue
		}

		if len(row) < 2 {
			result.Skipped++
			continue
		}

		email := strings.ToLower(strings.TrimSpace(row[0]))
		name := strings.TrimSpace(row[1])
		position := ""
		if len(row) >= 3 {
			position = strings.TrimSpace(row[2])
		}

		if email == "" || name == "" || !strings.Contains(email, "@") {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid email or name", i+1))
			continue
		}

		if seen[email] {
			result.Skipped++
			continue
		}
		seen[email] = true

		entry := &model.RosterEntry{
			StoreID:  storeID,
			Email:    email,
			Name:     name,
			Position: position,
		}

		if err := s.rosterRepo.Create(entry); err != nil {
			// 기존 명부와의 중복 등은 건너뛰고 계속 진행
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Imported++
	}

	logger.Info("Roster XLSX import finished", map[string]interface{}{
		"store_id": storeID,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
	return result, nil
}
