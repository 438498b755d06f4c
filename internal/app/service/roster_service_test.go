package service

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupRosterServiceTest(t *testing.T) (RosterService, *model.Store) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	storeRepo := repository.NewStoreRepository(testDB)
	rosterRepo := repository.NewRosterRepository(testDB)

	brand := &model.Brand{Name: "명부서비스브랜드", IsActive: true}
	require.NoError(t, storeRepo.CreateBrand(brand))

	store := &model.Store{
		BrandID:  brand.ID,
		Name:     "명부서비스점",
		Region:   "서울특별시",
		District: "송파구",
		IsActive: true,
	}
	require.NoError(t, storeRepo.Create(store))

	return NewRosterService(rosterRepo, storeRepo), store
}

// buildRosterXLSX 헤더 1행 + 데이터 행으로 구성된 XLSX를 메모리에 만든다
func buildRosterXLSX(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"이메일", "이름", "직책"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestRosterService_AddEntry(t *testing.T) {
	rosterService, store := setupRosterServiceTest(t)

	entry, err := rosterService.AddEntry(store.ID, "Staff@Example.com", "김철수", "매니저")
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", entry.Email)
	assert.Equal(t, "매니저", entry.Position)

	_, err = rosterService.AddEntry(99999, "staff@example.com", "김철수", "")
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestRosterService_UpdateAndRemoveEntry(t *testing.T) {
	rosterService, store := setupRosterServiceTest(t)

	entry, err := rosterService.AddEntry(store.ID, "staff@example.com", "김철수", "")
	require.NoError(t, err)

	updated, err := rosterService.UpdateEntry(entry.ID, "김영희", "점장")
	require.NoError(t, err)
	assert.Equal(t, "김영희", updated.Name)
	assert.Equal(t, "점장", updated.Position)

	require.NoError(t, rosterService.RemoveEntry(entry.ID))
	_, err = rosterService.GetEntry(entry.ID)
	assert.ErrorIs(t, err, ErrRosterEntryNotFound)

	err = rosterService.RemoveEntry(entry.ID)
	assert.ErrorIs(t, err, ErrRosterEntryNotFound)
}

func TestRosterService_ImportXLSX(t *testing.T) {
	rosterService, store := setupRosterServiceTest(t)

	// 기존 명부에 한 명 등록해 중복 케이스를 만든다
	_, err := rosterService.AddEntry(store.ID, "exists@example.com", "기존스태프", "")
	require.NoError(t, err)

	buf := buildRosterXLSX(t, [][]interface{}{
		{"new1@example.com", "신규일", "매니저"},
		{"new2@example.com", "신규이"},
		{"NEW1@example.com", "파일내중복"},     // 파일 내 중복 → 스킵
		{"exists@example.com", "기존과중복"},   // DB 중복 → 스킵 + 에러 기록
		{"no-at-sign", "이메일깨짐"},          // 형식 불량 → 스킵 + 에러 기록
		{"nameless@example.com", ""},       // 이름 없음 → 스킵
	})

	result, err := rosterService.ImportXLSX(store.ID, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 4, result.Skipped)
	assert.NotEmpty(t, result.Errors)

	count, err := rosterService.CountByStore(store.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count) // 기존 1 + 신규 2
}

func TestRosterService_ImportXLSXEmptyFile(t *testing.T) {
	rosterService, store := setupRosterServiceTest(t)

	buf := buildRosterXLSX(t, nil)
	_, err := rosterService.ImportXLSX(store.ID, buf)
	assert.ErrorIs(t, err, ErrEmptyRosterFile)
}

func TestRosterService_ImportXLSXUnknownStore(t *testing.T) {
	rosterService, _ := setupRosterServiceTest(t)

	buf := buildRosterXLSX(t, [][]interface{}{{"a@example.com", "이름"}})
	_, err := rosterService.ImportXLSX(99999, buf)
	assert.ErrorIs(t, err, ErrStoreNotFound)
}
