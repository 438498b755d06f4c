package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jwyun/staffpass-backend/config"
	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/internal/db"
	"github.com/jwyun/staffpass-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// 매장 XLSX 컬럼 구성 (첫 행은 헤더):
//
//	브랜드명 | 매장명 | 시도 | 시군구 | 주소 | 위도 | 경도 | 연락처
func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <stores_xlsx_path>\n" +
			"  관리자 계정은 ADMIN_EMAIL / ADMIN_PASSWORD 환경변수로 생성됩니다.")
	}

	filePath := os.Args[1]

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// 관리자 계정 생성 (회원가입으로는 admin 권한을 얻을 수 없으므로 시드가 유일 경로)
	if err := seedAdmin(db.GetDB()); err != nil {
		log.Fatal("Failed to seed admin account:", err)
	}

	// XLSX 파일 읽기
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	brands, stores, err := readStoresFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total brands to import: %d\n", len(brands))
	fmt.Printf("Total stores to import: %d\n", len(stores))

	// 사용자 확인
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	storeRepo := repository.NewStoreRepository(db.GetDB())

	// 브랜드를 먼저 저장하고 매장에 브랜드 ID를 연결한다
	brandIDs := make(map[string]uint, len(brands))
	for _, name := range brands {
		brand := model.Brand{Name: name, IsActive: true}
		if err := db.GetDB().Where("name = ?", name).FirstOrCreate(&brand).Error; err != nil {
			log.Fatal("Failed to create brand:", err)
		}
		brandIDs[name] = brand.ID
	}

	for i := range stores {
		stores[i].BrandID = brandIDs[stores[i].Brand.Name]
		stores[i].Brand = model.Brand{}
		stores[i].VerificationCode = util.GenerateVerificationCode(6)
	}

	// 배치로 저장
	batchSize := 500
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := storeRepo.BulkCreate(stores, batchSize); err != nil {
		log.Fatal("Failed to bulk create stores:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total stores imported: %d\n", len(stores))
}

// seedAdmin ADMIN_EMAIL / ADMIN_PASSWORD 환경변수가 있으면 관리자 계정을 만든다.
// 이미 같은 이메일 계정이 있으면 건너뛴다.
func seedAdmin(gdb *gorm.DB) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		fmt.Println("ADMIN_EMAIL / ADMIN_PASSWORD not set, skipping admin seed.")
		return nil
	}

	var count int64
	if err := gdb.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Printf("Admin account %s already exists, skipping.\n", email)
		return nil
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "관리자",
		Role:         model.RoleAdmin,
	}
	if err := gdb.Create(&admin).Error; err != nil {
		return err
	}

	fmt.Printf("Admin account created: %s (id=%d)\n", email, admin.ID)
	return nil
}

func readStoresFromXLSX(filePath string) ([]string, []model.Store, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	// 첫 번째 시트 이름 가져오기
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	// 모든 행 읽기
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	var stores []model.Store
	var brandNames []string
	seenBrands := make(map[string]bool) // 브랜드 중복 제거용
	seenStores := make(map[string]bool) // 매장 중복 제거용
	skippedCount := 0
	invalidCoordCount := 0

	// 첫 행은 헤더이므로 스킵
	for i, row := range rows {
		if i == 0 {
			// 헤더 출력 (디버깅용)
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < 5 {
			skippedCount++
			continue
		}

		brandName := strings.TrimSpace(row[0]) // 브랜드명
		name := strings.TrimSpace(row[1])      // 매장명
		region := strings.TrimSpace(row[2])    // 시도명
		district := strings.TrimSpace(row[3])  // 시군구명
		address := strings.TrimSpace(row[4])   // 주소

		// 필수 항목 검사
		if brandName == "" || name == "" || region == "" || district == "" {
			skippedCount++
			continue
		}

		// 좌표는 선택 항목. 값이 있는데 파싱이 안 되면 좌표 없이 등록한다
		// (좌표 없는 매장에 대한 제출은 채점 시 감산 사유로 기록됨).
		var latitude, longitude *float64
		if len(row) > 6 {
			latStr := strings.TrimSpace(row[5])
			lngStr := strings.TrimSpace(row[6])
			lat, errLat := strconv.ParseFloat(latStr, 64)
			lng, errLng := strconv.ParseFloat(lngStr, 64)
			if errLat == nil && errLng == nil && lat != 0 && lng != 0 {
				latitude = &lat
				longitude = &lng
			} else if latStr != "" || lngStr != "" {
				invalidCoordCount++
			}
		}

		phone := ""
		if len(row) > 7 {
			phone = strings.TrimSpace(row[7])
		}

		// 중복 체크 (브랜드+이름+지역 기준)
		key := fmt.Sprintf("%s|%s|%s|%s", brandName, name, region, district)
		if seenStores[key] {
			skippedCount++
			continue
		}
		seenStores[key] = true

		if !seenBrands[brandName] {
			seenBrands[brandName] = true
			brandNames = append(brandNames, brandName)
		}

		stores = append(stores, model.Store{
			Brand:       model.Brand{Name: brandName}, // 저장 전에 BrandID로 치환됨
			Name:        name,
			Region:      region,
			District:    district,
			Address:     address,
			Latitude:    latitude,
			Longitude:   longitude,
			PhoneNumber: phone,
			IsActive:    true,
		})

		// 진행 상황 출력 (500개마다)
		if len(stores)%500 == 0 {
			fmt.Printf("Processed %d stores...\n", len(stores))
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid stores: %d\n", len(stores))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)
	fmt.Printf("  Rows with unparsable coordinates: %d\n", invalidCoordCount)

	return brandNames, stores, nil
}
