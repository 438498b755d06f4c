package service

import (
	"errors"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"github.com/jwyun/staffpass-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrStoreNotFound = errors.New("store not found")
	ErrBrandNotFound = errors.New("brand not found")
)

// CreateStoreInput 매장 생성 입력
type CreateStoreInput struct {
	BrandID     uint
	Name        string
	Region      string
	District    string
	Address     string
	Latitude    *float64
	Longitude   *float64
	PhoneNumber string
	ImageURL    string
}

// UpdateStoreInput 매장 수정 입력. nil 필드는 변경하지 않는다.
type UpdateStoreInput struct {
	Name        *string
	Address     *string
	Latitude    *float64
	Longitude   *float64
	PhoneNumber *string
	ImageURL    *string
	IsActive    *bool
}

type StoreService interface {
	CreateBrand(name, logoURL string) (*model.Brand, error)
	GetBrandByID(id uint) (*model.Brand, error)
	ListBrands() ([]model.Brand, error)

	CreateStore(input CreateStoreInput) (*model.Store, error)
	GetStoreByID(id uint) (*model.Store, error)
	GetStoreBySlug(slug string) (*model.Store, error)
	ListStores(filter repository.StoreListFilter) ([]model.Store, int64, error)
	UpdateStore(id uint, input UpdateStoreInput) (*model.Store, error)
	DeleteStore(id uint) error
	RotateVerificationCode(id uint) (*model.Store, error)
}

type storeService struct {
	storeRepo repository.StoreRepository
}

func NewStoreService(storeRepo repository.StoreRepository) StoreService {
	return &storeService{storeRepo: storeRepo}
}

func (s *storeService) CreateBrand(name, logoURL string) (*model.Brand, error) {
	brand := &model.Brand{
		Name:    name,
		LogoURL: logoURL,
	}

	if err := s.storeRepo.CreateBrand(brand); err != nil {
		logger.Error("Failed to create brand", err, map[string]interface{}{
			"name": name,
		})
		return nil, err
	}

	logger.Info("Brand created", map[string]interface{}{
		"brand_id": brand.ID,
		"name":     brand.Name,
	})
	return brand, nil
}

func (s *storeService) GetBrandByID(id uint) (*model.Brand, error) {
	brand, err := s.storeRepo.FindBrandByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBrandNotFound
		}
		return nil, err
	}
	return brand, nil
}

func (s *storeService) ListBrands() ([]model.Brand, error) {
	return s.storeRepo.ListBrands()
}

func (s *storeService) CreateStore(input CreateStoreInput) (*model.Store, error) {
	// 소속 브랜드가 실제로 존재해야 한다
	if _, err := s.storeRepo.FindBrandByID(input.BrandID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Store creation failed: brand not found", map[string]interface{}{
				"brand_id": input.BrandID,
			})
			return nil, ErrBrandNotFound
		}
		return nil, err
	}

	store := &model.Store{
		BrandID:          input.BrandID,
		Name:             input.Name,
		Region:           input.Region,
		District:         input.District,
		Address:          input.Address,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
		PhoneNumber:      input.PhoneNumber,
		ImageURL:         input.ImageURL,
		VerificationCode: util.GenerateVerificationCode(6),
		IsActive:         true,
	}

	if err := s.storeRepo.Create(store); err != nil {
		logger.Error("Failed to create store", err, map[string]interface{}{
			"brand_id": input.BrandID,
			"name":     input.Name,
		})
		return nil, err
	}

	logger.Info("Store created", map[string]interface{}{
		"store_id": store.ID,
		"brand_id": store.BrandID,
		"slug":     store.Slug,
	})
	return store, nil
}

func (s *storeService) GetStoreByID(id uint) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

func (s *storeService) GetStoreBySlug(slug string) (*model.Store, error) {
	store, err := s.storeRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

func (s *storeService) ListStores(filter repository.StoreListFilter) ([]model.Store, int64, error) {
	return s.storeRepo.List(filter)
}

func (s *storeService) UpdateStore(id uint, input UpdateStoreInput) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		store.Name = *input.Name
	}
	if input.Address != nil {
		store.Address = *input.Address
	}
	if input.Latitude != nil {
		store.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		store.Longitude = input.Longitude
	}
	if input.PhoneNumber != nil {
		store.PhoneNumber = *input.PhoneNumber
	}
	if input.ImageURL != nil {
		store.ImageURL = *input.ImageURL
	}
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}

	if err := s.storeRepo.Update(store); err != nil {
		logger.Error("Failed to update store", err, map[string]interface{}{
			"store_id": id,
		})
		return nil, err
	}

	logger.Info("Store updated", map[string]interface{}{
		"store_id": store.ID,
	})
	return store, nil
}

func (s *storeService) DeleteStore(id uint) error {
	if _, err := s.storeRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStoreNotFound
		}
		return err
	}
	return s.storeRepo.Delete(id)
}

// RotateVerificationCode 매장 게시용 인증 코드를 새로 발급한다.
// 코드 유출이 의심될 때 관리자/브랜드가 호출한다.
func (s *storeService) RotateVerificationCode(id uint) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	store.VerificationCode = util.GenerateVerificationCode(6)
	if err := s.storeRepo.Update(store); err != nil {
		logger.Error("Failed to rotate verification code", err, map[string]interface{}{
			"store_id": id,
		})
		return nil, err
	}

	logger.Info("Verification code rotated", map[string]interface{}{
		"store_id": store.ID,
	})
	return store, nil
}
