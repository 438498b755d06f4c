package repository

import (
	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"gorm.io/gorm"
)

type StoreListFilter struct {
	BrandID  *uint
	Region   string
	District string
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

type StoreRepository interface {
	Create(store *model.Store) error
	BulkCreate(stores []model.Store, batchSize int) error
	FindByID(id uint) (*model.Store, error)
	FindBySlug(slug string) (*model.Store, error)
	List(filter StoreListFilter) ([]model.Store, int64, error)
	Update(store *model.Store) error
	Delete(id uint) error

	CreateBrand(brand *model.Brand) error
	FindBrandByID(id uint) (*model.Brand, error)
	ListBrands() ([]model.Brand, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(store *model.Store) error {
	if err := r.db.Create(store).Error; err != nil {
		logger.Error("Failed to create store in database", err, map[string]interface{}{
			"name":     store.Name,
			"brand_id": store.BrandID,
		})
		return err
	}

	logger.Debug("Store created in database", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
	})
	return nil
}

// BulkCreate 대량 매장 등록 (시드 전용)
func (r *storeRepository) BulkCreate(stores []model.Store, batchSize int) error {
	if err := r.db.CreateInBatches(stores, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create stores in database", err, map[string]interface{}{
			"count": len(stores),
		})
		return err
	}

	logger.Info("Stores bulk created in database", map[string]interface{}{
		"count": len(stores),
	})
	return nil
}

func (r *storeRepository) FindByID(id uint) (*model.Store, error) {
	var store model.Store
	err := r.db.First(&store, id).Error
	if err != nil {
		logger.Debug("Failed to find store by ID in database", map[string]interface{}{
			"store_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindBySlug(slug string) (*model.Store, error) {
	var store model.Store
	err := r.db.Where("slug = ?", slug).First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) List(filter StoreListFilter) ([]model.Store, int64, error) {
	query := r.db.Model(&model.Store{})

	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.District != "" {
		query = query.Where("district = ?", filter.District)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count stores in database", err)
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var stores []model.Store
	if err := query.Order("id ASC").Find(&stores).Error; err != nil {
		logger.Error("Failed to list stores in database", err)
		return nil, 0, err
	}

	return stores, total, nil
}

func (r *storeRepository) Update(store *model.Store) error {
	if err := r.db.Save(store).Error; err != nil {
		logger.Error("Failed to update store in database", err, map[string]interface{}{
			"store_id": store.ID,
		})
		return err
	}
	return nil
}

func (r *storeRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Store{}, id).Error; err != nil {
		logger.Error("Failed to delete store from database", err, map[string]interface{}{
			"store_id": id,
		})
		return err
	}
	return nil
}

func (r *storeRepository) CreateBrand(brand *model.Brand) error {
	if err := r.db.Create(brand).Error; err != nil {
		logger.Error("Failed to create brand in database", err, map[string]interface{}{
			"name": brand.Name,
		})
		return err
	}
	return nil
}

func (r *storeRepository) FindBrandByID(id uint) (*model.Brand, error) {
	var brand model.Brand
	err := r.db.First(&brand, id).Error
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *storeRepository) ListBrands() ([]model.Brand, error) {
	var brands []model.Brand
	if err := r.db.Order("name ASC").Find(&brands).Error; err != nil {
		logger.Error("Failed to list brands in database", err)
		return nil, err
	}
	return brands, nil
}
