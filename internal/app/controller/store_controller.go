package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/internal/app/service"
	apperrors "github.com/jwyun/staffpass-backend/internal/errors"
	"github.com/jwyun/staffpass-backend/internal/middleware"
)

type StoreController struct {
	storeService service.StoreService
}

func NewStoreController(storeService service.StoreService) *StoreController {
	return &StoreController{
		storeService: storeService,
	}
}

type CreateBrandRequest struct {
	Name    string `json:"name" binding:"required"`
	LogoURL string `json:"logo_url"`
}

type CreateStoreRequest struct {
	BrandID     uint     `json:"brand_id" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Region      string   `json:"region" binding:"required"`
	District    string   `json:"district" binding:"required"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	PhoneNumber string   `json:"phone_number"`
	ImageURL    string   `json:"image_url"`
}

type UpdateStoreRequest struct {
	Name        *string  `json:"name"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	PhoneNumber *string  `json:"phone_number"`
	ImageURL    *string  `json:"image_url"`
	IsActive    *bool    `json:"is_active"`
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "올바르지 않은 ID입니다")
		return 0, false
	}
	return uint(id), true
}

// CreateBrand creates a brand tenant
// POST /api/v1/brands
func (ctrl *StoreController) CreateBrand(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	brand, err := ctrl.storeService.CreateBrand(req.Name, req.LogoURL)
	if err != nil {
		log.Error("Failed to create brand", err, map[string]interface{}{
			"name": req.Name,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create brand")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Brand created successfully",
		"brand":   brand,
	})
}

// ListBrands lists all brands
// GET /api/v1/brands
func (ctrl *StoreController) ListBrands(c *gin.Context) {
	brands, err := ctrl.storeService.ListBrands()
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list brands")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"brands": brands,
	})
}

// CreateStore creates a store under a brand
// POST /api/v1/stores
func (ctrl *StoreController) CreateStore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	store, err := ctrl.storeService.CreateStore(service.CreateStoreInput{
		BrandID:     req.BrandID,
		Name:        req.Name,
		Region:      req.Region,
		District:    req.District,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		PhoneNumber: req.PhoneNumber,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrBrandNotFound) {
			apperrors.NotFound(c, apperrors.BrandNotFound, "브랜드를 찾을 수 없습니다")
			return
		}
		log.Error("Failed to create store", err, map[string]interface{}{
			"brand_id": req.BrandID,
			"name":     req.Name,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create store")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Store created successfully",
		"store":   store,
	})
}

// ListStores lists stores with optional filters
// GET /api/v1/stores?brand_id=&region=&district=&search=&page=&page_size=
func (ctrl *StoreController) ListStores(c *gin.Context) {
	filter := repository.StoreListFilter{
		Region:   c.Query("region"),
		District: c.Query("district"),
		Search:   c.Query("search"),
	}

	if brandIDStr := c.Query("brand_id"); brandIDStr != "" {
		brandID, err := strconv.ParseUint(brandIDStr, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "올바르지 않은 브랜드 ID입니다")
			return
		}
		id := uint(brandID)
		filter.BrandID = &id
	}

	if activeStr := c.Query("is_active"); activeStr != "" {
		active := activeStr == "true"
		filter.IsActive = &active
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	stores, total, err := ctrl.storeService.ListStores(filter)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list stores")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stores":    stores,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetStore returns a single store
// GET /api/v1/stores/:id
func (ctrl *StoreController) GetStore(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	store, err := ctrl.storeService.GetStoreByID(id)
	if err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			apperrors.NotFound(c, apperrors.StoreNotFound, "매장을 찾을 수 없습니다")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get store")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store": store,
	})
}

// UpdateStore updates store fields
// PUT /api/v1/stores/:id
func (ctrl *StoreController) UpdateStore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	store, err := ctrl.storeService.UpdateStore(id, service.UpdateStoreInput{
		Name:        req.Name,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		PhoneNumber: req.PhoneNumber,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			apperrors.NotFound(c, apperrors.StoreNotFound, "매장을 찾을 수 없습니다")
			return
		}
		log.Error("Failed to update store", err, map[string]interface{}{
			"store_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update store")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Store updated successfully",
		"store":   store,
	})
}

// DeleteStore removes a store (soft delete)
// DELETE /api/v1/stores/:id
func (ctrl *StoreController) DeleteStore(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.storeService.DeleteStore(id); err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			apperrors.NotFound(c, apperrors.StoreNotFound, "매장을 찾을 수 없습니다")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "delete store")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Store deleted successfully",
	})
}

// RotateVerificationCode issues a fresh posted verification code
// POST /api/v1/stores/:id/rotate-code
func (ctrl *StoreController) RotateVerificationCode(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	store, err := ctrl.storeService.RotateVerificationCode(id)
	if err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			apperrors.NotFound(c, apperrors.StoreNotFound, "매장을 찾을 수 없습니다")
			return
		}
		log.Error("Failed to rotate verification code", err, map[string]interface{}{
			"store_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "rotate code")
		return
	}

	// 새 코드는 이 응답에서만 노출된다
	c.JSON(http.StatusOK, gin.H{
		"message":           "Verification code rotated",
		"store_id":          store.ID,
		"verification_code": store.VerificationCode,
	})
}
