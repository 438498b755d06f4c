package repository

import (
	"time"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ScorePatch 자동 채점이 요청 레코드에 써넣는 필드 묶음.
// 클라이언트가 제출하는 필드와 분리해 채점 외 경로로는 갱신되지 않는다.
type ScorePatch struct {
	AutoScore      int
	Reasons        []string
	DistanceMeters *int
	LocationSource *model.LocationSource
	ScoredAt       time.Time
}

type VerificationRepository interface {
	Create(req *model.VerificationRequest) error
	FindByID(id uint) (*model.VerificationRequest, error)
	FindByIDWithHistory(id uint) (*model.VerificationRequest, error)
	ListByApplicant(applicantID uint) ([]model.VerificationRequest, error)
	ListByStatus(status model.VerificationStatus, limit, offset int) ([]model.VerificationRequest, int64, error)
	ListStaleNeedsInfo(before time.Time) ([]model.VerificationRequest, error)
	ApplyScorePatch(requestID uint, patch ScorePatch) error
	AppendInfoRequest(info *model.VerificationInfoRequest) error
	AppendMessage(msg *model.VerificationMessage) error
	Update(req *model.VerificationRequest) error
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(req *model.VerificationRequest) error {
	if err := r.db.Create(req).Error; err != nil {
		logger.Error("Failed to create verification request in database", err, map[string]interface{}{
			"applicant_id": req.ApplicantID,
		})
		return err
	}

	logger.Debug("Verification request created in database", map[string]interface{}{
		"request_id":   req.ID,
		"applicant_id": req.ApplicantID,
	})
	return nil
}

func (r *verificationRepository) FindByID(id uint) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	err := r.db.First(&req, id).Error
	if err != nil {
		logger.Debug("Failed to find verification request by ID", map[string]interface{}{
			"request_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return &req, nil
}

// FindByIDWithHistory 이력(추가 자료 요청, 답변 스레드)을 생성 시각 순으로 함께 조회
func (r *verificationRepository) FindByIDWithHistory(id uint) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	err := r.db.
		Preload("InfoRequests", func(db *gorm.DB) *gorm.DB {
			return db.Order("verification_info_requests.created_at ASC, verification_info_requests.id ASC")
		}).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("verification_messages.created_at ASC, verification_messages.id ASC")
		}).
		Preload("Applicant").
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *verificationRepository) ListByApplicant(applicantID uint) ([]model.VerificationRequest, error) {
	var requests []model.VerificationRequest
	err := r.db.Where("applicant_id = ?", applicantID).Order("created_at DESC").Find(&requests).Error
	if err != nil {
		logger.Error("Failed to list verification requests by applicant", err, map[string]interface{}{
			"applicant_id": applicantID,
		})
		return nil, err
	}
	return requests, nil
}

func (r *verificationRepository) ListByStatus(status model.VerificationStatus, limit, offset int) ([]model.VerificationRequest, int64, error) {
	query := r.db.Model(&model.VerificationRequest{}).Where("status = ?", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []model.VerificationRequest
	err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&requests).Error
	if err != nil {
		logger.Error("Failed to list verification requests by status", err, map[string]interface{}{
			"status": status,
		})
		return nil, 0, err
	}
	return requests, total, nil
}

// ListStaleNeedsInfo 독촉 대상: needs_info 상태로 기준 시각 이전에 마지막
// 갱신이 있었던 요청들
func (r *verificationRepository) ListStaleNeedsInfo(before time.Time) ([]model.VerificationRequest, error) {
	var requests []model.VerificationRequest
	err := r.db.
		Where("status = ? AND updated_at < ?", model.VerificationStatusNeedsInfo, before).
		Order("updated_at ASC").
		Find(&requests).Error
	if err != nil {
		logger.Error("Failed to list stale needs_info requests", err)
		return nil, err
	}
	return requests, nil
}

// ApplyScorePatch 채점 결과만 갱신한다. 상태(status)는 건드리지 않으므로
// 심사 워크플로와 독립적으로 재채점할 수 있다.
func (r *verificationRepository) ApplyScorePatch(requestID uint, patch ScorePatch) error {
	updates := map[string]interface{}{
		"auto_score":      patch.AutoScore,
		"reasons":         pq.StringArray(patch.Reasons),
		"distance_meters": patch.DistanceMeters,
		"location_source": patch.LocationSource,
		"scored_at":       patch.ScoredAt,
	}

	err := r.db.Model(&model.VerificationRequest{}).Where("id = ?", requestID).Updates(updates).Error
	if err != nil {
		logger.Error("Failed to apply score patch", err, map[string]interface{}{
			"request_id": requestID,
		})
		return err
	}

	logger.Debug("Score patch applied", map[string]interface{}{
		"request_id": requestID,
		"auto_score": patch.AutoScore,
	})
	return nil
}

func (r *verificationRepository) AppendInfoRequest(info *model.VerificationInfoRequest) error {
	if err := r.db.Create(info).Error; err != nil {
		logger.Error("Failed to append info request", err, map[string]interface{}{
			"request_id": info.RequestID,
		})
		return err
	}
	return nil
}

func (r *verificationRepository) AppendMessage(msg *model.VerificationMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		logger.Error("Failed to append verification message", err, map[string]interface{}{
			"request_id": msg.RequestID,
		})
		return err
	}
	return nil
}

func (r *verificationRepository) Update(req *model.VerificationRequest) error {
	if err := r.db.Save(req).Error; err != nil {
		logger.Error("Failed to update verification request", err, map[string]interface{}{
			"request_id": req.ID,
		})
		return err
	}
	return nil
}
