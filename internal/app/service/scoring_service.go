package service

import (
	"context"
	"errors"
	"time"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/internal/scoring"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"github.com/jwyun/staffpass-backend/pkg/redis"
	"gorm.io/gorm"
)

const (
	// 명부 스냅샷 조회 상한. 이메일 정확 일치는 상한 밖이어도 전용 조회로
	// 따로 찾아 스냅샷에 합친다.
	rosterSnapshotLimit = 50

	// 같은 제출본에 대한 중복 채점 쓰기를 막는 마커 TTL
	scoreMarkTTL = 10 * time.Minute
)

var ErrVerificationNotFound = errors.New("verification request not found")

// ScoringService 제출된 인증 요청의 자동 채점 어댑터. 순수 엔진에 먹일
// 스냅샷(매장, 명부)을 조립하고 결과를 요청 레코드에 반영한다.
type ScoringService interface {
	ScoreRequest(ctx context.Context, requestID uint) (*scoring.Result, error)
	Rescore(ctx context.Context, requestID uint) (*scoring.Result, error)
}

type scoringService struct {
	verificationRepo repository.VerificationRepository
	storeRepo        repository.StoreRepository
	rosterRepo       repository.RosterRepository
	now              func() time.Time
}

func NewScoringService(
	verificationRepo repository.VerificationRepository,
	storeRepo repository.StoreRepository,
	rosterRepo repository.RosterRepository,
) ScoringService {
	return &scoringService{
		verificationRepo: verificationRepo,
		storeRepo:        storeRepo,
		rosterRepo:       rosterRepo,
		now:              time.Now,
	}
}

// ScoreRequest 제출 직후 트리거되는 채점. 같은 제출본이 중복 트리거되면
// 계산은 하되(결정적이라 값이 같다) 저장은 건너뛴다.
func (s *scoringService) ScoreRequest(ctx context.Context, requestID uint) (*scoring.Result, error) {
	return s.score(ctx, requestID, false)
}

// Rescore 관리자가 강제하는 재채점. 중복 마커를 무시하고 항상 다시 저장한다.
func (s *scoringService) Rescore(ctx context.Context, requestID uint) (*scoring.Result, error) {
	return s.score(ctx, requestID, true)
}

func (s *scoringService) score(ctx context.Context, requestID uint, force bool) (*scoring.Result, error) {
	req, err := s.verificationRepo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}

	store, roster := s.buildSnapshot(req)

	result, err := scoring.Score(req, store, roster, s.now())
	if err != nil {
		logger.Error("Auto-scoring failed", err, map[string]interface{}{
			"request_id": requestID,
		})
		return nil, err
	}

	if !force {
		fresh, markErr := redis.MarkScored(ctx, req.ID, req.UpdatedAt.Unix(), scoreMarkTTL)
		if markErr != nil {
			// Redis 없이도 채점은 결정적이므로 그냥 저장을 진행한다
			logger.Warn("Score dedupe marker unavailable", map[string]interface{}{
				"request_id": requestID,
				"error":      markErr.Error(),
			})
		} else if !fresh && req.ScoredAt != nil {
			logger.Debug("Score already persisted for this submission, skipping write", map[string]interface{}{
				"request_id": requestID,
			})
			return result, nil
		}
	}

	patch := repository.ScorePatch{
		AutoScore:      result.AutoScore,
		Reasons:        result.ReasonStrings(),
		DistanceMeters: result.DistanceMeters,
		LocationSource: result.LocationSource,
		ScoredAt:       s.now(),
	}
	if err := s.verificationRepo.ApplyScorePatch(req.ID, patch); err != nil {
		return nil, err
	}

	logger.Info("Verification request scored", map[string]interface{}{
		"request_id": requestID,
		"auto_score": result.AutoScore,
		"reasons":    patch.Reasons,
	})
	return result, nil
}

// buildSnapshot 채점 엔진 입력 조립. 매장 레코드가 없거나 명부가 비어도
// 엔진이 사유 코드로 강등하므로 에러로 만들지 않는다.
func (s *scoringService) buildSnapshot(req *model.VerificationRequest) (*model.Store, []model.RosterEntry) {
	if req.StoreID == nil {
		return nil, nil
	}

	store, err := s.storeRepo.FindByID(*req.StoreID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to load store for scoring", err, map[string]interface{}{
				"store_id": *req.StoreID,
			})
		}
		store = nil
	}

	roster, err := s.rosterRepo.ListByStore(*req.StoreID, rosterSnapshotLimit)
	if err != nil {
		logger.Error("Failed to load roster snapshot", err, map[string]interface{}{
			"store_id": *req.StoreID,
		})
		roster = nil
	}

	// 스냅샷 상한에 걸려 빠진 항목이라도 이메일 정확 일치는 놓치지 않도록
	// 전용 조회 결과를 합친다
	if req.ApplicantEmail != "" {
		if entry, err := s.rosterRepo.FindByStoreAndEmail(*req.StoreID, req.ApplicantEmail); err == nil && entry != nil {
			found := false
			for _, existing := range roster {
				if existing.ID == entry.ID {
					found = true
					break
				}
			}
			if !found {
				roster = append(roster, *entry)
			}
		}
	}

	return store, roster
}
