package scoring

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/pkg/util"
)

// 점수 구성: 지오 0~60 + 명부 0~30 + 신선도 0~10, 합산 후 [0,100] 클램프.
const (
	geoMaxPoints     = 60
	fullScoreRadiusM = 200  // 이 거리 이하면 지오 만점
	zeroScoreRadiusM = 1500 // 이 거리 이상이면 지오 0점
	matchRadiusM     = 250  // GEO_*_MATCH 분류 경계
	nearRadiusM      = 800  // GEO_NEAR 분류 경계

	rosterEmailPoints = 30
	rosterNamePoints  = 20
	rosterScanLimit   = 50 // 이름 대조 시 명부 스캔 상한

	freshnessPoints = 10
)

// 단말 위치 수집 시각이 이 범위 안이면 신선한 제출로 본다
const freshnessWindow = 10 * time.Minute

// ErrMalformedRequest 요청 자체가 형식을 갖추지 못한 경우 (저장 전 레코드 등).
// 데이터 품질 문제(좌표 없음, 명부 없음)는 에러가 아니라 사유 코드로 강등된다.
var ErrMalformedRequest = errors.New("malformed verification request")

// Result 자동 채점 결과. 호출자가 요청 레코드에 패치로 반영한다.
type Result struct {
	AutoScore      int
	Reasons        []Reason
	DistanceMeters *int
	LocationSource *model.LocationSource
}

// ReasonStrings formats the reason list for persistence, preserving
// computation order.
func (r *Result) ReasonStrings() []string {
	out := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		out[i] = reason.String()
	}
	return out
}

// Score computes the auto-score for a submitted verification request against
// its store record and roster snapshot. Pure and deterministic: same inputs
// and clock always produce the same result, so re-scoring is idempotent.
// store may be nil (store record missing) and roster may be empty; both
// degrade to zero-point reason codes rather than errors.
func Score(req *model.VerificationRequest, store *model.Store, roster []model.RosterEntry, now time.Time) (*Result, error) {
	if req == nil || req.ID == 0 {
		return nil, ErrMalformedRequest
	}

	// 매장 미지정은 즉시 종료: 채점할 기준이 없다
	if req.StoreID == nil {
		return &Result{
			AutoScore: 0,
			Reasons:   []Reason{{Kind: ReasonNoStoreID}},
		}, nil
	}

	result := &Result{}
	loc := ResolveLocation(req)
	if loc != nil {
		source := loc.Source
		result.LocationSource = &source
	}

	// 1. 지오 점수 (0~60)
	geoScore := scoreGeo(result, loc, store)

	// 2. 명부 대조 (0~30)
	rosterScore := scoreRoster(result, req.ApplicantEmail, req.ApplicantName, roster)

	// 3. 신선도 (0~10) — 수집 시각이 있을 때만 평가
	freshScore := scoreFreshness(result, loc, now)

	total := geoScore + rosterScore + freshScore
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	result.AutoScore = total

	return result, nil
}

// scoreGeo 거리 계산과 분류. 위치와 매장 좌표가 모두 있어야 한다.
func scoreGeo(result *Result, loc *ResolvedLocation, store *model.Store) int {
	if loc == nil {
		result.Reasons = append(result.Reasons, Reason{Kind: ReasonNoGPS})
	}
	if store == nil || store.Latitude == nil || store.Longitude == nil {
		result.Reasons = append(result.Reasons, Reason{Kind: ReasonNoStoreCoords})
	}
	if loc == nil || store == nil || store.Latitude == nil || store.Longitude == nil {
		return 0
	}

	distance := util.DistanceMeters(loc.Lat, loc.Lng, *store.Latitude, *store.Longitude)
	result.DistanceMeters = &distance

	switch {
	case distance <= matchRadiusM:
		kind := ReasonGeoDevice
		if loc.Source == model.LocationSourceExif {
			kind = ReasonGeoExif
		}
		result.Reasons = append(result.Reasons, GeoReason(kind, distance))
	case distance <= nearRadiusM:
		result.Reasons = append(result.Reasons, GeoReason(ReasonGeoNear, distance))
	default:
		result.Reasons = append(result.Reasons, GeoReason(ReasonGeoOutOfRange, distance))
	}

	return geoPoints(distance)
}

// geoPoints 거리→점수 곡선: 200m 이하 만점, 1500m 이상 0점, 사이는 선형 감소
func geoPoints(distanceMeters int) int {
	switch {
	case distanceMeters <= fullScoreRadiusM:
		return geoMaxPoints
	case distanceMeters >= zeroScoreRadiusM:
		return 0
	default:
		d := float64(distanceMeters)
		score := float64(geoMaxPoints) * (1 - (d-fullScoreRadiusM)/(zeroScoreRadiusM-fullScoreRadiusM))
		points := int(math.Round(score))
		if points < 0 {
			points = 0
		}
		return points
	}
}

// scoreRoster 이메일 정확 일치가 이름 유사 일치보다 항상 우선한다.
func scoreRoster(result *Result, email, name string, roster []model.RosterEntry) int {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		for _, entry := range roster {
			if strings.EqualFold(entry.Email, email) {
				result.Reasons = append(result.Reasons, Reason{Kind: ReasonEmailMatch})
				return rosterEmailPoints
			}
		}
	}

	// 이메일 일치가 없을 때만 이름 대조, 스캔은 상한까지만
	normalized := model.NormalizeRosterName(name)
	if normalized != "" {
		limit := len(roster)
		if limit > rosterScanLimit {
			limit = rosterScanLimit
		}
		for i := 0; i < limit; i++ {
			candidate := roster[i].NormalizedName
			if candidate == "" {
				candidate = model.NormalizeRosterName(roster[i].Name)
			}
			if candidate == "" {
				continue
			}
			if strings.Contains(candidate, normalized) || strings.Contains(normalized, candidate) {
				result.Reasons = append(result.Reasons, Reason{Kind: ReasonNameMatch})
				return rosterNamePoints
			}
		}
	}

	result.Reasons = append(result.Reasons, Reason{Kind: ReasonNoRosterHit})
	return 0
}

// scoreFreshness 수집 시각이 전혀 없으면 사유도 남기지 않는다.
func scoreFreshness(result *Result, loc *ResolvedLocation, now time.Time) int {
	if loc == nil || loc.CapturedAt == nil {
		return 0
	}

	age := now.Sub(*loc.CapturedAt)
	if age < 0 {
		age = -age
	}
	if age <= freshnessWindow {
		result.Reasons = append(result.Reasons, Reason{Kind: ReasonFreshCapture})
		return freshnessPoints
	}
	result.Reasons = append(result.Reasons, Reason{Kind: ReasonStaleCapture})
	return 0
}
