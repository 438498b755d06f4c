package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	storeLat = 37.4979
	storeLng = 127.0276
)

// metersToLatDegrees converts a northward offset in meters to degrees of
// latitude, so tests can place the device at an exact distance from the store.
func metersToLatDegrees(meters float64) float64 {
	return meters * 180.0 / (math.Pi * 6371000.0)
}

func testStore() *model.Store {
	lat := storeLat
	lng := storeLng
	return &model.Store{
		ID:        1,
		Name:      "강남 1호점",
		Latitude:  &lat,
		Longitude: &lng,
	}
}

func testRoster() []model.RosterEntry {
	return []model.RosterEntry{
		{StoreID: 1, Email: "minji.kim@example.com", Name: "김민지", NormalizedName: model.NormalizeRosterName("김민지")},
		{StoreID: 1, Email: "jiho.park@example.com", Name: "박지호", NormalizedName: model.NormalizeRosterName("박지호")},
		{StoreID: 1, Email: "sarah.lee@example.com", Name: "Sarah Lee", NormalizedName: model.NormalizeRosterName("Sarah Lee")},
	}
}

// deviceRequest builds a request with device GPS at the given distance north
// of the store.
func deviceRequest(distanceMeters float64, capturedAt *time.Time) *model.VerificationRequest {
	storeID := uint(1)
	lat := storeLat + metersToLatDegrees(distanceMeters)
	lng := storeLng
	return &model.VerificationRequest{
		ID:               42,
		ApplicantID:      7,
		StoreID:          &storeID,
		ApplicantEmail:   "minji.kim@example.com",
		ApplicantName:    "김민지",
		DeviceLat:        &lat,
		DeviceLng:        &lng,
		DeviceCapturedAt: capturedAt,
	}
}

func reasonKinds(result *Result) []ReasonKind {
	kinds := make([]ReasonKind, len(result.Reasons))
	for i, r := range result.Reasons {
		kinds[i] = r.Kind
	}
	return kinds
}

func TestScore_ScenarioA_FullScore(t *testing.T) {
	// 150m, 단말 GPS, 이메일 일치, 2분 전 수집 → 60 + 30 + 10 = 100
	now := time.Now()
	captured := now.Add(-2 * time.Minute)
	req := deviceRequest(150, &captured)

	result, err := Score(req, testStore(), testRoster(), now)
	require.NoError(t, err)

	assert.Equal(t, 100, result.AutoScore)
	require.NotNil(t, result.DistanceMeters)
	assert.Equal(t, 150, *result.DistanceMeters)
	require.NotNil(t, result.LocationSource)
	assert.Equal(t, model.LocationSourceDevice, *result.LocationSource)
	assert.Equal(t, []string{"GEO_DEVICE_MATCH(150m)", "ROSTER_EMAIL_MATCH", "FRESH_CAPTURE"}, result.ReasonStrings())
}

func TestScore_ScenarioB_ExifOutOfRange(t *testing.T) {
	// 1000m, EXIF 위치, 명부 불일치, 수집 시각 없음
	// 지오: round(60 * (1 - 800/1300)) = 23, 나머지 0
	storeID := uint(1)
	lat := storeLat + metersToLatDegrees(1000)
	lng := storeLng
	req := &model.VerificationRequest{
		ID:             42,
		ApplicantID:    7,
		StoreID:        &storeID,
		ApplicantEmail: "stranger@example.com",
		ApplicantName:  "아무개",
		ExifLat:        &lat,
		ExifLng:        &lng,
	}

	result, err := Score(req, testStore(), testRoster(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 23, result.AutoScore)
	require.NotNil(t, result.DistanceMeters)
	assert.Equal(t, 1000, *result.DistanceMeters)
	require.NotNil(t, result.LocationSource)
	assert.Equal(t, model.LocationSourceExif, *result.LocationSource)
	// 1000m > 800m이므로 MATCH가 아니라 OUT_OF_RANGE로 분류된다
	assert.Equal(t, []string{"GEO_OUT_OF_RANGE(1000m)", "NO_ROSTER_HIT"}, result.ReasonStrings())
}

func TestScore_ScenarioC_NoStoreID(t *testing.T) {
	req := &model.VerificationRequest{
		ID:             42,
		ApplicantID:    7,
		ApplicantEmail: "minji.kim@example.com",
	}

	result, err := Score(req, nil, nil, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, result.AutoScore)
	assert.Equal(t, []string{"NO_STORE_ID"}, result.ReasonStrings())
	assert.Nil(t, result.DistanceMeters)
	assert.Nil(t, result.LocationSource)
}

func TestScore_MalformedRequest(t *testing.T) {
	_, err := Score(nil, testStore(), testRoster(), time.Now())
	assert.ErrorIs(t, err, ErrMalformedRequest)

	_, err = Score(&model.VerificationRequest{}, testStore(), testRoster(), time.Now())
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestScore_MissingStoreCoords(t *testing.T) {
	now := time.Now()
	captured := now.Add(-1 * time.Minute)
	req := deviceRequest(100, &captured)

	store := testStore()
	store.Latitude = nil
	store.Longitude = nil

	result, err := Score(req, store, testRoster(), now)
	require.NoError(t, err)

	// 지오 0점이지만 명부/신선도는 그대로 평가된다
	assert.Equal(t, 40, result.AutoScore)
	assert.Equal(t, []string{"NO_STORE_COORDS", "ROSTER_EMAIL_MATCH", "FRESH_CAPTURE"}, result.ReasonStrings())
	assert.Nil(t, result.DistanceMeters)
	require.NotNil(t, result.LocationSource)
	assert.Equal(t, model.LocationSourceDevice, *result.LocationSource)
}

func TestScore_MissingStoreRecord(t *testing.T) {
	req := deviceRequest(100, nil)

	result, err := Score(req, nil, testRoster(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 30, result.AutoScore)
	assert.Contains(t, reasonKinds(result), ReasonNoStoreCoords)
}

func TestScore_NoLocationEvidence(t *testing.T) {
	storeID := uint(1)
	req := &model.VerificationRequest{
		ID:             42,
		ApplicantID:    7,
		StoreID:        &storeID,
		ApplicantEmail: "minji.kim@example.com",
	}

	result, err := Score(req, testStore(), testRoster(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 30, result.AutoScore)
	assert.Equal(t, []string{"NO_GPS", "ROSTER_EMAIL_MATCH"}, result.ReasonStrings())
	assert.Nil(t, result.LocationSource)
	assert.Nil(t, result.DistanceMeters)
}

func TestScore_DevicePriorityOverExif(t *testing.T) {
	now := time.Now()
	captured := now.Add(-1 * time.Minute)
	req := deviceRequest(100, &captured)

	// EXIF는 멀리 두어도 단말 GPS가 우선한다
	exifLat := storeLat + metersToLatDegrees(5000)
	exifLng := storeLng
	req.ExifLat = &exifLat
	req.ExifLng = &exifLng

	result, err := Score(req, testStore(), testRoster(), now)
	require.NoError(t, err)

	require.NotNil(t, result.LocationSource)
	assert.Equal(t, model.LocationSourceDevice, *result.LocationSource)
	assert.Equal(t, 100, result.AutoScore)
}

func TestScore_EmailMatchOutranksName(t *testing.T) {
	// 이메일은 명부에 있지만 이름은 전혀 다른 경우 → 30점 (20점 아님)
	now := time.Now()
	req := deviceRequest(150, nil)
	req.ApplicantName = "완전히 다른 이름이다"

	result, err := Score(req, testStore(), testRoster(), now)
	require.NoError(t, err)

	assert.Contains(t, result.ReasonStrings(), "ROSTER_EMAIL_MATCH")
	assert.NotContains(t, result.ReasonStrings(), "ROSTER_NAME_MATCH")
	assert.Equal(t, 90, result.AutoScore) // 60 + 30, 신선도 없음
}

func TestScore_NameMatchFallback(t *testing.T) {
	now := time.Now()
	req := deviceRequest(150, nil)
	req.ApplicantEmail = "unknown@example.com"
	req.ApplicantName = "Sarah Lee"

	result, err := Score(req, testStore(), testRoster(), now)
	require.NoError(t, err)

	assert.Contains(t, result.ReasonStrings(), "ROSTER_NAME_MATCH")
	assert.Equal(t, 80, result.AutoScore) // 60 + 20
}

func TestScore_NameMatchSubstring(t *testing.T) {
	// 정규화 후 부분 문자열 포함이면 일치로 본다 (양방향)
	now := time.Now()
	req := deviceRequest(150, nil)
	req.ApplicantEmail = ""
	req.ApplicantName = "sarah"

	result, err := Score(req, testStore(), testRoster(), now)
	require.NoError(t, err)
	assert.Contains(t, result.ReasonStrings(), "ROSTER_NAME_MATCH")
}

func TestScore_NameScanBounded(t *testing.T) {
	// 일치 항목이 상한 밖에 있으면 이름 대조는 그 항목에 도달하지 못한다
	roster := make([]model.RosterEntry, 0, rosterScanLimit+1)
	for i := 0; i < rosterScanLimit; i++ {
		roster = append(roster, model.RosterEntry{Email: "filler@example.com", Name: "채움이", NormalizedName: "채움이"})
	}
	roster = append(roster, model.RosterEntry{Email: "target@example.com", Name: "타겟", NormalizedName: "타겟"})

	req := deviceRequest(150, nil)
	req.ApplicantEmail = ""
	req.ApplicantName = "타겟"

	result, err := Score(req, testStore(), roster, time.Now())
	require.NoError(t, err)
	assert.Contains(t, result.ReasonStrings(), "NO_ROSTER_HIT")
}

func TestScore_EmptyRoster(t *testing.T) {
	result, err := Score(deviceRequest(150, nil), testStore(), nil, time.Now())
	require.NoError(t, err)
	assert.Contains(t, result.ReasonStrings(), "NO_ROSTER_HIT")
	assert.Equal(t, 60, result.AutoScore)
}

func TestScore_Freshness(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		capturedAt time.Time
		wantReason string
		wantScore  int
	}{
		{"Captured 2 minutes ago", now.Add(-2 * time.Minute), "FRESH_CAPTURE", 100},
		{"Captured exactly at the window", now.Add(-10 * time.Minute), "FRESH_CAPTURE", 100},
		{"Captured 11 minutes ago", now.Add(-11 * time.Minute), "STALE_CAPTURE", 90},
		{"Clock skew: captured in the future", now.Add(3 * time.Minute), "FRESH_CAPTURE", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured := tt.capturedAt
			result, err := Score(deviceRequest(150, &captured), testStore(), testRoster(), now)
			require.NoError(t, err)
			assert.Contains(t, result.ReasonStrings(), tt.wantReason)
			assert.Equal(t, tt.wantScore, result.AutoScore)
		})
	}
}

func TestScore_NoFreshnessReasonWithoutTimestamp(t *testing.T) {
	result, err := Score(deviceRequest(150, nil), testStore(), testRoster(), time.Now())
	require.NoError(t, err)

	kinds := reasonKinds(result)
	assert.NotContains(t, kinds, ReasonFreshCapture)
	assert.NotContains(t, kinds, ReasonStaleCapture)
}

func TestScore_GeoClassificationBands(t *testing.T) {
	tests := []struct {
		distance   float64
		wantReason ReasonKind
	}{
		{100, ReasonGeoDevice},
		{250, ReasonGeoDevice},
		{251, ReasonGeoNear},
		{500, ReasonGeoNear},
		{800, ReasonGeoNear},
		{801, ReasonGeoOutOfRange},
		{2000, ReasonGeoOutOfRange},
	}

	for _, tt := range tests {
		result, err := Score(deviceRequest(tt.distance, nil), testStore(), testRoster(), time.Now())
		require.NoError(t, err)

		// 거리가 계산되면 지오 사유는 정확히 하나
		geoCount := 0
		for _, kind := range reasonKinds(result) {
			switch kind {
			case ReasonGeoDevice, ReasonGeoExif, ReasonGeoNear, ReasonGeoOutOfRange:
				geoCount++
			}
		}
		assert.Equal(t, 1, geoCount, "distance %v", tt.distance)
		assert.Contains(t, reasonKinds(result), tt.wantReason, "distance %v", tt.distance)
	}
}

func TestGeoPoints_Curve(t *testing.T) {
	// 경계값
	assert.Equal(t, 60, geoPoints(0))
	assert.Equal(t, 60, geoPoints(200))
	assert.Equal(t, 0, geoPoints(1500))
	assert.Equal(t, 0, geoPoints(3000))

	// 1000m → round(60 * (1 - 800/1300)) = 23
	assert.Equal(t, 23, geoPoints(1000))

	// 감소 구간에서 단조 비증가, 항상 [0, 60]
	prev := 61
	for d := 0; d <= 2000; d += 10 {
		p := geoPoints(d)
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 60)
		assert.LessOrEqual(t, p, prev, "distance %d", d)
		prev = p
	}

	// 100m 간격으로는 순감소
	for d := 200; d < 1400; d += 100 {
		assert.Greater(t, geoPoints(d), geoPoints(d+100), "distance %d", d)
	}
}

func TestScore_Idempotent(t *testing.T) {
	now := time.Now()
	captured := now.Add(-2 * time.Minute)
	req := deviceRequest(420, &captured)
	store := testStore()
	roster := testRoster()

	first, err := Score(req, store, roster, now)
	require.NoError(t, err)
	second, err := Score(req, store, roster, now)
	require.NoError(t, err)

	assert.Equal(t, first.AutoScore, second.AutoScore)
	assert.Equal(t, first.ReasonStrings(), second.ReasonStrings())
	assert.Equal(t, *first.DistanceMeters, *second.DistanceMeters)
}

func TestScore_ExactlyOneRosterReason(t *testing.T) {
	rosterReasons := map[ReasonKind]bool{
		ReasonEmailMatch:  true,
		ReasonNameMatch:   true,
		ReasonNoRosterHit: true,
	}

	requests := []*model.VerificationRequest{
		deviceRequest(150, nil),
		func() *model.VerificationRequest {
			r := deviceRequest(150, nil)
			r.ApplicantEmail = "unknown@example.com"
			return r
		}(),
		func() *model.VerificationRequest {
			r := deviceRequest(150, nil)
			r.ApplicantEmail = ""
			r.ApplicantName = ""
			return r
		}(),
	}

	for _, req := range requests {
		result, err := Score(req, testStore(), testRoster(), time.Now())
		require.NoError(t, err)

		count := 0
		for _, kind := range reasonKinds(result) {
			if rosterReasons[kind] {
				count++
			}
		}
		assert.Equal(t, 1, count)
	}
}

func TestResolveLocation(t *testing.T) {
	lat, lng := 37.5, 127.0
	capturedAt := time.Now()

	t.Run("Device wins over EXIF", func(t *testing.T) {
		req := &model.VerificationRequest{
			DeviceLat: &lat, DeviceLng: &lng, DeviceCapturedAt: &capturedAt,
			ExifLat: &lng, ExifLng: &lat,
		}
		loc := ResolveLocation(req)
		require.NotNil(t, loc)
		assert.Equal(t, model.LocationSourceDevice, loc.Source)
		assert.Equal(t, lat, loc.Lat)
		require.NotNil(t, loc.CapturedAt)
	})

	t.Run("EXIF fallback has no capture time", func(t *testing.T) {
		req := &model.VerificationRequest{ExifLat: &lat, ExifLng: &lng}
		loc := ResolveLocation(req)
		require.NotNil(t, loc)
		assert.Equal(t, model.LocationSourceExif, loc.Source)
		assert.Nil(t, loc.CapturedAt)
	})

	t.Run("Partial coordinates do not resolve", func(t *testing.T) {
		assert.Nil(t, ResolveLocation(&model.VerificationRequest{DeviceLat: &lat}))
		assert.Nil(t, ResolveLocation(&model.VerificationRequest{ExifLng: &lng}))
		assert.Nil(t, ResolveLocation(&model.VerificationRequest{}))
	})
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "GEO_NEAR(420m)", GeoReason(ReasonGeoNear, 420).String())
	assert.Equal(t, "NO_ROSTER_HIT", Reason{Kind: ReasonNoRosterHit}.String())
}
