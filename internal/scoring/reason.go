package scoring

import "fmt"

// ReasonKind 채점 사유 코드. 점수의 각 구성 요소가 왜 그 값이 되었는지를
// 기계가 읽을 수 있는 태그로 남긴다.
type ReasonKind string

const (
	ReasonNoStoreID     ReasonKind = "NO_STORE_ID"      // 매장 미지정
	ReasonNoGPS         ReasonKind = "NO_GPS"           // 위치 증거 없음
	ReasonNoStoreCoords ReasonKind = "NO_STORE_COORDS"  // 매장 좌표 없음
	ReasonGeoDevice     ReasonKind = "GEO_DEVICE_MATCH" // 단말 GPS 일치 (≤250m)
	ReasonGeoExif       ReasonKind = "GEO_EXIF_MATCH"   // EXIF 위치 일치 (≤250m)
	ReasonGeoNear       ReasonKind = "GEO_NEAR"         // 근거리 (250~800m)
	ReasonGeoOutOfRange ReasonKind = "GEO_OUT_OF_RANGE" // 범위 밖 (>800m)
	ReasonEmailMatch    ReasonKind = "ROSTER_EMAIL_MATCH"
	ReasonNameMatch     ReasonKind = "ROSTER_NAME_MATCH"
	ReasonNoRosterHit   ReasonKind = "NO_ROSTER_HIT"
	ReasonFreshCapture  ReasonKind = "FRESH_CAPTURE" // 촬영 10분 이내
	ReasonStaleCapture  ReasonKind = "STALE_CAPTURE"
)

// Reason 채점 사유. 거리 기반 사유는 측정된 거리를 함께 담는다.
// 문자열 변환은 저장/표시 경계에서만 수행한다.
type Reason struct {
	Kind           ReasonKind `json:"kind"`
	DistanceMeters int        `json:"distance_meters,omitempty"`
	HasDistance    bool       `json:"-"`
}

// GeoReason 거리값이 붙는 사유 생성 헬퍼
func GeoReason(kind ReasonKind, distanceMeters int) Reason {
	return Reason{Kind: kind, DistanceMeters: distanceMeters, HasDistance: true}
}

// String formats the reason for persistence, e.g. "GEO_NEAR(420m)".
func (r Reason) String() string {
	if r.HasDistance {
		return fmt.Sprintf("%s(%dm)", r.Kind, r.DistanceMeters)
	}
	return string(r.Kind)
}
