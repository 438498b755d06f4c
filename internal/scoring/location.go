package scoring

import (
	"time"

	"github.com/jwyun/staffpass-backend/internal/app/model"
)

// ResolvedLocation 제출물에서 뽑아낸 단일 위치 증거.
// 단말 GPS가 EXIF 좌표보다 우선하며, 제출 1건당 하나만 채택된다.
type ResolvedLocation struct {
	Lat        float64
	Lng        float64
	CapturedAt *time.Time // 단말 GPS일 때만 존재
	Source     model.LocationSource
}

// ResolveLocation normalizes the location evidence of a submission into a
// single winner: device GPS first, EXIF coordinates as fallback, nil when
// neither is present. Runs once before scoring.
func ResolveLocation(req *model.VerificationRequest) *ResolvedLocation {
	if req.DeviceLat != nil && req.DeviceLng != nil {
		return &ResolvedLocation{
			Lat:        *req.DeviceLat,
			Lng:        *req.DeviceLng,
			CapturedAt: req.DeviceCapturedAt,
			Source:     model.LocationSourceDevice,
		}
	}
	if req.ExifLat != nil && req.ExifLng != nil {
		return &ResolvedLocation{
			Lat:    *req.ExifLat,
			Lng:    *req.ExifLng,
			Source: model.LocationSourceExif,
		}
	}
	return nil
}
