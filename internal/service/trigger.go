package service

import (
	"strconv"
	"strings"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
)

const triggerPrefix = "STAIRCASE_QR_"

// ParseTrigger decodes a raw scan payload into a ScanTrigger.
//
// Two wire shapes exist: STAIRCASE_QR_<floor>_<location> and the legacy
// STAIRCASE_QR_<floor>_<location>_<lat>_<lng> with the reference coordinate
// embedded. Anything else (wrong field count, empty fields, non-numeric
// coordinates) is ErrMalformedPayload.
func ParseTrigger(userID, payload string) (*domain.ScanTrigger, error) {
	if !strings.HasPrefix(payload, triggerPrefix) {
		return nil, ErrMalformedPayload
	}

	parts := strings.Split(payload, "_")
	// parts[0] = STAIRCASE, parts[1] = QR
	if len(parts) != 4 && len(parts) != 6 {
		return nil, ErrMalformedPayload
	}

	floor, location := parts[2], parts[3]
	if floor == "" || location == "" {
		return nil, ErrMalformedPayload
	}

	trigger := &domain.ScanTrigger{
		UserID:     userID,
		LocationID: location,
		FloorLabel: floor,
	}

	if len(parts) == 6 {
		lat, errLat := strconv.ParseFloat(parts[4], 64)
		lng, errLng := strconv.ParseFloat(parts[5], 64)
		if errLat != nil || errLng != nil {
			return nil, ErrMalformedPayload
		}
		trigger.Coord = &domain.Coordinate{Lat: lat, Lng: lng}
	}

	return trigger, nil
}
