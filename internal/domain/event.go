package domain

// EventKind tags the closed set of inbound event shapes. Events are built
// once at the transport boundary and passed into the engine as values; the
// engine never probes raw message fields.
type EventKind string

const (
	EventScanTrigger       EventKind = "scan_trigger"
	EventDeviceLocationFix EventKind = "device_location_fix"
	EventConsentResponse   EventKind = "consent_response"
	EventOther             EventKind = "other"
)

// ScanTrigger is a decoded STAIRCASE_QR payload. Coord is non-nil only for
// legacy payloads that carry the device-reported position inline.
type ScanTrigger struct {
	UserID     string
	LocationID string
	FloorLabel string
	Coord      *Coordinate
}

// DeviceLocationFix is a user-shared position, correlated with the user's
// most recent pending trigger.
type DeviceLocationFix struct {
	UserID string
	Coord  Coordinate
}

// ConsentResponse is the user's answer to the location-consent prompt.
type ConsentResponse struct {
	UserID  string
	Granted bool
}

// Event is the tagged variant delivered by the transport layer. Exactly one
// payload field matching Kind is set.
type Event struct {
	Kind    EventKind
	Trigger *ScanTrigger
	Fix     *DeviceLocationFix
	Consent *ConsentResponse
}
