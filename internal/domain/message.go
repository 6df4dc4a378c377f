package domain

// MessageKey identifies an outbound user-facing message. The engine emits
// keys plus parameters; rendering and delivery belong to the transport layer.
type MessageKey string

const (
	MsgWelcome         MessageKey = "welcome"
	MsgConsentPrompt   MessageKey = "consent_prompt"
	MsgConsentGranted  MessageKey = "consent_granted"
	MsgConsentDenied   MessageKey = "consent_denied"
	MsgShareLocation   MessageKey = "share_location"
	MsgScanSuccess     MessageKey = "scan_success"
	MsgOutOfRange      MessageKey = "out_of_range"
	MsgTooSoon         MessageKey = "too_soon"
	MsgInvalidLocation MessageKey = "invalid_location"
	MsgInvalidFloor    MessageKey = "invalid_floor"
	MsgNoPendingScan   MessageKey = "no_pending_scan"
	MsgProviderDown    MessageKey = "provider_unavailable"
	MsgRankReport      MessageKey = "rank_report"
)
