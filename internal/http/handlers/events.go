package handlers

import (
	"errors"
	"net/http"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
	"github.com/jasmnyeh/staircase-fairy/internal/http/middleware"
	"github.com/jasmnyeh/staircase-fairy/internal/logger"
	"github.com/jasmnyeh/staircase-fairy/internal/service"

	"github.com/gin-gonic/gin"
)

type scanRequest struct {
	UserID  string   `json:"user_id" binding:"required"`
	Payload string   `json:"payload" binding:"required"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// PostScan ingests a scan trigger. An optional lat/lng pair in the request
// counts as a device-reported fix attached to the trigger.
func (h *Handler) PostScan(c *gin.Context) {
	var req scanRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	trigger, err := service.ParseTrigger(req.UserID, req.Payload)
	if err != nil {
		// Malformed payloads are dropped, but the drop stays observable.
		logger.Warn("malformed scan payload dropped", "user_id", req.UserID, "payload", req.Payload)
		middleware.ScanRequests.WithLabelValues("malformed_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}
	if trigger.Coord == nil && req.Lat != nil && req.Lng != nil {
		trigger.Coord = &domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	}

	h.runEvent(c, domain.Event{Kind: domain.EventScanTrigger, Trigger: trigger})
}

type locationRequest struct {
	UserID string  `json:"user_id" binding:"required"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// PostLocation ingests a device location fix for the user's pending trigger.
func (h *Handler) PostLocation(c *gin.Context) {
	var req locationRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	h.runEvent(c, domain.Event{
		Kind: domain.EventDeviceLocationFix,
		Fix: &domain.DeviceLocationFix{
			UserID: req.UserID,
			Coord:  domain.Coordinate{Lat: req.Lat, Lng: req.Lng},
		},
	})
}

type consentRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Granted *bool  `json:"granted" binding:"required"`
}

// PostConsent records the user's consent response.
func (h *Handler) PostConsent(c *gin.Context) {
	var req consentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	h.runEvent(c, domain.Event{
		Kind:    domain.EventConsentResponse,
		Consent: &domain.ConsentResponse{UserID: req.UserID, Granted: *req.Granted},
	})
}

func (h *Handler) runEvent(c *gin.Context, ev domain.Event) {
	outcome, err := h.Scan.HandleEvent(c.Request.Context(), ev)
	if err != nil {
		logger.Error("event processing failed", "kind", string(ev.Kind), "error", err)
		middleware.ScanRequests.WithLabelValues("storage_failure").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	middleware.ScanRequests.WithLabelValues(outcomeLabel(outcome)).Inc()

	resp := gin.H{
		"accepted":    outcome.Accepted,
		"pending":     outcome.Pending,
		"message_key": string(outcome.Message),
	}
	if outcome.Reason != nil {
		resp["reason"] = reasonLabel(outcome.Reason)
	}
	if outcome.Params != nil {
		resp["params"] = outcome.Params
	}
	if outcome.Progress != nil {
		resp["progress"] = outcome.Progress
	}
	c.JSON(http.StatusOK, resp)
}

func outcomeLabel(o *service.Outcome) string {
	// Reason-less terminal messages carry their own labels; without this a
	// denied consent would be counted as an ignored event.
	switch o.Message {
	case domain.MsgConsentGranted:
		return "consent_granted"
	case domain.MsgConsentDenied:
		return "consent_denied"
	case domain.MsgNoPendingScan:
		return "no_pending_scan"
	case domain.MsgShareLocation:
		return "pending"
	}
	switch {
	case o.Accepted:
		return "accepted"
	case o.Reason != nil:
		return reasonLabel(o.Reason)
	default:
		return "ignored"
	}
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, service.ErrInvalidLocation):
		return "invalid_location"
	case errors.Is(err, service.ErrInvalidFloor):
		return "invalid_floor"
	case errors.Is(err, service.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, service.ErrTooSoon):
		return "too_soon"
	case errors.Is(err, service.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, service.ErrMalformedPayload):
		return "malformed_payload"
	default:
		return "storage_failure"
	}
}
