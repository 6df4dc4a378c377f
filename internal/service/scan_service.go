package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/catalog"
	"github.com/jasmnyeh/staircase-fairy/internal/config"
	"github.com/jasmnyeh/staircase-fairy/internal/domain"
	"github.com/jasmnyeh/staircase-fairy/internal/geo"
	"github.com/jasmnyeh/staircase-fairy/internal/logger"
	"github.com/jasmnyeh/staircase-fairy/internal/repository"
)

// UserStore is the user/consent persistence the pipeline needs.
type UserStore interface {
	GetOrCreate(ctx context.Context, id string) (*domain.User, error)
	SetConsent(ctx context.Context, id string, granted bool) error
}

// ScanStore provides the per-user transactional scope covering the
// rate-limit read, the ledger append and the progression update.
type ScanStore interface {
	InUserTx(ctx context.Context, userID string, fn func(tx repository.UserScanTx) error) error
}

// PendingStore parks triggers awaiting a device location fix.
type PendingStore interface {
	Put(ctx context.Context, trigger *domain.ScanTrigger) error
	Take(ctx context.Context, userID string) (*domain.ScanTrigger, bool, error)
}

// PositionResolver estimates the user's position without device hints.
type PositionResolver interface {
	Resolve(ctx context.Context, userID string) (domain.Coordinate, error)
}

// Notifier delivers abstract (user, message key, params) notifications.
// Rendering and transport delivery are not the engine's concern.
type Notifier interface {
	Notify(ctx context.Context, userID string, key domain.MessageKey, params map[string]any)
}

// Outcome is the terminal state of one inbound event. Every path through the
// pipeline returns a typed outcome; rejections are values, not faults.
type Outcome struct {
	Accepted bool
	// Pending is set when a trigger was parked awaiting a location fix.
	Pending bool
	// Reason is the rejection sentinel, nil for accepted/pending outcomes.
	Reason   error
	Message  domain.MessageKey
	Params   map[string]any
	Event    *domain.ScanEvent
	Progress *domain.ProgressionRecord
}

// ScanService runs the scan verification and progression pipeline.
type ScanService struct {
	users    UserStore
	scans    ScanStore
	pending  PendingStore
	catalog  *catalog.Catalog
	resolver PositionResolver
	fence    geo.Geofence
	cooldown time.Duration
	mode     config.PositionMode
	notifier Notifier

	now func() time.Time
}

func NewScanService(
	users UserStore,
	scans ScanStore,
	pending PendingStore,
	cat *catalog.Catalog,
	resolver PositionResolver,
	fence geo.Geofence,
	cooldown time.Duration,
	mode config.PositionMode,
	notifier Notifier,
) *ScanService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ScanService{
		users:    users,
		scans:    scans,
		pending:  pending,
		catalog:  cat,
		resolver: resolver,
		fence:    fence,
		cooldown: cooldown,
		mode:     mode,
		notifier: notifier,
		now:      time.Now,
	}
}

// HandleEvent dispatches one inbound event. Events tagged Other are ignored
// with an empty outcome.
func (s *ScanService) HandleEvent(ctx context.Context, ev domain.Event) (*Outcome, error) {
	switch ev.Kind {
	case domain.EventScanTrigger:
		return s.HandleTrigger(ctx, ev.Trigger)
	case domain.EventDeviceLocationFix:
		return s.HandleLocationFix(ctx, ev.Fix)
	case domain.EventConsentResponse:
		return s.HandleConsent(ctx, ev.Consent)
	default:
		return &Outcome{}, nil
	}
}

// HandleTrigger runs a scan trigger through consent, catalog and position
// resolution. In device mode a trigger without an inline coordinate is
// parked until the user shares a location fix.
func (s *ScanService) HandleTrigger(ctx context.Context, t *domain.ScanTrigger) (*Outcome, error) {
	user, err := s.users.GetOrCreate(ctx, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	if !user.LocationConsent {
		return s.reject(ctx, t.UserID, ErrPermissionDenied, domain.MsgConsentPrompt, nil), nil
	}

	ref, level, err := s.catalog.Lookup(t.LocationID, t.FloorLabel)
	if err != nil {
		key := domain.MsgInvalidLocation
		if err == catalog.ErrInvalidFloor {
			key = domain.MsgInvalidFloor
		}
		return s.reject(ctx, t.UserID, err, key, map[string]any{"location": t.LocationID, "floor": t.FloorLabel}), nil
	}

	var pos domain.Coordinate
	switch {
	case t.Coord != nil:
		pos = *t.Coord
	case s.mode == config.PositionModeNetwork:
		pos, err = s.resolver.Resolve(ctx, t.UserID)
		if err != nil {
			logger.Warn("position resolution failed", "user_id", t.UserID, "error", err)
			return s.reject(ctx, t.UserID, ErrProviderUnavailable, domain.MsgProviderDown, nil), nil
		}
	default:
		// Device mode without an inline fix: park the trigger and ask the
		// user to share their location.
		if err := s.pending.Put(ctx, t); err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		s.notifier.Notify(ctx, t.UserID, domain.MsgShareLocation, nil)
		return &Outcome{Pending: true, Message: domain.MsgShareLocation}, nil
	}

	return s.commit(ctx, t, pos, ref, level)
}

// HandleLocationFix completes the user's pending trigger with the shared
// position.
func (s *ScanService) HandleLocationFix(ctx context.Context, fix *domain.DeviceLocationFix) (*Outcome, error) {
	user, err := s.users.GetOrCreate(ctx, fix.UserID)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	if !user.LocationConsent {
		return s.reject(ctx, fix.UserID, ErrPermissionDenied, domain.MsgConsentPrompt, nil), nil
	}

	trigger, ok, err := s.pending.Take(ctx, fix.UserID)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if !ok {
		s.notifier.Notify(ctx, fix.UserID, domain.MsgNoPendingScan, nil)
		return &Outcome{Message: domain.MsgNoPendingScan}, nil
	}

	ref, level, err := s.catalog.Lookup(trigger.LocationID, trigger.FloorLabel)
	if err != nil {
		key := domain.MsgInvalidLocation
		if err == catalog.ErrInvalidFloor {
			key = domain.MsgInvalidFloor
		}
		return s.reject(ctx, fix.UserID, err, key, nil), nil
	}

	return s.commit(ctx, trigger, fix.Coord, ref, level)
}

// HandleConsent applies the user's consent response.
func (s *ScanService) HandleConsent(ctx context.Context, c *domain.ConsentResponse) (*Outcome, error) {
	if _, err := s.users.GetOrCreate(ctx, c.UserID); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := s.users.SetConsent(ctx, c.UserID, c.Granted); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	key := domain.MsgConsentDenied
	if c.Granted {
		key = domain.MsgConsentGranted
	}
	s.notifier.Notify(ctx, c.UserID, key, nil)
	return &Outcome{Accepted: c.Granted, Message: key}, nil
}

// commit runs the geofence check and then the serialized tail of the
// pipeline: cooldown check, ledger append, progression update. The whole
// tail is one transaction under the user's row lock; a rejection rolls it
// back so no partial state is ever written.
func (s *ScanService) commit(ctx context.Context, t *domain.ScanTrigger, pos, ref domain.Coordinate, floorLevel int) (*Outcome, error) {
	if !s.fence.Within(pos, ref) {
		dist := geo.Distance(pos, ref)
		return s.reject(ctx, t.UserID, ErrOutOfRange, domain.MsgOutOfRange,
			map[string]any{"distance_m": dist, "radius_m": s.fence.RadiusM}), nil
	}

	now := s.now()
	event := &domain.ScanEvent{
		UserID:     t.UserID,
		LocationID: t.LocationID,
		FloorLabel: t.FloorLabel,
		FloorLevel: floorLevel,
		ScannedAt:  now,
	}
	var progress domain.ProgressionRecord

	err := s.scans.InUserTx(ctx, t.UserID, func(tx repository.UserScanTx) error {
		last, has, err := tx.LastScanAt(ctx)
		if err != nil {
			return err
		}
		// Exclusive boundary: exactly cooldown elapsed is allowed.
		if has && now.Sub(last) < s.cooldown {
			return ErrTooSoon
		}

		if err := tx.AppendScan(ctx, event); err != nil {
			return err
		}

		rec, _, err := tx.Progression(ctx)
		if err != nil {
			return err
		}
		rec.UserID = t.UserID
		rec.Points += PointsPerScan
		rec.Level, rec.PointsToNext = CalculateLevel(rec.Points)
		if err := tx.SaveProgression(ctx, rec); err != nil {
			return err
		}
		progress = rec
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			return s.reject(ctx, t.UserID, err, domain.MsgTooSoon,
				map[string]any{"cooldown_seconds": int(s.cooldown.Seconds())}), nil
		}
		return nil, fmt.Errorf("storage: %w", err)
	}

	params := map[string]any{
		"location": t.LocationID,
		"floor":    t.FloorLabel,
		"points":   progress.Points,
		"level":    progress.Level,
		"to_next":  progress.PointsToNext,
	}
	s.notifier.Notify(ctx, t.UserID, domain.MsgScanSuccess, params)

	return &Outcome{
		Accepted: true,
		Message:  domain.MsgScanSuccess,
		Params:   params,
		Event:    event,
		Progress: &progress,
	}, nil
}

func (s *ScanService) reject(ctx context.Context, userID string, reason error, key domain.MessageKey, params map[string]any) *Outcome {
	s.notifier.Notify(ctx, userID, key, params)
	return &Outcome{Reason: reason, Message: key, Params: params}
}
