package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/catalog"
	"github.com/jasmnyeh/staircase-fairy/internal/config"
	"github.com/jasmnyeh/staircase-fairy/internal/domain"
	"github.com/jasmnyeh/staircase-fairy/internal/geo"
	"github.com/jasmnyeh/staircase-fairy/internal/repository"
)

// In-memory stand-ins for the persistence interfaces, with the same
// all-or-nothing transaction behavior as the SQL store.

type stubUserStore struct {
	users map[string]*domain.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: map[string]*domain.User{}}
}

func (s *stubUserStore) GetOrCreate(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	u := &domain.User{ID: id, Language: "en", CreatedAt: time.Now()}
	s.users[id] = u
	return u, nil
}

func (s *stubUserStore) SetConsent(_ context.Context, id string, granted bool) error {
	u, _ := s.GetOrCreate(context.Background(), id)
	u.LocationConsent = granted
	return nil
}

type stubScanStore struct {
	events      []*domain.ScanEvent
	progression map[string]domain.ProgressionRecord
}

func newStubScanStore() *stubScanStore {
	return &stubScanStore{progression: map[string]domain.ProgressionRecord{}}
}

func (s *stubScanStore) InUserTx(_ context.Context, userID string, fn func(tx repository.UserScanTx) error) error {
	tx := &stubScanTx{store: s, userID: userID}
	if err := fn(tx); err != nil {
		return err
	}
	// Commit: apply buffered writes.
	s.events = append(s.events, tx.appended...)
	if tx.saved != nil {
		s.progression[userID] = *tx.saved
	}
	return nil
}

type stubScanTx struct {
	store    *stubScanStore
	userID   string
	appended []*domain.ScanEvent
	saved    *domain.ProgressionRecord
}

func (t *stubScanTx) LastScanAt(_ context.Context) (time.Time, bool, error) {
	var last time.Time
	var has bool
	for _, ev := range t.store.events {
		if ev.UserID == t.userID && ev.ScannedAt.After(last) {
			last, has = ev.ScannedAt, true
		}
	}
	return last, has, nil
}

func (t *stubScanTx) AppendScan(_ context.Context, ev *domain.ScanEvent) error {
	t.appended = append(t.appended, ev)
	return nil
}

func (t *stubScanTx) Progression(_ context.Context) (domain.ProgressionRecord, bool, error) {
	rec, ok := t.store.progression[t.userID]
	return rec, ok, nil
}

func (t *stubScanTx) SaveProgression(_ context.Context, rec domain.ProgressionRecord) error {
	t.saved = &rec
	return nil
}

type stubPendingStore struct {
	parked map[string]*domain.ScanTrigger
}

func newStubPendingStore() *stubPendingStore {
	return &stubPendingStore{parked: map[string]*domain.ScanTrigger{}}
}

func (s *stubPendingStore) Put(_ context.Context, trigger *domain.ScanTrigger) error {
	s.parked[trigger.UserID] = trigger
	return nil
}

func (s *stubPendingStore) Take(_ context.Context, userID string) (*domain.ScanTrigger, bool, error) {
	trigger, ok := s.parked[userID]
	if ok {
		delete(s.parked, userID)
	}
	return trigger, ok, nil
}

type stubResolver struct {
	pos domain.Coordinate
	err error
}

func (r *stubResolver) Resolve(_ context.Context, _ string) (domain.Coordinate, error) {
	return r.pos, r.err
}

type sentNotification struct {
	userID string
	key    domain.MessageKey
	params map[string]any
}

type recordingNotifier struct {
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, key domain.MessageKey, params map[string]any) {
	n.sent = append(n.sent, sentNotification{userID, key, params})
}

func (n *recordingNotifier) last(t *testing.T) sentNotification {
	t.Helper()
	if len(n.sent) == 0 {
		t.Fatal("no notification sent")
	}
	return n.sent[len(n.sent)-1]
}

var (
	testRef  = domain.Coordinate{Lat: 25.031757, Lng: 121.544729}
	testNear = domain.Coordinate{Lat: 25.031800, Lng: 121.544729} // ~5 m
	testFar  = domain.Coordinate{Lat: 25.032757, Lng: 121.544729} // ~111 m
)

type scanFixture struct {
	svc      *ScanService
	users    *stubUserStore
	scans    *stubScanStore
	pending  *stubPendingStore
	resolver *stubResolver
	notifier *recordingNotifier
	clock    time.Time
}

func newScanFixture(t *testing.T, mode config.PositionMode) *scanFixture {
	t.Helper()
	cat, err := catalog.New([]domain.Location{
		{ID: "ME-BLDG", Name: "Mechanical Engineering Building", Coord: testRef, Floors: []string{"1F", "2F", "3F"}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	f := &scanFixture{
		users:    newStubUserStore(),
		scans:    newStubScanStore(),
		pending:  newStubPendingStore(),
		resolver: &stubResolver{pos: testNear},
		notifier: &recordingNotifier{},
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewScanService(
		f.users, f.scans, f.pending, cat, f.resolver,
		geo.Geofence{RadiusM: 20}, 15*time.Second, mode, f.notifier,
	)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *scanFixture) grantConsent(t *testing.T, userID string) {
	t.Helper()
	if err := f.users.SetConsent(context.Background(), userID, true); err != nil {
		t.Fatal(err)
	}
}

func trigger(userID string, coord *domain.Coordinate) *domain.ScanTrigger {
	return &domain.ScanTrigger{UserID: userID, LocationID: "ME-BLDG", FloorLabel: "2F", Coord: coord}
}

func TestHandleTrigger_ConsentRequired(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)

	out, err := f.svc.HandleTrigger(context.Background(), trigger("user-1", &testNear))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if out.Accepted || out.Pending {
		t.Fatalf("outcome = %+v; want rejection", out)
	}
	if !errors.Is(out.Reason, ErrPermissionDenied) {
		t.Fatalf("Reason = %v; want ErrPermissionDenied", out.Reason)
	}
	if out.Message != domain.MsgConsentPrompt {
		t.Fatalf("Message = %s; want consent prompt", out.Message)
	}
	if len(f.scans.events) != 0 {
		t.Fatal("no event may be written before consent")
	}
}

func TestHandleTrigger_UnknownLocation(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")

	out, err := f.svc.HandleTrigger(context.Background(), &domain.ScanTrigger{
		UserID: "user-1", LocationID: "NOPE", FloorLabel: "1F", Coord: &testNear,
	})
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !errors.Is(out.Reason, ErrInvalidLocation) {
		t.Fatalf("Reason = %v; want ErrInvalidLocation", out.Reason)
	}
	if out.Message != domain.MsgInvalidLocation {
		t.Fatalf("Message = %s", out.Message)
	}
}

func TestHandleTrigger_InvalidFloor(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")

	out, err := f.svc.HandleTrigger(context.Background(), &domain.ScanTrigger{
		UserID: "user-1", LocationID: "ME-BLDG", FloorLabel: "9F", Coord: &testNear,
	})
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !errors.Is(out.Reason, ErrInvalidFloor) {
		t.Fatalf("Reason = %v; want ErrInvalidFloor", out.Reason)
	}
	if out.Message != domain.MsgInvalidFloor {
		t.Fatalf("Message = %s", out.Message)
	}
}

func TestHandleTrigger_Accepted(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")

	out, err := f.svc.HandleTrigger(context.Background(), trigger("user-1", &testNear))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome = %+v; want accepted", out)
	}
	if out.Message != domain.MsgScanSuccess {
		t.Fatalf("Message = %s", out.Message)
	}
	if out.Progress == nil || out.Progress.Points != 1 || out.Progress.Level != 1 || out.Progress.PointsToNext != 49 {
		t.Fatalf("Progress = %+v; want points=1 level=1 toNext=49", out.Progress)
	}
	if len(f.scans.events) != 1 {
		t.Fatalf("ledger has %d events; want 1", len(f.scans.events))
	}
	ev := f.scans.events[0]
	if ev.FloorLevel != 2 || ev.FloorLabel != "2F" || ev.LocationID != "ME-BLDG" {
		t.Fatalf("event = %+v", ev)
	}
	if n := f.notifier.last(t); n.key != domain.MsgScanSuccess {
		t.Fatalf("notification = %s; want scan_success", n.key)
	}
}

func TestHandleTrigger_OutOfRange(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")

	out, err := f.svc.HandleTrigger(context.Background(), trigger("user-1", &testFar))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !errors.Is(out.Reason, ErrOutOfRange) {
		t.Fatalf("Reason = %v; want ErrOutOfRange", out.Reason)
	}
	if out.Message != domain.MsgOutOfRange {
		t.Fatalf("Message = %s", out.Message)
	}
	if out.Params["radius_m"] != 20.0 {
		t.Fatalf("params = %v; want radius_m=20", out.Params)
	}
	if len(f.scans.events) != 0 {
		t.Fatal("out-of-range scan must not reach the ledger")
	}
	if len(f.scans.progression) != 0 {
		t.Fatal("out-of-range scan must not touch progression")
	}
}

func TestHandleTrigger_Cooldown(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")
	ctx := context.Background()

	if out, _ := f.svc.HandleTrigger(ctx, trigger("user-1", &testNear)); !out.Accepted {
		t.Fatalf("first scan rejected: %+v", out)
	}

	f.clock = f.clock.Add(5 * time.Second)
	out, err := f.svc.HandleTrigger(ctx, trigger("user-1", &testNear))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !errors.Is(out.Reason, ErrTooSoon) {
		t.Fatalf("Reason = %v; want ErrTooSoon", out.Reason)
	}
	if out.Message != domain.MsgTooSoon {
		t.Fatalf("Message = %s", out.Message)
	}
	if len(f.scans.events) != 1 {
		t.Fatalf("ledger has %d events; want 1 (rejected scan rolled back)", len(f.scans.events))
	}
	if rec := f.scans.progression["user-1"]; rec.Points != 1 {
		t.Fatalf("points = %d; want 1 (no award for rejected scan)", rec.Points)
	}
}

func TestHandleTrigger_CooldownBoundary(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")
	ctx := context.Background()

	if out, _ := f.svc.HandleTrigger(ctx, trigger("user-1", &testNear)); !out.Accepted {
		t.Fatalf("first scan rejected: %+v", out)
	}

	// One millisecond short of the cooldown: still rejected.
	f.clock = f.clock.Add(15*time.Second - time.Millisecond)
	if out, _ := f.svc.HandleTrigger(ctx, trigger("user-1", &testNear)); !errors.Is(out.Reason, ErrTooSoon) {
		t.Fatalf("outcome just before boundary = %+v; want ErrTooSoon", out)
	}

	// Exactly the cooldown: allowed.
	f.clock = f.clock.Add(time.Millisecond)
	out, err := f.svc.HandleTrigger(ctx, trigger("user-1", &testNear))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome exactly at boundary = %+v; want accepted", out)
	}
	if out.Progress.Points != 2 {
		t.Fatalf("points = %d; want 2", out.Progress.Points)
	}
}

func TestHandleTrigger_CooldownIsPerUser(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")
	f.grantConsent(t, "user-2")
	ctx := context.Background()

	if out, _ := f.svc.HandleTrigger(ctx, trigger("user-1", &testNear)); !out.Accepted {
		t.Fatalf("user-1 scan rejected: %+v", out)
	}
	// user-2 scans immediately after; a different user is never throttled
	// by user-1's scan.
	if out, _ := f.svc.HandleTrigger(ctx, trigger("user-2", &testNear)); !out.Accepted {
		t.Fatalf("user-2 scan rejected: %+v", out)
	}
}

func TestHandleTrigger_DeviceModeParksTrigger(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")

	out, err := f.svc.HandleTrigger(context.Background(), trigger("user-1", nil))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !out.Pending || out.Accepted {
		t.Fatalf("outcome = %+v; want pending", out)
	}
	if out.Message != domain.MsgShareLocation {
		t.Fatalf("Message = %s", out.Message)
	}
	if _, ok := f.pending.parked["user-1"]; !ok {
		t.Fatal("trigger was not parked")
	}
}

func TestHandleLocationFix_CompletesPendingTrigger(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")
	ctx := context.Background()

	if out, _ := f.svc.HandleTrigger(ctx, trigger("user-1", nil)); !out.Pending {
		t.Fatalf("trigger not parked: %+v", out)
	}

	out, err := f.svc.HandleLocationFix(ctx, &domain.DeviceLocationFix{UserID: "user-1", Coord: testNear})
	if err != nil {
		t.Fatalf("HandleLocationFix: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome = %+v; want accepted", out)
	}
	if len(f.scans.events) != 1 {
		t.Fatalf("ledger has %d events; want 1", len(f.scans.events))
	}

	// The trigger is consumed: a second fix has nothing to complete.
	out, err = f.svc.HandleLocationFix(ctx, &domain.DeviceLocationFix{UserID: "user-1", Coord: testNear})
	if err != nil {
		t.Fatalf("second HandleLocationFix: %v", err)
	}
	if out.Accepted || out.Message != domain.MsgNoPendingScan {
		t.Fatalf("outcome = %+v; want no_pending_scan", out)
	}
}

func TestHandleLocationFix_NoPendingTrigger(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")

	out, err := f.svc.HandleLocationFix(context.Background(), &domain.DeviceLocationFix{UserID: "user-1", Coord: testNear})
	if err != nil {
		t.Fatalf("HandleLocationFix: %v", err)
	}
	if out.Accepted || out.Pending {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Message != domain.MsgNoPendingScan {
		t.Fatalf("Message = %s; want no_pending_scan", out.Message)
	}
}

func TestHandleLocationFix_OutOfRangeKeepsLedgerClean(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")
	ctx := context.Background()

	if out, _ := f.svc.HandleTrigger(ctx, trigger("user-1", nil)); !out.Pending {
		t.Fatal("trigger not parked")
	}

	out, err := f.svc.HandleLocationFix(ctx, &domain.DeviceLocationFix{UserID: "user-1", Coord: testFar})
	if err != nil {
		t.Fatalf("HandleLocationFix: %v", err)
	}
	if !errors.Is(out.Reason, ErrOutOfRange) {
		t.Fatalf("Reason = %v; want ErrOutOfRange", out.Reason)
	}
	if len(f.scans.events) != 0 {
		t.Fatal("rejected fix must not reach the ledger")
	}
}

func TestHandleTrigger_NetworkMode(t *testing.T) {
	f := newScanFixture(t, config.PositionModeNetwork)
	f.grantConsent(t, "user-1")

	out, err := f.svc.HandleTrigger(context.Background(), trigger("user-1", nil))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome = %+v; want accepted via resolver position", out)
	}
	if len(f.pending.parked) != 0 {
		t.Fatal("network mode must not park triggers")
	}
}

func TestHandleTrigger_NetworkModeProviderDown(t *testing.T) {
	f := newScanFixture(t, config.PositionModeNetwork)
	f.grantConsent(t, "user-1")
	f.resolver.err = geo.ErrProviderUnavailable

	out, err := f.svc.HandleTrigger(context.Background(), trigger("user-1", nil))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !errors.Is(out.Reason, ErrProviderUnavailable) {
		t.Fatalf("Reason = %v; want ErrProviderUnavailable", out.Reason)
	}
	if out.Message != domain.MsgProviderDown {
		t.Fatalf("Message = %s", out.Message)
	}
	if len(f.scans.events) != 0 {
		t.Fatal("failed resolution must not reach the ledger")
	}
}

func TestHandleTrigger_InlineCoordSkipsResolver(t *testing.T) {
	f := newScanFixture(t, config.PositionModeNetwork)
	f.grantConsent(t, "user-1")
	f.resolver.err = geo.ErrProviderUnavailable

	// Legacy payloads carry the position inline; the resolver is not asked.
	out, err := f.svc.HandleTrigger(context.Background(), trigger("user-1", &testNear))
	if err != nil {
		t.Fatalf("HandleTrigger: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome = %+v; want accepted", out)
	}
}

func TestHandleConsent(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	ctx := context.Background()

	out, err := f.svc.HandleConsent(ctx, &domain.ConsentResponse{UserID: "user-1", Granted: true})
	if err != nil {
		t.Fatalf("HandleConsent: %v", err)
	}
	if !out.Accepted || out.Message != domain.MsgConsentGranted {
		t.Fatalf("outcome = %+v", out)
	}
	if !f.users.users["user-1"].LocationConsent {
		t.Fatal("consent not persisted")
	}

	out, err = f.svc.HandleConsent(ctx, &domain.ConsentResponse{UserID: "user-1", Granted: false})
	if err != nil {
		t.Fatalf("HandleConsent: %v", err)
	}
	if out.Accepted || out.Message != domain.MsgConsentDenied {
		t.Fatalf("outcome = %+v", out)
	}
	if f.users.users["user-1"].LocationConsent {
		t.Fatal("consent revocation not persisted")
	}
}

func TestHandleEvent_Dispatch(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")
	ctx := context.Background()

	out, err := f.svc.HandleEvent(ctx, domain.Event{
		Kind:    domain.EventScanTrigger,
		Trigger: trigger("user-1", &testNear),
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome = %+v", out)
	}

	// Unknown event kinds are ignored, not errors.
	out, err = f.svc.HandleEvent(ctx, domain.Event{Kind: domain.EventOther})
	if err != nil {
		t.Fatalf("HandleEvent(other): %v", err)
	}
	if out.Accepted || out.Pending || out.Reason != nil {
		t.Fatalf("outcome for ignored event = %+v; want empty", out)
	}
}

func TestHandleTrigger_PointsAccumulate(t *testing.T) {
	f := newScanFixture(t, config.PositionModeDevice)
	f.grantConsent(t, "user-1")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		out, err := f.svc.HandleTrigger(ctx, trigger("user-1", &testNear))
		if err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
		if !out.Accepted {
			t.Fatalf("scan %d rejected: %+v", i, out)
		}
		if out.Progress.Points != i {
			t.Fatalf("scan %d: points = %d; want %d", i, out.Progress.Points, i)
		}
		f.clock = f.clock.Add(time.Minute)
	}
	if len(f.scans.events) != 3 {
		t.Fatalf("ledger has %d events; want 3", len(f.scans.events))
	}
}
