package service

import (
	"sync"
	"testing"
	"time"

	"trackmate/internal/cache"
	"trackmate/internal/core/model"
	"trackmate/internal/core/repository"
	"trackmate/internal/notify"
	"trackmate/internal/protocol/locator"
	"trackmate/internal/scheduler"
)

const testNumber = "+38970111222"

type fakeCall struct {
	delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

func (c *fakeCall) Cancel() { c.cancelled = true }

// fakeScheduler captures callbacks so tests drive the clock by hand.
type fakeScheduler struct {
	mu    sync.Mutex
	calls []*fakeCall
}

func (s *fakeScheduler) After(d time.Duration, fn func()) scheduler.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := &fakeCall{delay: d, fn: fn}
	s.calls = append(s.calls, call)
	return call
}

func (s *fakeScheduler) Every(interval time.Duration, fn func()) scheduler.Handle {
	return s.After(interval, fn)
}

// firePending runs every armed callback exactly once, as if its deadline
// elapsed. Callbacks armed while firing wait for the next call.
func (s *fakeScheduler) firePending() {
	s.mu.Lock()
	var due []*fakeCall
	for _, call := range s.calls {
		if !call.cancelled && !call.fired {
			call.fired = true
			due = append(due, call)
		}
	}
	s.mu.Unlock()
	for _, call := range due {
		call.fn()
	}
}

func (s *fakeScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, call := range s.calls {
		if !call.cancelled && !call.fired {
			n++
		}
	}
	return n
}

type sentText struct {
	number string
	body   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentText
}

func (s *fakeSender) SendText(number, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentText{number: number, body: body})
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type sentAlert struct {
	category model.NotificationCategory
	title    string
	body     string
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []sentAlert
}

func (n *recordingNotifier) Notify(category model.NotificationCategory, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, sentAlert{category: category, title: title, body: body})
}

func (n *recordingNotifier) byCategory(category model.NotificationCategory) []sentAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentAlert
	for _, a := range n.alerts {
		if a.category == category {
			out = append(out, a)
		}
	}
	return out
}

type pollingFixture struct {
	svc      *pollingService
	sessions repository.SessionRepository
	fixes    repository.FixRepository
	sched    *fakeScheduler
	sender   *fakeSender
	alerts   *recordingNotifier
}

func newPollingFixture() *pollingFixture {
	sched := &fakeScheduler{}
	sender := &fakeSender{}
	alerts := &recordingNotifier{}
	sessions := repository.NewInMemorySessionRepository()
	fixes := repository.NewInMemoryFixRepository()
	policy := notify.NewPolicy(repository.NewInMemoryCooldownRepository(), alerts)
	svc := NewPollingService(sessions, fixes, cache.New(""), sched, sender, policy, "user-1").(*pollingService)
	return &pollingFixture{
		svc:      svc,
		sessions: sessions,
		fixes:    fixes,
		sched:    sched,
		sender:   sender,
		alerts:   alerts,
	}
}

func (f *pollingFixture) session(t *testing.T) *model.PollingSession {
	t.Helper()
	session, err := f.svc.Session(testNumber)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if session == nil {
		t.Fatal("expected a persisted session")
	}
	return session
}

func validReply(battery int) locator.Reply {
	return locator.Reply{
		Latitude:       41.9981,
		Longitude:      21.4254,
		BatteryPercent: battery,
		Classification: locator.Valid,
	}
}

func noFixReply() locator.Reply {
	return locator.Reply{
		Latitude:       -1,
		Longitude:      -1,
		BatteryPercent: 19,
		Classification: locator.SpecificallyInvalid,
	}
}

func TestStartPollingSendsLocationRequest(t *testing.T) {
	f := newPollingFixture()
	if err := f.svc.StartPolling(testNumber, model.TriggerManual); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}

	if f.sender.count() != 1 {
		t.Fatalf("expected 1 send, got %d", f.sender.count())
	}
	if got := f.sender.sent[0]; got.number != testNumber || got.body != locator.CmdRequestLocation {
		t.Errorf("sent %+v, want %q to %q", got, locator.CmdRequestLocation, testNumber)
	}
	if session := f.session(t); session.State != model.SessionAwaitingResponse {
		t.Errorf("state = %s, want %s", session.State, model.SessionAwaitingResponse)
	}
	if f.sched.pendingCount() != 1 {
		t.Errorf("expected 1 armed deadline, got %d", f.sched.pendingCount())
	}
}

func TestStartPollingRejectsEmptyNumber(t *testing.T) {
	f := newPollingFixture()
	if err := f.svc.StartPolling("", model.TriggerManual); err == nil {
		t.Fatal("expected error for empty locator number")
	}
}

func TestValidResponseResolvesSession(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)
	f.svc.HandleResponse(testNumber, validReply(82))

	session := f.session(t)
	if session.State != model.SessionIdle {
		t.Errorf("state = %s, want %s", session.State, model.SessionIdle)
	}
	if session.LastOutcome != model.OutcomeValid {
		t.Errorf("lastOutcome = %s, want %s", session.LastOutcome, model.OutcomeValid)
	}

	fix, err := f.fixes.FindLatestByUserID("user-1")
	if err != nil || fix == nil {
		t.Fatalf("expected persisted fix, got %v (err %v)", fix, err)
	}
	if fix.Latitude != 41.9981 || fix.Longitude != 21.4254 || fix.BatteryPercent != 82 {
		t.Errorf("unexpected fix %+v", fix)
	}
	if len(f.alerts.alerts) != 0 {
		t.Errorf("expected no alerts, got %+v", f.alerts.alerts)
	}
	if f.sched.pendingCount() != 0 {
		t.Errorf("deadline should be disarmed, %d still pending", f.sched.pendingCount())
	}
}

func TestTimeoutRetriesThenExhausts(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)

	// Three silent deadlines: original send plus two retries, then give up.
	f.sched.firePending()
	f.sched.firePending()
	f.sched.firePending()

	if f.sender.count() != 3 {
		t.Fatalf("expected 3 sends, got %d", f.sender.count())
	}
	if session := f.session(t); session.State != model.SessionExhausted {
		t.Errorf("state = %s, want %s", session.State, model.SessionExhausted)
	}

	errs := f.alerts.byCategory(model.CategoryGpsError)
	if len(errs) != 1 {
		t.Fatalf("expected 1 gps-error alert, got %d", len(errs))
	}
	if errs[0].body != "GPS Locator is not responding after multiple attempts. Please check the device." {
		t.Errorf("unexpected alert body %q", errs[0].body)
	}
}

func TestStaleReplyAfterExhaustionIsIgnored(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)
	f.sched.firePending()
	f.sched.firePending()
	f.sched.firePending()

	sendsBefore := f.sender.count()
	f.svc.HandleResponse(testNumber, validReply(90))

	if session := f.session(t); session.State != model.SessionExhausted {
		t.Errorf("stale reply restarted the session: state %s", session.State)
	}
	fix, _ := f.fixes.FindLatestByUserID("user-1")
	if fix != nil {
		t.Errorf("stale reply persisted a fix: %+v", fix)
	}
	if f.sender.count() != sendsBefore {
		t.Errorf("stale reply caused sends: %d -> %d", sendsBefore, f.sender.count())
	}
}

func TestRedundantTimeoutAfterResolutionIsNoop(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)
	f.svc.HandleResponse(testNumber, validReply(75))

	f.svc.HandleTimeout(testNumber)

	if session := f.session(t); session.State != model.SessionIdle {
		t.Errorf("redundant timeout changed state to %s", session.State)
	}
	if f.sender.count() != 1 {
		t.Errorf("redundant timeout caused sends, total %d", f.sender.count())
	}
}

func TestConsecutiveNoFixRepliesExhaust(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)

	f.svc.HandleResponse(testNumber, noFixReply())
	f.sched.firePending() // fast resend
	f.svc.HandleResponse(testNumber, noFixReply())
	f.sched.firePending()
	f.svc.HandleResponse(testNumber, noFixReply())

	if f.sender.count() != 3 {
		t.Fatalf("expected 3 sends, got %d", f.sender.count())
	}
	if session := f.session(t); session.State != model.SessionExhausted {
		t.Errorf("state = %s, want %s", session.State, model.SessionExhausted)
	}
	errs := f.alerts.byCategory(model.CategoryGpsError)
	if len(errs) != 1 {
		t.Fatalf("expected 1 gps-error alert, got %d", len(errs))
	}
	if errs[0].body != "GPS Locator cannot acquire a GPS fix after repeated attempts. Please check the device." {
		t.Errorf("unexpected alert body %q", errs[0].body)
	}
	fix, _ := f.fixes.FindLatestByUserID("user-1")
	if fix != nil {
		t.Errorf("no-fix replies must not persist fixes, got %+v", fix)
	}
}

func TestNoFixThenValidRecovers(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)

	f.svc.HandleResponse(testNumber, noFixReply())
	f.sched.firePending()
	f.svc.HandleResponse(testNumber, validReply(64))

	session := f.session(t)
	if session.State != model.SessionIdle {
		t.Errorf("state = %s, want %s", session.State, model.SessionIdle)
	}
	if session.InvalidCount != 0 {
		t.Errorf("invalidCount = %d, want 0", session.InvalidCount)
	}
	fix, _ := f.fixes.FindLatestByUserID("user-1")
	if fix == nil {
		t.Fatal("expected a persisted fix after recovery")
	}
	if len(f.alerts.alerts) != 0 {
		t.Errorf("expected no alerts, got %+v", f.alerts.alerts)
	}
}

func TestUnparseableReplyRetriesEarly(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)

	f.svc.HandleResponse(testNumber, locator.Parse("ERROR ERROR"))

	if f.sender.count() != 2 {
		t.Fatalf("garbled reply should resend immediately, got %d sends", f.sender.count())
	}
	session := f.session(t)
	if session.State != model.SessionAwaitingResponse {
		t.Errorf("state = %s, want %s", session.State, model.SessionAwaitingResponse)
	}
	if session.RetryCount != 1 {
		t.Errorf("retryCount = %d, want 1", session.RetryCount)
	}
}

func TestUnparseableExhaustionUsesInvalidDataMessage(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)

	garbled := locator.Parse("no coordinates here")
	f.svc.HandleResponse(testNumber, garbled)
	f.svc.HandleResponse(testNumber, garbled)
	f.svc.HandleResponse(testNumber, garbled)

	errs := f.alerts.byCategory(model.CategoryGpsError)
	if len(errs) != 1 {
		t.Fatalf("expected 1 gps-error alert, got %d", len(errs))
	}
	if errs[0].body != "GPS Locator is sending invalid data after multiple attempts. Please check the device." {
		t.Errorf("unexpected alert body %q", errs[0].body)
	}
}

func TestStartPollingSupersedesInFlightSession(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)
	f.sched.firePending() // one timeout, retryCount now 1

	if err := f.svc.StartPolling(testNumber, model.TriggerAutomatic); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}

	session := f.session(t)
	if session.RetryCount != 0 {
		t.Errorf("supersede must reset retryCount, got %d", session.RetryCount)
	}
	if session.Trigger != model.TriggerAutomatic {
		t.Errorf("trigger = %s, want %s", session.Trigger, model.TriggerAutomatic)
	}
	if f.sched.pendingCount() != 1 {
		t.Errorf("expected exactly 1 armed deadline after supersede, got %d", f.sched.pendingCount())
	}
}

func TestSweepConcludesOverdueAttempt(t *testing.T) {
	f := newPollingFixture()
	base := time.Now()
	f.svc.now = func() time.Time { return base }
	f.svc.StartPolling(testNumber, model.TriggerManual)

	f.svc.now = func() time.Time { return base.Add(ResponseTimeout + time.Second) }
	f.svc.Sweep()

	if f.sender.count() != 2 {
		t.Fatalf("sweep should retry the overdue attempt, got %d sends", f.sender.count())
	}
	if session := f.session(t); session.RetryCount != 1 {
		t.Errorf("retryCount = %d, want 1", session.RetryCount)
	}
}

func TestSweepLeavesFreshAttemptAlone(t *testing.T) {
	f := newPollingFixture()
	f.svc.StartPolling(testNumber, model.TriggerManual)

	f.svc.Sweep()

	if f.sender.count() != 1 {
		t.Errorf("sweep retried a fresh attempt, %d sends", f.sender.count())
	}
	if session := f.session(t); session.RetryCount != 0 {
		t.Errorf("retryCount = %d, want 0", session.RetryCount)
	}
}

func TestResumeRearmsRemainingDeadline(t *testing.T) {
	f := newPollingFixture()
	base := time.Now()
	f.svc.now = func() time.Time { return base }

	session := model.NewPollingSession(testNumber, "user-1")
	session.State = model.SessionAwaitingResponse
	session.LastAttemptAt = base.Add(-20 * time.Second)
	if err := f.sessions.Save(session); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if err := f.svc.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if f.sender.count() != 0 {
		t.Errorf("resume must not resend while the deadline is live, got %d sends", f.sender.count())
	}
	if f.sched.pendingCount() != 1 {
		t.Fatalf("expected 1 re-armed deadline, got %d", f.sched.pendingCount())
	}
	if got := f.sched.calls[0].delay; got != 40*time.Second {
		t.Errorf("re-armed delay = %s, want 40s", got)
	}
}

func TestResumeConcludesExpiredDeadline(t *testing.T) {
	f := newPollingFixture()
	base := time.Now()
	f.svc.now = func() time.Time { return base }

	session := model.NewPollingSession(testNumber, "user-1")
	session.State = model.SessionAwaitingResponse
	session.LastAttemptAt = base.Add(-2 * ResponseTimeout)
	if err := f.sessions.Save(session); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if err := f.svc.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if f.sender.count() != 1 {
		t.Errorf("expected an immediate retry for the expired deadline, got %d sends", f.sender.count())
	}
	if got := f.session(t); got.RetryCount != 1 {
		t.Errorf("retryCount = %d, want 1", got.RetryCount)
	}
}

func TestBatteryLowAlertFiresOnCrossingOnly(t *testing.T) {
	f := newPollingFixture()

	f.svc.StartPolling(testNumber, model.TriggerManual)
	f.svc.HandleResponse(testNumber, validReply(18))
	f.svc.StartPolling(testNumber, model.TriggerManual)
	f.svc.HandleResponse(testNumber, validReply(16))

	low := f.alerts.byCategory(model.CategoryBatteryLow)
	if len(low) != 1 {
		t.Fatalf("expected 1 battery alert for the crossing, got %d", len(low))
	}
	if low[0].body != "GPS locator battery level is at 18%. Please charge the device soon." {
		t.Errorf("unexpected alert body %q", low[0].body)
	}
}

func TestBatteryUnknownNeverAlerts(t *testing.T) {
	f := newPollingFixture()

	f.svc.StartPolling(testNumber, model.TriggerManual)
	f.svc.HandleResponse(testNumber, validReply(locator.BatteryUnknown))

	if low := f.alerts.byCategory(model.CategoryBatteryLow); len(low) != 0 {
		t.Errorf("unknown battery produced %d alerts", len(low))
	}
}

func TestRecordBindingPersistsBoundNumber(t *testing.T) {
	f := newPollingFixture()
	f.svc.RecordBinding(testNumber, "+38970999888")

	session := f.session(t)
	if session.BoundNumber != "+38970999888" {
		t.Errorf("boundNumber = %q, want %q", session.BoundNumber, "+38970999888")
	}
	if session.State != model.SessionIdle {
		t.Errorf("binding must not start polling, state %s", session.State)
	}
}
