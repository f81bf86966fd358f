package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"trackmate/internal/cache"
	"trackmate/internal/core/model"
	"trackmate/internal/core/repository"
	"trackmate/internal/notify"
	"trackmate/internal/protocol/locator"
	"trackmate/internal/scheduler"
)

// Protocol constants. One timeout constant drives every attempt: the
// historical 30/60/90s variants collapsed into a single design parameter.
const (
	ResponseTimeout       = 60 * time.Second
	MaxRetries            = 2 // 3 sends total
	InvalidResendDelay    = 2 * time.Second
	MaxConsecutiveInvalid = 3
	BatteryLowThreshold   = 20
)

// SmsSender sends one text to the locator, fire-and-forget. Implementations
// must not block and must swallow transport failures; a lost send is
// recovered by the timeout path.
type SmsSender interface {
	SendText(number, body string)
}

// PollingService owns the send/await/retry cycle per locator number. Every
// event source (inbound replies, deadline timers, the backup sweep, manual
// and periodic triggers) funnels into the same mutation gate, so racing
// events resolve to exactly one winner per attempt.
type PollingService interface {
	StartPolling(locatorNumber string, trigger model.Trigger) error
	HandleResponse(locatorNumber string, reply locator.Reply)
	HandleTimeout(locatorNumber string)
	RecordBinding(locatorNumber, boundNumber string)
	Sweep()
	Resume() error
	Session(locatorNumber string) (*model.PollingSession, error)
}

type pollingService struct {
	mu       sync.Mutex
	sessions repository.SessionRepository
	fixes    repository.FixRepository
	fixCache *cache.Cache
	sched    scheduler.Scheduler
	sender   SmsSender
	policy   *notify.Policy
	userID   string
	now      func() time.Time
	timers   map[string]scheduler.Handle
}

func NewPollingService(
	sessions repository.SessionRepository,
	fixes repository.FixRepository,
	fixCache *cache.Cache,
	sched scheduler.Scheduler,
	sender SmsSender,
	policy *notify.Policy,
	userID string,
) PollingService {
	return &pollingService{
		sessions: sessions,
		fixes:    fixes,
		fixCache: fixCache,
		sched:    sched,
		sender:   sender,
		policy:   policy,
		userID:   userID,
		now:      time.Now,
		timers:   make(map[string]scheduler.Handle),
	}
}

// StartPolling sends the location request and arms the response deadline.
// A session already awaiting a response is superseded: its pending deadline
// is cancelled and the new caller wins.
func (s *pollingService) StartPolling(locatorNumber string, trigger model.Trigger) error {
	if locatorNumber == "" {
		return errors.New("locator number is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Find(locatorNumber)
	if err != nil {
		return err
	}
	if session == nil {
		session = model.NewPollingSession(locatorNumber, s.userID)
	}

	if session.State == model.SessionAwaitingResponse {
		log.Printf("[polling] superseding in-flight session for %s", locatorNumber)
		s.cancelTimerLocked(locatorNumber)
	}

	session.State = model.SessionAwaitingResponse
	session.Trigger = trigger
	session.RetryCount = 0
	session.InvalidCount = 0
	session.LastOutcome = model.OutcomeNone

	s.sendAttemptLocked(session)
	return s.saveLocked(session)
}

// HandleResponse consumes one classified reply. Replies arriving when no
// attempt is in flight (already resolved, already exhausted, never started)
// are ignored so duplicates and stragglers cannot re-trigger side effects.
func (s *pollingService) HandleResponse(locatorNumber string, reply locator.Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Find(locatorNumber)
	if err != nil {
		log.Printf("[polling] session lookup failed for %s: %v", locatorNumber, err)
		return
	}
	if session == nil || session.State != model.SessionAwaitingResponse {
		log.Printf("[polling] ignoring stale reply (%s) for %s", reply.Classification, locatorNumber)
		return
	}

	// Disarm the deadline before any observable effect: whichever of
	// response and timeout runs first wins the attempt.
	s.cancelTimerLocked(locatorNumber)

	switch reply.Classification {
	case locator.Valid:
		s.recordFixLocked(session, reply)
		session.State = model.SessionIdle
		session.RetryCount = 0
		session.InvalidCount = 0
		session.LastOutcome = model.OutcomeValid
		s.saveLocked(session)

	case locator.SpecificallyInvalid:
		session.InvalidCount++
		session.LastOutcome = model.OutcomeSpecificallyInvalid
		if session.InvalidCount >= MaxConsecutiveInvalid {
			session.State = model.SessionExhausted
			session.RetryCount = 0
			session.InvalidCount = 0
			s.saveLocked(session)
			s.policy.Notify(model.CategoryGpsError,
				"GPS Locator Error",
				"GPS Locator cannot acquire a GPS fix after repeated attempts. Please check the device.")
			return
		}
		s.saveLocked(session)
		// The device answered quickly, just without a fix; resend on a
		// short delay instead of waiting out the full deadline.
		s.scheduleTimerLocked(locatorNumber, InvalidResendDelay, func() {
			s.fastResend(locatorNumber)
		})

	case locator.Unparseable:
		// A garbled reply ends the attempt early, with the same retry
		// arithmetic as a deadline that fired now.
		session.LastOutcome = model.OutcomeInvalid
		s.concludeAttemptLocked(session)
	}
}

// HandleTimeout is the deadline callback. It is also safe to call
// redundantly: a session already resolved by a racing response is left
// untouched.
func (s *pollingService) HandleTimeout(locatorNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Find(locatorNumber)
	if err != nil {
		log.Printf("[polling] session lookup failed for %s: %v", locatorNumber, err)
		return
	}
	if session == nil || session.State != model.SessionAwaitingResponse {
		return
	}

	s.cancelTimerLocked(locatorNumber)
	session.LastOutcome = model.OutcomeTimeout
	s.concludeAttemptLocked(session)
}

// RecordBinding stores the phone number the device confirmed it is bound to.
func (s *pollingService) RecordBinding(locatorNumber, boundNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Find(locatorNumber)
	if err != nil {
		log.Printf("[polling] session lookup failed for %s: %v", locatorNumber, err)
		return
	}
	if session == nil {
		session = model.NewPollingSession(locatorNumber, s.userID)
	}
	session.BoundNumber = boundNumber
	s.saveLocked(session)
}

// Sweep re-derives overdue deadlines from persisted state. The in-process
// timer is the primary mechanism; the sweep catches timers lost to a
// process restart and is harmless when the timer already fired.
func (s *pollingService) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.sessions.FindAwaiting()
	if err != nil {
		log.Printf("[polling] sweep lookup failed: %v", err)
		return
	}

	now := s.now()
	for _, session := range sessions {
		if now.Sub(session.LastAttemptAt) <= ResponseTimeout {
			continue
		}
		log.Printf("[polling] sweep found overdue attempt for %s (%s since last send)",
			session.LocatorNumber, now.Sub(session.LastAttemptAt).Round(time.Second))
		s.cancelTimerLocked(session.LocatorNumber)
		session.LastOutcome = model.OutcomeTimeout
		s.concludeAttemptLocked(session)
	}
}

// Resume re-arms deadlines for sessions that were awaiting a response when
// the process stopped. Remaining time is recomputed from LastAttemptAt so a
// restart never widens the effective timeout window.
func (s *pollingService) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.sessions.FindAwaiting()
	if err != nil {
		return err
	}

	now := s.now()
	for _, session := range sessions {
		remaining := ResponseTimeout - now.Sub(session.LastAttemptAt)
		if remaining <= 0 {
			session.LastOutcome = model.OutcomeTimeout
			s.concludeAttemptLocked(session)
			continue
		}
		log.Printf("[polling] resuming session for %s, %s left on deadline",
			session.LocatorNumber, remaining.Round(time.Second))
		s.scheduleDeadlineLocked(session.LocatorNumber, remaining)
	}
	return nil
}

func (s *pollingService) Session(locatorNumber string) (*model.PollingSession, error) {
	return s.sessions.Find(locatorNumber)
}

// concludeAttemptLocked ends the current attempt without a valid reply:
// either another send, or exhaustion with a single user-facing alert. The
// alert text depends on whether the attempt ended in silence or in garbage.
func (s *pollingService) concludeAttemptLocked(session *model.PollingSession) {
	if session.RetryCount >= MaxRetries {
		body := "GPS Locator is not responding after multiple attempts. Please check the device."
		if session.LastOutcome == model.OutcomeInvalid {
			body = "GPS Locator is sending invalid data after multiple attempts. Please check the device."
		}
		session.State = model.SessionExhausted
		session.RetryCount = 0
		session.InvalidCount = 0
		s.saveLocked(session)
		s.policy.Notify(model.CategoryGpsError, "GPS Locator Error", body)
		return
	}

	session.RetryCount++
	log.Printf("[polling] retrying %s (attempt %d/%d)",
		session.LocatorNumber, session.RetryCount+1, MaxRetries+1)
	s.sendAttemptLocked(session)
	s.saveLocked(session)
}

// fastResend fires after the short post-no-fix delay.
func (s *pollingService) fastResend(locatorNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Find(locatorNumber)
	if err != nil {
		log.Printf("[polling] session lookup failed for %s: %v", locatorNumber, err)
		return
	}
	if session == nil || session.State != model.SessionAwaitingResponse {
		return
	}
	s.sendAttemptLocked(session)
	s.saveLocked(session)
}

// sendAttemptLocked performs one send and arms its deadline. A failed send
// is indistinguishable from silence and is recovered by that same deadline.
func (s *pollingService) sendAttemptLocked(session *model.PollingSession) {
	s.sender.SendText(session.LocatorNumber, locator.CmdRequestLocation)
	session.LastAttemptAt = s.now()
	s.scheduleDeadlineLocked(session.LocatorNumber, ResponseTimeout)
}

func (s *pollingService) recordFixLocked(session *model.PollingSession, reply locator.Reply) {
	previous, err := s.fixes.FindLatestByUserID(session.UserID)
	if err != nil {
		log.Printf("[polling] previous fix lookup failed: %v", err)
	}

	fix := model.NewFix(session.UserID, reply.Latitude, reply.Longitude, reply.BatteryPercent)
	if err := s.fixes.Create(fix); err != nil {
		log.Printf("[polling] failed to persist fix: %v", err)
	}
	s.fixCache.SetLatestFix(context.Background(), fix)

	// Battery alert is edge triggered: only the crossing into the low band
	// fires, not every reading that sits there.
	if reply.BatteryPercent != model.BatteryUnknown && reply.BatteryPercent <= BatteryLowThreshold {
		crossed := previous == nil ||
			previous.BatteryPercent == model.BatteryUnknown ||
			previous.BatteryPercent > BatteryLowThreshold
		if crossed {
			s.policy.Notify(model.CategoryBatteryLow,
				"GPS Locator Battery Low",
				fmt.Sprintf("GPS locator battery level is at %d%%. Please charge the device soon.", reply.BatteryPercent))
		}
	}
}

func (s *pollingService) scheduleDeadlineLocked(locatorNumber string, d time.Duration) {
	s.scheduleTimerLocked(locatorNumber, d, func() {
		s.HandleTimeout(locatorNumber)
	})
}

// scheduleTimerLocked keeps the one-timer-per-session invariant: arming a
// new callback always disarms the previous one.
func (s *pollingService) scheduleTimerLocked(locatorNumber string, d time.Duration, fn func()) {
	s.cancelTimerLocked(locatorNumber)
	s.timers[locatorNumber] = s.sched.After(d, fn)
}

func (s *pollingService) cancelTimerLocked(locatorNumber string) {
	if handle, ok := s.timers[locatorNumber]; ok {
		handle.Cancel()
		delete(s.timers, locatorNumber)
	}
}

func (s *pollingService) saveLocked(session *model.PollingSession) error {
	if err := s.sessions.Save(session); err != nil {
		log.Printf("[polling] failed to persist session for %s: %v", session.LocatorNumber, err)
		return err
	}
	return nil
}
