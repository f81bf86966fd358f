package model

import "time"

// SessionState is the polling state for one locator device.
type SessionState string

const (
	SessionIdle             SessionState = "idle"
	SessionAwaitingResponse SessionState = "awaiting_response"
	SessionExhausted        SessionState = "exhausted"
)

// ResponseOutcome records how the most recent polling attempt ended.
type ResponseOutcome string

const (
	OutcomeNone                ResponseOutcome = "none"
	OutcomeValid               ResponseOutcome = "valid"
	OutcomeSpecificallyInvalid ResponseOutcome = "specifically_invalid"
	OutcomeInvalid             ResponseOutcome = "invalid"
	OutcomeTimeout             ResponseOutcome = "timeout"
)

// Trigger identifies what started a polling session.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerAutomatic Trigger = "automatic"
)

// PollingSession is the whole state of the send/await/retry cycle for one
// locator number. It is persisted and reloaded as a single record so that
// every field moves atomically; the scattered per-field flags this replaces
// were a known race source.
type PollingSession struct {
	LocatorNumber string          `json:"locatorNumber" bson:"locatornumber"`
	UserID        string          `json:"userId" bson:"userid"`
	State         SessionState    `json:"state" bson:"state"`
	RetryCount    int             `json:"retryCount" bson:"retrycount"`
	InvalidCount  int             `json:"invalidCount" bson:"invalidcount"`
	LastAttemptAt time.Time       `json:"lastAttemptAt" bson:"lastattemptat"`
	LastOutcome   ResponseOutcome `json:"lastOutcome" bson:"lastoutcome"`
	Trigger       Trigger         `json:"trigger" bson:"trigger"`
	BoundNumber   string          `json:"boundNumber,omitempty" bson:"boundnumber,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt" bson:"updatedat"`
}

func NewPollingSession(locatorNumber, userID string) *PollingSession {
	return &PollingSession{
		LocatorNumber: locatorNumber,
		UserID:        userID,
		State:         SessionIdle,
		LastOutcome:   OutcomeNone,
		UpdatedAt:     time.Now().UTC(),
	}
}
