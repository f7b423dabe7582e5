package events

import (
	"context"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Lifecycle event types published by the session manager.
const (
	UserSignedIn       = "USER_SIGNED_IN"
	ProfileProvisioned = "PROFILE_PROVISIONED"
	UserSignedOut      = "USER_SIGNED_OUT"
)

// Event defines the contract for all system events.
type Event interface {
	// EventID is unique per occurrence and used for broker-side dedup.
	EventID() string
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// Publisher is satisfied by the NATS publisher. Callers treat a nil
// Publisher as "events disabled".
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	ID         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// newID returns a ULID, so ids sort in publish order within one process.
func newID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	now := time.Now().UTC()
	data["occurred_at"] = now.Format(time.RFC3339Nano)
	return BaseEvent{
		ID:         newID(now),
		Type:       eventType,
		Data:       data,
		OccurredAt: now,
	}
}

func NewUserSignedIn(uid, email, provider string) BaseEvent {
	return New(UserSignedIn, map[string]interface{}{
		"uid":      uid,
		"email":    email,
		"provider": provider,
	})
}

func NewProfileProvisioned(uid string) BaseEvent {
	return New(ProfileProvisioned, map[string]interface{}{"uid": uid})
}

func NewUserSignedOut(uid string) BaseEvent {
	return New(UserSignedOut, map[string]interface{}{"uid": uid})
}
