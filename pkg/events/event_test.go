package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStampsIdentityAndTime(t *testing.T) {
	a := NewUserSignedIn("u1", "a@x.io", "google.com")
	b := NewUserSignedIn("u1", "a@x.io", "google.com")

	assert.Equal(t, UserSignedIn, a.EventType())
	assert.NotEqual(t, a.EventID(), b.EventID())
	assert.False(t, a.Timestamp().IsZero())
	assert.Equal(t, "u1", a.Payload()["uid"])
	assert.Contains(t, a.Payload(), "occurred_at")
}

func TestNewToleratesNilData(t *testing.T) {
	e := New(UserSignedOut, nil)

	assert.NotNil(t, e.Payload())
	assert.Contains(t, e.Payload(), "occurred_at")
}

func TestLifecycleConstructors(t *testing.T) {
	assert.Equal(t, ProfileProvisioned, NewProfileProvisioned("u2").EventType())
	assert.Equal(t, "u2", NewUserSignedOut("u2").Payload()["uid"])
}

func TestEventIDsSortInPublishOrder(t *testing.T) {
	prev := New(UserSignedIn, nil).EventID()
	for i := 0; i < 100; i++ {
		next := New(UserSignedIn, nil).EventID()
		assert.Less(t, prev, next)
		prev = next
	}
	assert.Len(t, prev, 26)
}
