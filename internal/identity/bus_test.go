package identity

import (
	"sync"
	"testing"
	"time"

	"campaign-session/internal/entity"
	"campaign-session/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	got []*entity.ExternalIdentity
}

func (r *recorder) observe(id *entity.ExternalIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, id)
}

func (r *recorder) snapshot() []*entity.ExternalIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.ExternalIdentity(nil), r.got...)
}

func TestObserveDeliversCurrentBeforeReturning(t *testing.T) {
	bus := NewChangeBus(logger.NewNopLogger())
	defer bus.Close()
	require.NoError(t, bus.Set(&entity.ExternalIdentity{UID: "u1"}))

	rec := &recorder{}
	unsubscribe, err := bus.Observe(rec.observe)
	require.NoError(t, err)
	defer unsubscribe()

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].UID)
}

func TestObserveDeliversChangesInOrder(t *testing.T) {
	bus := NewChangeBus(logger.NewNopLogger())
	defer bus.Close()

	rec := &recorder{}
	unsubscribe, err := bus.Observe(rec.observe)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, bus.Set(&entity.ExternalIdentity{UID: "u1"}))
	require.NoError(t, bus.Set(nil))

	require.Eventually(t, func() bool {
		got := rec.snapshot()
		return len(got) >= 2 && got[len(got)-1] == nil
	}, 2*time.Second, 10*time.Millisecond)

	got := rec.snapshot()
	assert.Nil(t, got[0], "initial delivery is the signed-out identity")
	assert.LessOrEqual(t, len(got), 3)
}

func TestSetNilWhenSignedOutIsNotAChange(t *testing.T) {
	bus := NewChangeBus(logger.NewNopLogger())
	defer bus.Close()

	rec := &recorder{}
	unsubscribe, err := bus.Observe(rec.observe)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, bus.Set(nil))
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, rec.snapshot(), 1)
}

func TestUnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	bus := NewChangeBus(logger.NewNopLogger())
	defer bus.Close()

	rec := &recorder{}
	unsubscribe, err := bus.Observe(rec.observe)
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()

	require.NoError(t, bus.Set(&entity.ExternalIdentity{UID: "u1"}))
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, rec.snapshot(), 1)
	assert.Equal(t, "u1", bus.Current().UID)
}

func TestCurrentIsACopy(t *testing.T) {
	bus := NewChangeBus(logger.NewNopLogger())
	defer bus.Close()
	require.NoError(t, bus.Set(&entity.ExternalIdentity{UID: "u1", Email: "a@x.io"}))

	cur := bus.Current()
	cur.Email = "mutated"

	assert.Equal(t, "a@x.io", bus.Current().Email)
}
