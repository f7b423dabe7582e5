package identity

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"

	"campaign-session/internal/entity"
	"campaign-session/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	ChangedTopic = "identity.changed"

	seqMetadataKey = "seq"
)

// ChangeBus owns the current identity and fans changes out to observers
// over an in-process gochannel topic. Every change carries a sequence
// number; observers drop anything older than what they already delivered,
// since gochannel does not order concurrent publishes.
type ChangeBus struct {
	pubSub *gochannel.GoChannel
	log    logger.ILogger

	mu      sync.Mutex
	current *entity.ExternalIdentity
	seq     uint64
}

func NewChangeBus(log logger.ILogger) *ChangeBus {
	return &ChangeBus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			newWatermillLogger(log),
		),
		log: log,
	}
}

func (b *ChangeBus) Current() *entity.ExternalIdentity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.Clone()
}

// Set replaces the current identity and notifies observers. Clearing an
// already empty identity is not a change.
func (b *ChangeBus) Set(identity *entity.ExternalIdentity) error {
	b.mu.Lock()
	if b.current == nil && identity == nil {
		b.mu.Unlock()
		return nil
	}
	b.seq++
	seq := b.seq
	b.current = identity.Clone()
	b.mu.Unlock()

	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(seqMetadataKey, strconv.FormatUint(seq, 10))
	return b.pubSub.Publish(ChangedTopic, msg)
}

func (b *ChangeBus) Observe(fn func(*entity.ExternalIdentity)) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := b.pubSub.Subscribe(ctx, ChangedTopic)
	if err != nil {
		cancel()
		return nil, err
	}

	// Read the snapshot only once the subscription is live so a change
	// racing with Observe is either in the snapshot or in msgs.
	b.mu.Lock()
	initial := b.current.Clone()
	last := b.seq
	b.mu.Unlock()

	var stopped atomic.Bool
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			stopped.Store(true)
			cancel()
		})
	}

	fn(initial)

	go func() {
		for msg := range msgs {
			if stopped.Load() {
				msg.Ack()
				continue
			}
			seq, err := strconv.ParseUint(msg.Metadata.Get(seqMetadataKey), 10, 64)
			if err != nil || seq <= last {
				msg.Ack()
				continue
			}
			var identity *entity.ExternalIdentity
			if err := json.Unmarshal(msg.Payload, &identity); err != nil {
				b.log.Error("IdentityBus", "Dropping malformed identity change", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			last = seq
			fn(identity)
			msg.Ack()
		}
	}()

	return unsubscribe, nil
}

func (b *ChangeBus) Close() error {
	return b.pubSub.Close()
}

// watermillLogger routes watermill's internal logging into ILogger. Info is
// demoted to debug; watermill logs every subscribe at info.
type watermillLogger struct {
	log    logger.ILogger
	fields watermill.LogFields
}

func newWatermillLogger(log logger.ILogger) watermill.LoggerAdapter {
	return watermillLogger{log: log, fields: watermill.LogFields{}}
}

func (l watermillLogger) details(fields watermill.LogFields) map[string]interface{} {
	return l.fields.Add(fields)
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	d := l.details(fields)
	if err != nil {
		d["error"] = err.Error()
	}
	l.log.Error("Watermill", msg, d)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Debug("Watermill", msg, l.details(fields))
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{log: l.log, fields: l.fields.Add(fields)}
}
