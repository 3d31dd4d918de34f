// Package broker implements the lounge channel fan-out. One ChannelBroker
// is constructed in main and handed to everything that emits; its
// lifecycle is the process lifecycle.
package broker

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/loungefm/loungefm/internal/core"
	"github.com/loungefm/loungefm/internal/domain"
)

// queueSize bounds the per-lounge event backlog. A lounge that outruns it
// has every subscriber stalled; dropping is the only option that does not
// block the publisher, and it is logged loudly.
const queueSize = 1024

type delivery struct {
	data      []byte
	except    core.SessionID
	hasExcept bool
	shutdown  bool
}

// channel is the fan-out group for one lounge. A single goroutine drains
// the queue, so every subscriber sees events in publish order.
type channel struct {
	id    domain.LoungeID
	mu    sync.Mutex
	subs  map[core.SessionID]core.Subscriber
	queue chan delivery
	// closed stops new enqueues; everything already queued still lands.
	closed bool
}

type ChannelBroker struct {
	mu       sync.RWMutex
	channels map[domain.LoungeID]*channel
	wg       sync.WaitGroup
}

func NewChannelBroker() *ChannelBroker {
	return &ChannelBroker{channels: make(map[domain.LoungeID]*channel)}
}

func (b *ChannelBroker) Subscribe(id domain.LoungeID, sid core.SessionID, sub core.Subscriber) {
	ch := b.getOrCreate(id)
	ch.mu.Lock()
	ch.subs[sid] = sub
	ch.mu.Unlock()
	log.Debug().Str("module", "broker").Str("lounge", string(id)).Str("sid", string(sid)).Msg("subscribed")
}

// Unsubscribe detaches the session without closing its connection; the
// adapter owns the connection and may resubscribe it elsewhere.
func (b *ChannelBroker) Unsubscribe(id domain.LoungeID, sid core.SessionID) {
	b.mu.RLock()
	ch, ok := b.channels[id]
	b.mu.RUnlock()
	if !ok {
		return
	}
	ch.mu.Lock()
	delete(ch.subs, sid)
	ch.mu.Unlock()
	log.Debug().Str("module", "broker").Str("lounge", string(id)).Str("sid", string(sid)).Msg("unsubscribed")
}

func (b *ChannelBroker) Publish(id domain.LoungeID, ev core.Event) {
	b.publish(id, delivery{}, ev)
}

func (b *ChannelBroker) PublishExcept(id domain.LoungeID, except core.SessionID, ev core.Event) {
	b.publish(id, delivery{except: except, hasExcept: true}, ev)
}

func (b *ChannelBroker) publish(id domain.LoungeID, d delivery, ev core.Event) {
	b.mu.RLock()
	ch, ok := b.channels[id]
	b.mu.RUnlock()
	if !ok {
		// Nobody ever subscribed; nothing to deliver.
		return
	}
	data, err := core.EncodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "broker").Str("kind", string(ev.Kind())).Msg("encode event")
		return
	}
	d.data = data
	ch.enqueue(d)
}

func (b *ChannelBroker) CloseLounge(id domain.LoungeID) {
	b.mu.RLock()
	ch, ok := b.channels[id]
	b.mu.RUnlock()
	if !ok {
		return
	}
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	ch.closed = true
	ch.mu.Unlock()
	// The marker rides the queue behind everything already published.
	ch.queue <- delivery{shutdown: true}
	log.Info().Str("module", "broker").Str("lounge", string(id)).Msg("channel closing")
}

func (b *ChannelBroker) SubscriberCount(id domain.LoungeID) int {
	b.mu.RLock()
	ch, ok := b.channels[id]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.subs)
}

func (b *ChannelBroker) Shutdown() {
	b.mu.Lock()
	channels := make([]*channel, 0, len(b.channels))
	for _, ch := range b.channels {
		channels = append(channels, ch)
	}
	b.mu.Unlock()
	for _, ch := range channels {
		b.CloseLounge(ch.id)
	}
	b.wg.Wait()
	log.Info().Str("module", "broker").Msg("broker stopped")
}

func (b *ChannelBroker) getOrCreate(id domain.LoungeID) *channel {
	b.mu.RLock()
	ch, ok := b.channels[id]
	b.mu.RUnlock()
	if ok {
		return ch
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok = b.channels[id]; ok {
		return ch
	}
	ch = &channel{
		id:    id,
		subs:  make(map[core.SessionID]core.Subscriber),
		queue: make(chan delivery, queueSize),
	}
	b.channels[id] = ch
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ch.run()
		b.remove(id)
	}()
	return ch
}

func (b *ChannelBroker) remove(id domain.LoungeID) {
	b.mu.Lock()
	delete(b.channels, id)
	b.mu.Unlock()
}

func (c *channel) enqueue(d delivery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.queue <- d:
	default:
		log.Error().Str("module", "broker").Str("lounge", string(c.id)).Msg("event queue full, dropping event")
	}
}

func (c *channel) run() {
	for d := range c.queue {
		if d.shutdown {
			break
		}
		c.mu.Lock()
		for sid, sub := range c.subs {
			if d.hasExcept && sid == d.except {
				continue
			}
			if err := sub.TrySend(d.data); err != nil {
				// Backpressure policy: a subscriber that cannot keep
				// up loses its connection, not the whole channel.
				delete(c.subs, sid)
				sub.Close()
				log.Warn().Str("module", "broker").Str("lounge", string(c.id)).Str("sid", string(sid)).Msg("dropped slow subscriber")
			}
		}
		c.mu.Unlock()
	}
	c.mu.Lock()
	for _, sub := range c.subs {
		sub.Close()
	}
	c.subs = make(map[core.SessionID]core.Subscriber)
	c.mu.Unlock()
}
