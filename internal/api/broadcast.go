// SPDX-License-Identifier: MIT

package api

import (
	"sync"

	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

// subscriberBuffer absorbs bursts (a power failure flips several status
// fields in one poll) without blocking the monitor.
const subscriberBuffer = 16

// Broadcaster fans monitor events out to stream subscribers. Publishing
// never blocks: a subscriber that cannot keep up has events dropped, the
// monitor always makes progress.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[chan pwrstat.Event]struct{}
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan pwrstat.Event]struct{})}
}

// Subscribe registers a new subscriber and returns its event channel
// along with a cancel function. Cancel is idempotent and must be called
// when the subscriber goes away.
func (b *Broadcaster) Subscribe() (<-chan pwrstat.Event, func()) {
	ch := make(chan pwrstat.Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber that has buffer room.
func (b *Broadcaster) Publish(ev pwrstat.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			logger := log.WithComponent("api.broadcast")
			logger.Debug().
				Str(log.FieldEvent, "broadcast.dropped").
				Str("kind", ev.Metadata.EventType()).
				Msg("dropped event for slow stream subscriber")
		}
	}
}

// Len returns the current subscriber count.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
