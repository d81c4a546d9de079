// SPDX-License-Identifier: MIT

package api

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

func loadEvent(watts float64) pwrstat.Event {
	return pwrstat.Event{Metadata: pwrstat.NewValueChanged("load_watts", 9.0, watts)}
}

func TestBroadcaster_PublishReachesSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(loadEvent(120))

	select {
	case ev := <-ch:
		md, ok := ev.Metadata.(pwrstat.ValueChanged)
		require.True(t, ok)
		assert.Equal(t, "load_watts", md.FieldName)
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestBroadcaster_CancelRemovesSubscriber(t *testing.T) {
	b := NewBroadcaster()
	_, cancel := b.Subscribe()
	require.Equal(t, 1, b.Len())

	cancel()
	assert.Equal(t, 0, b.Len())

	// Idempotent.
	cancel()
	assert.Equal(t, 0, b.Len())
}

func TestBroadcaster_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	// Overfill the buffer; Publish must keep returning.
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(loadEvent(float64(i)))
	}

	// The buffer holds the first events, the overflow was dropped.
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish(loadEvent(120))

	assert.Len(t, ch1, 1)
	assert.Len(t, ch2, 1)
}

func TestBroadcaster_ConcurrentUse(t *testing.T) {
	b := NewBroadcaster()

	// Publisher runs until every subscriber has seen its share.
	stop := make(chan struct{})
	var pub sync.WaitGroup
	pub.Add(1)
	go func() {
		defer pub.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				b.Publish(loadEvent(float64(i)))
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := b.Subscribe()
			defer cancel()
			for j := 0; j < 5; j++ {
				<-ch
			}
		}()
	}

	wg.Wait()
	close(stop)
	pub.Wait()
	assert.Equal(t, 0, b.Len())
}
