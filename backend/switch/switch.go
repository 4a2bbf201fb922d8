package _switch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultFwdTimout     = time.Second
	defaultSubscriberBuf = 64
)

// Switch redelivers inbound transport payloads to subscribers.
// Every subscriber sees payloads in publish order, each at most once.
type Switch struct {
	logger zerolog.Logger
	mx     *sync.RWMutex
	fwd    map[uint64]subscriber
	nextID uint64
}

// subscriber channels are never closed; done signals both sides to stop.
type subscriber struct {
	rx   chan string
	done chan struct{}
}

func NewSwitch(logger *zerolog.Logger) *Switch {
	return &Switch{
		logger: logger.With().Str("component", "switch").Logger(),
		mx:     &sync.RWMutex{},
		fwd:    make(map[uint64]subscriber),
	}
}

// Subscribe registers handler. It is called from a single goroutine until
// ctx is done or the returned unsubscribe func is called.
func (sw *Switch) Subscribe(ctx context.Context, handler func(string)) (unsubscribe func()) {
	sub := subscriber{
		rx:   make(chan string, defaultSubscriberBuf),
		done: make(chan struct{}),
	}
	sw.mx.Lock()
	sw.nextID++
	id := sw.nextID
	sw.fwd[id] = sub
	sw.mx.Unlock()

	sw.logger.Debug().Uint64("subscriber", id).Msg("subscriber connected")
	go sw.deliver(ctx, id, sub, handler)
	return func() { sw.disconnect(id) }
}

func (sw *Switch) disconnect(id uint64) {
	sw.mx.Lock()
	defer sw.mx.Unlock()

	if sub, ok := sw.fwd[id]; ok {
		delete(sw.fwd, id)
		close(sub.done)
		sw.logger.Debug().Uint64("subscriber", id).Msg("subscriber disconnected")
	}
}

func (sw *Switch) deliver(ctx context.Context, id uint64, sub subscriber, handler func(string)) {
	defer sw.disconnect(id)
deliverLoop:
	for {
		select {
		case <-ctx.Done():
			break deliverLoop
		case <-sub.done:
			break deliverLoop
		case payload := <-sub.rx:
			handler(payload)
		}
	}
}

// Publish forwards payload to every subscriber. It reports whether at least
// one subscriber accepted it. The subscriber set is copied so that a slow
// subscriber never holds the lock.
func (sw *Switch) Publish(ctx context.Context, payload string) bool {
	var sent bool

	sw.mx.RLock()
	subs := make(map[uint64]subscriber, len(sw.fwd))
	for id, sub := range sw.fwd {
		subs[id] = sub
	}
	sw.mx.RUnlock()

	for id, sub := range subs {
		subSent, canceled := send(ctx, payload, sub, sw.logger.With().Uint64("subscriber", id).Logger())
		if canceled {
			break
		}
		if subSent {
			sent = true
		}
	}
	if !sent {
		sw.logger.Debug().Msg("payload was dropped, nowhere to forward")
	}
	return sent
}

func send(ctx context.Context, payload string, sub subscriber, logger zerolog.Logger) (bool, bool) {
	var sent, canceled bool
	tCh := time.NewTimer(defaultFwdTimout)
	select {
	case <-ctx.Done():
		canceled = true
	case <-sub.done:
		logger.Trace().Msg("subscriber is gone")
	case <-tCh.C:
		logger.Error().Msg("dead subscriber")
	case sub.rx <- payload:
		logger.Trace().Msg("payload is forwarded")
		sent = true
	}
	tCh.Stop()
	return sent, canceled
}
