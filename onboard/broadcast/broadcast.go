// Package broadcast fans values out to any number of subscribers without ever
// blocking the publisher.
package broadcast

import "sync"

const DefaultBuffer = 8

type Broadcaster struct {
	lock   sync.Mutex
	subs   map[chan interface{}]struct{}
	buffer int
	closed bool
}

func New(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subs:   make(map[chan interface{}]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns a channel of published values. Slow subscribers miss
// values rather than holding up the publisher. The channel is closed by
// Unsubscribe or Close.
func (b *Broadcaster) Subscribe() <-chan interface{} {
	b.lock.Lock()
	defer b.lock.Unlock()

	c := make(chan interface{}, b.buffer)
	if b.closed {
		close(c)
		return c
	}
	b.subs[c] = struct{}{}
	return c
}

func (b *Broadcaster) Unsubscribe(sub <-chan interface{}) {
	b.lock.Lock()
	defer b.lock.Unlock()

	for c := range b.subs {
		if c == sub {
			delete(b.subs, c)
			close(c)
			return
		}
	}
}

// Publish delivers msg to every subscriber with room for it and returns how
// many received it.
func (b *Broadcaster) Publish(msg interface{}) (delivered int) {
	b.lock.Lock()
	defer b.lock.Unlock()

	for c := range b.subs {
		select {
		case c <- msg:
			delivered++
		default:
		}
	}
	return
}

func (b *Broadcaster) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for c := range b.subs {
		close(c)
	}
	b.subs = nil
}

func (b *Broadcaster) Len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subs)
}
