// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package event deals with subscriptions to real-time events.
package event

import (
	"sync"
)

// Subscription represents a stream of events. The carrier of the events is
// typically a channel, but isn't part of the interface.
type Subscription interface {
	// Err returns the error channel. It is closed on Unsubscribe.
	Err() <-chan error
	// Unsubscribe cancels the sending of events to the data channel.
	Unsubscribe()
}

// Feed implements one-to-many subscriptions where the carrier of events is a
// channel. Values sent to a Feed are delivered to all subscribed channels.
//
// The zero value is ready to use.
type Feed[T any] struct {
	mu   sync.Mutex
	subs []*feedSub[T]
}

type feedSub[T any] struct {
	feed *Feed[T]
	ch   chan<- T
	err  chan error
	quit chan struct{}
	once sync.Once
}

func (s *feedSub[T]) Err() <-chan error { return s.err }

func (s *feedSub[T]) Unsubscribe() {
	s.once.Do(func() {
		s.feed.remove(s)
		close(s.quit)
		close(s.err)
	})
}

// Subscribe adds a channel to the feed. Future sends will be delivered on the
// channel until the subscription is cancelled.
func (f *Feed[T]) Subscribe(ch chan<- T) Subscription {
	sub := &feedSub[T]{
		feed: f,
		ch:   ch,
		err:  make(chan error, 1),
		quit: make(chan struct{}),
	}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub
}

// Send delivers value to all subscribed channels and returns the number of
// subscribers the value was delivered to. It blocks on slow consumers unless
// they unsubscribe.
func (f *Feed[T]) Send(value T) int {
	f.mu.Lock()
	subs := make([]*feedSub[T], len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	var delivered int
	for _, sub := range subs {
		select {
		case sub.ch <- value:
			delivered++
		case <-sub.quit:
		}
	}
	return delivered
}

func (f *Feed[T]) remove(sub *feedSub[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s == sub {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}
