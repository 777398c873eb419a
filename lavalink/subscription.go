package lavalink

import "sync"

// subscription delivers a player's events to its listener
// on a single goroutine, so that the order emitted by the node is kept
// and the websocket reader is never blocked by the listener.
type subscription struct {
	mutex    sync.Mutex
	listener Listener
	events   chan func(Listener)
	done     chan struct{}
	closed   bool
}

func newSubscription(buffer int) *subscription {
	return &subscription{
		events: make(chan func(Listener), buffer),
		done:   make(chan struct{}),
	}
}

// Subscribe sets the listener and starts delivering events.
// Returns false if a listener has already been set.
func (s *subscription) Subscribe(l Listener) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener != nil || s.closed {
		return false
	}
	s.listener = l
	go s.run(l)
	return true
}

// Emit queues the event for delivery. Returns false if
// the buffer is full or the subscription has been closed.
func (s *subscription) Emit(f func(Listener)) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.events <- f:
		return true
	default:
		return false
	}
}

// Close stops delivering events. Events that
// are still queued are dropped.
func (s *subscription) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func (s *subscription) run(l Listener) {
	for {
		select {
		case <-s.done:
			return
		case f := <-s.events:
			select {
			case <-s.done:
				return
			default:
			}
			f(l)
		}
	}
}
