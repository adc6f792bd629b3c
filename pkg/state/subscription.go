package state

import (
	"sync"

	"github.com/google/uuid"
	"github.com/urmzd/devicecontrols/pkg/device"
)

// Subscription is a live stream of snapshots for a fixed set of controls.
//
// Snapshots are queued without bound and handed to C in publish order by a
// single pump goroutine, so a slow reader delays delivery but never loses an
// update. C is closed once the subscription ends.
type Subscription struct {
	id      string
	devices []string
	covers  map[string]struct{}

	mu     sync.Mutex
	queue  []device.ControlState
	closed bool

	wake      chan struct{}
	out       chan device.ControlState
	done      chan struct{}
	closeOnce sync.Once
	onClose   func(*Subscription)
}

func newSubscription(devices []string, onClose func(*Subscription)) *Subscription {
	s := &Subscription{
		id:      uuid.NewString(),
		devices: devices,
		covers:  make(map[string]struct{}, len(devices)),
		wake:    make(chan struct{}, 1),
		out:     make(chan device.ControlState),
		done:    make(chan struct{}),
		onClose: onClose,
	}
	for _, id := range devices {
		s.covers[id] = struct{}{}
	}
	go s.pump()
	return s
}

// ID returns the subscription id.
func (s *Subscription) ID() string {
	return s.id
}

// Devices returns the control ids this subscription streams, in request order.
func (s *Subscription) Devices() []string {
	out := make([]string, len(s.devices))
	copy(out, s.devices)
	return out
}

// C returns the snapshot channel.
func (s *Subscription) C() <-chan device.ControlState {
	return s.out
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close ends the subscription and releases its goroutine. It is idempotent.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.mu.Unlock()
		close(s.done)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
	return nil
}

// pending returns the number of queued snapshots not yet read.
func (s *Subscription) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Subscription) covering(id string) bool {
	_, ok := s.covers[id]
	return ok
}

// enqueue appends st unless the subscription is closed.
func (s *Subscription) enqueue(st device.ControlState) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, st)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		s.queue[0] = device.ControlState{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
