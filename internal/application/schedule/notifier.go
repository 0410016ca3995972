package schedule

import "sync"

// notifier delivers views to subscribers on its own goroutine, so callbacks
// never run under the store lock and may call back into the store.
//
// Only the newest pending view is kept: a slow subscriber may skip
// intermediate versions but never sees a version older than one it already
// received.
type notifier struct {
	mu        sync.Mutex
	subs      map[uint64]func(View)
	nextID    uint64
	latest    *View
	delivered uint64

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newNotifier() *notifier {
	n := &notifier{
		subs:    make(map[uint64]func(View)),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *notifier) subscribe(fn func(View)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// publish records v as the newest view and wakes the delivery goroutine.
func (n *notifier) publish(v View) {
	n.mu.Lock()
	if n.latest == nil || v.Version > n.latest.Version {
		n.latest = &v
	}
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default: // a wake-up is already pending
	}
}

func (n *notifier) run() {
	defer close(n.stopped)

	for {
		select {
		case <-n.wake:
		case <-n.done:
			return
		}

		n.mu.Lock()
		if n.latest == nil || n.latest.Version <= n.delivered {
			n.mu.Unlock()
			continue
		}
		v := *n.latest
		n.delivered = v.Version
		subs := make([]func(View), 0, len(n.subs))
		for _, fn := range n.subs {
			subs = append(subs, fn)
		}
		n.mu.Unlock()

		for _, fn := range subs {
			fn(v)
		}
	}
}

// stop ends delivery. Pending views are discarded.
func (n *notifier) stop() {
	n.once.Do(func() {
		close(n.done)
		<-n.stopped
	})
}
