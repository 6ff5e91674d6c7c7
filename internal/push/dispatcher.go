package push

import (
	"context"
	"sync"

	"github.com/btouchard/eventpush/internal/config"
)

// Dispatcher fans one event out to every target whose allowlist matches the
// event type. Targets are read-only after load and shared across deliveries
// without locking.
type Dispatcher struct {
	Targets []config.Target
	Pusher  *Pusher
}

// Dispatch delivers the event to all matching targets concurrently and
// waits for every delivery to settle. One target's terminal failure never
// affects another's delivery, and Dispatch itself never fails: per-target
// outcomes surface only through the Pusher's failure logger.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	var wg sync.WaitGroup
	for _, target := range d.Targets {
		if !target.Matches(event.Type) {
			continue
		}
		wg.Add(1)
		target := target
		go func() {
			defer wg.Done()
			d.Pusher.Push(ctx, target, event.Payload)
		}()
	}
	wg.Wait()
}
