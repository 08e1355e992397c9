package apiclient

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// refresher makes sure that concurrent 401s trigger exactly one refresh call.
// Every caller joining while a call is in flight observes that call's outcome.
// The shared call is forgotten as soon as it settles, so the next 401 after
// the wave starts a new one.
type refresher struct {
	group   singleflight.Group
	key     string
	timeout time.Duration
	call    func(ctx context.Context) error
	settled func(err error)
	waiting atomic.Int32
}

func newRefresher(key string, timeout time.Duration, call func(context.Context) error, settled func(error)) *refresher {
	return &refresher{
		key:     key,
		timeout: timeout,
		call:    call,
		settled: settled,
	}
}

// acquire starts the refresh or joins the one in flight, and waits for it.
// The refresh itself is not bound to ctx: one caller giving up must not fail
// the others. A caller whose ctx ends stops waiting and gets ctx.Err().
func (r *refresher) acquire(ctx context.Context) error {
	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(r.key, func() (any, error) {
		rctx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()
		err := r.call(rctx)
		if r.settled != nil {
			r.settled(err)
		}
		return nil, err
	})

	r.waiting.Add(1)
	defer r.waiting.Add(-1)

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waiters returns the number of callers currently awaiting a refresh.
func (r *refresher) waiters() int {
	return int(r.waiting.Load())
}
