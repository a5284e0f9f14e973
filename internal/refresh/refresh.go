// Package refresh runs a fetch on a fixed schedule while a view is open.
package refresh

import (
	"context"
	"time"
)

// Default intervals per view.
const (
	OrderDetail = 10 * time.Second
	MyOrders    = 15 * time.Second
	Pending     = 15 * time.Second
	AllOrders   = 20 * time.Second
	Shops       = 20 * time.Second
	Stats       = 30 * time.Second
	Users       = 30 * time.Second
	Areas       = 30 * time.Second
)

// Every calls fn immediately and then once per interval until ctx is done.
// Errors go to onErr, which may be nil, and never stop the loop. A slow fn
// delays the next tick rather than overlapping with it. A non-positive
// interval falls back to OrderDetail.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context) error, onErr func(error)) {
	run := func() {
		if err := fn(ctx); err != nil && onErr != nil && ctx.Err() == nil {
			onErr(err)
		}
	}

	run()

	if interval <= 0 {
		interval = OrderDetail
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
