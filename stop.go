package grove

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

type stopEntry struct {
	name string
	stop func(ctx context.Context) error
}

// stopSequence lists stoppable instances in the order their startup
// completed. Guarded by container.mu.
type stopSequence struct {
	items []stopEntry
}

func (s *stopSequence) push(name string, stop func(ctx context.Context) error) {
	s.items = append(s.items, stopEntry{name: name, stop: stop})
}

// pop removes and returns the most recently pushed entry.
func (s *stopSequence) pop() (stopEntry, bool) {
	if len(s.items) == 0 {
		return stopEntry{}, false
	}
	last := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return last, true
}

func (c *container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	walk := c.walk
	if walk == nil {
		walk = make(chan struct{})
		c.walk = walk
		go c.runWalk(c.stops, walk)
	}
	c.mu.Unlock()

	select {
	case <-walk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *container) Stopped() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *container) StopOn(sigs ...os.Signal) Container {
	if len(sigs) == 0 {
		return c
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		for sig := range ch {
			c.logger().Info("shutdown triggered", zap.Stringer("signal", sig))
			_ = c.Shutdown(context.Background())
		}
	}()

	return c
}

// runWalk drains seq last-in first-out, then completes walk and the current
// Stopped channel.
func (c *container) runWalk(seq *stopSequence, walk chan struct{}) {
	log := c.logger()
	log.Info("shutting down")

	stopped := 0
	for {
		c.mu.Lock()
		e, ok := seq.pop()
		c.mu.Unlock()
		if !ok {
			break
		}

		c.stopOne(e, time.Duration(c.stopTimeout.Load()))
		stopped++
	}

	c.mu.Lock()
	c.walk = nil
	done := c.stopped
	c.stopped = make(chan struct{})
	c.mu.Unlock()

	log.Info("shutdown complete", zap.Int("services", stopped))
	close(walk)
	close(done)
}

// stopOne calls a single stop capability, bounded by timeout. Failures are
// logged, never returned.
func (c *container) stopOne(e stopEntry, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c.debugLog("stopping service", zap.String("service", e.name))

	errc := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errc <- panicError(r)
			}
		}()
		errc <- e.stop(ctx)
	}()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ctx.Err()
	}

	switch {
	case err == nil:
		c.metrics.stopped("ok")
		c.debugLog("service stopped", zap.String("service", e.name))
	case errors.Is(err, context.DeadlineExceeded):
		c.metrics.stopped("timeout")
		c.logger().Error("service stop timed out",
			zap.String("service", e.name),
			zap.Duration("timeout", timeout),
			zap.Error(ErrStopTimeout),
		)
	default:
		c.metrics.stopped("error")
		c.logger().Error("service stop failed", zap.String("service", e.name), zap.Error(err))
	}
}
