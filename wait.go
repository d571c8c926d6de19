package gridwalk

import (
	"context"
	"time"
)

const (
	// MinWaitTimeout is the floor both WaitPolicy timeouts clamp up to.
	MinWaitTimeout = time.Second

	// DefaultPollInterval is used wherever no positive poll interval is
	// configured.
	DefaultPollInterval = 100 * time.Millisecond
)

// WaitPolicy bounds how long collection accesses wait for an element to
// become present. FirstTimeout applies to index 0; OtherTimeout applies to
// every later index. The asymmetry lets callers wait long for the initial
// render while failing fast on siblings that should already be there.
//
// A policy is immutable once a collection is constructed. Timeouts below
// MinWaitTimeout are raised to it; a non-positive PollInterval falls back to
// DefaultPollInterval.
type WaitPolicy struct {
	FirstTimeout time.Duration
	OtherTimeout time.Duration
	PollInterval time.Duration
}

func (p WaitPolicy) normalize() WaitPolicy {
	if p.FirstTimeout < MinWaitTimeout {
		p.FirstTimeout = MinWaitTimeout
	}
	if p.OtherTimeout < MinWaitTimeout {
		p.OtherTimeout = MinWaitTimeout
	}
	if p.PollInterval <= 0 {
		p.PollInterval = DefaultPollInterval
	}
	return p
}

// timeoutFor returns the presence bound applied to a record index.
func (p WaitPolicy) timeoutFor(index int) time.Duration {
	if index == 0 {
		return p.FirstTimeout
	}
	return p.OtherTimeout
}

// pollUntil evaluates cond every interval until it reports true or timeout
// elapses. Timing out is a normal outcome and yields (false, nil); an error
// from cond aborts the poll immediately. cond is always evaluated at least
// once.
func pollUntil(cond func() (bool, error), interval, timeout time.Duration) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	start := time.Now()
	for {
		ok, err := cond()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if time.Since(start) > timeout {
			return false, nil
		}
		time.Sleep(interval)
	}
}

// pollUntilContext is pollUntil with cancellation. Unlike a timeout, a
// cancelled context is reported as its error.
func pollUntilContext(ctx context.Context, cond func() (bool, error), interval, timeout time.Duration) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		ok, err := cond()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-tick.C:
		}
	}
}
