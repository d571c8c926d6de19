package gridwalk

import (
	"context"
	"errors"
	"time"
)

// Probe exposes boolean state checks over the element addressed by one
// query. Each check has an immediate form and a bounded polling form; the
// polling forms return (false, nil) on timeout, never an error. Faults
// raised by the engine propagate unmodified.
type Probe struct {
	engine   Engine
	query    Query
	interval time.Duration
}

// NewProbe returns a probe over the first element matched by loc. A
// non-positive pollInterval falls back to DefaultPollInterval.
func NewProbe(e Engine, loc Locator, pollInterval time.Duration) *Probe {
	return newProbe(e, loc.Resolve(), pollInterval)
}

func newProbe(e Engine, q Query, pollInterval time.Duration) *Probe {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Probe{engine: e, query: q, interval: pollInterval}
}

// Query returns the wire query the probe addresses.
func (p *Probe) Query() Query { return p.query }

// resolve maps the absent element onto (nil, false) so state checks can
// report false instead of an error.
func (p *Probe) resolve() (ElementRef, bool, error) {
	ref, err := p.engine.Resolve(p.query)
	if err != nil {
		if errors.Is(err, ErrElementNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return ref, true, nil
}

// Present reports whether the element can be resolved right now.
func (p *Probe) Present() (bool, error) {
	_, ok, err := p.resolve()
	return ok, err
}

// Enabled reports whether the element is present and enabled.
func (p *Probe) Enabled() (bool, error) {
	ref, ok, err := p.resolve()
	if err != nil || !ok {
		return false, err
	}
	return p.engine.IsEnabled(ref)
}

// Displayed reports whether the element is present and visible.
func (p *Probe) Displayed() (bool, error) {
	ref, ok, err := p.resolve()
	if err != nil || !ok {
		return false, err
	}
	return p.engine.IsDisplayed(ref)
}

// Clickable reports whether the element is present, visible and enabled.
func (p *Probe) Clickable() (bool, error) {
	ref, ok, err := p.resolve()
	if err != nil || !ok {
		return false, err
	}
	shown, err := p.engine.IsDisplayed(ref)
	if err != nil || !shown {
		return false, err
	}
	return p.engine.IsEnabled(ref)
}

// Click resolves the element and clicks it. Unlike the state checks, an
// absent element is an error here.
func (p *Probe) Click() error {
	ref, err := p.engine.Resolve(p.query)
	if err != nil {
		return err
	}
	return p.engine.Click(ref)
}

// Text resolves the element and returns its visible text.
func (p *Probe) Text() (string, error) {
	ref, err := p.engine.Resolve(p.query)
	if err != nil {
		return "", err
	}
	return p.engine.Text(ref)
}

// WaitPresent polls until the element is present or timeout elapses.
func (p *Probe) WaitPresent(timeout time.Duration) (bool, error) {
	return pollUntil(p.Present, p.interval, timeout)
}

// WaitEnabled polls until the element is enabled or timeout elapses.
func (p *Probe) WaitEnabled(timeout time.Duration) (bool, error) {
	return pollUntil(p.Enabled, p.interval, timeout)
}

// WaitDisplayed polls until the element is visible or timeout elapses.
func (p *Probe) WaitDisplayed(timeout time.Duration) (bool, error) {
	return pollUntil(p.Displayed, p.interval, timeout)
}

// WaitClickable polls until the element is clickable or timeout elapses.
func (p *Probe) WaitClickable(timeout time.Duration) (bool, error) {
	return pollUntil(p.Clickable, p.interval, timeout)
}

// WaitPresentContext is WaitPresent with cancellation.
func (p *Probe) WaitPresentContext(ctx context.Context, timeout time.Duration) (bool, error) {
	return pollUntilContext(ctx, p.Present, p.interval, timeout)
}

// WaitEnabledContext is WaitEnabled with cancellation.
func (p *Probe) WaitEnabledContext(ctx context.Context, timeout time.Duration) (bool, error) {
	return pollUntilContext(ctx, p.Enabled, p.interval, timeout)
}

// WaitDisplayedContext is WaitDisplayed with cancellation.
func (p *Probe) WaitDisplayedContext(ctx context.Context, timeout time.Duration) (bool, error) {
	return pollUntilContext(ctx, p.Displayed, p.interval, timeout)
}

// WaitClickableContext is WaitClickable with cancellation.
func (p *Probe) WaitClickableContext(ctx context.Context, timeout time.Duration) (bool, error) {
	return pollUntilContext(ctx, p.Clickable, p.interval, timeout)
}
