package gridwalk

import "errors"

// Strategies a resolved query may use. These are the wire strings the
// underlying engines understand.
const (
	UsingXPath       = "xpath"
	UsingCSSSelector = "css selector"
)

// Errors surfaced by collections, iterators and traversals. Faults raised by
// the engine itself (disconnected session, stale reference) are never wrapped
// in these; they propagate unmodified.
var (
	// ErrElementNotFound is wrapped by Engine.Resolve when nothing matches
	// the query right now.
	ErrElementNotFound = errors.New("gridwalk: element not found")

	// ErrNoSuchElement is returned by Next once an iterator is exhausted, or
	// when Next is called without a prior successful HasNext.
	ErrNoSuchElement = errors.New("gridwalk: no such element")

	// ErrUnsupported is returned by mutating operations on live views.
	ErrUnsupported = errors.New("gridwalk: operation not supported")

	// ErrInvalidArgument is returned when a collection or traversal is
	// constructed from unusable parts.
	ErrInvalidArgument = errors.New("gridwalk: invalid argument")
)

// Query is a find request in wire form: a strategy string plus the value the
// strategy interprets.
type Query struct {
	Using string
	Value string
}

// ElementRef is an engine-scoped handle to a live element. The core never
// stores one across calls; presence means "Resolve succeeds right now", and
// every access re-resolves.
type ElementRef interface{}

// Engine is the contract with the underlying browser-automation engine.
// Adapters for concrete engines live under engine/.
type Engine interface {
	// Resolve finds one live element matching q. When nothing matches, the
	// returned error wraps ErrElementNotFound. Any other error is an engine
	// fault and is reported to the caller unmodified.
	Resolve(q Query) (ElementRef, error)

	// IsEnabled reports whether the element can receive input.
	IsEnabled(ref ElementRef) (bool, error)

	// IsDisplayed reports whether the element is visible on the page.
	IsDisplayed(ref ElementRef) (bool, error)

	// Click performs a user-visible click on the element.
	Click(ref ElementRef) error

	// Text returns the element's visible text.
	Text(ref ElementRef) (string, error)
}

// TokenFunc reads the page token of the currently displayed page. A blank
// token means "no token available"; traversals then trust navigation clicks
// without verifying that the page actually changed.
type TokenFunc func() (string, error)
