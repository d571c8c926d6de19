// Package rod drives gridwalk collections over a rod page.
package rod

import (
	"errors"
	"fmt"

	rodlib "github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/gridwalk/gridwalk"
)

// Engine implements gridwalk.Engine on top of a rod page.
type Engine struct {
	page *rodlib.Page
}

// New wraps page. Lookups are armed with rod's NotFoundSleeper so a missing
// element reports immediately instead of retrying; gridwalk owns the waiting.
func New(page *rodlib.Page) *Engine {
	return &Engine{page: page.Sleeper(rodlib.NotFoundSleeper)}
}

// Resolve finds one element for q without waiting. A query that matches
// nothing reports gridwalk.ErrElementNotFound.
func (e *Engine) Resolve(q gridwalk.Query) (gridwalk.ElementRef, error) {
	var (
		el  *rodlib.Element
		err error
	)
	switch q.Using {
	case gridwalk.UsingXPath:
		el, err = e.page.ElementX(q.Value)
	case gridwalk.UsingCSSSelector:
		el, err = e.page.Element(q.Value)
	default:
		return nil, fmt.Errorf("%w: unsupported strategy %q", gridwalk.ErrInvalidArgument, q.Using)
	}
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%s %q: %w", q.Using, q.Value, gridwalk.ErrElementNotFound)
		}
		return nil, err
	}
	return el, nil
}

// notFound reports whether err is rod's element-not-found failure.
func notFound(err error) bool {
	var enf *rodlib.ElementNotFoundError
	return errors.As(err, &enf)
}

func element(ref gridwalk.ElementRef) (*rodlib.Element, error) {
	el, ok := ref.(*rodlib.Element)
	if !ok {
		return nil, fmt.Errorf("%w: foreign element ref %T", gridwalk.ErrInvalidArgument, ref)
	}
	return el, nil
}

// IsEnabled reports whether the referenced element is enabled. An element
// without a disabled property counts as enabled.
func (e *Engine) IsEnabled(ref gridwalk.ElementRef) (bool, error) {
	el, err := element(ref)
	if err != nil {
		return false, err
	}
	disabled, err := el.Property("disabled")
	if err != nil {
		return false, err
	}
	return !disabled.Bool(), nil
}

// IsDisplayed reports whether the referenced element is visible.
func (e *Engine) IsDisplayed(ref gridwalk.ElementRef) (bool, error) {
	el, err := element(ref)
	if err != nil {
		return false, err
	}
	return el.Visible()
}

// Click clicks the referenced element with the left mouse button.
func (e *Engine) Click(ref gridwalk.ElementRef) error {
	el, err := element(ref)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Text returns the rendered text of the referenced element.
func (e *Engine) Text(ref gridwalk.ElementRef) (string, error) {
	el, err := element(ref)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Session owns a launched browser and one page.
type Session struct {
	browser *rodlib.Browser
	page    *rodlib.Page
	cleanup func()
}

// Launch starts a chromium browser under rod's launcher and opens one page.
func Launch(headless bool) (*Session, error) {
	l := launcher.New().Headless(headless)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rodlib.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &Session{browser: browser, page: page, cleanup: l.Cleanup}, nil
}

// Engine returns a gridwalk engine bound to the session's page.
func (s *Session) Engine() *Engine {
	return New(s.page)
}

// Page exposes the underlying page for calls outside the gridwalk surface.
func (s *Session) Page() *rodlib.Page {
	return s.page
}

// Navigate loads url and waits for the page's load event.
func (s *Session) Navigate(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return s.page.WaitLoad()
}

// Close closes the browser and cleans up the launcher's temp data.
func (s *Session) Close() error {
	err := s.browser.Close()
	s.cleanup()
	return err
}
