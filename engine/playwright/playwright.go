// Package playwright drives gridwalk collections over a Playwright page.
//
// Resolution uses the page's immediate query-selector call rather than the
// auto-waiting locator API: gridwalk owns the waiting, the engine only
// answers "is it there right now".
package playwright

import (
	"fmt"

	pw "github.com/playwright-community/playwright-go"

	"github.com/gridwalk/gridwalk"
)

// Engine implements gridwalk.Engine on top of a playwright page.
type Engine struct {
	page pw.Page
}

// New wraps an open page.
func New(page pw.Page) *Engine {
	return &Engine{page: page}
}

// selector translates q into a playwright selector. Playwright picks the
// query engine from a prefix, so both strategies translate cleanly.
func selector(q gridwalk.Query) (string, error) {
	switch q.Using {
	case gridwalk.UsingXPath:
		return "xpath=" + q.Value, nil
	case gridwalk.UsingCSSSelector:
		return "css=" + q.Value, nil
	}
	return "", fmt.Errorf("%w: unsupported strategy %q", gridwalk.ErrInvalidArgument, q.Using)
}

// Resolve finds one element for q without waiting. A query that matches
// nothing reports gridwalk.ErrElementNotFound.
func (e *Engine) Resolve(q gridwalk.Query) (gridwalk.ElementRef, error) {
	sel, err := selector(q)
	if err != nil {
		return nil, err
	}
	el, err := e.page.QuerySelector(sel)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("%s %q: %w", q.Using, q.Value, gridwalk.ErrElementNotFound)
	}
	return el, nil
}

func handle(ref gridwalk.ElementRef) (pw.ElementHandle, error) {
	el, ok := ref.(pw.ElementHandle)
	if !ok {
		return nil, fmt.Errorf("%w: foreign element ref %T", gridwalk.ErrInvalidArgument, ref)
	}
	return el, nil
}

// IsEnabled reports whether the referenced element is enabled.
func (e *Engine) IsEnabled(ref gridwalk.ElementRef) (bool, error) {
	el, err := handle(ref)
	if err != nil {
		return false, err
	}
	return el.IsEnabled()
}

// IsDisplayed reports whether the referenced element is visible.
func (e *Engine) IsDisplayed(ref gridwalk.ElementRef) (bool, error) {
	el, err := handle(ref)
	if err != nil {
		return false, err
	}
	return el.IsVisible()
}

// Click clicks the referenced element.
func (e *Engine) Click(ref gridwalk.ElementRef) error {
	el, err := handle(ref)
	if err != nil {
		return err
	}
	return el.Click()
}

// Text returns the rendered text of the referenced element.
func (e *Engine) Text(ref gridwalk.ElementRef) (string, error) {
	el, err := handle(ref)
	if err != nil {
		return "", err
	}
	return el.InnerText()
}

// Session owns a playwright runtime, a browser and one page.
type Session struct {
	runtime *pw.Playwright
	browser pw.Browser
	page    pw.Page
}

// Launch starts the playwright runtime, launches a chromium browser and
// opens one page.
func Launch(headless bool) (*Session, error) {
	runtime, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := runtime.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(headless),
	})
	if err != nil {
		runtime.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		runtime.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &Session{runtime: runtime, browser: browser, page: page}, nil
}

// Engine returns a gridwalk engine bound to the session's page.
func (s *Session) Engine() *Engine {
	return New(s.page)
}

// Page exposes the underlying page for calls outside the gridwalk surface.
func (s *Session) Page() pw.Page {
	return s.page
}

// Navigate loads url and waits for the page's load event.
func (s *Session) Navigate(url string) error {
	if _, err := s.page.Goto(url); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

// Close closes the browser and stops the playwright runtime.
func (s *Session) Close() error {
	err := s.browser.Close()
	if stopErr := s.runtime.Stop(); err == nil {
		err = stopErr
	}
	return err
}
