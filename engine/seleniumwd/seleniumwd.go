// Package seleniumwd drives gridwalk collections over a Selenium WebDriver
// session. Queries resolve through the remote end's find-element command;
// element handles are never held beyond a single call.
package seleniumwd

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"

	"github.com/gridwalk/gridwalk"
)

// strategies maps gridwalk query strategies onto WebDriver locator
// strategies.
var strategies = map[string]string{
	gridwalk.UsingXPath:       selenium.ByXPATH,
	gridwalk.UsingCSSSelector: selenium.ByCSSSelector,
}

// Engine implements gridwalk.Engine on top of a selenium.WebDriver.
type Engine struct {
	wd selenium.WebDriver
}

// New wraps an established WebDriver session.
func New(wd selenium.WebDriver) *Engine {
	return &Engine{wd: wd}
}

// Resolve finds one element for q. The remote end's no-such-element failure
// is reported as gridwalk.ErrElementNotFound; any other failure is an engine
// fault and is returned as-is.
func (e *Engine) Resolve(q gridwalk.Query) (gridwalk.ElementRef, error) {
	by, ok := strategies[q.Using]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported strategy %q", gridwalk.ErrInvalidArgument, q.Using)
	}
	el, err := e.wd.FindElement(by, q.Value)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s %q: %w", q.Using, q.Value, gridwalk.ErrElementNotFound)
		}
		return nil, err
	}
	return el, nil
}

// isNotFound reports whether err is the remote end's no-such-element
// failure. W3C-conformant servers answer "no such element"; Selenium 2
// servers answer "Unable to locate element".
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such element") ||
		strings.Contains(msg, "unable to locate element")
}

func element(ref gridwalk.ElementRef) (selenium.WebElement, error) {
	el, ok := ref.(selenium.WebElement)
	if !ok {
		return nil, fmt.Errorf("%w: foreign element ref %T", gridwalk.ErrInvalidArgument, ref)
	}
	return el, nil
}

// IsEnabled reports whether the referenced element is enabled.
func (e *Engine) IsEnabled(ref gridwalk.ElementRef) (bool, error) {
	el, err := element(ref)
	if err != nil {
		return false, err
	}
	return el.IsEnabled()
}

// IsDisplayed reports whether the referenced element is displayed.
func (e *Engine) IsDisplayed(ref gridwalk.ElementRef) (bool, error) {
	el, err := element(ref)
	if err != nil {
		return false, err
	}
	return el.IsDisplayed()
}

// Click clicks the referenced element.
func (e *Engine) Click(ref gridwalk.ElementRef) error {
	el, err := element(ref)
	if err != nil {
		return err
	}
	return el.Click()
}

// Text returns the visible text of the referenced element.
func (e *Engine) Text(ref gridwalk.ElementRef) (string, error) {
	el, err := element(ref)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Session owns a remote WebDriver connection.
type Session struct {
	wd selenium.WebDriver
}

// Open starts a session against a running WebDriver server, such as a
// Service started by this package. browser names the browser to request;
// headless asks for a headless window where the browser supports it.
func Open(remoteURL, browser string, headless bool) (*Session, error) {
	caps := selenium.Capabilities{"browserName": browser}
	if headless {
		switch browser {
		case "chrome":
			caps.AddChrome(chrome.Capabilities{Args: []string{"--headless", "--disable-gpu"}})
		case "firefox":
			caps.AddFirefox(firefox.Capabilities{Args: []string{"-headless"}})
		}
	}
	wd, err := selenium.NewRemote(caps, remoteURL)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", remoteURL, err)
	}
	return &Session{wd: wd}, nil
}

// Engine returns a gridwalk engine bound to the session.
func (s *Session) Engine() *Engine {
	return New(s.wd)
}

// WebDriver exposes the underlying driver for calls outside the gridwalk
// surface.
func (s *Session) WebDriver() selenium.WebDriver {
	return s.wd
}

// Navigate loads url in the session's window.
func (s *Session) Navigate(url string) error {
	return s.wd.Get(url)
}

// Close ends the remote session.
func (s *Session) Close() error {
	return s.wd.Quit()
}
