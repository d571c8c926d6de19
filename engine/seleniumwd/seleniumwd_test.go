package seleniumwd

import (
	"bytes"
	"errors"
	"os/exec"
	"testing"

	"github.com/tebeka/selenium"

	"github.com/gridwalk/gridwalk"
)

type fakeElement struct {
	selenium.WebElement

	text      string
	enabled   bool
	displayed bool
	clicks    int
}

func (f *fakeElement) Text() (string, error)      { return f.text, nil }
func (f *fakeElement) IsEnabled() (bool, error)   { return f.enabled, nil }
func (f *fakeElement) IsDisplayed() (bool, error) { return f.displayed, nil }
func (f *fakeElement) Click() error               { f.clicks++; return nil }

type fakeWebDriver struct {
	selenium.WebDriver

	by    string
	value string
	el    selenium.WebElement
	err   error
}

func (f *fakeWebDriver) FindElement(by, value string) (selenium.WebElement, error) {
	f.by, f.value = by, value
	if f.err != nil {
		return nil, f.err
	}
	return f.el, nil
}

func TestResolveStrategyMapping(t *testing.T) {
	tests := []struct {
		using  string
		value  string
		wantBy string
	}{
		{gridwalk.UsingXPath, "//table//tr", selenium.ByXPATH},
		{gridwalk.UsingCSSSelector, "table tr", selenium.ByCSSSelector},
	}
	for _, tc := range tests {
		wd := &fakeWebDriver{el: &fakeElement{}}
		e := New(wd)
		if _, err := e.Resolve(gridwalk.Query{Using: tc.using, Value: tc.value}); err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", tc.using, err)
		}
		if wd.by != tc.wantBy {
			t.Errorf("Resolve(%q) used strategy %q, want %q", tc.using, wd.by, tc.wantBy)
		}
		if wd.value != tc.value {
			t.Errorf("Resolve(%q) used value %q, want %q", tc.using, wd.value, tc.value)
		}
	}
}

func TestResolveRejectsUnknownStrategy(t *testing.T) {
	e := New(&fakeWebDriver{})
	_, err := e.Resolve(gridwalk.Query{Using: "id", Value: "header"})
	if !errors.Is(err, gridwalk.ErrInvalidArgument) {
		t.Fatalf("Resolve with unknown strategy returned %v, want ErrInvalidArgument", err)
	}
}

func TestResolveMapsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{
			name:     "w3c",
			err:      errors.New(`no such element: Unable to locate element: {"method":"xpath","selector":"//x"}`),
			notFound: true,
		},
		{
			name:     "legacy",
			err:      errors.New("Unable to locate element: //missing"),
			notFound: true,
		},
		{
			name:     "fault",
			err:      errors.New("invalid session id"),
			notFound: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := New(&fakeWebDriver{err: tc.err})
			_, err := e.Resolve(gridwalk.Query{Using: gridwalk.UsingXPath, Value: "//x"})
			if err == nil {
				t.Fatal("Resolve returned nil error, want failure")
			}
			if got := errors.Is(err, gridwalk.ErrElementNotFound); got != tc.notFound {
				t.Errorf("errors.Is(err, ErrElementNotFound) = %v, want %v (err: %v)", got, tc.notFound, err)
			}
		})
	}
}

func TestStateDelegation(t *testing.T) {
	el := &fakeElement{text: "Row value", enabled: true, displayed: false}
	e := New(&fakeWebDriver{el: el})

	ref, err := e.Resolve(gridwalk.Query{Using: gridwalk.UsingCSSSelector, Value: "td.amount"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if enabled, err := e.IsEnabled(ref); err != nil || !enabled {
		t.Errorf("IsEnabled = %v, %v, want true, nil", enabled, err)
	}
	if displayed, err := e.IsDisplayed(ref); err != nil || displayed {
		t.Errorf("IsDisplayed = %v, %v, want false, nil", displayed, err)
	}
	if text, err := e.Text(ref); err != nil || text != "Row value" {
		t.Errorf("Text = %q, %v, want %q, nil", text, err, "Row value")
	}
	if err := e.Click(ref); err != nil {
		t.Errorf("Click returned error: %v", err)
	}
	if el.clicks != 1 {
		t.Errorf("element clicked %d times, want 1", el.clicks)
	}
}

func TestForeignRefRejected(t *testing.T) {
	e := New(&fakeWebDriver{})
	if _, err := e.IsEnabled("bogus"); !errors.Is(err, gridwalk.ErrInvalidArgument) {
		t.Errorf("IsEnabled(foreign ref) returned %v, want ErrInvalidArgument", err)
	}
	if err := e.Click(42); !errors.Is(err, gridwalk.ErrInvalidArgument) {
		t.Errorf("Click(foreign ref) returned %v, want ErrInvalidArgument", err)
	}
}

func TestIsDisplay(t *testing.T) {
	tests := []struct {
		disp string
		want bool
	}{
		{"1", true},
		{"1.0", true},
		{"1.0.1", false},
		{"", false},
		{"one", false},
		{"1.x", false},
	}
	for _, tc := range tests {
		if got := isDisplay(tc.disp); got != tc.want {
			t.Errorf("isDisplay(%q) = %v, want %v", tc.disp, got, tc.want)
		}
	}
}

func TestServiceOptions(t *testing.T) {
	var out bytes.Buffer
	s, err := newService(exec.Command("true"), "/wd/hub", 4444,
		Output(&out), Display("20", "/tmp/xauth"), ChromeDriver("/opt/chromedriver"))
	if err != nil {
		t.Fatalf("newService returned error: %v", err)
	}
	if s.addr != "http://localhost:4444/wd/hub" {
		t.Errorf("service addr = %q, want %q", s.addr, "http://localhost:4444/wd/hub")
	}
	if s.display != "20" || s.xauthPath != "/tmp/xauth" {
		t.Errorf("display = %q, xauth = %q, want 20, /tmp/xauth", s.display, s.xauthPath)
	}
	if s.chromeDriverPath != "/opt/chromedriver" {
		t.Errorf("chromedriver path = %q, want /opt/chromedriver", s.chromeDriverPath)
	}

	var found bool
	for _, kv := range s.cmd.Env {
		if kv == "DISPLAY=:20" {
			found = true
		}
	}
	if !found {
		t.Error("DISPLAY=:20 missing from service environment")
	}
}

func TestServiceOptionConflicts(t *testing.T) {
	if _, err := newService(exec.Command("true"), "", 4444,
		Display("20", ""), Display("21", "")); err == nil {
		t.Error("second Display option applied, want error")
	}
	if _, err := newService(exec.Command("true"), "", 4444,
		Display("2.2.2", "")); err == nil {
		t.Error("malformed display accepted, want error")
	}
}
