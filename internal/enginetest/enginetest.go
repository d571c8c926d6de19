// Package enginetest provides an in-memory paginated-table engine for
// exercising gridwalk without a browser.
//
// The fake models one table of fabricated row texts split across pages, a
// page label, and the four navigation controls. Controls are present,
// visible and enabled only when movement in their direction is possible,
// unless configured otherwise.
package enginetest

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/gridwalk/gridwalk"
)

// Queries the fake engine understands.
const (
	RowsXPath      = `//table[@id="records"]/tbody/tr`
	FirstXPath     = `//*[@id="nav-first"]`
	PreviousXPath  = `//*[@id="nav-previous"]`
	NextXPath      = `//*[@id="nav-next"]`
	LastXPath      = `//*[@id="nav-last"]`
	PageLabelXPath = `//*[@id="page-label"]`
)

var rowQueryPattern = regexp.MustCompile(`^\(` + regexp.QuoteMeta(RowsXPath) + `\)\[(-?[0-9]+)\]$`)

// Control configures one navigation control of the fake table.
type Control struct {
	Absent        bool
	Hidden        bool
	AlwaysEnabled bool
}

// Engine drives the fake table. All fields may be set before use; the zero
// value over no pages behaves as an empty table.
type Engine struct {
	First    Control
	Previous Control
	Next     Control
	Last     Control

	// BlankToken makes Token and the page label read as blank.
	BlankToken bool
	// TokenErr, when set, fails every Token call.
	TokenErr error
	// RowsDelay hides all rows until it has elapsed since New.
	RowsDelay time.Duration
	// DisabledRows marks rows disabled, keyed by row text.
	DisabledRows map[string]bool
	// HiddenRows marks rows invisible, keyed by row text.
	HiddenRows map[string]bool
	// ResolveErr, when set, fails every Resolve call.
	ResolveErr error
	// ClickErr, when set, fails every Click call.
	ClickErr error

	pages  [][]string
	page   int
	start  time.Time
	clicks map[string]int
}

// New returns an engine over the given pages of row texts, positioned on the
// first page.
func New(pages ...[]string) *Engine {
	return &Engine{
		pages:  pages,
		start:  time.Now(),
		clicks: make(map[string]int),
	}
}

// ref addresses one fake element. Row refs are positional within the
// current page, so they go stale when the page changes under them.
type ref struct {
	kind  string
	index int
}

func notFound(q gridwalk.Query) error {
	return fmt.Errorf("%s %q: %w", q.Using, q.Value, gridwalk.ErrElementNotFound)
}

// Resolve implements gridwalk.Engine.
func (e *Engine) Resolve(q gridwalk.Query) (gridwalk.ElementRef, error) {
	if e.ResolveErr != nil {
		return nil, e.ResolveErr
	}
	if q.Using != gridwalk.UsingXPath {
		return nil, fmt.Errorf("enginetest: unsupported strategy %q", q.Using)
	}
	if m := rowQueryPattern.FindStringSubmatch(q.Value); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("enginetest: bad row index in %q: %v", q.Value, err)
		}
		if n < 1 || n > len(e.rows()) {
			return nil, notFound(q)
		}
		return ref{kind: "row", index: n - 1}, nil
	}
	switch q.Value {
	case RowsXPath:
		if len(e.rows()) == 0 {
			return nil, notFound(q)
		}
		return ref{kind: "row"}, nil
	case FirstXPath:
		return e.controlRef("first", e.First, q)
	case PreviousXPath:
		return e.controlRef("previous", e.Previous, q)
	case NextXPath:
		return e.controlRef("next", e.Next, q)
	case LastXPath:
		return e.controlRef("last", e.Last, q)
	case PageLabelXPath:
		return ref{kind: "label"}, nil
	}
	return nil, fmt.Errorf("enginetest: unknown query %s=%q", q.Using, q.Value)
}

func (e *Engine) controlRef(name string, c Control, q gridwalk.Query) (gridwalk.ElementRef, error) {
	if c.Absent {
		return nil, notFound(q)
	}
	return ref{kind: name}, nil
}

// IsEnabled implements gridwalk.Engine.
func (e *Engine) IsEnabled(r gridwalk.ElementRef) (bool, error) {
	el, err := e.ref(r)
	if err != nil {
		return false, err
	}
	switch el.kind {
	case "row":
		text, err := e.rowText(el.index)
		if err != nil {
			return false, err
		}
		return !e.DisabledRows[text], nil
	case "first", "previous":
		return e.control(el.kind).AlwaysEnabled || e.page > 0, nil
	case "next", "last":
		return e.control(el.kind).AlwaysEnabled || e.page < len(e.pages)-1, nil
	default:
		return true, nil
	}
}

// IsDisplayed implements gridwalk.Engine.
func (e *Engine) IsDisplayed(r gridwalk.ElementRef) (bool, error) {
	el, err := e.ref(r)
	if err != nil {
		return false, err
	}
	switch el.kind {
	case "row":
		text, err := e.rowText(el.index)
		if err != nil {
			return false, err
		}
		return !e.HiddenRows[text], nil
	case "first", "previous", "next", "last":
		return !e.control(el.kind).Hidden, nil
	default:
		return true, nil
	}
}

// Click implements gridwalk.Engine. Clicking a navigation control moves the
// page when movement in its direction is possible; clicks are counted either
// way.
func (e *Engine) Click(r gridwalk.ElementRef) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	el, err := e.ref(r)
	if err != nil {
		return err
	}
	key := el.kind
	if el.kind == "row" {
		key = fmt.Sprintf("row[%d]", el.index)
	}
	e.clicks[key]++
	switch el.kind {
	case "first":
		e.page = 0
	case "previous":
		if e.page > 0 {
			e.page--
		}
	case "next":
		if e.page < len(e.pages)-1 {
			e.page++
		}
	case "last":
		if len(e.pages) > 0 {
			e.page = len(e.pages) - 1
		}
	}
	return nil
}

// Text implements gridwalk.Engine.
func (e *Engine) Text(r gridwalk.ElementRef) (string, error) {
	el, err := e.ref(r)
	if err != nil {
		return "", err
	}
	switch el.kind {
	case "row":
		return e.rowText(el.index)
	case "label":
		return e.Token()
	default:
		return el.kind, nil
	}
}

// Token reads the fake table's page token. The method value is usable
// directly as a gridwalk.TokenFunc.
func (e *Engine) Token() (string, error) {
	if e.TokenErr != nil {
		return "", e.TokenErr
	}
	if e.BlankToken {
		return "", nil
	}
	return fmt.Sprintf("page %d of %d", e.page+1, len(e.pages)), nil
}

// CurrentPage returns the zero-based page the fake table shows.
func (e *Engine) CurrentPage() int { return e.page }

// SetPage moves the fake table to page i without a click.
func (e *Engine) SetPage(i int) { e.page = i }

// Clicks returns how many times the named element was clicked. Controls are
// keyed by name ("next"), rows by "row[i]".
func (e *Engine) Clicks(name string) int { return e.clicks[name] }

func (e *Engine) ref(r gridwalk.ElementRef) (ref, error) {
	el, ok := r.(ref)
	if !ok {
		return ref{}, fmt.Errorf("enginetest: foreign element ref %T", r)
	}
	return el, nil
}

func (e *Engine) control(kind string) Control {
	switch kind {
	case "first":
		return e.First
	case "previous":
		return e.Previous
	case "next":
		return e.Next
	case "last":
		return e.Last
	}
	return Control{}
}

func (e *Engine) rows() []string {
	if time.Since(e.start) < e.RowsDelay {
		return nil
	}
	if e.page < 0 || e.page >= len(e.pages) {
		return nil
	}
	return e.pages[e.page]
}

func (e *Engine) rowText(i int) (string, error) {
	rows := e.rows()
	if i < 0 || i >= len(rows) {
		return "", fmt.Errorf("enginetest: stale row reference %d", i)
	}
	return rows[i], nil
}

// RowsLocator returns the locator for the fake table's rows.
func RowsLocator() gridwalk.Locator {
	return mustXPath(RowsXPath)
}

// Nav returns probes over the fake's four navigation controls, polling at
// interval.
func Nav(e *Engine, interval time.Duration) gridwalk.NavigationControls {
	return gridwalk.NavigationControls{
		First:    gridwalk.NewProbe(e, mustXPath(FirstXPath), interval),
		Previous: gridwalk.NewProbe(e, mustXPath(PreviousXPath), interval),
		Next:     gridwalk.NewProbe(e, mustXPath(NextXPath), interval),
		Last:     gridwalk.NewProbe(e, mustXPath(LastXPath), interval),
	}
}

func mustXPath(xpath string) gridwalk.Locator {
	loc, err := gridwalk.ByXPath(xpath)
	if err != nil {
		panic(err)
	}
	return loc
}
