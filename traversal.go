package gridwalk

import (
	"errors"
	"fmt"
	"time"
)

// DefaultMaxPages bounds page-navigation attempts when no override is
// configured. It keeps traversals terminating even when a table's pagination
// controls misreport progress.
const DefaultMaxPages = 100

// NavigationControls holds probes over a table's four pagination controls.
// Any of them may be nil when the table does not render that control.
type NavigationControls struct {
	First    *Probe
	Previous *Probe
	Next     *Probe
	Last     *Probe
}

// PageToken returns a TokenFunc reading the visible text of the element at
// loc. An absent element yields the blank token, which makes traversals
// trust navigation clicks.
func PageToken(e Engine, loc Locator) TokenFunc {
	q := loc.Resolve()
	return func() (string, error) {
		ref, err := e.Resolve(q)
		if err != nil {
			if errors.Is(err, ErrElementNotFound) {
				return "", nil
			}
			return "", err
		}
		return e.Text(ref)
	}
}

// Traversal walks a paginated table as one logical sequence of records. It
// is built from the single-page rows collection, the table's navigation
// controls and its page-token reader.
type Traversal struct {
	rows     *Collection
	nav      NavigationControls
	token    TokenFunc
	maxPages int
}

// NewTraversal returns a traversal over rows. token may be nil when the
// table exposes no page token; maxPages values below 1 fall back to
// DefaultMaxPages.
func NewTraversal(rows *Collection, nav NavigationControls, token TokenFunc, maxPages int) (*Traversal, error) {
	if rows == nil {
		return nil, fmt.Errorf("%w: nil rows collection", ErrInvalidArgument)
	}
	if token == nil {
		token = func() (string, error) { return "", nil }
	}
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	return &Traversal{rows: rows, nav: nav, token: token, maxPages: maxPages}, nil
}

// CurrentPage returns the single-page rows collection the traversal is built
// on.
func (t *Traversal) CurrentPage() *Collection { return t.rows }

// withWaits derives a traversal whose rows collection waits with the given
// timeouts.
func (t *Traversal) withWaits(first, other time.Duration) *Traversal {
	clone := *t
	clone.rows = t.rows.withWaits(first, other)
	return &clone
}

// step clicks one navigation control and reports whether the page changed.
// An absent or unclickable control is a normal "no further page" outcome.
// When the table supplies no page token the click is trusted without
// verification.
func (t *Traversal) step(ctl *Probe, name string) (bool, error) {
	if ctl == nil {
		return false, nil
	}
	ok, err := ctl.Clickable()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	before, err := t.token()
	if err != nil {
		return false, err
	}
	if err := ctl.Click(); err != nil {
		return false, err
	}
	if before == "" {
		debugLog("page %s: blank page token, trusting click", name)
		return true, nil
	}
	after, err := t.token()
	if err != nil {
		return false, err
	}
	changed := after != before
	debugLog("page %s: token %q -> %q, changed=%v", name, before, after, changed)
	return changed, nil
}

// PreviousPage navigates one page back. It returns false when the previous
// control is absent or unclickable, or when the page token did not change
// after the click.
func (t *Traversal) PreviousPage() (bool, error) {
	return t.step(t.nav.Previous, "previous")
}

// NextPage navigates one page forward, with the same outcomes as
// PreviousPage.
func (t *Traversal) NextPage() (bool, error) {
	return t.step(t.nav.Next, "next")
}

// settle jumps via ctl when it is immediately clickable; otherwise it keeps
// stepping until the table stops moving. It reports whether the table
// settled before the page budget ran out.
func (t *Traversal) settle(ctl *Probe, stepper func() (bool, error)) (bool, error) {
	if ctl != nil {
		ok, err := ctl.Clickable()
		if err != nil {
			return false, err
		}
		if ok {
			if err := ctl.Click(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	for i := 0; i < t.maxPages; i++ {
		moved, err := stepper()
		if err != nil {
			return false, err
		}
		if !moved {
			return true, nil
		}
	}
	debugLog("page settle: budget exhausted after %d steps", t.maxPages)
	return false, nil
}

// FirstPage rewinds the table to its first page: one click on the first
// control when it is clickable, otherwise repeated PreviousPage calls. It
// reports whether the table settled within the page budget.
func (t *Traversal) FirstPage() (bool, error) {
	return t.settle(t.nav.First, t.PreviousPage)
}

// LastPage forwards the table to its last page, symmetric to FirstPage.
func (t *Traversal) LastPage() (bool, error) {
	return t.settle(t.nav.Last, t.NextPage)
}

// IterateOption configures one traversal iteration.
type IterateOption func(*iterateOptions)

type iterateOptions struct {
	singlePage bool
}

// SinglePage restricts an iteration to the page currently displayed: the
// iterator neither rewinds to the first page nor navigates forward. The
// override is scoped to the one call it is passed to.
func SinglePage() IterateOption {
	return func(o *iterateOptions) { o.singlePage = true }
}

// PageIterator yields the records of a paginated table across page
// boundaries as one sequence.
type PageIterator struct {
	t          *Traversal
	cursor     int
	budget     int
	singlePage bool
	ready      bool
}

// Iterate rewinds to the first page and returns an iterator over the whole
// table. With SinglePage the rewind is skipped and iteration is confined to
// the current page.
func (t *Traversal) Iterate(opts ...IterateOption) (*PageIterator, error) {
	var o iterateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.singlePage {
		settled, err := t.FirstPage()
		if err != nil {
			return nil, err
		}
		if !settled {
			debugLog("iterate: table did not settle on a first page")
		}
	}
	return &PageIterator{t: t, budget: t.maxPages, singlePage: o.singlePage}, nil
}

// HasNext reports whether another record is ready, navigating forward
// through pages as needed. Navigation stops when NextPage reports no further
// page or the page budget is exhausted.
func (it *PageIterator) HasNext() (bool, error) {
	for {
		ok, err := it.t.rows.HasRecord(it.cursor)
		if err != nil {
			return false, err
		}
		if ok {
			it.ready = true
			return true, nil
		}
		if it.singlePage || it.budget < 1 {
			return false, nil
		}
		moved, err := it.t.NextPage()
		if err != nil {
			return false, err
		}
		if !moved {
			return false, nil
		}
		it.cursor = 0
		it.budget--
	}
}

// Next returns the record found by the last successful HasNext and advances
// the cursor. Calling it without one fails with ErrNoSuchElement.
func (it *PageIterator) Next() (Record, error) {
	if !it.ready {
		return Record{}, ErrNoSuchElement
	}
	it.ready = false
	r := it.t.rows.Record(it.cursor)
	it.cursor++
	return r, nil
}

// Remove always fails: the iterator is a read-only view.
func (it *PageIterator) Remove() error { return ErrUnsupported }

// ForEach visits every record of the table across pages, invoking action on
// each.
func (t *Traversal) ForEach(action RecordAction, opts ...IterateOption) error {
	it, err := t.Iterate(opts...)
	if err != nil {
		return err
	}
	for {
		ok, err := it.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		r, err := it.Next()
		if err != nil {
			return err
		}
		if err := action(r); err != nil {
			return err
		}
	}
}

// ForEachWithWaits is ForEach with one-off presence timeouts.
func (t *Traversal) ForEachWithWaits(action RecordAction, first, other time.Duration, opts ...IterateOption) error {
	return t.withWaits(first, other).ForEach(action, opts...)
}

// OnMatch is the cross-page form of Collection.OnMatch: records anywhere in
// the table are gated, tested and acted on, stopping at the first match when
// asked. It returns the number of matches found.
func (t *Traversal) OnMatch(pred RecordPredicate, action RecordAction, stopAfterFirst bool, opts ...IterateOption) (int, error) {
	it, err := t.Iterate(opts...)
	if err != nil {
		return 0, err
	}
	matches := 0
	for {
		ok, err := it.HasNext()
		if err != nil {
			return matches, err
		}
		if !ok {
			return matches, nil
		}
		r, err := it.Next()
		if err != nil {
			return matches, err
		}
		in, err := matchGate(r, t.rows.policy)
		if err != nil {
			return matches, err
		}
		if !in {
			continue
		}
		hit, err := pred(r)
		if err != nil {
			return matches, err
		}
		if !hit {
			continue
		}
		matches++
		if action != nil {
			if err := action(r); err != nil {
				return matches, err
			}
		}
		if stopAfterFirst {
			return matches, nil
		}
	}
}

// OnMatchWithWaits is OnMatch with one-off presence timeouts.
func (t *Traversal) OnMatchWithWaits(pred RecordPredicate, action RecordAction, stopAfterFirst bool, first, other time.Duration, opts ...IterateOption) (int, error) {
	return t.withWaits(first, other).OnMatch(pred, action, stopAfterFirst, opts...)
}

// OnFirstMatch invokes action on the first record in the table matching pred
// and reports whether one was found.
func (t *Traversal) OnFirstMatch(pred RecordPredicate, action RecordAction, opts ...IterateOption) (bool, error) {
	n, err := t.OnMatch(pred, action, true, opts...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OnFirstMatchWithWaits is OnFirstMatch with one-off presence timeouts.
func (t *Traversal) OnFirstMatchWithWaits(pred RecordPredicate, action RecordAction, first, other time.Duration, opts ...IterateOption) (bool, error) {
	return t.withWaits(first, other).OnFirstMatch(pred, action, opts...)
}

// TestAll reports whether every record in the table satisfies pred,
// vacuously true over an empty table.
func (t *Traversal) TestAll(pred RecordPredicate, opts ...IterateOption) (bool, error) {
	it, err := t.Iterate(opts...)
	if err != nil {
		return false, err
	}
	for {
		ok, err := it.HasNext()
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		r, err := it.Next()
		if err != nil {
			return false, err
		}
		hit, err := pred(r)
		if err != nil {
			return false, err
		}
		if !hit {
			return false, nil
		}
	}
}

// TestAllWithWaits is TestAll with one-off presence timeouts.
func (t *Traversal) TestAllWithWaits(pred RecordPredicate, first, other time.Duration, opts ...IterateOption) (bool, error) {
	return t.withWaits(first, other).TestAll(pred, opts...)
}

// TestAny reports whether at least one record in the table satisfies pred,
// stopping at the first match.
func (t *Traversal) TestAny(pred RecordPredicate, opts ...IterateOption) (bool, error) {
	n, err := t.OnMatch(pred, nil, true, opts...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TestAnyWithWaits is TestAny with one-off presence timeouts.
func (t *Traversal) TestAnyWithWaits(pred RecordPredicate, first, other time.Duration, opts ...IterateOption) (bool, error) {
	return t.withWaits(first, other).TestAny(pred, opts...)
}

// TestExactlyOne reports whether exactly one record in the table satisfies
// pred, always scanning the whole table.
func (t *Traversal) TestExactlyOne(pred RecordPredicate, opts ...IterateOption) (bool, error) {
	n, err := t.OnMatch(pred, nil, false, opts...)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// TestExactlyOneWithWaits is TestExactlyOne with one-off presence timeouts.
func (t *Traversal) TestExactlyOneWithWaits(pred RecordPredicate, first, other time.Duration, opts ...IterateOption) (bool, error) {
	return t.withWaits(first, other).TestExactlyOne(pred, opts...)
}

// Count returns the number of records in the whole table.
func (t *Traversal) Count(opts ...IterateOption) (int, error) {
	n := 0
	err := t.ForEach(func(Record) error {
		n++
		return nil
	}, opts...)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CountWithWaits is Count with one-off presence timeouts.
func (t *Traversal) CountWithWaits(first, other time.Duration, opts ...IterateOption) (int, error) {
	return t.withWaits(first, other).Count(opts...)
}

// Elements returns handles for every record in the table. The handles are
// positional: ones from earlier pages address whatever those positions hold
// after further navigation.
func (t *Traversal) Elements(opts ...IterateOption) ([]Record, error) {
	var records []Record
	err := t.ForEach(func(r Record) error {
		records = append(records, r)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ElementsWithWaits is Elements with one-off presence timeouts.
func (t *Traversal) ElementsWithWaits(first, other time.Duration, opts ...IterateOption) ([]Record, error) {
	return t.withWaits(first, other).Elements(opts...)
}

// Texts returns the visible text of every record in the table, read as the
// iteration passes each record.
func (t *Traversal) Texts(opts ...IterateOption) ([]string, error) {
	var texts []string
	err := t.ForEach(func(r Record) error {
		s, err := r.Text()
		if err != nil {
			return err
		}
		texts = append(texts, s)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return texts, nil
}

// TextsWithWaits is Texts with one-off presence timeouts.
func (t *Traversal) TextsWithWaits(first, other time.Duration, opts ...IterateOption) ([]string, error) {
	return t.withWaits(first, other).Texts(opts...)
}
