package gridwalk

import (
	"fmt"
	"time"
)

// RecordAction is invoked per visited record. A non-nil error aborts the
// scan and propagates.
type RecordAction func(r Record) error

// RecordPredicate tests one record. A non-nil error aborts the scan and
// propagates.
type RecordPredicate func(r Record) (bool, error)

// Collection is a lazy, wait-aware view over the family of elements matching
// one positional base locator. It holds no element state: every access
// rebuilds a positional query and re-reads the live page.
type Collection struct {
	engine Engine
	base   string
	policy WaitPolicy
}

// NewCollection returns a collection over the elements matching base. The
// base locator must belong to the XPath family, because positional access
// wraps it as (base)[index+1]; a CSS selector base fails fast.
func NewCollection(e Engine, base Locator, policy WaitPolicy) (*Collection, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrInvalidArgument)
	}
	q := base.Resolve()
	if q.Using != UsingXPath || q.Value == "" {
		return nil, &InvalidLocatorError{
			Strategy: base.strategy,
			Value:    base.value,
			Reason:   "collections require an xpath-family locator",
		}
	}
	return &Collection{engine: e, base: q.Value, policy: policy.normalize()}, nil
}

// Policy returns the collection's normalized wait policy.
func (c *Collection) Policy() WaitPolicy { return c.policy }

// withWaits derives a collection sharing the engine and base locator but
// waiting with the given timeouts. The usual floors apply.
func (c *Collection) withWaits(first, other time.Duration) *Collection {
	clone := *c
	clone.policy = WaitPolicy{
		FirstTimeout: first,
		OtherTimeout: other,
		PollInterval: c.policy.PollInterval,
	}.normalize()
	return &clone
}

// Record is an ephemeral handle on the collection element at one index. It
// is a plain (base, index) value: no element reference is cached, and every
// accessor re-queries live state.
type Record struct {
	engine   Engine
	base     string
	index    int
	interval time.Duration
}

// Record returns the handle for index. It never waits and never validates
// existence; pair it with HasRecord for that.
func (c *Collection) Record(index int) Record {
	return Record{engine: c.engine, base: c.base, index: index, interval: c.policy.PollInterval}
}

// Index returns the record's position within the collection.
func (r Record) Index() int { return r.index }

// Query returns the positional wire query addressing this record.
func (r Record) Query() Query {
	return Query{Using: UsingXPath, Value: fmt.Sprintf("(%s)[%d]", r.base, r.index+1)}
}

// Probe returns a probe over the record's current position.
func (r Record) Probe() *Probe {
	return newProbe(r.engine, r.Query(), r.interval)
}

// Text returns the record's visible text.
func (r Record) Text() (string, error) {
	ref, err := r.engine.Resolve(r.Query())
	if err != nil {
		return "", err
	}
	return r.engine.Text(ref)
}

// Click clicks the record.
func (r Record) Click() error {
	ref, err := r.engine.Resolve(r.Query())
	if err != nil {
		return err
	}
	return r.engine.Click(ref)
}

// HasRecord reports whether the element at index becomes present within the
// policy's bound for that index. Timing out is a normal outcome, not an
// error.
func (c *Collection) HasRecord(index int) (bool, error) {
	p := c.Record(index).Probe()
	return p.WaitPresent(c.policy.timeoutFor(index))
}

// RecordIterator walks a collection in index order. It is a read-only view
// over live state; Remove always fails with ErrUnsupported.
type RecordIterator struct {
	c      *Collection
	cursor int
}

// Iterator returns an iterator positioned before the first record.
func (c *Collection) Iterator() *RecordIterator {
	return &RecordIterator{c: c}
}

// HasNext reports whether a record is present at the cursor within the
// policy's bound.
func (it *RecordIterator) HasNext() (bool, error) {
	return it.c.HasRecord(it.cursor)
}

// Next returns the record at the cursor and advances it. Once the
// collection is exhausted it fails with ErrNoSuchElement.
func (it *RecordIterator) Next() (Record, error) {
	ok, err := it.c.HasRecord(it.cursor)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNoSuchElement
	}
	r := it.c.Record(it.cursor)
	it.cursor++
	return r, nil
}

// Remove always fails: the iterator is a read-only view.
func (it *RecordIterator) Remove() error { return ErrUnsupported }

// ForEach visits records in index order, invoking action on each, until no
// further record becomes present within the policy's bound.
func (c *Collection) ForEach(action RecordAction) error {
	for i := 0; ; i++ {
		ok, err := c.HasRecord(i)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := action(c.Record(i)); err != nil {
			return err
		}
	}
}

// ForEachWithWaits is ForEach with one-off presence timeouts.
func (c *Collection) ForEachWithWaits(action RecordAction, first, other time.Duration) error {
	return c.withWaits(first, other).ForEach(action)
}

// OnMatch visits records in index order. A record is tested against pred
// only once it is enabled, or failing that at least present, within the
// policy's bound for its index; action (which may be nil) runs on every
// match. When stopAfterFirst is set the scan stops at the first match.
// OnMatch returns the number of matches found.
func (c *Collection) OnMatch(pred RecordPredicate, action RecordAction, stopAfterFirst bool) (int, error) {
	matches := 0
	for i := 0; ; i++ {
		ok, err := c.HasRecord(i)
		if err != nil {
			return matches, err
		}
		if !ok {
			return matches, nil
		}
		r := c.Record(i)
		in, err := matchGate(r, c.policy)
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
func (c *Collection) OnMatchWithWaits(pred RecordPredicate, action RecordAction, stopAfterFirst bool, first, other time.Duration) (int, error) {
	return c.withWaits(first, other).OnMatch(pred, action, stopAfterFirst)
}

// OnFirstMatch invokes action on the first record matching pred and reports
// whether one was found.
func (c *Collection) OnFirstMatch(pred RecordPredicate, action RecordAction) (bool, error) {
	n, err := c.OnMatch(pred, action, true)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OnFirstMatchWithWaits is OnFirstMatch with one-off presence timeouts.
func (c *Collection) OnFirstMatchWithWaits(pred RecordPredicate, action RecordAction, first, other time.Duration) (bool, error) {
	return c.withWaits(first, other).OnFirstMatch(pred, action)
}

// TestAll reports whether every visited record satisfies pred. It is
// vacuously true over an empty collection and stops at the first record that
// fails.
func (c *Collection) TestAll(pred RecordPredicate) (bool, error) {
	for i := 0; ; i++ {
		ok, err := c.HasRecord(i)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		hit, err := pred(c.Record(i))
		if err != nil {
			return false, err
		}
		if !hit {
			return false, nil
		}
	}
}

// TestAllWithWaits is TestAll with one-off presence timeouts.
func (c *Collection) TestAllWithWaits(pred RecordPredicate, first, other time.Duration) (bool, error) {
	return c.withWaits(first, other).TestAll(pred)
}

// TestAny reports whether at least one record satisfies pred, stopping the
// scan at the first match.
func (c *Collection) TestAny(pred RecordPredicate) (bool, error) {
	n, err := c.OnMatch(pred, nil, true)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TestAnyWithWaits is TestAny with one-off presence timeouts.
func (c *Collection) TestAnyWithWaits(pred RecordPredicate, first, other time.Duration) (bool, error) {
	return c.withWaits(first, other).TestAny(pred)
}

// TestExactlyOne reports whether exactly one record satisfies pred. Unlike
// TestAny it always scans the whole collection.
func (c *Collection) TestExactlyOne(pred RecordPredicate) (bool, error) {
	n, err := c.OnMatch(pred, nil, false)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// TestExactlyOneWithWaits is TestExactlyOne with one-off presence timeouts.
func (c *Collection) TestExactlyOneWithWaits(pred RecordPredicate, first, other time.Duration) (bool, error) {
	return c.withWaits(first, other).TestExactlyOne(pred)
}

// Count returns the number of records present right now.
func (c *Collection) Count() (int, error) {
	n := 0
	err := c.ForEach(func(Record) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CountWithWaits is Count with one-off presence timeouts.
func (c *Collection) CountWithWaits(first, other time.Duration) (int, error) {
	return c.withWaits(first, other).Count()
}

// Elements returns handles for every record present right now.
func (c *Collection) Elements() ([]Record, error) {
	var records []Record
	err := c.ForEach(func(r Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ElementsWithWaits is Elements with one-off presence timeouts.
func (c *Collection) ElementsWithWaits(first, other time.Duration) ([]Record, error) {
	return c.withWaits(first, other).Elements()
}

// Texts returns the visible text of every record present right now.
func (c *Collection) Texts() ([]string, error) {
	var texts []string
	err := c.ForEach(func(r Record) error {
		s, err := r.Text()
		if err != nil {
			return err
		}
		texts = append(texts, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return texts, nil
}

// TextsWithWaits is Texts with one-off presence timeouts.
func (c *Collection) TextsWithWaits(first, other time.Duration) ([]string, error) {
	return c.withWaits(first, other).Texts()
}
