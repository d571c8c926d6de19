package gridwalk

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// matchGate decides whether a record takes part in an OnMatch scan: it must
// become enabled within the bound for its index, or failing that be at least
// present right now.
func matchGate(r Record, policy WaitPolicy) (bool, error) {
	p := r.Probe()
	ok, err := p.WaitEnabled(policy.timeoutFor(r.Index()))
	if err != nil || ok {
		return ok, err
	}
	return p.Present()
}

// TextEquals matches records whose visible text equals s.
func TextEquals(s string) RecordPredicate {
	return func(r Record) (bool, error) {
		text, err := r.Text()
		if err != nil {
			return false, err
		}
		return text == s, nil
	}
}

// TextContains matches records whose visible text contains s.
func TextContains(s string) RecordPredicate {
	return func(r Record) (bool, error) {
		text, err := r.Text()
		if err != nil {
			return false, err
		}
		return strings.Contains(text, s), nil
	}
}

// TextGlob matches records whose visible text matches pattern, using glob
// syntax ("Invoice *", "order-[0-9]*", ...).
func TextGlob(pattern string) (RecordPredicate, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile glob %q: %w", pattern, err)
	}
	return func(r Record) (bool, error) {
		text, err := r.Text()
		if err != nil {
			return false, err
		}
		return g.Match(text), nil
	}, nil
}
