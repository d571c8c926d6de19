package gridwalk_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gridwalk/gridwalk"
	"github.com/gridwalk/gridwalk/internal/enginetest"
)

func testTraversal(t *testing.T, e *enginetest.Engine, maxPages int) *gridwalk.Traversal {
	t.Helper()
	trav, err := gridwalk.NewTraversal(testCollection(t, e), enginetest.Nav(e, testPollInterval), e.Token, maxPages)
	if err != nil {
		t.Fatalf("NewTraversal returned error: %v", err)
	}
	return trav
}

func TestTraversalThreePages(t *testing.T) {
	e := enginetest.New(
		[]string{"r1", "r2"},
		[]string{"r3", "r4"},
		[]string{"r5", "r6"},
	)
	trav := testTraversal(t, e, 0)

	texts, err := trav.Texts()
	if err != nil {
		t.Fatalf("Texts() returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"r1", "r2", "r3", "r4", "r5", "r6"}, texts); diff != "" {
		t.Fatalf("Texts() returned diff (-want/+got):\n%s", diff)
	}
	if got := e.Clicks("next"); got != 2 {
		t.Fatalf("next clicked %d times, want 2: the disabled control on the last page must stop navigation", got)
	}
}

func TestTraversalCountRewindsFirst(t *testing.T) {
	e := enginetest.New(
		[]string{"r1", "r2"},
		[]string{"r3", "r4"},
		[]string{"r5", "r6"},
	)
	e.SetPage(2)
	trav := testTraversal(t, e, 0)

	n, err := trav.Count()
	if err != nil {
		t.Fatalf("Count() returned error: %v", err)
	}
	if n != 6 {
		t.Fatalf("Count() = %d, want 6", n)
	}
	if got := e.Clicks("first"); got != 1 {
		t.Fatalf("first clicked %d times, want 1", got)
	}
}

func TestFirstPageThenPreviousPage(t *testing.T) {
	e := enginetest.New([]string{"r1"}, []string{"r2"})
	e.Previous = enginetest.Control{AlwaysEnabled: true}
	trav := testTraversal(t, e, 0)

	settled, err := trav.FirstPage()
	if err != nil {
		t.Fatalf("FirstPage() returned error: %v", err)
	}
	if !settled {
		t.Fatalf("FirstPage() = false, want true")
	}
	if got := e.CurrentPage(); got != 0 {
		t.Fatalf("CurrentPage() = %d after FirstPage, want 0", got)
	}

	// The control is still clickable, but the click cannot change the page
	// token: no previous page.
	moved, err := trav.PreviousPage()
	if err != nil {
		t.Fatalf("PreviousPage() returned error: %v", err)
	}
	if moved {
		t.Fatalf("PreviousPage() on the first page = true, want false")
	}
}

func TestNextPageOutcomes(t *testing.T) {
	t.Run("disabled control", func(t *testing.T) {
		e := enginetest.New([]string{"r1"}, []string{"r2"})
		e.SetPage(1)
		trav := testTraversal(t, e, 0)
		moved, err := trav.NextPage()
		if err != nil {
			t.Fatalf("NextPage() returned error: %v", err)
		}
		if moved {
			t.Fatalf("NextPage() with a disabled control = true, want false")
		}
		if got := e.Clicks("next"); got != 0 {
			t.Fatalf("next clicked %d times, want 0", got)
		}
	})

	t.Run("nil control", func(t *testing.T) {
		e := enginetest.New([]string{"r1"}, []string{"r2"})
		rows := testCollection(t, e)
		trav, err := gridwalk.NewTraversal(rows, gridwalk.NavigationControls{}, e.Token, 0)
		if err != nil {
			t.Fatalf("NewTraversal returned error: %v", err)
		}
		moved, err := trav.NextPage()
		if err != nil {
			t.Fatalf("NextPage() returned error: %v", err)
		}
		if moved {
			t.Fatalf("NextPage() without a control = true, want false")
		}
	})

	t.Run("token change confirms the click", func(t *testing.T) {
		e := enginetest.New([]string{"r1"}, []string{"r2"})
		trav := testTraversal(t, e, 0)
		moved, err := trav.NextPage()
		if err != nil {
			t.Fatalf("NextPage() returned error: %v", err)
		}
		if !moved {
			t.Fatalf("NextPage() = false, want true")
		}
		if got := e.CurrentPage(); got != 1 {
			t.Fatalf("CurrentPage() = %d, want 1", got)
		}
	})

	t.Run("unchanged token means no further page", func(t *testing.T) {
		e := enginetest.New([]string{"r1"})
		e.Next = enginetest.Control{AlwaysEnabled: true}
		trav := testTraversal(t, e, 0)
		moved, err := trav.NextPage()
		if err != nil {
			t.Fatalf("NextPage() returned error: %v", err)
		}
		if moved {
			t.Fatalf("NextPage() with an unchanged token = true, want false")
		}
		if got := e.Clicks("next"); got != 1 {
			t.Fatalf("next clicked %d times, want 1", got)
		}
	})
}

func TestLastPage(t *testing.T) {
	t.Run("clickable last control jumps", func(t *testing.T) {
		e := enginetest.New([]string{"r1"}, []string{"r2"}, []string{"r3"})
		trav := testTraversal(t, e, 0)
		settled, err := trav.LastPage()
		if err != nil {
			t.Fatalf("LastPage() returned error: %v", err)
		}
		if !settled {
			t.Fatalf("LastPage() = false, want true")
		}
		if got := e.CurrentPage(); got != 2 {
			t.Fatalf("CurrentPage() = %d, want 2", got)
		}
		if got := e.Clicks("last"); got != 1 {
			t.Fatalf("last clicked %d times, want 1", got)
		}
	})

	t.Run("absent last falls back to stepping", func(t *testing.T) {
		e := enginetest.New([]string{"r1"}, []string{"r2"}, []string{"r3"})
		e.Last = enginetest.Control{Absent: true}
		trav := testTraversal(t, e, 0)
		settled, err := trav.LastPage()
		if err != nil {
			t.Fatalf("LastPage() returned error: %v", err)
		}
		if !settled {
			t.Fatalf("LastPage() = false, want true")
		}
		if got := e.CurrentPage(); got != 2 {
			t.Fatalf("CurrentPage() = %d, want 2", got)
		}
		if got := e.Clicks("next"); got != 2 {
			t.Fatalf("next clicked %d times, want 2", got)
		}
	})

	t.Run("blank token exhausts the budget", func(t *testing.T) {
		e := enginetest.New([]string{"r1"}, []string{"r2"})
		e.Last = enginetest.Control{Absent: true}
		e.Next = enginetest.Control{AlwaysEnabled: true}
		e.BlankToken = true
		trav := testTraversal(t, e, 5)
		settled, err := trav.LastPage()
		if err != nil {
			t.Fatalf("LastPage() returned error: %v", err)
		}
		if settled {
			t.Fatalf("LastPage() = true, want false: trusted clicks can never settle")
		}
		if got := e.Clicks("next"); got != 5 {
			t.Fatalf("next clicked %d times, want the full budget of 5", got)
		}
	})

	t.Run("no controls at all settles immediately", func(t *testing.T) {
		e := enginetest.New([]string{"r1"})
		e.Last = enginetest.Control{Absent: true}
		e.Next = enginetest.Control{Absent: true}
		trav := testTraversal(t, e, 5)
		settled, err := trav.LastPage()
		if err != nil {
			t.Fatalf("LastPage() returned error: %v", err)
		}
		if !settled {
			t.Fatalf("LastPage() = false, want true")
		}
	})
}

func TestPageIteratorContract(t *testing.T) {
	e := enginetest.New([]string{"r1"}, []string{"r2"})
	trav := testTraversal(t, e, 0)

	it, err := trav.Iterate()
	if err != nil {
		t.Fatalf("Iterate() returned error: %v", err)
	}

	// Next before any HasNext.
	if _, err := it.Next(); !errors.Is(err, gridwalk.ErrNoSuchElement) {
		t.Fatalf("Next() without a prior HasNext returned %v, want ErrNoSuchElement", err)
	}

	var texts []string
	for {
		ok, err := it.HasNext()
		if err != nil {
			t.Fatalf("HasNext() returned error: %v", err)
		}
		if !ok {
			break
		}
		r, err := it.Next()
		if err != nil {
			t.Fatalf("Next() returned error: %v", err)
		}
		s, err := r.Text()
		if err != nil {
			t.Fatalf("Text() returned error: %v", err)
		}
		texts = append(texts, s)
	}
	if diff := cmp.Diff([]string{"r1", "r2"}, texts); diff != "" {
		t.Fatalf("iteration returned diff (-want/+got):\n%s", diff)
	}

	if _, err := it.Next(); !errors.Is(err, gridwalk.ErrNoSuchElement) {
		t.Fatalf("Next() after exhaustion returned %v, want ErrNoSuchElement", err)
	}
	if err := it.Remove(); !errors.Is(err, gridwalk.ErrUnsupported) {
		t.Fatalf("Remove() returned %v, want ErrUnsupported", err)
	}
}

func TestPageIteratorReadyIsConsumedPerNext(t *testing.T) {
	e := enginetest.New([]string{"r1", "r2"})
	trav := testTraversal(t, e, 0)

	it, err := trav.Iterate()
	if err != nil {
		t.Fatalf("Iterate() returned error: %v", err)
	}
	if ok, err := it.HasNext(); err != nil || !ok {
		t.Fatalf("HasNext() = %v, %v, want true", ok, err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatalf("Next() returned error: %v", err)
	}
	if _, err := it.Next(); !errors.Is(err, gridwalk.ErrNoSuchElement) {
		t.Fatalf("second Next() without a fresh HasNext returned %v, want ErrNoSuchElement", err)
	}
}

func TestSinglePageScopesOneCall(t *testing.T) {
	e := enginetest.New(
		[]string{"r1", "r2"},
		[]string{"r3", "r4"},
		[]string{"r5", "r6"},
	)
	e.SetPage(1)
	trav := testTraversal(t, e, 0)

	n, err := trav.Count(gridwalk.SinglePage())
	if err != nil {
		t.Fatalf("Count(SinglePage()) returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count(SinglePage()) = %d, want 2", n)
	}
	if got := e.CurrentPage(); got != 1 {
		t.Fatalf("CurrentPage() = %d after a single-page count, want 1", got)
	}
	for _, ctl := range []string{"first", "previous", "next", "last"} {
		if got := e.Clicks(ctl); got != 0 {
			t.Fatalf("%s clicked %d times during a single-page count, want 0", ctl, got)
		}
	}

	// The override does not stick to the traversal.
	n, err = trav.Count()
	if err != nil {
		t.Fatalf("Count() returned error: %v", err)
	}
	if n != 6 {
		t.Fatalf("Count() after a single-page count = %d, want 6", n)
	}
}

func TestTraversalBudgetBoundsNavigation(t *testing.T) {
	// Pages that never show a row and a next control that always "works":
	// without the budget this would never terminate.
	e := enginetest.New([]string{}, []string{}, []string{})
	e.Next = enginetest.Control{AlwaysEnabled: true}
	e.BlankToken = true
	trav := testTraversal(t, e, 2)

	n, err := trav.Count()
	if err != nil {
		t.Fatalf("Count() returned error: %v", err)
	}
	if n != 0 {
		t.Fatalf("Count() = %d, want 0", n)
	}
	if got := e.Clicks("next"); got != 2 {
		t.Fatalf("next clicked %d times, want the full budget of 2", got)
	}
}

func TestTraversalOnMatchAcrossPages(t *testing.T) {
	e := enginetest.New([]string{"alpha", "beta"}, []string{"target", "delta"})
	trav := testTraversal(t, e, 0)

	found, err := trav.OnFirstMatch(gridwalk.TextEquals("target"), func(r gridwalk.Record) error {
		return r.Click()
	})
	if err != nil {
		t.Fatalf("OnFirstMatch returned error: %v", err)
	}
	if !found {
		t.Fatalf("OnFirstMatch = false, want true")
	}
	if got := e.Clicks("row[0]"); got != 1 {
		t.Fatalf("row[0] on the second page clicked %d times, want 1", got)
	}

	all, err := trav.TestAll(func(r gridwalk.Record) (bool, error) {
		s, err := r.Text()
		if err != nil {
			return false, err
		}
		return s != "", nil
	})
	if err != nil {
		t.Fatalf("TestAll returned error: %v", err)
	}
	if !all {
		t.Fatalf("TestAll = false, want true")
	}
}

func TestTraversalTestExactlyOneAcrossPages(t *testing.T) {
	e := enginetest.New([]string{"dup"}, []string{"dup"})
	trav := testTraversal(t, e, 0)

	ok, err := trav.TestExactlyOne(gridwalk.TextEquals("dup"))
	if err != nil {
		t.Fatalf("TestExactlyOne returned error: %v", err)
	}
	if ok {
		t.Fatalf("TestExactlyOne over a duplicate on another page = true, want false")
	}

	any, err := trav.TestAny(gridwalk.TextEquals("dup"))
	if err != nil {
		t.Fatalf("TestAny returned error: %v", err)
	}
	if !any {
		t.Fatalf("TestAny = false, want true")
	}
}

func TestPageToken(t *testing.T) {
	e := enginetest.New([]string{"r1"}, []string{"r2"})
	label, err := gridwalk.ByXPath(enginetest.PageLabelXPath)
	if err != nil {
		t.Fatalf("ByXPath(%q) returned error: %v", enginetest.PageLabelXPath, err)
	}
	token := gridwalk.PageToken(e, label)

	got, err := token()
	if err != nil {
		t.Fatalf("token() returned error: %v", err)
	}
	if got != "page 1 of 2" {
		t.Fatalf("token() = %q, want %q", got, "page 1 of 2")
	}

	// An absent token element reads as the blank token.
	absent, err := gridwalk.ByXPath(fmt.Sprintf("(%s)[9]", enginetest.RowsXPath))
	if err != nil {
		t.Fatalf("ByXPath returned error: %v", err)
	}
	token = gridwalk.PageToken(e, absent)
	got, err = token()
	if err != nil {
		t.Fatalf("token() returned error: %v", err)
	}
	if got != "" {
		t.Fatalf("token() over an absent element = %q, want blank", got)
	}
}

func TestTraversalFaultsPropagate(t *testing.T) {
	t.Run("click fault", func(t *testing.T) {
		boom := errors.New("session lost")
		e := enginetest.New([]string{"r1"}, []string{"r2"})
		e.ClickErr = boom
		trav := testTraversal(t, e, 0)
		if _, err := trav.NextPage(); !errors.Is(err, boom) {
			t.Fatalf("NextPage() returned %v, want the engine fault", err)
		}
	})

	t.Run("token fault", func(t *testing.T) {
		boom := errors.New("token read failed")
		e := enginetest.New([]string{"r1"}, []string{"r2"})
		e.TokenErr = boom
		trav := testTraversal(t, e, 0)
		if _, err := trav.NextPage(); !errors.Is(err, boom) {
			t.Fatalf("NextPage() returned %v, want the token fault", err)
		}
	})
}

func TestNewTraversalValidation(t *testing.T) {
	if _, err := gridwalk.NewTraversal(nil, gridwalk.NavigationControls{}, nil, 0); !errors.Is(err, gridwalk.ErrInvalidArgument) {
		t.Fatalf("NewTraversal(nil, ...) returned %v, want ErrInvalidArgument", err)
	}
}
