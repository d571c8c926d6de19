package gridwalk

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocatorResolve(t *testing.T) {
	tests := []struct {
		name string
		loc  func() (Locator, error)
		want Query
	}{
		{
			"ByID",
			func() (Locator, error) { return ByID("main") },
			Query{UsingXPath, `//*[@id='main']`},
		},
		{
			"ByName",
			func() (Locator, error) { return ByName("q") },
			Query{UsingXPath, `//*[@name='q']`},
		},
		{
			"ByClassName",
			func() (Locator, error) { return ByClassName("btn-primary") },
			Query{UsingXPath, `//*[contains(concat(" ", normalize-space(@class), " "), ' btn-primary ')]`},
		},
		{
			"ByTagName",
			func() (Locator, error) { return ByTagName("td") },
			Query{UsingXPath, `//td`},
		},
		{
			"ByXPath",
			func() (Locator, error) { return ByXPath(`//table[@id="records"]/tbody/tr`) },
			Query{UsingXPath, `//table[@id="records"]/tbody/tr`},
		},
		{
			"ByCSSSelector",
			func() (Locator, error) { return ByCSSSelector("table > tr.active") },
			Query{UsingCSSSelector, "table > tr.active"},
		},
		{
			"ByLinkText",
			func() (Locator, error) { return ByLinkText("Next Page") },
			Query{UsingXPath, `//a[normalize-space(.)='Next Page']`},
		},
		{
			"ByLinkText normalizes whitespace",
			func() (Locator, error) { return ByLinkText("  Next \t Page ") },
			Query{UsingXPath, `//a[normalize-space(.)='Next Page']`},
		},
		{
			"ByPartialLinkText",
			func() (Locator, error) { return ByPartialLinkText("Next") },
			Query{UsingXPath, `//a[contains(normalize-space(.), 'Next')]`},
		},
		{
			"ByID with an apostrophe",
			func() (Locator, error) { return ByID("it's") },
			Query{UsingXPath, `//*[@id="it's"]`},
		},
		{
			"ByID with double quotes",
			func() (Locator, error) { return ByID(`say "hi"`) },
			Query{UsingXPath, `//*[@id='say "hi"']`},
		},
		{
			"ByID with both quote kinds",
			func() (Locator, error) { return ByID(`it's "x"`) },
			Query{UsingXPath, `//*[@id=concat('it', "'", 's "x"')]`},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			loc, err := test.loc()
			if err != nil {
				t.Fatalf("constructing locator returned error: %v", err)
			}
			if diff := cmp.Diff(test.want, loc.Resolve()); diff != "" {
				t.Fatalf("Resolve() returned diff (-want/+got):\n%s", diff)
			}
		})
	}
}

func TestLocatorConstructionFailsFast(t *testing.T) {
	tests := []struct {
		name string
		loc  func() (Locator, error)
	}{
		{"blank id", func() (Locator, error) { return ByID("") }},
		{"whitespace id", func() (Locator, error) { return ByID("  \t") }},
		{"blank xpath", func() (Locator, error) { return ByXPath("") }},
		{"compound class", func() (Locator, error) { return ByClassName("btn primary") }},
		{"bad tag", func() (Locator, error) { return ByTagName("td[1]") }},
		{"tag starting with digit", func() (Locator, error) { return ByTagName("1td") }},
		{"unknown strategy", func() (Locator, error) { return By("partial id", "x") }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := test.loc(); err == nil {
				t.Fatalf("constructing locator succeeded, want *InvalidLocatorError")
			} else {
				var invalid *InvalidLocatorError
				if !errors.As(err, &invalid) {
					t.Fatalf("constructing locator returned %v (%T), want *InvalidLocatorError", err, err)
				}
			}
		})
	}
}

func TestBy(t *testing.T) {
	for _, strategy := range []string{
		ByIDStrategy, ByNameStrategy, ByClassNameStrategy, ByTagNameStrategy,
		ByXPathStrategy, ByCSSSelectorStrategy, ByLinkTextStrategy, ByPartialLinkTextStrategy,
	} {
		loc, err := By(strategy, "value")
		if err != nil {
			t.Fatalf("By(%q, %q) returned error: %v", strategy, "value", err)
		}
		if loc.Strategy() != strategy {
			t.Fatalf("By(%q, _).Strategy() = %q, want %q", strategy, loc.Strategy(), strategy)
		}
	}
}

func TestChain(t *testing.T) {
	mustBy := func(f func() (Locator, error)) Locator {
		t.Helper()
		loc, err := f()
		if err != nil {
			t.Fatalf("constructing locator returned error: %v", err)
		}
		return loc
	}

	tests := []struct {
		name     string
		parent   Locator
		children []Locator
		want     Query
	}{
		{
			"id then tag",
			mustBy(func() (Locator, error) { return ByID("records") }),
			[]Locator{mustBy(func() (Locator, error) { return ByTagName("tr") })},
			Query{UsingXPath, `(//*[@id='records'])//tr`},
		},
		{
			"three xpath operands",
			mustBy(func() (Locator, error) { return ByID("records") }),
			[]Locator{
				mustBy(func() (Locator, error) { return ByTagName("tr") }),
				mustBy(func() (Locator, error) { return ByTagName("td") }),
			},
			Query{UsingXPath, `((//*[@id='records'])//tr)//td`},
		},
		{
			"relative child xpath",
			mustBy(func() (Locator, error) { return ByID("records") }),
			[]Locator{mustBy(func() (Locator, error) { return ByXPath("./td") })},
			Query{UsingXPath, `(//*[@id='records'])/td`},
		},
		{
			"bare step child xpath",
			mustBy(func() (Locator, error) { return ByID("records") }),
			[]Locator{mustBy(func() (Locator, error) { return ByXPath("td[2]") })},
			Query{UsingXPath, `(//*[@id='records'])//td[2]`},
		},
		{
			"css operands",
			mustBy(func() (Locator, error) { return ByCSSSelector("table#records") }),
			[]Locator{mustBy(func() (Locator, error) { return ByCSSSelector("tr.active") })},
			Query{UsingCSSSelector, "table#records tr.active"},
		},
		{
			"no children",
			mustBy(func() (Locator, error) { return ByID("records") }),
			nil,
			Query{UsingXPath, `//*[@id='records']`},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Chain(test.parent, test.children...)
			if err != nil {
				t.Fatalf("Chain(%v, %v) returned error: %v", test.parent, test.children, err)
			}
			if diff := cmp.Diff(test.want, got.Resolve()); diff != "" {
				t.Fatalf("Chain(%v, %v).Resolve() returned diff (-want/+got):\n%s", test.parent, test.children, diff)
			}
		})
	}
}

func TestChainRejectsMixedFamilies(t *testing.T) {
	xpath, err := ByID("records")
	if err != nil {
		t.Fatalf("ByID(%q) returned error: %v", "records", err)
	}
	css, err := ByCSSSelector("tr.active")
	if err != nil {
		t.Fatalf("ByCSSSelector(%q) returned error: %v", "tr.active", err)
	}

	for _, test := range []struct {
		name             string
		parent           Locator
		child            Locator
	}{
		{"xpath parent, css child", xpath, css},
		{"css parent, xpath child", css, xpath},
		{"zero child", xpath, Locator{}},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := Chain(test.parent, test.child)
			var invalid *InvalidLocatorError
			if !errors.As(err, &invalid) {
				t.Fatalf("Chain(%v, %v) returned %v, want *InvalidLocatorError", test.parent, test.child, err)
			}
		})
	}

	if _, err := Chain(Locator{}, xpath); err == nil {
		t.Fatalf("Chain over the zero locator succeeded, want *InvalidLocatorError")
	}
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `'plain'`},
		{"it's", `"it's"`},
		{`say "hi"`, `'say "hi"'`},
		{`'`, `"'"`},
		{`a'b"c`, `concat('a', "'", 'b"c')`},
		{`''`, `concat("'", "'")`},
		{`'leading`, `concat("'", 'leading')`},
		{`trailing'`, `concat('trailing', "'")`},
	}
	for _, test := range tests {
		if got := xpathLiteral(test.in); got != test.want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", test.in, got, test.want)
		}
	}
}
