/*
Package gridwalk treats a dynamic, possibly-not-yet-rendered list of UI
elements as an indexable, waitable sequence, and walks that sequence
transparently across paginated controls.

The package itself drives no browser. It consumes the small Engine interface;
adapters for Selenium WebDriver, Playwright and Rod live under engine/.

Example usage:

	package main

	import (
		"fmt"
		"time"

		"github.com/gridwalk/gridwalk"
		"github.com/gridwalk/gridwalk/engine/seleniumwd"
		"github.com/tebeka/selenium"
	)

	// Errors are ignored for brevity.

	func main() {
		caps := selenium.Capabilities{"browserName": "firefox"}
		wd, _ := selenium.NewRemote(caps, "")
		defer wd.Quit()
		wd.Get("https://example.com/invoices")

		eng := seleniumwd.New(wd)

		rows, _ := gridwalk.ByXPath(`//table[@id="invoices"]/tbody/tr`)
		coll, _ := gridwalk.NewCollection(eng, rows, gridwalk.WaitPolicy{
			FirstTimeout: 10 * time.Second,
			OtherTimeout: 2 * time.Second,
		})

		next, _ := gridwalk.ByID("nav-next")
		trav, _ := gridwalk.NewTraversal(coll, gridwalk.NavigationControls{
			Next: gridwalk.NewProbe(eng, next, 0),
		}, nil, 0)

		// Count rows across every page.
		n, _ := trav.Count()
		fmt.Println(n, "invoices")

		// Find one row by its text.
		found, _ := trav.OnFirstMatch(gridwalk.TextContains("overdue"), func(r gridwalk.Record) error {
			return r.Click()
		})
		fmt.Println("clicked an overdue invoice:", found)
	}

Waiting is synchronous fixed-interval polling on the calling goroutine; a
timed-out wait is a normal false outcome, never an error. One goroutine
drives one browser session: concurrent navigation calls on the same session
are not coordinated.
*/
package gridwalk
