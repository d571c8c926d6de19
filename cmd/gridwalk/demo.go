package main

import (
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gridwalk/gridwalk/fixture"
	"github.com/gridwalk/gridwalk/pagespec"
)

var (
	demoRows    int
	demoPerPage int
	demoSeed    uint64
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Serve a fabricated paginated ledger and walk it end to end",
	Long: `Demo starts a throwaway HTTP server on a loopback port, fills it with
fabricated ledger rows split across pages, and walks the whole table
through the configured engine. It fails if the walk does not collect
exactly the rows the server rendered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := fixture.Rows(demoSeed, demoRows)
		pages := fixture.Pages(rows, demoPerPage)
		if len(pages) == 0 {
			pages = [][]fixture.Row{nil}
		}

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: demoHandler(pages)}
		go srv.Serve(ln)
		defer srv.Close()

		s, err := connectEngine(cfg)
		if err != nil {
			return err
		}
		defer s.close()

		spec := demoSpec("http://" + ln.Addr().String() + "/")
		if err := s.navigate(spec.URL); err != nil {
			return err
		}
		t, err := spec.Traversal(s.engine, cfg.WaitPolicy(), cfg.MaxPages)
		if err != nil {
			return err
		}
		texts, err := t.Texts()
		if err != nil {
			return err
		}
		if len(texts) != len(rows) {
			return fmt.Errorf("traversal collected %d rows, fixture has %d", len(texts), len(rows))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "walked %d pages, %d rows:\n", len(pages), len(texts))
		for _, text := range texts {
			fmt.Fprintln(cmd.OutOrStdout(), text)
		}
		return nil
	},
}

func init() {
	demoCmd.Flags().IntVar(&demoRows, "rows", 12, "number of ledger rows to fabricate")
	demoCmd.Flags().IntVar(&demoPerPage, "per-page", 5, "rows per page")
	demoCmd.Flags().Uint64Var(&demoSeed, "seed", 1, "fixture seed")
}

// demoSpec describes the page demoHandler serves.
func demoSpec(url string) *pagespec.Spec {
	return &pagespec.Spec{
		Name: "demo ledger",
		URL:  url,
		Rows: pagespec.LocatorSpec{By: "xpath", Value: `//table[@id="records"]/tbody/tr`},
		Nav: pagespec.NavSpec{
			First:    &pagespec.LocatorSpec{By: "xpath", Value: `//*[@id="nav-first"]`},
			Previous: &pagespec.LocatorSpec{By: "xpath", Value: `//*[@id="nav-previous"]`},
			Next:     &pagespec.LocatorSpec{By: "xpath", Value: `//*[@id="nav-next"]`},
			Last:     &pagespec.LocatorSpec{By: "xpath", Value: `//*[@id="nav-last"]`},
		},
		PageToken: &pagespec.LocatorSpec{By: "xpath", Value: `//*[@id="page-label"]`},
	}
}

type navButton struct {
	Value    int
	Disabled template.HTMLAttr
}

type demoPage struct {
	Page  int
	Total int
	Rows  []fixture.Row
	First navButton
	Prev  navButton
	Next  navButton
	Last  navButton
}

// The nav buttons submit the GET form; only the clicked button's
// name/value pair lands in the query string.
var demoTemplate = template.Must(template.New("demo").Parse(`<!DOCTYPE html>
<html>
<head><title>gridwalk demo ledger</title></head>
<body>
<table id="records">
<tbody>
{{range .Rows}}<tr><td>{{.Name}}</td><td>{{.Email}}</td><td>{{printf "$%.2f" .Amount}}</td></tr>
{{end}}</tbody>
</table>
<form method="get" action="/">
<button id="nav-first" name="page" value="{{.First.Value}}"{{.First.Disabled}}>First</button>
<button id="nav-previous" name="page" value="{{.Prev.Value}}"{{.Prev.Disabled}}>Previous</button>
<button id="nav-next" name="page" value="{{.Next.Value}}"{{.Next.Disabled}}>Next</button>
<button id="nav-last" name="page" value="{{.Last.Value}}"{{.Last.Disabled}}>Last</button>
</form>
<span id="page-label">page {{.Page}} of {{.Total}}</span>
</body>
</html>
`))

func demoHandler(pages [][]fixture.Row) http.Handler {
	total := len(pages)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if v := r.URL.Query().Get("page"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				page = n
			}
		}
		if page < 1 {
			page = 1
		}
		if page > total {
			page = total
		}
		data := demoPage{
			Page:  page,
			Total: total,
			Rows:  pages[page-1],
			First: navButton{Value: 1, Disabled: disabledAttr(page == 1)},
			Prev:  navButton{Value: page - 1, Disabled: disabledAttr(page == 1)},
			Next:  navButton{Value: page + 1, Disabled: disabledAttr(page == total)},
			Last:  navButton{Value: total, Disabled: disabledAttr(page == total)},
		}
		if err := demoTemplate.Execute(w, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func disabledAttr(disabled bool) template.HTMLAttr {
	if disabled {
		return " disabled"
	}
	return ""
}
