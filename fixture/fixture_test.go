package fixture

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRowsDeterministic(t *testing.T) {
	a := Rows(7, 5)
	b := Rows(7, 5)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different rows (-a +b):\n%s", diff)
	}
	for i, r := range a {
		if r.Name == "" || !strings.Contains(r.Email, "@") || r.Amount < 10 || r.Amount > 5000 {
			t.Errorf("row %d has implausible fields: %+v", i, r)
		}
	}
}

func TestRowText(t *testing.T) {
	r := Row{Name: "Ada Lovelace", Email: "ada@example.com", Amount: 1234.5}
	if got, want := r.Text(), "Ada Lovelace ada@example.com $1234.50"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestPages(t *testing.T) {
	rows := Rows(1, 10)
	pages := Pages(rows, 4)
	if len(pages) != 3 {
		t.Fatalf("Pages split into %d pages, want 3", len(pages))
	}
	if len(pages[0]) != 4 || len(pages[1]) != 4 || len(pages[2]) != 2 {
		t.Errorf("page sizes = %d/%d/%d, want 4/4/2", len(pages[0]), len(pages[1]), len(pages[2]))
	}
	if got := Pages(rows, 0); len(got) != 10 {
		t.Errorf("Pages with perPage 0 produced %d pages, want one row per page", len(got))
	}
	if got := Pages(nil, 4); got != nil {
		t.Errorf("Pages(nil) = %v, want nil", got)
	}
}
