// Package fixture fabricates deterministic table rows for the demo server
// and for examples.
package fixture

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
)

// Row is one fabricated ledger row.
type Row struct {
	Name   string
	Email  string
	Amount float64
}

// Text renders the row the way the demo table displays it.
func (r Row) Text() string {
	return fmt.Sprintf("%s %s $%.2f", r.Name, r.Email, r.Amount)
}

// Rows fabricates n rows. The same seed always yields the same rows.
func Rows(seed uint64, n int) []Row {
	f := gofakeit.New(seed)
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Name:   f.Name(),
			Email:  f.Email(),
			Amount: f.Price(10, 5000),
		}
	}
	return rows
}

// Pages splits rows into pages of perPage rows; the last page may be short.
func Pages(rows []Row, perPage int) [][]Row {
	if perPage < 1 {
		perPage = 1
	}
	var pages [][]Row
	for start := 0; start < len(rows); start += perPage {
		end := start + perPage
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, rows[start:end])
	}
	return pages
}
