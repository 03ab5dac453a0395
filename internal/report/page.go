package report

import "github.com/camuig/robot-analytics/internal/trades"

// Page is one page of the record grid.
type Page struct {
	Records    []trades.TradeRecord `json:"records"`
	Number     int                  `json:"page"`
	Size       int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
	Total      int                  `json:"total"`
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages }
func (p Page) Prev() int     { return p.Number - 1 }
func (p Page) Next() int     { return p.Number + 1 }

// Paginate returns the 1-based page of records, clamping out-of-range pages.
func Paginate(records []trades.TradeRecord, number, size int) Page {
	if size <= 0 {
		size = len(records)
		if size == 0 {
			size = 1
		}
	}
	total := len(records)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := start + size
	if end > total {
		end = total
	}

	return Page{
		Records:    records[start:end],
		Number:     number,
		Size:       size,
		TotalPages: pages,
		Total:      total,
	}
}
