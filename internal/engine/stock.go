package engine

import (
	"github.com/nikolayk812/cart-checkout/internal/domain"
)

type StockSource string

const (
	StockSourceLocal  StockSource = "local"
	StockSourceServer StockSource = "server"
)

type LineVerdict struct {
	Key       domain.LineKey
	Available bool
	// Source names the signal that flagged the line; empty when available.
	Source         StockSource
	LocalStock     int
	AvailableStock *int
	Reason         string
}

type StockVerdict struct {
	PerLine map[domain.LineKey]LineVerdict
	// Blocking is true when any line is out of stock under either signal.
	Blocking bool
	// Unverified is true when the live stock check could not be completed.
	Unverified bool
}

// OutOfStock returns the keys of unavailable lines in cart order.
func (v StockVerdict) OutOfStock(lines []domain.CartLine) []domain.LineKey {
	var keys []domain.LineKey
	for _, line := range lines {
		if verdict, ok := v.PerLine[line.Key()]; ok && !verdict.Available {
			keys = append(keys, line.Key())
		}
	}
	return keys
}

// StockQueries builds the bulk stock check payload for reconciled lines.
func StockQueries(lines []domain.CartLine) []domain.StockQuery {
	queries := make([]domain.StockQuery, 0, len(lines))
	for _, line := range lines {
		queries = append(queries, domain.StockQuery{Key: line.Key(), Quantity: line.Quantity})
	}
	return queries
}

// ValidateStock combines the reconciled stock of each line with the live
// stock report. Either signal can block. A failed report never clears the
// cart: it marks the verdict Unverified while the local signal still applies.
func ValidateStock(lines []domain.CartLine, report domain.StockReport) StockVerdict {
	verdict := StockVerdict{
		PerLine:    make(map[domain.LineKey]LineVerdict, len(lines)),
		Unverified: report.Err != nil,
	}

	shortages := make(map[domain.LineKey]domain.StockShortage, len(report.Shortages))
	if report.Err == nil {
		for _, s := range report.Shortages {
			shortages[s.Key] = s
		}
	}

	for _, line := range lines {
		lv := LineVerdict{
			Key:        line.Key(),
			Available:  true,
			LocalStock: line.Stock,
		}

		if line.Stock <= 0 {
			lv.Available = false
			lv.Source = StockSourceLocal
		}

		if s, ok := shortages[line.Key()]; ok {
			lv.AvailableStock = s.AvailableStock
			lv.Reason = s.Reason
			if serverShort(s, line.Quantity) && lv.Available {
				lv.Available = false
				lv.Source = StockSourceServer
			}
		}

		if !lv.Available {
			verdict.Blocking = true
		}
		verdict.PerLine[lv.Key] = lv
	}

	return verdict
}

// serverShort treats an entry without a numeric figure as out of stock.
func serverShort(s domain.StockShortage, quantity int) bool {
	if s.AvailableStock == nil {
		return true
	}
	available := *s.AvailableStock
	return available <= 0 || quantity > available
}
