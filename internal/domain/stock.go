package domain

type StockQuery struct {
	Key      LineKey
	Quantity int
}

// StockShortage is one entry of a bulk stock check response. A nil
// AvailableStock means the server withheld the item without a figure.
type StockShortage struct {
	Key            LineKey
	AvailableStock *int
	Reason         string
}

type StockReport struct {
	Shortages []StockShortage
	// Err is set when the bulk check could not be completed.
	Err error
}
