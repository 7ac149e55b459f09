package ingest

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

// Order-platform header names, matched case-insensitively.
const (
	OrdersDayColumn      = "Day"
	OrdersColumn         = "Orders"
	OrdersFallbackColumn = "Total orders"
)

// OrdersResult is the parsed order-platform upload.
type OrdersResult struct {
	Rows    []models.OrderRow `json:"rows"`
	Read    int               `json:"read"`
	Skipped int               `json:"skipped"`
}

// Total sums Orders across all rows.
func (r *OrdersResult) Total() int {
	n := 0
	for _, row := range r.Rows {
		n += row.Orders
	}
	return n
}

// ParseOrdersCSV parses raw order-platform CSV text.
func ParseOrdersCSV(text string, opt Options) (*OrdersResult, error) {
	recs, err := ReadRecords("orders.csv", strings.NewReader(text), opt)
	if err != nil {
		return nil, &FormatError{Source: "orders", Reason: "unreadable csv", Err: err}
	}
	return ParseOrders(recs, opt)
}

// ParseOrders sums order counts per calendar day. Rows whose day does not parse
// are skipped; an unparsable count contributes 0.
func ParseOrders(records [][]string, opt Options) (*OrdersResult, error) {
	opt = opt.normalized()
	if len(records) < 2 {
		return nil, formatErr("orders", "file is empty or has no data rows")
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = cleanField(h)
	}
	dayIdx := columnIndex(header, OrdersDayColumn)
	ordersIdx := columnIndex(header, OrdersColumn)
	if ordersIdx < 0 {
		ordersIdx = columnIndex(header, OrdersFallbackColumn)
	}
	if dayIdx < 0 || ordersIdx < 0 {
		return nil, formatErr("orders", "header must contain 'Day' and either 'Orders' or 'Total orders'")
	}
	need := max(dayIdx, ordersIdx)

	res := &OrdersResult{}
	daily := make(map[string]int)
	for _, rec := range records[1:] {
		res.Read++
		if len(rec) <= need {
			res.Skipped++
			continue
		}
		day, ok := ParseDay(rec[dayIdx], opt.DateOrder)
		if !ok {
			res.Skipped++
			continue
		}
		daily[day] += parseOrderCount(cleanField(rec[ordersIdx]), opt.DecimalSeparator)
	}
	if len(daily) == 0 {
		return nil, formatErr("orders", "no rows with a valid day")
	}

	res.Rows = make([]models.OrderRow, 0, len(daily))
	for day, n := range daily {
		res.Rows = append(res.Rows, models.OrderRow{Day: day, Orders: n})
	}
	sort.Slice(res.Rows, func(i, j int) bool { return res.Rows[i].Day < res.Rows[j].Day })
	return res, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}
