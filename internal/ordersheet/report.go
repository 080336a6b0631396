package ordersheet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/portal-bot/internal/portal"
)

const dateLayout = "2006-01-02"

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// AvailabilityReport lists stock per warehouse, one row per location.
func AvailabilityReport(catalogNumber string, avail portal.Availability, price decimal.Decimal) ([]byte, error) {
	rows := [][]any{
		{"catalog_number", catalogNumber},
		{"unit_price", price.StringFixed(2)},
		{},
		{"location", "qty", "lead_date"},
	}
	for _, s := range avail {
		rows = append(rows, []any{s.Location, s.Qty, date(s.LeadDate)})
	}
	rows = append(rows, []any{"total", avail.Total()})
	return build("availability", rows)
}

// TrackingReport lists the tracking lines of a purchase order.
func TrackingReport(orderNumber string, lines []portal.TrackingLine) ([]byte, error) {
	rows := [][]any{
		{"po", orderNumber},
		{},
		{"item_id", "status", "tracking_number", "shipping_method", "ship_date", "qty", "shipping_cost"},
	}
	for _, l := range lines {
		cost := ""
		if l.ShippingCost.Valid {
			cost = l.ShippingCost.Decimal.StringFixed(2)
		}
		rows = append(rows, []any{
			l.ItemID, l.Status, l.TrackingNumber, l.ShippingMethod, date(l.ShipDate), l.Qty, cost,
		})
	}
	return build("tracking", rows)
}
