package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/portal-bot/internal/portal"
)

type output struct {
	w      io.Writer
	format string
}

func (o output) emit(v any, text func(tw *tabwriter.Writer)) error {
	switch o.format {
	case "json":
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text":
		tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", o.format)
	}
}

func day(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func (o output) availability(catalog string, avail portal.Availability, price decimal.Decimal) error {
	v := struct {
		CatalogNumber string              `json:"catalog_number"`
		Price         decimal.Decimal     `json:"price"`
		Stock         portal.Availability `json:"stock"`
	}{catalog, price, avail}
	return o.emit(v, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "%s\tprice %s\n", catalog, price.StringFixed(2))
		fmt.Fprintln(tw, "LOCATION\tQTY\tLEAD DATE")
		for _, s := range avail {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Location, s.Qty, day(s.LeadDate))
		}
		fmt.Fprintf(tw, "total\t%d\t\n", avail.Total())
	})
}

func (o output) tracking(lines []portal.TrackingLine) error {
	if lines == nil {
		lines = []portal.TrackingLine{}
	}
	return o.emit(lines, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ITEM\tSTATUS\tCARRIER\tTRACKING\tSHIP DATE\tQTY\tCOST")
		for _, l := range lines {
			cost := "-"
			if l.ShippingCost.Valid {
				cost = l.ShippingCost.Decimal.StringFixed(2)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				l.ItemID, l.Status, l.ShippingMethod, l.TrackingNumber, day(l.ShipDate), l.Qty, cost)
		}
	})
}

func (o output) confirmation(confs []portal.Confirmation) error {
	if confs == nil {
		confs = []portal.Confirmation{}
	}
	return o.emit(confs, func(tw *tabwriter.Writer) {
		for _, c := range confs {
			fmt.Fprintf(tw, "confirmation\t%s\n", c.ConfirmNumber)
			fmt.Fprintf(tw, "carrier\t%s\n", c.ShippingMethod)
			fmt.Fprintf(tw, "ship to\t%q\n", c.Address)
			fmt.Fprintln(tw, "ITEM\tQTY\tEST. SHIP")
			for _, it := range c.Items {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", it.CatalogNumber, it.Qty, day(it.EstimatedShipDate))
			}
		}
	})
}

func (o output) order(res portal.OrderResult) error {
	return o.emit(res, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ok\t%t\n", res.OK)
		fmt.Fprintf(tw, "stage\t%s\n", res.Stage)
		if res.ConfirmationNumber != "" {
			fmt.Fprintf(tw, "confirmation\t%s\n", res.ConfirmationNumber)
		}
		cats := make([]string, 0, len(res.Allocation))
		for c := range res.Allocation {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			locs := make([]string, 0, len(res.Allocation[c]))
			for l := range res.Allocation[c] {
				locs = append(locs, l)
			}
			sort.Strings(locs)
			for _, l := range locs {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", c, l, res.Allocation[c][l])
			}
		}
	})
}
