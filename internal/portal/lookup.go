package portal

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/portal-bot/internal/browser"
)

const (
	orderSearchPath = "/b2b_altra/genericsearch.do?genericsearch.name=SearchCriteria_B2B_Sales" +
		"&genericsearch.start=true&GSdateformat=mm/dd/yyyy" +
		"&GSnumberformat=%23%2c%23%230.%23%23%23&GSlanguage=EN" +
		"&GSdocumenthandlernoadd=&rc_documenttypes=ORDER&rc_status_head1=" +
		"&rc_attributesUI=last_year&rc_datetoken5=last_year" +
		"&rc_attsubcharUI=PURCHASE_ORDER&rc_po_number_uc="
	orderDetailPath = "/b2b_altra/ecombase/documentstatus/orderstatusdetail.jsp"

	lineRowsXPath      = "//table[@class='itemlist']//tr[contains(@id, 'row_')]"
	lineDetailRowXPath = "//table[@class='itemlist']//tr[contains(@id, 'rowdetail_')]"
	lineProductXPath   = "./td[@class='product']"
	lineDateXPath      = "./td[@class='date-on']"
	lineQtyXPath       = "./td[@class='qty']"
	trackingLinkXPath  = ".//a[./img[@alt='External Order Tracking']]"
	shippingCostXPath  = "//td[contains(text(), 'Shipping Costs:')]/following-sibling::td[1]"
	orderHeadingXPath  = "//h1[contains(., 'Order:')]"
	firstTrackingXPath = "//a[./img[@alt='External Order Tracking']]"
)

func poResultXPath(orderNumber string) string {
	return "//table[@summary='Search Results']//tr[./td[normalize-space(.)=" +
		browser.Literal(orderNumber) + "]]//a"
}

// searchPO opens the detail of the purchase order whose number matches
// exactly. It reports false when the order is not listed.
func (c *Client) searchPO(ctx context.Context, log *slog.Logger, orderNumber string) bool {
	if !c.ensureSession(ctx) {
		return false
	}
	drv := c.drv()
	if err := drv.Navigate(ctx, c.url(orderSearchPath+url.QueryEscape(orderNumber))); err != nil {
		log.Error("order search failed", "err", err)
		return false
	}
	link, err := drv.Find(ctx, poResultXPath(orderNumber))
	if err != nil {
		log.Info("failed to find PO #", "err", err)
		return false
	}
	if err := link.Click(); err != nil {
		log.Error("failed to open PO", "err", err)
		return false
	}
	if err := drv.Navigate(ctx, c.url(orderDetailPath)); err != nil {
		log.Error("failed to open order detail", "err", err)
		return false
	}
	return true
}

// GetTracking returns one line per shipped or pending order item. Catalog
// numbers are replaced by the portal's current ones.
func (c *Client) GetTracking(ctx context.Context, orderNumber string) []TrackingLine {
	start := time.Now()
	log := c.log.With("op", "tracking", "po", orderNumber)
	if !c.searchPO(ctx, log, orderNumber) {
		c.metrics.Observe("tracking", false, start)
		return nil
	}
	drv := c.drv()

	rows, err := drv.FindAll(ctx, lineRowsXPath)
	if err != nil {
		log.Error("failed to read order lines", "err", err)
		c.metrics.Observe("tracking", false, start)
		return nil
	}
	details, err := drv.FindAll(ctx, lineDetailRowXPath)
	if err != nil {
		log.Error("failed to read order line details", "err", err)
		c.metrics.Observe("tracking", false, start)
		return nil
	}

	var lines []TrackingLine
	for i, row := range rows {
		item, err := orderLine(row)
		if err != nil {
			log.Warn("order details processing error", "row", i, "err", err)
			continue
		}
		line := TrackingLine{
			ItemID:   item.CatalogNumber,
			Status:   StatusNotShipped,
			ShipDate: item.EstimatedShipDate,
			Qty:      item.Qty,
		}
		if i < len(details) {
			if onclick, err := trackingOnclick(details[i]); err == nil {
				line.TrackingNumber = trackingNumber(onclick)
				line.ShippingMethod = CarrierFromURL(onclick)
			} else if !isNotFound(err) {
				log.Warn("tracking link unreadable", "row", i, "err", err)
			}
		}
		if line.TrackingNumber != "" {
			line.Status = StatusShipped
		}
		lines = append(lines, line)
	}

	if cost, ok := c.shippingCost(ctx); ok && len(lines) > 0 {
		lines[0].ShippingCost = decimal.NewNullDecimal(cost)
	}

	refs := make([]*string, 0, len(lines))
	for i := range lines {
		refs = append(refs, &lines[i].ItemID)
	}
	c.canonicalize(ctx, log, refs...)

	c.metrics.Observe("tracking", true, start)
	return lines
}

// GetConfirmation reads the confirmation number, ship-to address, carrier and
// items of a purchase order. The slice holds at most one entry.
func (c *Client) GetConfirmation(ctx context.Context, orderNumber string) []Confirmation {
	start := time.Now()
	log := c.log.With("op", "confirmation", "po", orderNumber)
	if !c.searchPO(ctx, log, orderNumber) {
		c.metrics.Observe("confirmation", false, start)
		return nil
	}
	drv := c.drv()

	res := Confirmation{Items: []ConfirmationItem{}}
	if heading, err := c.textAt(ctx, orderHeadingXPath); err != nil {
		log.Warn("confirmation number not found", "err", err)
	} else if f := strings.Fields(heading); len(f) > 1 {
		res.ConfirmNumber = strings.TrimSpace(f[1])
	} else {
		log.Warn("confirmation number not found", "heading", heading)
	}

	addr, err := c.shipToAddress(ctx)
	if err != nil {
		log.Warn("ship-to address not found", "err", err)
	}
	res.Address = addr

	if link, err := drv.Find(ctx, firstTrackingXPath); err != nil {
		log.Warn("shipping method not found", "err", err)
	} else if onclick, err := link.Attr("onclick"); err != nil {
		log.Warn("shipping method not found", "err", err)
	} else {
		res.ShippingMethod = CarrierFromURL(onclick)
	}

	rows, err := drv.FindAll(ctx, lineRowsXPath)
	if err != nil {
		log.Error("failed to read order lines", "err", err)
	}
	for i, row := range rows {
		item, err := orderLine(row)
		if err != nil {
			log.Warn("order details processing error", "row", i, "err", err)
			continue
		}
		res.Items = append(res.Items, item)
	}

	refs := make([]*string, 0, len(res.Items))
	for i := range res.Items {
		refs = append(refs, &res.Items[i].CatalogNumber)
	}
	c.canonicalize(ctx, log, refs...)

	c.metrics.Observe("confirmation", true, start)
	return []Confirmation{res}
}

func orderLine(row browser.Element) (ConfirmationItem, error) {
	product, err := cellText(row, lineProductXPath)
	if err != nil {
		return ConfirmationItem{}, err
	}
	dateText, err := cellText(row, lineDateXPath)
	if err != nil {
		return ConfirmationItem{}, err
	}
	date, err := parseDate(dateText)
	if err != nil {
		return ConfirmationItem{}, err
	}
	qtyText, err := cellText(row, lineQtyXPath)
	if err != nil {
		return ConfirmationItem{}, err
	}
	qty, err := parseQty(qtyText)
	if err != nil {
		return ConfirmationItem{}, err
	}
	return ConfirmationItem{
		CatalogNumber:     strings.TrimSpace(product),
		EstimatedShipDate: date,
		Qty:               qty,
	}, nil
}

func trackingOnclick(detail browser.Element) (string, error) {
	link, err := detail.Find(trackingLinkXPath)
	if err != nil {
		return "", err
	}
	return link.Attr("onclick")
}

func (c *Client) shippingCost(ctx context.Context) (decimal.Decimal, bool) {
	text, err := c.textAt(ctx, shippingCostXPath)
	if err != nil {
		return decimal.Zero, false
	}
	cost, err := parsePrice(text)
	if err != nil || cost.IsZero() {
		return decimal.Zero, false
	}
	return cost, true
}

// shipToAddress reads the ship-to popup. The caller's surface is restored
// whether or not the popup could be read.
func (c *Client) shipToAddress(ctx context.Context) (string, error) {
	drv := c.drv()
	var lines []string
	err := browser.WithSurface(ctx, drv, func() error {
		if err := c.click(ctx, "onclick", "showShipTo", false); err != nil {
			return err
		}
		if err := drv.FocusNewestWindow(ctx); err != nil {
			return err
		}
		values := map[string]string{}
		for _, name := range []string{"lastName", "firstName", "street", "postalCode", "city"} {
			el, err := drv.Find(ctx, browser.ByAttr(inputTag, "name", name, true))
			if err != nil {
				return err
			}
			v, err := el.Value()
			if err != nil {
				return err
			}
			values[name] = v
		}
		country, err := c.selectedText(ctx, "country")
		if err != nil {
			return err
		}
		state, err := c.selectedText(ctx, "region")
		if err != nil {
			return err
		}
		lines = []string{
			values["lastName"],
			values["firstName"],
			values["street"],
			strings.Join([]string{values["city"], state, values["postalCode"], country}, " "),
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Client) selectedText(ctx context.Context, name string) (string, error) {
	el, err := c.drv().Find(ctx, browser.ByAttr("select", "name", name, true))
	if err != nil {
		return "", err
	}
	t, err := el.SelectedText()
	return strings.TrimSpace(t), err
}

// canonicalize replaces each catalog number with the one the product search
// lists first, since the vendor renames and supersedes numbers. Numbers that
// cannot be looked up are left as they are.
func (c *Client) canonicalize(ctx context.Context, log *slog.Logger, numbers ...*string) {
	if len(numbers) == 0 {
		return
	}
	drv := c.drv()
	if err := drv.Navigate(ctx, c.productSearchURL()); err != nil {
		log.Warn("failed to replace catalog numbers", "err", err)
		return
	}
	for _, n := range numbers {
		if err := c.fill(ctx, productField, *n); err != nil {
			log.Warn("failed to replace catalog number", "catalog", *n, "err", err)
			continue
		}
		if err := c.click(ctx, ".", "Search", true); err != nil {
			log.Warn("failed to replace catalog number", "catalog", *n, "err", err)
			continue
		}
		current, err := c.textAt(ctx, firstResultXPath)
		if err != nil {
			log.Warn("failed to replace catalog number", "catalog", *n, "err", err)
			continue
		}
		if current = strings.TrimSpace(current); current != "" && current != *n {
			log.Debug("catalog number replaced", "from", *n, "to", current)
			*n = current
		}
	}
}
