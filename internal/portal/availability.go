package portal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/portal-bot/internal/browser"
)

const (
	productSearchPath = "/b2b_altra/base/helpvalues.do?helpValuesSearch=Product&KUNNR[1]=%s&parameterIndex=1"

	productField     = "product[1]"
	descriptionField = "MAKTG[1]"

	itemRowsXPath      = "//table[@class='itemlist']//tr"
	firstResultXPath   = "//table[@class='itemlist']//tr[2]/td[2]/a"
	stockQtyXPath      = "./td[7]/a"
	stockPriceXPath    = "./td[9]/a"
	stockLeadDaysXPath = "./td[11]/a"
	stockLocationXPath = "./td[14]/a"
)

// GetAvailability looks a catalog number up in the product search, falling
// back to a description search when the number finds nothing. It returns
// stock per warehouse, the last unit price seen and whether the lookup ran.
func (c *Client) GetAvailability(ctx context.Context, catalogNumber string) (Availability, decimal.Decimal, bool) {
	start := time.Now()
	log := c.log.With("op", "availability", "catalog", catalogNumber)

	if !c.ensureSession(ctx) {
		c.metrics.Observe("availability", false, start)
		return nil, decimal.Zero, false
	}
	avail, price, err := c.availability(ctx, log, catalogNumber)
	if err != nil {
		log.Error("availability lookup failed", "err", err)
		c.metrics.Observe("availability", false, start)
		return nil, decimal.Zero, false
	}
	c.metrics.Observe("availability", true, start)
	return avail, price, true
}

func (c *Client) productSearchURL() string {
	return c.url(fmt.Sprintf(productSearchPath, c.cfg.CustomerNumber))
}

func (c *Client) availability(ctx context.Context, log *slog.Logger, catalogNumber string) (Availability, decimal.Decimal, error) {
	if err := c.drv().Navigate(ctx, c.productSearchURL()); err != nil {
		return nil, decimal.Zero, err
	}
	rows, err := c.searchProduct(ctx, catalogNumber, productField)
	if err != nil {
		return nil, decimal.Zero, err
	}
	// the first row is the table header
	if len(rows) <= 1 {
		log.Debug("no match by catalog number, searching by description")
		if rows, err = c.searchProduct(ctx, catalogNumber, descriptionField); err != nil {
			return nil, decimal.Zero, err
		}
	}

	avail := Availability{}
	price := decimal.Zero
	for i := 1; i < len(rows); i++ {
		s, p, err := c.stockRow(rows[i])
		if err != nil {
			if !isRowError(err) {
				return nil, decimal.Zero, err
			}
			log.Warn("skipping availability row", "row", i, "err", err)
			continue
		}
		avail.set(s)
		price = p
	}
	return avail, price, nil
}

func (c *Client) searchProduct(ctx context.Context, text, field string) ([]browser.Element, error) {
	for _, name := range []string{productField, descriptionField} {
		if err := c.fill(ctx, name, ""); err != nil {
			return nil, err
		}
	}
	if err := c.fill(ctx, field, text); err != nil {
		return nil, err
	}
	if err := c.click(ctx, ".", "Search", true); err != nil {
		return nil, err
	}
	return c.drv().FindAll(ctx, itemRowsXPath)
}

func (c *Client) stockRow(row browser.Element) (Stock, decimal.Decimal, error) {
	qtyText, err := cellText(row, stockQtyXPath)
	if err != nil {
		return Stock{}, decimal.Zero, err
	}
	qty, err := parseQty(qtyText)
	if err != nil {
		return Stock{}, decimal.Zero, err
	}
	location, err := cellText(row, stockLocationXPath)
	if err != nil {
		return Stock{}, decimal.Zero, err
	}
	leadText, err := cellText(row, stockLeadDaysXPath)
	if err != nil {
		return Stock{}, decimal.Zero, err
	}
	leadDays, err := parseLeadDays(leadText)
	if err != nil {
		return Stock{}, decimal.Zero, err
	}
	priceText, err := cellText(row, stockPriceXPath)
	if err != nil {
		return Stock{}, decimal.Zero, err
	}
	price, err := parsePrice(priceText)
	if err != nil {
		return Stock{}, decimal.Zero, err
	}

	s := Stock{Location: strings.TrimSpace(location), Qty: qty}
	if qty == 0 {
		d := c.cal.LeadDate(leadDays)
		s.LeadDate = &d
	}
	return s, price, nil
}
