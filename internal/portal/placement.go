package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/portal-bot/internal/browser"
)

const (
	positionCountXPath  = "//*[@id='newposcount']"
	addressSummaryXPath = "(//div[@class='header-itemdefault']//td[@class='value'])[1]"
	orderRowsXPath      = "//td[@class='product']/parent::tr"
	orderProductXPath   = ".//td[@class='product']"
	orderQtyXPath       = ".//td[@class='qty']"
	confirmationXPath   = "//body[@class='confirmation']"
	confirmNumberXPath  = "(//table[@class='header-general']//td[@class='value'])[1]"

	// injectLineJS fills one row of the order form in the opener window.
	// Arguments are the row's field values followed by the 1-based row index.
	injectLineJS = `function () {
		var fields = ["product", "ZZBISMT", "MAKTG", "quantity", "NAME2", "VSTEL", "plant",
			"LAND1", "AVAILQTY", "MEINS", "UNIT_PRICE", "LIST_PRICE", "DZEIT",
			"NAME1", "STRAS", "ORT01", "REGIO", "PSTLZ"];
		var form = opener.document.forms["order_positions"];
		var index = arguments[arguments.length - 1];
		for (var i = 0; i < arguments.length - 1 && i < fields.length; i++) {
			var field = form.elements[fields[i] + "[" + index + "]"];
			if (field != null) {
				field.value = arguments[i];
			}
		}
	}`

	// headless browsers cannot answer native confirm dialogs
	autoConfirmJS = `function () { window.confirm = function () { return true; }; }`
)

var orderFormFrames = []string{"isaTop", "work_history", "form_input"}

var errCapacity = errors.New("order form has no free line")

func warehouseLinkXPath(location string) string {
	return "//table[@class='itemlist']//a[normalize-space(.)=" + browser.Literal(location) + "]"
}

// plan is what choosing warehouses produced so far.
type plan struct {
	Allocation Allocation
	Weights    Weights
	// ProductIDs maps catalog number to the id the portal assigned the line.
	ProductIDs map[string]string
}

func newPlan() plan {
	return plan{Allocation: Allocation{}, Weights: Weights{}, ProductIDs: map[string]string{}}
}

// PlaceOrder fills a new order for req, allocating each item across
// warehouses in the order the portal lists them, and verifies what the
// portal rendered against the request. The order is only sent when submit
// is true.
//
// A logical failure returns the allocation made so far. A browser failure
// discards the session and returns an empty allocation.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest, submit bool) (res OrderResult) {
	start := time.Now()
	log := c.log.With("op", "place_order", "po", req.OrderID, "submit", submit)
	defer func() {
		c.metrics.Observe("place_order", res.OK, start)
		c.metrics.Stage(res.Stage.String())
	}()

	if err := req.Validate(); err != nil {
		log.Error("order rejected", "err", err)
		return OrderResult{Allocation: Allocation{}}
	}
	if !c.ensureSession(ctx) {
		return OrderResult{Allocation: Allocation{}}
	}

	stocks := make(map[string]Availability, len(req.Items))
	for _, it := range req.Items {
		avail, err := c.prefetchAvailability(ctx, log, it.CatalogNumber)
		if err != nil {
			if isRowError(err) {
				log.Error("availability unknown, order not started", "catalog", it.CatalogNumber, "err", err)
			} else {
				log.Error("availability unknown, discarding browser session", "catalog", it.CatalogNumber, "err", err)
				c.teardown()
			}
			return OrderResult{Allocation: Allocation{}}
		}
		stocks[it.CatalogNumber] = avail
	}

	res, err := c.placeOrder(ctx, log, req, stocks, submit)
	if err != nil {
		log.Error("order placement aborted, discarding browser session", "stage", res.Stage.String(), "err", err)
		c.teardown()
		return OrderResult{Allocation: Allocation{}, Stage: res.Stage}
	}
	return res
}

// prefetchAvailability is GetAvailability without the session check, so the
// caller sees why a lookup failed.
func (c *Client) prefetchAvailability(ctx context.Context, log *slog.Logger, catalogNumber string) (Availability, error) {
	start := time.Now()
	avail, _, err := c.availability(ctx, log.With("catalog", catalogNumber), catalogNumber)
	c.metrics.Observe("availability", err == nil, start)
	return avail, err
}

func (c *Client) placeOrder(ctx context.Context, log *slog.Logger, req OrderRequest, stocks map[string]Availability, submit bool) (OrderResult, error) {
	res := OrderResult{Allocation: Allocation{}}

	if err := c.createCart(ctx); err != nil {
		return res, fmt.Errorf("create cart: %w", err)
	}
	res.Stage = StageCartCreated

	p, ok, err := c.chooseWarehouses(ctx, log, req, stocks)
	res.Allocation = p.Allocation
	if err != nil {
		return res, fmt.Errorf("choose warehouses: %w", err)
	}
	if !ok {
		return res, nil
	}
	res.Stage = StageWarehousesChosen

	if err := c.fillClientDetails(ctx, req, p.Weights); err != nil {
		return res, fmt.Errorf("client details: %w", err)
	}
	res.Stage = StageClientDetailsFilled

	addrOK, orderOK, err := c.verifyPlaced(ctx, log, req, p)
	if err != nil {
		return res, fmt.Errorf("verify order: %w", err)
	}
	if !addrOK {
		return res, nil
	}
	res.Stage = StageAddressVerified
	if !orderOK {
		return res, nil
	}
	res.Stage = StageOrderVerified

	if !submit {
		res.OK = true
		log.Info("order verified, not submitted")
		return res, nil
	}

	number, ok := c.submitOrder(ctx, log)
	if !ok {
		return res, nil
	}
	res.Stage = StageSubmitted
	res.OK = true
	res.ConfirmationNumber = number
	log.Info("order submitted", "confirmation", number)
	return res, nil
}

func (c *Client) createCart(ctx context.Context) error {
	drv := c.drv()
	if err := drv.Navigate(ctx, c.url(c.cfg.HomePath)); err != nil {
		return err
	}
	if err := drv.EnterFrames(ctx, orderFormFrames...); err != nil {
		return err
	}
	if err := c.click(ctx, "onclick", "create_order", false); err != nil {
		return err
	}
	size, err := drv.WaitVisible(ctx, positionCountXPath, c.cfg.WaitTimeout)
	if err != nil {
		return err
	}
	if err := size.SelectValue(strconv.Itoa(c.cfg.LineCapacity)); err != nil {
		return fmt.Errorf("extend item table: %w", err)
	}
	return c.click(ctx, "onclick", "submit_refresh", false)
}

// chooseWarehouses allocates every item through the product popup and writes
// each allocation into a line of the order form. ok is false when an item
// cannot be fully covered; err is set only for browser failures.
func (c *Client) chooseWarehouses(ctx context.Context, log *slog.Logger, req OrderRequest, stocks map[string]Availability) (plan, bool, error) {
	p := newPlan()
	drv := c.drv()
	if err := c.click(ctx, "onclick", "getHelpValuesPopupProduct", false); err != nil {
		return p, false, err
	}

	ok := true
	err := browser.WithSurface(ctx, drv, func() error {
		if err := drv.FocusNewestWindow(ctx); err != nil {
			return err
		}
		line := 1
		for _, it := range req.Items {
			if err := c.fill(ctx, "product", it.CatalogNumber); err != nil {
				return err
			}
			if err := c.click(ctx, ".", "Search", false); err != nil {
				return err
			}

			got, remaining, err := allocate(it.Qty, stocks[it.CatalogNumber], func(location string, n int) (bool, error) {
				if line > c.cfg.LineCapacity {
					return false, errCapacity
				}
				link, err := drv.Find(ctx, warehouseLinkXPath(location))
				if isNotFound(err) {
					log.Debug("warehouse not offered", "catalog", it.CatalogNumber, "location", location)
					return false, nil
				}
				if err != nil {
					return false, err
				}
				href, err := link.Attr("href")
				if err != nil {
					return false, err
				}
				args := hrefArgs(href)
				if len(args) < 4 {
					return false, fmt.Errorf("%w: warehouse link %q", errMalformed, href)
				}
				p.ProductIDs[it.CatalogNumber] = args[0]
				args[3] = strconv.Itoa(n)
				if err := c.injectLine(ctx, args, line); err != nil {
					return false, err
				}
				p.Weights.Add(location, it.Weight, n)
				line++
				return true, nil
			})
			p.Allocation[it.CatalogNumber] = got

			switch {
			case errors.Is(err, errCapacity) || errors.Is(err, errMalformed):
				log.Warn("cannot choose warehouse", "catalog", it.CatalogNumber, "err", err)
				ok = false
				return nil
			case err != nil:
				return err
			case remaining > 0:
				log.Warn("cannot cover item", "catalog", it.CatalogNumber,
					"requested", it.Qty, "missing", remaining, "err", ErrShortfall)
				ok = false
				return nil
			}
		}
		return nil
	})
	return p, ok, err
}

func (c *Client) injectLine(ctx context.Context, values []string, line int) error {
	args := make([]any, 0, len(values)+1)
	for _, v := range values {
		args = append(args, v)
	}
	args = append(args, line)
	return c.drv().Exec(ctx, injectLineJS, args...)
}

func (c *Client) fillClientDetails(ctx context.Context, req OrderRequest, weights Weights) error {
	drv := c.drv()
	if err := drv.FocusPrimaryWindow(ctx); err != nil {
		return err
	}
	if err := drv.EnterFrames(ctx, orderFormFrames...); err != nil {
		return err
	}
	if err := c.click(ctx, "onclick", "newShipTo", false); err != nil {
		return err
	}

	lastName, firstName := req.CustomerName(), ""
	if req.Company != "" {
		lastName, firstName = req.Company, req.CustomerName()
	}
	fields := []struct{ name, text string }{
		{"lastName", lastName},
		{"firstName", firstName},
		{"street", req.Address.Line1},
		{"city", req.Address.City},
		{"postalCode", req.Address.PostalCode},
		{"telephoneNumber", c.cfg.Phone},
		{"faxNumber", c.cfg.Fax},
	}
	for _, f := range fields {
		if err := c.fill(ctx, f.name, f.text); err != nil {
			return err
		}
	}

	country := req.Address.Country
	if err := c.selectByName(ctx, "country", country); err != nil {
		return err
	}
	if country == "US" || country == "CA" {
		if err := c.selectByName(ctx, "region", req.Address.State); err != nil {
			return err
		}
	}
	if err := c.click(ctx, "onclick", "saveForm", false); err != nil {
		return err
	}

	if err := c.fill(ctx, "poNumber", req.OrderID); err != nil {
		return err
	}
	profile := c.cfg.shippingProfile(weights)
	if err := c.selectByID(ctx, "zFreightForwarder", profile.Method); err != nil {
		return err
	}
	if err := c.selectByID(ctx, "incoterms1", profile.Incoterm); err != nil {
		return err
	}
	if err := c.fill(ctx, "incoterms2", profile.Account); err != nil {
		return err
	}
	if err := c.click(ctx, "href", `toggleText("text_1")`, false); err != nil {
		return err
	}
	if err := c.fill(ctx, "textZ004", profile.Comment); err != nil {
		return err
	}
	return c.click(ctx, "onclick", "submit_simulate", false)
}

// verifyPlaced checks the simulated order page. Both checks always run.
func (c *Client) verifyPlaced(ctx context.Context, log *slog.Logger, req OrderRequest, p plan) (addrOK, orderOK bool, err error) {
	summary, err := c.textAt(ctx, addressSummaryXPath)
	if err != nil {
		return false, false, err
	}
	addrOK, missing := verifyAddress(req, addressTokens(summary))
	for _, m := range missing {
		log.Warn("order verification: address not found", "token", m)
	}

	rendered, err := c.renderedQuantities(ctx)
	if err != nil {
		if !isRowError(err) {
			return addrOK, false, err
		}
		log.Warn("product/qty processing error", "err", err)
		return addrOK, false, nil
	}
	orderOK, wrong := verifyOrder(req, p.ProductIDs, rendered, p.Allocation)
	for _, w := range wrong {
		log.Warn("order verification: wrong qty selected", "catalog", w)
	}
	return addrOK, orderOK, nil
}

// renderedQuantities sums the order table per product; a product split
// across warehouses shows up on several rows.
func (c *Client) renderedQuantities(ctx context.Context) (map[string]int, error) {
	rows, err := c.drv().FindAll(ctx, orderRowsXPath)
	if err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		product, err := cellText(row, orderProductXPath)
		if err != nil {
			return nil, err
		}
		qtyText, err := cellText(row, orderQtyXPath)
		if err != nil {
			return nil, err
		}
		qty, err := parseQty(qtyText)
		if err != nil {
			return nil, err
		}
		out[strings.TrimSpace(product)] += qty
	}
	return out, nil
}

func (c *Client) submitOrder(ctx context.Context, log *slog.Logger) (string, bool) {
	drv := c.drv()
	number, err := func() (string, error) {
		terms, err := drv.Find(ctx, browser.ByAttr(inputTag, "name", "termsAccepted", true))
		if err != nil {
			return "", err
		}
		if err := terms.Click(); err != nil {
			return "", err
		}
		if err := drv.Exec(ctx, autoConfirmJS); err != nil {
			return "", err
		}
		if err := c.click(ctx, "onclick", "sendPressed", false); err != nil {
			return "", err
		}
		if _, err := drv.WaitVisible(ctx, confirmationXPath, c.cfg.WaitTimeout); err != nil {
			return "", err
		}
		text, err := c.textAt(ctx, confirmNumberXPath)
		return strings.TrimSpace(text), err
	}()
	if err != nil {
		log.Error("confirmation error: failed to confirm order", "err", err)
		return "", false
	}
	return number, true
}
