package portal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/portal-bot/internal/browser/browsertest"
)

type warehouseOffer struct {
	location  string
	productID string
	stock     int
}

// orderEntryPages serves cart creation, the product popup, the ship-to form
// and the simulated order page. offers are keyed by catalog number.
func orderEntryPages(d *browsertest.Driver, offers map[string][]warehouseOffer, summary string) {
	stock := map[string][]*browsertest.Node{}
	for cat, ws := range offers {
		for _, w := range ws {
			stock[cat] = append(stock[cat], stockRowNode(fmt.Sprint(w.stock), "$1.00", "2", w.location))
		}
	}
	productSearchPage(d, stock, nil)

	d.Set(actionX("onclick", "create_order", false), browsertest.NewNode("Create order"))
	d.Set(positionCountXPath, browsertest.NewNode(""))
	d.Set(actionX("onclick", "submit_refresh", false), browsertest.NewNode("Refresh"))

	d.Set(actionX("onclick", "getHelpValuesPopupProduct", false), browsertest.NewNode("").OnClick(func(d *browsertest.Driver) {
		d.Popups = 1
	}))
	d.Set(inputX("product"), browsertest.NewNode(""))
	d.Set(actionX(".", "Search", false), browsertest.NewNode("Search").OnClick(func(d *browsertest.Driver) {
		cat := d.Node(inputX("product")).Filled()
		for _, ws := range offers {
			for _, w := range ws {
				d.Remove(warehouseLinkXPath(w.location))
			}
		}
		for _, w := range offers[cat] {
			href := fmt.Sprintf("javascript:setValues('%s','%s-old','Coupling','0','','%s')", w.productID, cat, w.location)
			d.Set(warehouseLinkXPath(w.location), browsertest.NewNode(w.location).WithAttr("href", href))
		}
	}))

	for _, name := range []string{
		"lastName", "firstName", "street", "city", "postalCode",
		"telephoneNumber", "faxNumber", "poNumber", "incoterms2", "textZ004",
	} {
		d.Set(inputX(name), browsertest.NewNode(""))
	}
	d.Set(selectX("country"), browsertest.NewNode(""))
	d.Set(selectX("region"), browsertest.NewNode(""))
	d.Set(selectIDX("zFreightForwarder"), browsertest.NewNode(""))
	d.Set(selectIDX("incoterms1"), browsertest.NewNode(""))
	for _, onclick := range []string{"newShipTo", "saveForm", "submit_simulate"} {
		d.Set(actionX("onclick", onclick, false), browsertest.NewNode(onclick))
	}
	d.Set(actionX("href", `toggleText("text_1")`, false), browsertest.NewNode("Comment"))

	d.Set(addressSummaryXPath, browsertest.NewNode(summary))
}

func renderedRow(productID string, qty int) *browsertest.Node {
	return browsertest.NewNode("").
		WithChild(orderProductXPath, browsertest.NewNode(" "+productID+" ")).
		WithChild(orderQtyXPath, browsertest.NewNode(fmt.Sprintf("%d EA", qty)))
}

func placementRequest() OrderRequest {
	r := sampleRequest()
	r.Items = []Item{
		{CatalogNumber: "A-1", Qty: 3, Weight: 25},
		{CatalogNumber: "B-2", Qty: 1, Weight: 4},
	}
	return r
}

var placementOffers = map[string][]warehouseOffer{
	"A-1": {{"W0", "P-A", 0}, {"W1", "P-A", 2}, {"W2", "P-A", 5}},
	"B-2": {{"W1", "P-B", 9}},
}

const goodSummary = "Acme Gear ... Ann Lee ... 12 Mill Rd ... Springfield"

func newPlacementClient(t *testing.T) (*Client, *browsertest.Driver) {
	t.Helper()
	c, d, _ := newTestClient(t)
	loginPage(d)
	orderEntryPages(d, placementOffers, goodSummary)
	d.Set(orderRowsXPath, renderedRow("P-A", 2), renderedRow("P-A", 1), renderedRow("P-B", 1))
	return c, d
}

func TestPlaceOrderVerifiedWithoutSubmit(t *testing.T) {
	c, d := newPlacementClient(t)

	res := c.PlaceOrder(context.Background(), placementRequest(), false)

	assert.True(t, res.OK)
	assert.Equal(t, StageOrderVerified, res.Stage)
	assert.Empty(t, res.ConfirmationNumber)
	assert.Equal(t, Allocation{
		"A-1": {"W1": 2, "W2": 1},
		"B-2": {"W1": 1},
	}, res.Allocation)

	assert.Equal(t, "15", d.Node(positionCountXPath).Selected())

	require.Len(t, d.Calls, 3)
	for i, want := range []struct {
		product string
		qty     string
		line    int
	}{{"P-A", "2", 1}, {"P-A", "1", 2}, {"P-B", "1", 3}} {
		call := d.Calls[i]
		assert.Equal(t, injectLineJS, call.Script)
		assert.Equal(t, want.product, call.Args[0])
		assert.Equal(t, want.qty, call.Args[3])
		assert.Equal(t, want.line, call.Args[len(call.Args)-1])
	}

	assert.Equal(t, "Acme Gear", d.Node(inputX("lastName")).Filled())
	assert.Equal(t, "Ann Lee", d.Node(inputX("firstName")).Filled())
	assert.Equal(t, "555-0100", d.Node(inputX("telephoneNumber")).Filled())
	assert.Equal(t, "US", d.Node(selectX("country")).Selected())
	assert.Equal(t, "IL", d.Node(selectX("region")).Selected())
	assert.Equal(t, "PO-1001", d.Node(inputX("poNumber")).Filled())
	// W1 ships 2*25+4 = 54, under the heavy threshold
	assert.Equal(t, "UPSG", d.Node(selectIDX("zFreightForwarder")).Selected())
	assert.Equal(t, "COL", d.Node(selectIDX("incoterms1")).Selected())
	assert.Equal(t, "A1B2C3", d.Node(inputX("incoterms2")).Filled())
	assert.Equal(t, "ground", d.Node(inputX("textZ004")).Filled())
	assert.Equal(t, 1, d.Node(actionX("onclick", "submit_simulate", false)).Clicks())
	assert.False(t, d.Closed)
}

func TestPlaceOrderHeavyShipment(t *testing.T) {
	c, d, _ := newTestClient(t)
	loginPage(d)
	orderEntryPages(d, map[string][]warehouseOffer{
		"A-1": {{"W1", "P-A", 10}},
		"B-2": {{"W1", "P-B", 10}},
	}, goodSummary)
	d.Set(orderRowsXPath, renderedRow("P-A", 2), renderedRow("P-B", 1))

	req := placementRequest()
	req.Items[0] = Item{CatalogNumber: "A-1", Qty: 2, Weight: 20}
	req.Items[1] = Item{CatalogNumber: "B-2", Qty: 1, Weight: 35}

	res := c.PlaceOrder(context.Background(), req, false)
	require.True(t, res.OK)
	// 40 + 35 = 75 from one warehouse
	assert.Equal(t, "LTL", d.Node(selectIDX("zFreightForwarder")).Selected())
	assert.Equal(t, "PPA", d.Node(selectIDX("incoterms1")).Selected())
}

func TestPlaceOrderPersonWithoutCompany(t *testing.T) {
	c, d := newPlacementClient(t)
	req := placementRequest()
	req.Company = ""
	req.Address.Country = "DE"
	d.Node(addressSummaryXPath).SetText("Ann Lee ... 12 Mill Rd ... Springfield")

	res := c.PlaceOrder(context.Background(), req, false)
	require.True(t, res.OK)
	assert.Equal(t, "Ann Lee", d.Node(inputX("lastName")).Filled())
	assert.Empty(t, d.Node(inputX("firstName")).Filled())
	assert.Empty(t, d.Node(selectX("region")).Selected())
}

func TestPlaceOrderSubmits(t *testing.T) {
	c, d := newPlacementClient(t)
	d.Set(inputX("termsAccepted"), browsertest.NewNode(""))
	d.Set(actionX("onclick", "sendPressed", false), browsertest.NewNode("Send").OnClick(func(d *browsertest.Driver) {
		d.Set(confirmationXPath, browsertest.NewNode(""))
		d.Set(confirmNumberXPath, browsertest.NewNode(" 4500999 "))
	}))

	res := c.PlaceOrder(context.Background(), placementRequest(), true)

	assert.True(t, res.OK)
	assert.Equal(t, StageSubmitted, res.Stage)
	assert.Equal(t, "4500999", res.ConfirmationNumber)
	assert.Equal(t, 1, d.Node(inputX("termsAccepted")).Clicks())
	assert.Equal(t, autoConfirmJS, d.Calls[len(d.Calls)-1].Script)
}

func TestPlaceOrderSubmitWithoutConfirmation(t *testing.T) {
	c, d := newPlacementClient(t)
	d.Set(inputX("termsAccepted"), browsertest.NewNode(""))
	d.Set(actionX("onclick", "sendPressed", false), browsertest.NewNode("Send"))

	res := c.PlaceOrder(context.Background(), placementRequest(), true)

	assert.False(t, res.OK)
	assert.Equal(t, StageOrderVerified, res.Stage)
	assert.Empty(t, res.ConfirmationNumber)
	assert.NotEmpty(t, res.Allocation)
}

func TestPlaceOrderShortfallKeepsPartialAllocation(t *testing.T) {
	c, d := newPlacementClient(t)
	req := placementRequest()
	req.Items[0].Qty = 10

	res := c.PlaceOrder(context.Background(), req, true)

	assert.False(t, res.OK)
	assert.Equal(t, StageCartCreated, res.Stage)
	assert.Equal(t, Allocation{"A-1": {"W1": 2, "W2": 5}}, res.Allocation)
	assert.Zero(t, d.Node(actionX("onclick", "newShipTo", false)).Clicks())
	assert.Equal(t, "0/isaTop/work_history/form_input", d.Focus())
	assert.False(t, d.Closed)
}

func TestPlaceOrderWarehouseNotOffered(t *testing.T) {
	c, d := newPlacementClient(t)
	// the popup stops offering W2 after the search ran
	search := d.Node(actionX(".", "Search", false))
	d.Set(actionX(".", "Search", false), browsertest.NewNode("Search").OnClick(func(d *browsertest.Driver) {
		_ = search.Click()
		d.Remove(warehouseLinkXPath("W2"))
	}))

	res := c.PlaceOrder(context.Background(), placementRequest(), false)

	assert.False(t, res.OK)
	assert.Equal(t, StageCartCreated, res.Stage)
	assert.Equal(t, Allocation{"A-1": {"W1": 2}}, res.Allocation)
}

func TestPlaceOrderMalformedWarehouseLink(t *testing.T) {
	c, d := newPlacementClient(t)
	search := d.Node(actionX(".", "Search", false))
	d.Set(actionX(".", "Search", false), browsertest.NewNode("Search").OnClick(func(d *browsertest.Driver) {
		_ = search.Click()
		d.Set(warehouseLinkXPath("W1"), browsertest.NewNode("W1").WithAttr("href", "javascript:void(0)"))
	}))

	res := c.PlaceOrder(context.Background(), placementRequest(), false)

	assert.False(t, res.OK)
	assert.Equal(t, StageCartCreated, res.Stage)
	assert.Empty(t, res.Allocation["A-1"])
	assert.False(t, d.Closed)
}

func TestPlaceOrderLineCapacity(t *testing.T) {
	c, d := newPlacementClient(t)
	c.cfg.LineCapacity = 2

	res := c.PlaceOrder(context.Background(), placementRequest(), false)

	assert.False(t, res.OK)
	assert.Equal(t, StageCartCreated, res.Stage)
	assert.Equal(t, "2", d.Node(positionCountXPath).Selected())
	assert.Equal(t, Allocation{"A-1": {"W1": 2, "W2": 1}, "B-2": {}}, res.Allocation)
	assert.Len(t, d.Calls, 2)
}

func TestPlaceOrderAddressMismatch(t *testing.T) {
	c, d := newPlacementClient(t)
	d.Node(addressSummaryXPath).SetText("Acme Gear ... 99 Elm St ... Shelbyville")

	res := c.PlaceOrder(context.Background(), placementRequest(), true)

	assert.False(t, res.OK)
	assert.Equal(t, StageClientDetailsFilled, res.Stage)
	assert.Equal(t, 3, res.Allocation.Total("A-1"))
}

func TestPlaceOrderQuantityMismatch(t *testing.T) {
	c, d := newPlacementClient(t)
	d.Set(orderRowsXPath, renderedRow("P-A", 2), renderedRow("P-B", 1))

	res := c.PlaceOrder(context.Background(), placementRequest(), true)

	assert.False(t, res.OK)
	assert.Equal(t, StageAddressVerified, res.Stage)
}

func TestPlaceOrderUnreadableOrderRow(t *testing.T) {
	c, d := newPlacementClient(t)
	d.Set(orderRowsXPath, renderedRow("P-A", 3), browsertest.NewNode("broken"))

	res := c.PlaceOrder(context.Background(), placementRequest(), false)

	assert.False(t, res.OK)
	assert.Equal(t, StageAddressVerified, res.Stage)
	assert.False(t, d.Closed)
}

func TestPlaceOrderDriverFailureTearsDown(t *testing.T) {
	c, d := newPlacementClient(t)
	d.FailFind[positionCountXPath] = errors.New("websocket closed")

	res := c.PlaceOrder(context.Background(), placementRequest(), true)

	assert.False(t, res.OK)
	assert.Equal(t, StageNone, res.Stage)
	assert.Empty(t, res.Allocation)
	assert.NotNil(t, res.Allocation)
	assert.True(t, d.Closed)
	assert.False(t, c.Ready())
}

func TestPlaceOrderAvailabilityDriverFailureTearsDown(t *testing.T) {
	ctx := context.Background()
	c, d, l := newTestClient(t)
	loginPage(d)
	orderEntryPages(d, placementOffers, goodSummary)
	d.Set(orderRowsXPath, renderedRow("P-A", 2), renderedRow("P-A", 1), renderedRow("P-B", 1))
	d.FailFind[inputX(productField)] = errors.New("websocket closed")

	res := c.PlaceOrder(ctx, placementRequest(), false)

	assert.False(t, res.OK)
	assert.Equal(t, StageNone, res.Stage)
	assert.Empty(t, res.Allocation)
	assert.True(t, d.Closed)
	assert.False(t, c.Ready())

	delete(d.FailFind, inputX(productField))
	res = c.PlaceOrder(ctx, placementRequest(), false)

	assert.True(t, res.OK)
	assert.Equal(t, StageOrderVerified, res.Stage)
	assert.Equal(t, 2, l.Launches)
}

func TestPlaceOrderDriverFailureAfterAllocation(t *testing.T) {
	c, d := newPlacementClient(t)
	d.FailFind[inputX("street")] = errors.New("target crashed")

	res := c.PlaceOrder(context.Background(), placementRequest(), true)

	assert.False(t, res.OK)
	assert.Equal(t, StageWarehousesChosen, res.Stage)
	assert.Empty(t, res.Allocation)
	assert.True(t, d.Closed)
}

func TestPlaceOrderInvalidRequest(t *testing.T) {
	c, _, l := newTestClient(t)
	req := placementRequest()
	req.Items[0].Qty = 0

	res := c.PlaceOrder(context.Background(), req, true)

	assert.False(t, res.OK)
	assert.Equal(t, StageNone, res.Stage)
	assert.Zero(t, l.Launches)
}
