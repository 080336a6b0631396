package portal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidRequest = errors.New("invalid order request")

// Stock is the availability of one catalog number at one warehouse.
// LeadDate is set exactly when Qty is zero.
type Stock struct {
	Location string     `json:"location"`
	Qty      int        `json:"qty"`
	LeadDate *time.Time `json:"lead_date,omitempty"`
}

// Availability lists stock per warehouse in the order the portal shows them.
type Availability []Stock

func (a Availability) Get(location string) (Stock, bool) {
	for _, s := range a {
		if s.Location == location {
			return s, true
		}
	}
	return Stock{}, false
}

func (a Availability) Total() int {
	n := 0
	for _, s := range a {
		n += s.Qty
	}
	return n
}

// set stores s, replacing an earlier entry for the same location in place.
func (a *Availability) set(s Stock) {
	for i := range *a {
		if (*a)[i].Location == s.Location {
			(*a)[i] = s
			return
		}
	}
	*a = append(*a, s)
}

type Item struct {
	CatalogNumber string  `json:"catalog_number"`
	Qty           int     `json:"qty"`
	Weight        float64 `json:"weight"` // per unit
}

type Address struct {
	Line1      string `json:"address_1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderRequest is the input of PlaceOrder. It is never modified.
type OrderRequest struct {
	OrderID   string  `json:"order_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Company   string  `json:"company"`
	Address   Address `json:"address"`
	Items     []Item  `json:"items"`
}

// CustomerName is "first last", or empty when both are empty.
func (r OrderRequest) CustomerName() string {
	if r.FirstName == "" && r.LastName == "" {
		return ""
	}
	return r.FirstName + " " + r.LastName
}

func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.OrderID) == "" {
		return fmt.Errorf("%w: order id is empty", ErrInvalidRequest)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidRequest)
	}
	if r.Address.Country == "" {
		return fmt.Errorf("%w: country is empty", ErrInvalidRequest)
	}
	seen := make(map[string]bool, len(r.Items))
	for _, it := range r.Items {
		switch {
		case strings.TrimSpace(it.CatalogNumber) == "":
			return fmt.Errorf("%w: item without catalog number", ErrInvalidRequest)
		case it.Qty <= 0:
			return fmt.Errorf("%w: %s: qty must be > 0, got %d", ErrInvalidRequest, it.CatalogNumber, it.Qty)
		case it.Weight < 0:
			return fmt.Errorf("%w: %s: weight must be >= 0", ErrInvalidRequest, it.CatalogNumber)
		case seen[it.CatalogNumber]:
			return fmt.Errorf("%w: %s listed twice", ErrInvalidRequest, it.CatalogNumber)
		}
		seen[it.CatalogNumber] = true
	}
	return nil
}

// Allocation maps catalog number -> warehouse -> allocated quantity.
type Allocation map[string]map[string]int

func (a Allocation) Total(catalogNumber string) int {
	n := 0
	for _, q := range a[catalogNumber] {
		n += q
	}
	return n
}

// Stage is a step of the order placement workflow.
type Stage int

const (
	StageNone Stage = iota
	StageCartCreated
	StageWarehousesChosen
	StageClientDetailsFilled
	StageAddressVerified
	StageOrderVerified
	StageSubmitted
)

var stageNames = [...]string{
	"None",
	"CartCreated",
	"WarehousesChosen",
	"ClientDetailsFilled",
	"AddressVerified",
	"OrderVerified",
	"Submitted",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// OrderResult is what PlaceOrder returns. Stage is the last stage reached.
type OrderResult struct {
	OK                 bool       `json:"ok"`
	ConfirmationNumber string     `json:"confirmation_number"`
	Allocation         Allocation `json:"allocation"`
	Stage              Stage      `json:"stage"`
}

const (
	StatusShipped    = "shipped"
	StatusNotShipped = "not shipped"
)

type TrackingLine struct {
	ItemID         string              `json:"item_id"`
	Status         string              `json:"status"`
	TrackingNumber string              `json:"tracking_number"`
	ShippingMethod string              `json:"shipping_method"`
	ShipDate       *time.Time          `json:"ship_date,omitempty"`
	Qty            int                 `json:"qty"`
	ShippingCost   decimal.NullDecimal `json:"shipping_cost"`
}

type ConfirmationItem struct {
	CatalogNumber     string     `json:"catalog_number"`
	EstimatedShipDate *time.Time `json:"estimated_ship_date,omitempty"`
	Qty               int        `json:"qty"`
}

type Confirmation struct {
	Address        string             `json:"address"`
	ConfirmNumber  string             `json:"confirm_number"`
	ShippingMethod string             `json:"shipping_method"`
	Items          []ConfirmationItem `json:"items"`
}
