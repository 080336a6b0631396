package portal

import "errors"

// ErrShortfall means the warehouses together stock less than requested.
var ErrShortfall = errors.New("insufficient availability")

// placeFunc commits n units from a warehouse. It returns false when the
// warehouse cannot be used after all, in which case nothing is allocated.
type placeFunc func(location string, n int) (bool, error)

// allocate walks candidates in order, taking min(remaining, stock) from each
// warehouse with stock until qty is covered. It returns what was placed and
// how much is still missing.
func allocate(qty int, candidates Availability, place placeFunc) (map[string]int, int, error) {
	got := map[string]int{}
	remaining := qty
	for _, s := range candidates {
		if remaining <= 0 {
			break
		}
		if s.Qty <= 0 {
			continue
		}
		n := min(remaining, s.Qty)
		ok, err := place(s.Location, n)
		if err != nil {
			return got, remaining, err
		}
		if !ok {
			continue
		}
		got[s.Location] += n
		remaining -= n
	}
	return got, remaining, nil
}

// Weights is the shipped weight per warehouse.
type Weights map[string]float64

func (w Weights) Add(location string, unitWeight float64, qty int) {
	w[location] += unitWeight * float64(qty)
}

// Heavy reports whether any single warehouse ships at least threshold.
func (w Weights) Heavy(threshold float64) bool {
	for _, v := range w {
		if v >= threshold {
			return true
		}
	}
	return false
}

// shippingProfile picks the carrier profile for the shipment.
func (c Config) shippingProfile(w Weights) ShippingProfile {
	if w.Heavy(c.HeavyThreshold) {
		return c.Heavy
	}
	return c.Light
}
