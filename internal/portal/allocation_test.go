package portal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func acceptAll(string, int) (bool, error) { return true, nil }

func TestAllocateWalksWarehousesInOrder(t *testing.T) {
	avail := Availability{
		{Location: "W1", Qty: 0},
		{Location: "W2", Qty: 4},
		{Location: "W3", Qty: 10},
		{Location: "W4", Qty: 10},
	}
	var order []string
	got, remaining, err := allocate(9, avail, func(loc string, n int) (bool, error) {
		order = append(order, fmt.Sprintf("%s:%d", loc, n))
		return true, nil
	})
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Equal(t, map[string]int{"W2": 4, "W3": 5}, got)
	assert.Equal(t, []string{"W2:4", "W3:5"}, order)
}

func TestAllocateShortfall(t *testing.T) {
	avail := Availability{{Location: "W1", Qty: 2}, {Location: "W2", Qty: 3}}
	got, remaining, err := allocate(8, avail, acceptAll)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
	assert.Equal(t, map[string]int{"W1": 2, "W2": 3}, got)
}

func TestAllocateDeclinedWarehouseIsSkipped(t *testing.T) {
	avail := Availability{{Location: "W1", Qty: 5}, {Location: "W2", Qty: 5}}
	got, remaining, err := allocate(4, avail, func(loc string, _ int) (bool, error) {
		return loc != "W1", nil
	})
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Equal(t, map[string]int{"W2": 4}, got)
}

func TestAllocateStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	avail := Availability{{Location: "W1", Qty: 1}, {Location: "W2", Qty: 5}}
	calls := 0
	got, remaining, err := allocate(3, avail, func(loc string, _ int) (bool, error) {
		calls++
		if loc == "W2" {
			return false, boom
		}
		return true, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, remaining)
	assert.Equal(t, map[string]int{"W1": 1}, got)
}

func genAvailability(t *rapid.T) Availability {
	n := rapid.IntRange(0, 8).Draw(t, "warehouses")
	out := make(Availability, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Stock{
			Location: fmt.Sprintf("W%d", i),
			Qty:      rapid.IntRange(0, 50).Draw(t, fmt.Sprintf("qty%d", i)),
		})
	}
	return out
}

func TestAllocateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		avail := genAvailability(t)
		qty := rapid.IntRange(1, 200).Draw(t, "qty")
		declined := rapid.SliceOfDistinct(rapid.IntRange(0, 7), func(i int) int { return i }).Draw(t, "declined")
		skip := map[string]bool{}
		for _, i := range declined {
			skip[fmt.Sprintf("W%d", i)] = true
		}

		got, remaining, err := allocate(qty, avail, func(loc string, _ int) (bool, error) {
			return !skip[loc], nil
		})
		require.NoError(t, err)

		placed := 0
		usable := 0
		for _, s := range avail {
			if !skip[s.Location] {
				usable += s.Qty
			}
			n, ok := got[s.Location]
			if !ok {
				continue
			}
			assert.Positive(t, n)
			assert.LessOrEqual(t, n, s.Qty)
			assert.False(t, skip[s.Location])
			placed += n
		}
		assert.Len(t, got, countPositive(got))
		assert.Equal(t, qty, placed+remaining)
		assert.GreaterOrEqual(t, remaining, 0)
		assert.Equal(t, usable < qty, remaining > 0)
	})
}

func countPositive(m map[string]int) int {
	n := 0
	for _, v := range m {
		if v > 0 {
			n++
		}
	}
	return n
}

func TestWeightsHeavyIsPerWarehouse(t *testing.T) {
	cfg := Config{
		HeavyThreshold: 70,
		Heavy:          ShippingProfile{Method: "LTL"},
		Light:          ShippingProfile{Method: "UPS"},
	}

	w := Weights{}
	w.Add("W1", 10, 4)
	w.Add("W2", 7, 5)
	assert.False(t, w.Heavy(70))
	assert.Equal(t, "UPS", cfg.shippingProfile(w).Method)

	w.Add("W1", 10, 3)
	assert.True(t, w.Heavy(70))
	assert.Equal(t, "LTL", cfg.shippingProfile(w).Method)
}
