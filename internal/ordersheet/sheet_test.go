package ordersheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/portal-bot/internal/portal"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	data, err := build("order", rows)
	require.NoError(t, err)
	return data
}

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	return rows
}

func TestParse(t *testing.T) {
	data := workbook(t, [][]any{
		{"order_id", "PO-1001"},
		{"first_name", "Ann"},
		{"last_name", "Lee"},
		{"Company", "Acme Gear"},
		{"address_1", "12 Mill Rd"},
		{"city", "Springfield"},
		{"state", "il"},
		{"postal_code", "62701"},
		{"country", "us"},
		{},
		{"catalog_number", "qty", "weight"},
		{"6A-100", "3", "2,5"},
		{"7B-200", 1},
	})

	req, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "PO-1001", req.OrderID)
	assert.Equal(t, "Acme Gear", req.Company)
	assert.Equal(t, "IL", req.Address.State)
	assert.Equal(t, "US", req.Address.Country)
	assert.Equal(t, []portal.Item{
		{CatalogNumber: "6A-100", Qty: 3, Weight: 2.5},
		{CatalogNumber: "7B-200", Qty: 1},
	}, req.Items)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
	}{
		{"unknown field", [][]any{{"order_id", "PO"}, {"colour", "red"}, {"catalog_number"}}},
		{"no item table", [][]any{{"order_id", "PO"}, {"country", "US"}}},
		{"bad qty", [][]any{{"order_id", "PO"}, {"country", "US"}, {"catalog_number"}, {"A", "two"}}},
		{"bad weight", [][]any{{"order_id", "PO"}, {"country", "US"}, {"catalog_number"}, {"A", "2", "heavy"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(workbook(t, tt.rows))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}

	_, err := Parse([]byte("not a workbook"))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Parse(workbook(t, [][]any{{"order_id", "PO"}, {"country", "US"}, {"catalog_number"}}))
	assert.ErrorIs(t, err, portal.ErrInvalidRequest)
}

func TestWriteThenParse(t *testing.T) {
	req := portal.OrderRequest{
		OrderID: "PO-7", FirstName: "Bo", LastName: "Chan",
		Address: portal.Address{Line1: "1 Main St", City: "Toronto", State: "ON", PostalCode: "M5V", Country: "CA"},
		Items:   []portal.Item{{CatalogNumber: "X-1", Qty: 4, Weight: 1.25}},
	}
	data, err := Write(req)
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestTemplateHasEveryField(t *testing.T) {
	data, err := Template()
	require.NoError(t, err)
	rows := readRows(t, data)

	var keys []string
	for _, r := range rows {
		if len(r) > 0 {
			keys = append(keys, r[0])
		}
	}
	assert.Equal(t, append(append([]string{}, headerFields...), itemsMarker), keys)
}

func TestAvailabilityReport(t *testing.T) {
	lead := time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC)
	data, err := AvailabilityReport("6A-100", portal.Availability{
		{Location: "W1", Qty: 5},
		{Location: "W2", Qty: 0, LeadDate: &lead},
	}, decimal.RequireFromString("3.5"))
	require.NoError(t, err)

	rows := readRows(t, data)
	assert.Equal(t, []string{"unit_price", "3.50"}, rows[1])
	assert.Equal(t, []string{"W1", "5"}, rows[4])
	assert.Equal(t, []string{"W2", "0", "2024-03-19"}, rows[5])
	assert.Equal(t, []string{"total", "5"}, rows[6])
}

func TestTrackingReport(t *testing.T) {
	data, err := TrackingReport("PO 77", []portal.TrackingLine{
		{ItemID: "6A-100", Status: portal.StatusShipped, TrackingNumber: "1Z9", ShippingMethod: "UPS", Qty: 2,
			ShippingCost: decimal.NewNullDecimal(decimal.RequireFromString("18.4"))},
		{ItemID: "7B-200", Status: portal.StatusNotShipped, Qty: 5},
	})
	require.NoError(t, err)

	rows := readRows(t, data)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"6A-100", "shipped", "1Z9", "UPS", "", "2", "18.40"}, rows[3])
	assert.Equal(t, []string{"7B-200", "not shipped", "", "", "", "5"}, rows[4])
}
