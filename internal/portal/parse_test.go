package portal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQty(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "plain", input: "12", want: 12},
		{name: "thousands and unit", input: "1,200 EA", want: 1200},
		{name: "decimal zero fraction", input: "3.000 PC", want: 3},
		{name: "surrounding space", input: "  7  ", want: 7},
		{name: "empty", input: "", wantErr: true},
		{name: "text", input: "n/a", wantErr: true},
		{name: "fraction", input: "2.5", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQty(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, errMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePrice(t *testing.T) {
	got, err := parsePrice("$1,234.50 USD")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1234.50").Equal(got))

	_, err = parsePrice("call")
	assert.ErrorIs(t, err, errMalformed)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("03/15/2024 (est.)")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *d)

	d, err = parseDate("   ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = parseDate("2024-03-15")
	assert.ErrorIs(t, err, errMalformed)
}

func TestCarrierFromURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "window.open('https://wwwapps.ups.com/WebTracking?InquiryNumber1=1Z')", want: "UPS"},
		{in: "https://www.fedex.com/apps/fedextrack/?tracknumbers=7777", want: "FEDEX"},
		{in: "https://www2.rlcarriers.com/freight/shipping/shipment-tracing?pro=1", want: "R&L CARRIERS"},
		{in: "https://example.com/track", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CarrierFromURL(tt.in), tt.in)
	}
}

func TestTrackingNumber(t *testing.T) {
	assert.Equal(t, "1Z999AA10123456784",
		trackingNumber("window.open('https://wwwapps.ups.com/WebTracking/track?loc=en_US&InquiryNumber=1Z999AA10123456784&x=1')"))
	assert.Equal(t, "7489",
		trackingNumber("window.open('https://www.fedex.com/apps/fedextrack/?action=track&tracknumbers=7489')"))
	assert.Empty(t, trackingNumber("window.open('https://www.fedex.com/')"))
}

func TestHrefArgs(t *testing.T) {
	got := hrefArgs("javascript:setValues('P-100','ABC','Coupling, rigid','0','','W1')")
	assert.Equal(t, []string{"P-100", "ABC", "Coupling, rigid", "0", "", "W1"}, got)
	assert.Empty(t, hrefArgs("javascript:void(0)"))
}
