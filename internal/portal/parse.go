package portal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// errMalformed marks page data that was found but could not be interpreted.
var errMalformed = errors.New("malformed value")

const portalDateLayout = "01/02/2006"

var (
	trackingNumberRe = regexp.MustCompile(`&(?:InquiryNumber|tracknumbers)=(\w+)`)
	quotedArgRe      = regexp.MustCompile(`'([^']*)'`)
	priceJunkRe      = regexp.MustCompile(`[^0-9.\-]`)
)

// parseQty reads the leading number of a quantity cell such as "1,200 EA".
func parseQty(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty quantity", errMalformed)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(fields[0], ",", ""))
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q", errMalformed, s)
	}
	if !d.IsInteger() || d.IsNegative() {
		return 0, fmt.Errorf("%w: quantity %q is not a whole count", errMalformed, s)
	}
	return int(d.IntPart()), nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	clean := priceJunkRe.ReplaceAllString(s, "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: price %q", errMalformed, s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q", errMalformed, s)
	}
	return d, nil
}

func parseLeadDays(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: lead days %q", errMalformed, s)
	}
	return n, nil
}

// parseDate reads the first token of a date cell. An empty cell is absent.
func parseDate(s string) (*time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}
	t, err := time.Parse(portalDateLayout, fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", errMalformed, s)
	}
	return &t, nil
}

// CarrierFromURL infers the carrier from a tracking link.
func CarrierFromURL(s string) string {
	switch {
	case strings.Contains(s, ".ups.com"):
		return "UPS"
	case strings.Contains(s, "fedex.com"):
		return "FEDEX"
	case strings.Contains(s, "rlcarriers.com"):
		return "R&L CARRIERS"
	default:
		return ""
	}
}

func trackingNumber(onclick string) string {
	m := trackingNumberRe.FindStringSubmatch(onclick)
	if m == nil {
		return ""
	}
	return m[1]
}

// hrefArgs returns the single-quoted arguments of a javascript: link.
func hrefArgs(href string) []string {
	ms := quotedArgRe.FindAllStringSubmatch(href, -1)
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m[1])
	}
	return out
}

// isRowError reports whether err is confined to a single row of a table.
func isRowError(err error) bool {
	return errors.Is(err, errMalformed) || isNotFound(err)
}
