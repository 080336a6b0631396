package portal

import "strings"

// addressTokens splits the rendered address summary on its "..." separators.
func addressTokens(summary string) []string {
	var out []string
	for _, part := range strings.Split(summary, "...") {
		if t := strings.Trim(part, " ."); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// verifyAddress checks every token against the request's name, company,
// street and city. All tokens are checked; the ones not found are returned.
func verifyAddress(req OrderRequest, tokens []string) (bool, []string) {
	fields := []string{
		req.FirstName + " " + req.LastName,
		req.Company,
		req.Address.Line1,
		req.Address.City,
	}
	haystack := strings.ToLower(strings.Join(fields, ""))

	var missing []string
	for _, t := range tokens {
		if !strings.Contains(haystack, strings.ToLower(t)) {
			missing = append(missing, t)
		}
	}
	return len(missing) == 0, missing
}

// verifyOrder compares the rendered quantities, summed per portal product id,
// with what was requested and what was allocated. All items are checked; the
// catalog numbers that disagree are returned.
func verifyOrder(req OrderRequest, productIDs map[string]string, rendered map[string]int, alloc Allocation) (bool, []string) {
	var wrong []string
	for _, it := range req.Items {
		pid, ok := productIDs[it.CatalogNumber]
		if !ok || it.Qty != rendered[pid] || it.Qty != alloc.Total(it.CatalogNumber) {
			wrong = append(wrong, it.CatalogNumber)
		}
	}
	return len(wrong) == 0, wrong
}
