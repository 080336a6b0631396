// Package ordersheet converts between .xlsx workbooks and portal values.
//
// An order sheet has a header block of "field | value" rows followed by an
// item table introduced by a "catalog_number | qty | weight" row:
//
//	order_id     | PO-1001
//	first_name   | Ann
//	...
//	catalog_number | qty | weight
//	6A-100         | 3   | 2.5
package ordersheet

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/portal-bot/internal/portal"
)

var ErrFormat = errors.New("order sheet format")

const itemsMarker = "catalog_number"

var headerFields = []string{
	"order_id", "first_name", "last_name", "company",
	"address_1", "city", "state", "postal_code", "country",
}

// Parse reads an order request from the active sheet of an .xlsx file.
// The request is validated before it is returned.
func Parse(data []byte) (portal.OrderRequest, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return portal.OrderRequest{}, fmt.Errorf("%w: not an .xlsx file: %v", ErrFormat, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return portal.OrderRequest{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	var req portal.OrderRequest
	inItems := false
	for i, row := range rows {
		line := i + 1
		key := strings.ToLower(cell(row, 0))
		if key == "" {
			continue
		}
		if key == itemsMarker {
			inItems = true
			continue
		}
		if !inItems {
			if err := setField(&req, key, cell(row, 1)); err != nil {
				return portal.OrderRequest{}, fmt.Errorf("%w: row %d: %v", ErrFormat, line, err)
			}
			continue
		}
		it, err := parseItem(row)
		if err != nil {
			return portal.OrderRequest{}, fmt.Errorf("%w: row %d: %v", ErrFormat, line, err)
		}
		req.Items = append(req.Items, it)
	}
	if !inItems {
		return portal.OrderRequest{}, fmt.Errorf("%w: no %q row before the items", ErrFormat, itemsMarker)
	}
	if err := req.Validate(); err != nil {
		return portal.OrderRequest{}, err
	}
	return req, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func setField(req *portal.OrderRequest, key, value string) error {
	switch key {
	case "order_id":
		req.OrderID = value
	case "first_name":
		req.FirstName = value
	case "last_name":
		req.LastName = value
	case "company":
		req.Company = value
	case "address_1":
		req.Address.Line1 = value
	case "city":
		req.Address.City = value
	case "state":
		req.Address.State = strings.ToUpper(value)
	case "postal_code":
		req.Address.PostalCode = value
	case "country":
		req.Address.Country = strings.ToUpper(value)
	default:
		return fmt.Errorf("unknown field %q", key)
	}
	return nil
}

func parseItem(row []string) (portal.Item, error) {
	it := portal.Item{CatalogNumber: cell(row, 0)}
	qty, err := strconv.Atoi(cell(row, 1))
	if err != nil {
		return it, fmt.Errorf("qty %q of %s is not a whole number", cell(row, 1), it.CatalogNumber)
	}
	it.Qty = qty
	if w := cell(row, 2); w != "" {
		it.Weight, err = strconv.ParseFloat(strings.ReplaceAll(w, ",", "."), 64)
		if err != nil {
			return it, fmt.Errorf("weight %q of %s is not a number", w, it.CatalogNumber)
		}
	}
	return it, nil
}

// Template is an empty order sheet to fill in.
func Template() ([]byte, error) {
	rows := make([][]any, 0, len(headerFields)+2)
	for _, k := range headerFields {
		rows = append(rows, []any{k, ""})
	}
	rows = append(rows, []any{}, []any{itemsMarker, "qty", "weight"})
	return build("order", rows)
}

// Write renders req in the order sheet layout Parse reads.
func Write(req portal.OrderRequest) ([]byte, error) {
	values := []string{
		req.OrderID, req.FirstName, req.LastName, req.Company,
		req.Address.Line1, req.Address.City, req.Address.State, req.Address.PostalCode, req.Address.Country,
	}
	rows := make([][]any, 0, len(headerFields)+len(req.Items)+2)
	for i, k := range headerFields {
		rows = append(rows, []any{k, values[i]})
	}
	rows = append(rows, []any{}, []any{itemsMarker, "qty", "weight"})
	for _, it := range req.Items {
		rows = append(rows, []any{it.CatalogNumber, it.Qty, it.Weight})
	}
	return build("order", rows)
}

func build(sheetName string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, sheetName); err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, addr, &r); err != nil {
			return nil, err
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
