package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/portal-bot/internal/domain/runs"
	"github.com/Spok95/portal-bot/internal/portal"
)

const dateLayout = "02.01.2006"

func fmtDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format(dateLayout)
}

func formatAvailability(catalog string, avail portal.Availability, price decimal.Decimal) string {
	if len(avail) == 0 {
		return fmt.Sprintf("По номеру %s на портале ничего не найдено.", catalog)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Наличие %s (цена %s):\n", catalog, price.StringFixed(2))
	for _, s := range avail {
		if s.Qty > 0 {
			fmt.Fprintf(&sb, "• %s: %d шт.\n", s.Location, s.Qty)
		} else {
			fmt.Fprintf(&sb, "• %s: нет, ожидается %s\n", s.Location, fmtDate(s.LeadDate))
		}
	}
	fmt.Fprintf(&sb, "Всего: %d шт.", avail.Total())
	return sb.String()
}

func formatTracking(po string, lines []portal.TrackingLine) string {
	if len(lines) == 0 {
		return fmt.Sprintf("Заказ %s не найден на портале.", po)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Отслеживание заказа %s:\n", po)
	for _, l := range lines {
		status := "не отгружен"
		if l.Status == portal.StatusShipped {
			status = "отгружен"
		}
		fmt.Fprintf(&sb, "• %s × %d — %s, дата %s", l.ItemID, l.Qty, status, fmtDate(l.ShipDate))
		if l.TrackingNumber != "" {
			fmt.Fprintf(&sb, ", %s %s", l.ShippingMethod, l.TrackingNumber)
		}
		sb.WriteString("\n")
	}
	if len(lines) > 0 && lines[0].ShippingCost.Valid {
		fmt.Fprintf(&sb, "Доставка: $%s", lines[0].ShippingCost.Decimal.StringFixed(2))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatConfirmation(po string, confs []portal.Confirmation) string {
	if len(confs) == 0 {
		return fmt.Sprintf("Заказ %s не найден на портале.", po)
	}
	c := confs[0]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Заказ %s, подтверждение № %s\n", po, orDash(c.ConfirmNumber))
	fmt.Fprintf(&sb, "Перевозчик: %s\n", orDash(c.ShippingMethod))
	fmt.Fprintf(&sb, "Адрес доставки:\n%s\n", orDash(c.Address))
	sb.WriteString("Позиции:")
	for _, it := range c.Items {
		fmt.Fprintf(&sb, "\n• %s × %d, отгрузка %s", it.CatalogNumber, it.Qty, fmtDate(it.EstimatedShipDate))
	}
	return sb.String()
}

func formatOrderSummary(req portal.OrderRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Заказ %s\n", req.OrderID)
	if req.Company != "" {
		fmt.Fprintf(&sb, "%s\n", req.Company)
	}
	if name := req.CustomerName(); name != "" {
		fmt.Fprintf(&sb, "%s\n", name)
	}
	a := req.Address
	fmt.Fprintf(&sb, "%s, %s %s %s, %s\n", a.Line1, a.City, a.State, a.PostalCode, a.Country)
	for _, it := range req.Items {
		fmt.Fprintf(&sb, "• %s × %d (%.2f)\n", it.CatalogNumber, it.Qty, it.Weight)
	}
	sb.WriteString("Проверить заказ на портале или сразу отправить?")
	return sb.String()
}

var stageText = map[portal.Stage]string{
	portal.StageNone:                "заказ не начат",
	portal.StageCartCreated:         "корзина создана",
	portal.StageWarehousesChosen:    "склады выбраны",
	portal.StageClientDetailsFilled: "данные клиента заполнены",
	portal.StageAddressVerified:     "адрес проверен",
	portal.StageOrderVerified:       "заказ проверен",
	portal.StageSubmitted:           "заказ отправлен",
}

func formatResult(req portal.OrderRequest, submit bool, res portal.OrderResult) string {
	var sb strings.Builder
	switch {
	case res.OK && submit:
		fmt.Fprintf(&sb, "✅ Заказ %s отправлен. Подтверждение № %s\n", req.OrderID, res.ConfirmationNumber)
	case res.OK:
		fmt.Fprintf(&sb, "✅ Заказ %s проверен на портале, но не отправлен.\n", req.OrderID)
	default:
		fmt.Fprintf(&sb, "❌ Заказ %s не выполнен. Последний шаг: %s.\n", req.OrderID, stageText[res.Stage])
	}
	sb.WriteString(formatAllocation(res.Allocation))
	return strings.TrimRight(sb.String(), "\n")
}

func formatAllocation(a portal.Allocation) string {
	if len(a) == 0 {
		return ""
	}
	cats := make([]string, 0, len(a))
	for c := range a {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var sb strings.Builder
	sb.WriteString("Распределение по складам:\n")
	for _, c := range cats {
		locs := make([]string, 0, len(a[c]))
		for l := range a[c] {
			locs = append(locs, l)
		}
		sort.Strings(locs)
		parts := make([]string, 0, len(locs))
		for _, l := range locs {
			parts = append(parts, fmt.Sprintf("%s: %d", l, a[c][l]))
		}
		if len(parts) == 0 {
			parts = append(parts, "—")
		}
		fmt.Fprintf(&sb, "• %s → %s\n", c, strings.Join(parts, ", "))
	}
	return sb.String()
}

func formatHistory(list []runs.Run, loc *time.Location) string {
	if len(list) == 0 {
		return "Заказов через бота ещё не было."
	}
	var sb strings.Builder
	sb.WriteString("Последние заказы:")
	for _, r := range list {
		mark := "❌"
		if r.OK {
			mark = "✅"
		}
		mode := "проверка"
		if r.Submit {
			mode = "отправка"
		}
		fmt.Fprintf(&sb, "\n%s %s %s (%s, %s)", mark, r.CreatedAt.In(loc).Format("02.01 15:04"), r.OrderID, mode, r.Stage)
		if r.Confirmation != "" {
			fmt.Fprintf(&sb, " № %s", r.Confirmation)
		}
	}
	return sb.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
