package bot

import (
	"context"
	"fmt"

	"github.com/Spok95/portal-bot/internal/ordersheet"
)

func (b *Bot) runAvailability(chatID int64, catalog string) {
	if !b.enqueue(chatID, "availability", func(ctx context.Context) {
		avail, price, ok := b.portal.GetAvailability(ctx, catalog)
		if !ok {
			b.sendText(chatID, "Не удалось получить наличие: портал недоступен.")
			return
		}
		b.sendText(chatID, formatAvailability(catalog, avail, price))
		if len(avail) == 0 {
			return
		}
		data, err := ordersheet.AvailabilityReport(catalog, avail, price)
		if err != nil {
			b.log.Error("availability report", "catalog", catalog, "err", err)
			return
		}
		b.sendFile(chatID, fileStamp("availability", catalog), data, "")
	}) {
		return
	}
	b.sendText(chatID, fmt.Sprintf("Проверяю наличие %s…", catalog))
}

func (b *Bot) runTracking(chatID int64, po string) {
	if !b.enqueue(chatID, "tracking", func(ctx context.Context) {
		lines := b.portal.GetTracking(ctx, po)
		b.sendText(chatID, formatTracking(po, lines))
		if len(lines) == 0 {
			return
		}
		data, err := ordersheet.TrackingReport(po, lines)
		if err != nil {
			b.log.Error("tracking report", "po", po, "err", err)
			return
		}
		b.sendFile(chatID, fileStamp("tracking", po), data, "")
	}) {
		return
	}
	b.sendText(chatID, fmt.Sprintf("Ищу заказ %s…", po))
}

func (b *Bot) runConfirmation(chatID int64, po string) {
	if !b.enqueue(chatID, "confirmation", func(ctx context.Context) {
		b.sendText(chatID, formatConfirmation(po, b.portal.GetConfirmation(ctx, po)))
	}) {
		return
	}
	b.sendText(chatID, fmt.Sprintf("Ищу заказ %s…", po))
}

func (b *Bot) showHistory(ctx context.Context, chatID int64) {
	list, err := b.runs.ListByChat(ctx, chatID, 10)
	if err != nil {
		b.log.Error("list placement runs", "chat", chatID, "err", err)
		b.sendText(chatID, "Ошибка загрузки истории.")
		return
	}
	b.sendText(chatID, formatHistory(list, b.loc))
}
