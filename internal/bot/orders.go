package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/portal-bot/internal/dialog"
	"github.com/Spok95/portal-bot/internal/domain/runs"
	"github.com/Spok95/portal-bot/internal/ordersheet"
	"github.com/Spok95/portal-bot/internal/portal"
)

const orderKey = "order"

func (b *Bot) startOrder(ctx context.Context, chatID int64) {
	if err := b.states.Set(ctx, chatID, dialog.StateOrderAwaitSheet, dialog.Payload{}); err != nil {
		b.log.Error("save dialog state", "chat", chatID, "err", err)
		b.sendText(chatID, "Ошибка: не удалось начать заказ.")
		return
	}
	tmpl, err := ordersheet.Template()
	if err != nil {
		b.log.Error("order template", "err", err)
		b.sendText(chatID, "Пришлите Excel-файл с заказом.")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "order_template.xlsx", Bytes: tmpl})
	doc.Caption = "Заполните шаблон и пришлите файл с заказом."
	doc.ReplyMarkup = navKeyboard()
	b.send(doc)
}

func (b *Bot) handleOrderSheet(ctx context.Context, chatID int64, d *tgbotapi.Document) {
	data, err := b.downloadTelegramFile(ctx, d.FileID)
	if err != nil {
		b.log.Error("download order sheet", "chat", chatID, "err", err)
		b.sendText(chatID, "Не удалось скачать файл, попробуйте ещё раз.")
		return
	}
	b.acceptOrderSheet(ctx, chatID, data)
}

func (b *Bot) acceptOrderSheet(ctx context.Context, chatID int64, data []byte) {
	req, err := ordersheet.Parse(data)
	switch {
	case errors.Is(err, ordersheet.ErrFormat):
		b.sendText(chatID, fmt.Sprintf("Некорректный файл: %v", err))
		return
	case errors.Is(err, portal.ErrInvalidRequest):
		b.sendText(chatID, fmt.Sprintf("Заказ заполнен не полностью: %v", err))
		return
	case err != nil:
		b.sendText(chatID, fmt.Sprintf("Не удалось прочитать заказ: %v", err))
		return
	}

	if err := b.states.Set(ctx, chatID, dialog.StateOrderAwaitDecision, dialog.Payload{orderKey: req}); err != nil {
		b.log.Error("save dialog state", "chat", chatID, "err", err)
		b.sendText(chatID, "Ошибка: не удалось сохранить заказ.")
		return
	}
	m := tgbotapi.NewMessage(chatID, formatOrderSummary(req))
	m.ReplyMarkup = orderDecisionKeyboard()
	b.send(m)
}

func (b *Bot) handleOrderDecision(ctx context.Context, cb *tgbotapi.CallbackQuery, submit bool) {
	chatID := cb.Message.Chat.ID
	st, err := b.states.Get(ctx, chatID)
	if err != nil || st.State != dialog.StateOrderAwaitDecision {
		_ = b.answerCallback(cb, "Заказ уже обработан или отменён", true)
		return
	}
	var req portal.OrderRequest
	if err := dialog.Decode(st.Payload, orderKey, &req); err != nil {
		b.log.Error("decode order from dialog", "chat", chatID, "err", err)
		_ = b.states.Reset(ctx, chatID)
		_ = b.answerCallback(cb, "Заказ потерян, начните заново", true)
		return
	}
	_ = b.states.Set(ctx, chatID, dialog.StateOrderRunning, st.Payload)

	if !b.enqueue(chatID, "place_order", func(ctx context.Context) {
		b.placeOrder(ctx, chatID, req, submit)
	}) {
		_ = b.states.Set(ctx, chatID, dialog.StateOrderAwaitDecision, st.Payload)
		_ = b.answerCallback(cb, "Портал занят", false)
		return
	}

	text := "Проверяю заказ на портале…"
	if submit {
		text = "Оформляю заказ на портале…"
	}
	b.editTextAndClear(chatID, cb.Message.MessageID, formatOrderSummary(req)+"\n\n"+text)
	_ = b.answerCallback(cb, "Принято", false)
}

func (b *Bot) placeOrder(ctx context.Context, chatID int64, req portal.OrderRequest, submit bool) {
	res := b.portal.PlaceOrder(ctx, req, submit)

	if err := b.runs.Create(ctx, runs.FromResult(chatID, req.OrderID, submit, res)); err != nil {
		b.log.Error("save placement run", "po", req.OrderID, "err", err)
	}
	if err := b.states.Reset(ctx, chatID); err != nil {
		b.log.Error("reset dialog state", "chat", chatID, "err", err)
	}

	text := formatResult(req, submit, res)
	b.sendText(chatID, text)
	if res.Stage == portal.StageSubmitted && b.adminChat != 0 && b.adminChat != chatID {
		b.sendText(b.adminChat, fmt.Sprintf("Чат %d оформил заказ на портале.\n%s", chatID, text))
	}
}
