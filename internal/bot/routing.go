package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/portal-bot/internal/dialog"
)

const helpText = `Команды:
/avail <каталожный номер> — наличие по складам
/track <PO> — отслеживание заказа
/confirm <PO> — подтверждение заказа
/order — новый заказ из Excel-файла
/history — последние заказы
/cancel — отменить текущее действие
/help — помощь`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	arg := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		m := tgbotapi.NewMessage(chatID, helpText)
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)

	case "avail":
		b.startLookup(ctx, chatID, arg, dialog.StateAvailAwaitCatalog, "Введите каталожный номер:", b.runAvailability)

	case "track":
		b.startLookup(ctx, chatID, arg, dialog.StateTrackAwaitPO, "Введите номер PO:", b.runTracking)

	case "confirm":
		b.startLookup(ctx, chatID, arg, dialog.StateConfirmAwaitPO, "Введите номер PO:", b.runConfirmation)

	case "order":
		b.startOrder(ctx, chatID)

	case "history":
		b.showHistory(ctx, chatID)

	case "cancel":
		_ = b.states.Reset(ctx, chatID)
		b.sendText(chatID, "Операция отменена.")

	default:
		b.sendText(chatID, "Не знаю такую команду. Наберите /help")
	}
}

// startLookup runs the lookup right away when the argument came with the
// command, otherwise asks for it.
func (b *Bot) startLookup(ctx context.Context, chatID int64, arg string, await dialog.State, prompt string, run func(chatID int64, arg string)) {
	if arg != "" {
		_ = b.states.Reset(ctx, chatID)
		run(chatID, arg)
		return
	}
	if err := b.states.Set(ctx, chatID, await, dialog.Payload{}); err != nil {
		b.log.Error("save dialog state", "chat", chatID, "err", err)
	}
	m := tgbotapi.NewMessage(chatID, prompt)
	m.ReplyMarkup = navKeyboard()
	b.send(m)
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	// Нижняя панель
	switch text {
	case btnAvail:
		b.startLookup(ctx, chatID, "", dialog.StateAvailAwaitCatalog, "Введите каталожный номер:", b.runAvailability)
		return
	case btnTrack:
		b.startLookup(ctx, chatID, "", dialog.StateTrackAwaitPO, "Введите номер PO:", b.runTracking)
		return
	case btnConfirm:
		b.startLookup(ctx, chatID, "", dialog.StateConfirmAwaitPO, "Введите номер PO:", b.runConfirmation)
		return
	case btnOrder:
		b.startOrder(ctx, chatID)
		return
	case btnHistory:
		b.showHistory(ctx, chatID)
		return
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("load dialog state", "chat", chatID, "err", err)
		b.sendText(chatID, "Ошибка: не удалось загрузить состояние диалога.")
		return
	}

	switch st.State {
	case dialog.StateAvailAwaitCatalog, dialog.StateTrackAwaitPO, dialog.StateConfirmAwaitPO:
		if text == "" {
			b.sendText(chatID, "Нужен текст, попробуйте ещё раз.")
			return
		}
		_ = b.states.Reset(ctx, chatID)
		switch st.State {
		case dialog.StateAvailAwaitCatalog:
			b.runAvailability(chatID, text)
		case dialog.StateTrackAwaitPO:
			b.runTracking(chatID, text)
		default:
			b.runConfirmation(chatID, text)
		}

	case dialog.StateOrderAwaitSheet:
		if msg.Document == nil {
			b.sendText(chatID, "Пришлите, пожалуйста, Excel-файл (.xlsx) с заказом.")
			return
		}
		b.handleOrderSheet(ctx, chatID, msg.Document)

	case dialog.StateOrderAwaitDecision:
		b.sendText(chatID, "Выберите действие кнопкой под сводкой заказа или /cancel.")

	case dialog.StateOrderRunning:
		b.sendText(chatID, "Заказ выполняется на портале, дождитесь результата.")

	default:
		b.sendText(chatID, "Не понял. Наберите /help")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	switch cb.Data {
	case cbCancel:
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, cb.Message.MessageID, "Операция отменена.")
		_ = b.answerCallback(cb, "Отменено", false)

	case cbOrderVerify, cbOrderPlace:
		b.handleOrderDecision(ctx, cb, cb.Data == cbOrderPlace)

	default:
		_ = b.answerCallback(cb, "Устаревшая кнопка", false)
	}
}
