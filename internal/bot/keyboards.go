package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnAvail   = "Наличие"
	btnTrack   = "Отслеживание"
	btnConfirm = "Подтверждение"
	btnOrder   = "Новый заказ"
	btnHistory = "История"

	cbOrderVerify = "order:verify"
	cbOrderPlace  = "order:place"
	cbCancel      = "nav:cancel"
)

func navKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", cbCancel),
		),
	)
}

func orderDecisionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Только проверить", cbOrderVerify),
			tgbotapi.NewInlineKeyboardButtonData("📨 Отправить заказ", cbOrderPlace),
		),
		navKeyboard().InlineKeyboard[0],
	)
}

// mainReplyKeyboard Нижняя панель оператора
func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnAvail), tgbotapi.NewKeyboardButton(btnTrack)},
			{tgbotapi.NewKeyboardButton(btnConfirm), tgbotapi.NewKeyboardButton(btnOrder)},
			{tgbotapi.NewKeyboardButton(btnHistory)},
		},
	}
}
