package runs

import (
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/portal-bot/internal/portal"
)

// Run is one PlaceOrder invocation made from the bot.
type Run struct {
	ID           uuid.UUID
	ChatID       int64
	OrderID      string
	Submit       bool // false: verify only
	OK           bool
	Confirmation string
	Stage        string
	Allocation   portal.Allocation
	CreatedAt    time.Time
}

// FromResult records res for the order placed from chatID.
func FromResult(chatID int64, orderID string, submit bool, res portal.OrderResult) Run {
	return Run{
		ID:           uuid.New(),
		ChatID:       chatID,
		OrderID:      orderID,
		Submit:       submit,
		OK:           res.OK,
		Confirmation: res.ConfirmationNumber,
		Stage:        res.Stage.String(),
		Allocation:   res.Allocation,
	}
}
