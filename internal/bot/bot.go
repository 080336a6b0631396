package bot

import (
	"context"
	"log/slog"
	"slices"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Spok95/portal-bot/internal/dialog"
	"github.com/Spok95/portal-bot/internal/domain/runs"
	"github.com/Spok95/portal-bot/internal/portal"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// Portal is the vendor portal client. Calls are serialized by the bot.
type Portal interface {
	GetAvailability(ctx context.Context, catalogNumber string) (portal.Availability, decimal.Decimal, bool)
	GetTracking(ctx context.Context, orderNumber string) []portal.TrackingLine
	GetConfirmation(ctx context.Context, orderNumber string) []portal.Confirmation
	PlaceOrder(ctx context.Context, req portal.OrderRequest, submit bool) portal.OrderResult
}

type States interface {
	Get(ctx context.Context, chatID int64) (*dialog.Item, error)
	Set(ctx context.Context, chatID int64, state dialog.State, payload dialog.Payload) error
	Reset(ctx context.Context, chatID int64) error
}

type Runs interface {
	Create(ctx context.Context, run runs.Run) error
	ListByChat(ctx context.Context, chatID int64, limit int) ([]runs.Run, error)
}

// job is a portal call queued by a handler.
type job struct {
	chatID int64
	name   string
	fn     func(ctx context.Context)
}

const queueSize = 16

type Bot struct {
	api       API
	log       *slog.Logger
	portal    Portal
	states    States
	runs      Runs
	adminChat int64
	allowed   []int64
	loc       *time.Location

	jobs chan job
}

type Options struct {
	AdminChatID  int64
	AllowedChats []int64
	Location     *time.Location
}

func New(api API, log *slog.Logger, p Portal, statesRepo States, runsRepo Runs, opts Options) *Bot {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Bot{
		api: api, log: log, portal: p, states: statesRepo, runs: runsRepo,
		adminChat: opts.AdminChatID, allowed: opts.AllowedChats, loc: loc,
		jobs: make(chan job, queueSize),
	}
}

// Run polls Telegram and executes portal jobs one at a time until ctx ends.
func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.work(ctx)
		return nil
	})
	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = timeoutSec
		updates := b.api.GetUpdatesChan(u)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case upd := <-updates:
				b.dispatch(ctx, upd)
			}
		}
	})
	return g.Wait()
}

func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		if !b.isAllowed(upd.Message.Chat.ID) {
			b.log.Warn("message from chat not in allow-list", "chat", upd.Message.Chat.ID)
			return
		}
		b.onMessage(ctx, upd)
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		if !b.isAllowed(upd.CallbackQuery.Message.Chat.ID) {
			_ = b.answerCallback(upd.CallbackQuery, "Доступ запрещён", true)
			return
		}
		b.onCallback(ctx, upd)
	}
}

func (b *Bot) isAllowed(chatID int64) bool {
	return (chatID != 0 && chatID == b.adminChat) || slices.Contains(b.allowed, chatID)
}

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleStateMessage(ctx, msg)
}

func (b *Bot) onCallback(ctx context.Context, upd tgbotapi.Update) {
	b.handleCallback(ctx, upd.CallbackQuery)
}

// enqueue hands fn to the portal worker. It reports false when the queue is
// full, after telling the chat.
func (b *Bot) enqueue(chatID int64, name string, fn func(ctx context.Context)) bool {
	select {
	case b.jobs <- job{chatID: chatID, name: name, fn: fn}:
		return true
	default:
		b.sendText(chatID, "Портал занят, попробуйте через пару минут.")
		return false
	}
}

func (b *Bot) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-b.jobs:
			start := time.Now()
			j.fn(ctx)
			b.log.Info("portal job done", "job", j.name, "chat", j.chatID, "took", time.Since(start).Round(time.Millisecond))
		}
	}
}
