// Package bot adapts Telegram updates to the core services: it resolves the
// participant behind each update, routes text and callback input by role and
// session step, and renders core keyboards as Telegram reply markup.
package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-order-bot/internal/callback"
	"group-order-bot/internal/domain"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/repository"
	"group-order-bot/internal/service"
	"group-order-bot/internal/session"
)

// Messenger implements service.Sender over the Telegram Bot API.
type Messenger struct {
	api *tgbotapi.BotAPI
}

func NewMessenger(api *tgbotapi.BotAPI) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) Send(ctx context.Context, chatID int64, text string, kb *service.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	switch {
	case kb == nil:
	case len(kb.Inline) > 0:
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, row := range kb.Inline {
			var buttons []tgbotapi.InlineKeyboardButton
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
			rows = append(rows, buttons)
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	case len(kb.Reply) > 0:
		var rows [][]tgbotapi.KeyboardButton
		for _, row := range kb.Reply {
			var buttons []tgbotapi.KeyboardButton
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, buttons)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		msg.ReplyMarkup = markup
	}
	_, err := m.api.Send(msg)
	return err
}

// Bot is the inbound router.
type Bot struct {
	api          *tgbotapi.BotAPI
	participants repository.ParticipantsInterface
	sessions     session.Store
	out          *service.Dispatcher
	reg          *service.Registration
	catalog      *service.Catalog
	orders       *service.Orders
	ledger       *service.Ledger
	lg           *logger.Logger
}

func New(api *tgbotapi.BotAPI, participants repository.ParticipantsInterface,
	sessions session.Store, out *service.Dispatcher, reg *service.Registration,
	catalog *service.Catalog, orders *service.Orders, ledger *service.Ledger,
	lg *logger.Logger) *Bot {
	return &Bot{
		api:          api,
		participants: participants,
		sessions:     sessions,
		out:          out,
		reg:          reg,
		catalog:      catalog,
		orders:       orders,
		ledger:       ledger,
		lg:           lg,
	}
}

// Run consumes the update channel until ctx is cancelled. Each update is
// handled in its own goroutine.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.lg.Error("handler_panic", errors.New("recovered panic"), map[string]any{"detail": r})
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	p, err := b.participants.GetByTelegramID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		b.routeRegistrationText(ctx, chatID, userID, msg.Text)
		return
	}
	if err != nil {
		b.lg.Error("participant_lookup", err, map[string]any{"telegram_id": userID})
		return
	}

	if p.Role == domain.RoleAdmin {
		b.routeAdminText(ctx, chatID, p, msg.Text)
	} else {
		b.routeWorkerText(ctx, chatID, p, msg.Text)
	}
}

func (b *Bot) routeRegistrationText(ctx context.Context, chatID, userID int64, text string) {
	if _, ok := b.sessions.Get(chatID); !ok || text == "/start" {
		_ = b.reg.Start(ctx, chatID)
		return
	}
	_ = b.reg.HandleText(ctx, chatID, userID, text)
}

func (b *Bot) routeAdminText(ctx context.Context, chatID int64, admin *domain.Participant, text string) {
	if st, ok := b.sessions.Get(chatID); ok {
		switch st.Step {
		case session.StepRestaurantName:
			_ = b.catalog.AddRestaurantName(ctx, chatID, admin.TelegramID, text)
			return
		case session.StepItemName:
			_ = b.catalog.SetItemName(ctx, chatID, text)
			return
		case session.StepItemPrice:
			_ = b.catalog.SetItemPrice(ctx, chatID, text)
			return
		}
	}

	switch text {
	case service.MenuAddRestaurant:
		_ = b.catalog.StartAddRestaurant(ctx, chatID)
	case service.MenuAddMenuItem:
		_ = b.catalog.StartAddMenuItem(ctx, chatID, admin.TelegramID)
	case service.MenuCreateGroupOrder:
		_ = b.orders.StartCreate(ctx, chatID, admin.TelegramID)
	case service.MenuViewGroupOrders:
		_ = b.orders.ListForAdmin(ctx, chatID, admin.TelegramID)
	default:
		_ = b.sendMenu(ctx, chatID, service.AdminMenu())
	}
}

func (b *Bot) routeWorkerText(ctx context.Context, chatID int64, worker *domain.Participant, text string) {
	if st, ok := b.sessions.Get(chatID); ok && st.Step == session.StepOrderLines {
		_ = b.orders.SubmitLines(ctx, chatID, worker, text)
		return
	}

	switch text {
	case service.MenuJoinOrders:
		_ = b.orders.ListOpenForWorker(ctx, chatID)
	case service.MenuMyGroupOrders:
		_ = b.orders.ListJoinedForWorker(ctx, chatID, worker.TelegramID)
	default:
		_ = b.sendMenu(ctx, chatID, service.WorkerMenu())
	}
}

func (b *Bot) sendMenu(ctx context.Context, chatID int64, kb *service.Keyboard) error {
	return b.out.Send(ctx, chatID, "Select an option:", kb)
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// acknowledge first so the client stops its spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.lg.Error("callback_ack", err, map[string]any{"callback_id": q.ID})
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID
	userID := q.From.ID

	cmd, err := callback.Parse(q.Data)
	if err != nil {
		b.lg.Error("callback_parse", err, map[string]any{"data": q.Data})
		return
	}

	p, perr := b.participants.GetByTelegramID(ctx, userID)
	if errors.Is(perr, repository.ErrNotFound) {
		switch cmd.Verb {
		case callback.RegisterRole:
			_ = b.reg.ChooseRole(ctx, chatID, cmd.ID)
		case callback.SelectCompany:
			_ = b.reg.ChooseCompany(ctx, chatID, cmd.ID)
		}
		return
	}
	if perr != nil {
		b.lg.Error("participant_lookup", perr, map[string]any{"telegram_id": userID})
		return
	}

	if p.Role == domain.RoleAdmin {
		b.routeAdminCallback(ctx, chatID, p, cmd)
	} else {
		b.routeWorkerCallback(ctx, chatID, p, cmd)
	}
}

func (b *Bot) routeAdminCallback(ctx context.Context, chatID int64, admin *domain.Participant, cmd callback.Command) {
	switch cmd.Verb {
	case callback.AddMenuItemFor:
		_ = b.catalog.ChooseRestaurant(ctx, chatID, admin.TelegramID, cmd.ID)
	case callback.CreateOrderFor:
		_ = b.orders.Create(ctx, chatID, admin.TelegramID, cmd.ID)
	case callback.ViewDetails:
		_ = b.ledger.SendDetails(ctx, chatID, cmd.ID)
	case callback.TogglePaid:
		_ = b.ledger.TogglePaid(ctx, chatID, admin.TelegramID, cmd.ID, cmd.Sub)
	case callback.SetStatus:
		if applied, _ := b.orders.UpdateStatus(ctx, chatID, admin.TelegramID, cmd.ID, cmd.Sub); applied {
			_ = b.ledger.SendDetails(ctx, chatID, cmd.ID)
		}
	}
}

func (b *Bot) routeWorkerCallback(ctx context.Context, chatID int64, worker *domain.Participant, cmd callback.Command) {
	switch cmd.Verb {
	case callback.JoinOrder:
		_ = b.orders.Join(ctx, chatID, worker.TelegramID, cmd.ID)
	case callback.ViewDetails:
		_ = b.ledger.SendDetails(ctx, chatID, cmd.ID)
	}
}
