// internal/bot/bot.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "*Dompetku*\n\n" +
	"Commands:\n" +
	"`/balance` — wallet balances\n" +
	"`/month` — this month's income and expenses\n" +
	"`/add Dompet: 50000 Makanan` — record an expense\n" +
	"`/add BCA: +2500000 Gaji` — record income (note the +)\n\n" +
	"Link your Telegram account first via POST /api/v1/me/telegram."

type Bot struct {
	api   *tgbotapi.BotAPI
	store storage.Store
}

func New(token string, store storage.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init bot: %w", err)
	}
	return &Bot{api: api, store: store}, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	slog.Info("Bot started", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	telegramID := msg.From.ID
	text := strings.TrimSpace(fixEncoding(msg.Text))

	slog.Info("Message received", "telegram_id", telegramID, "text", text)

	reply := b.dispatch(ctx, telegramID, text)

	out := tgbotapi.NewMessage(chatID, reply)
	out.ParseMode = "Markdown"
	if _, err := b.api.Send(out); err != nil {
		slog.Error("Failed to send reply", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) dispatch(ctx context.Context, telegramID int64, text string) string {
	if text == "/start" || text == "/help" {
		return helpText
	}

	user, err := b.store.UserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "This Telegram account is not linked yet. Log in to the API and call POST /api/v1/me/telegram with your telegram\\_id."
		}
		slog.Error("User lookup failed", "error", err, "telegram_id", telegramID)
		return "Something went wrong, try again later."
	}

	switch {
	case text == "/balance":
		return b.handleBalance(ctx, user.ID)
	case text == "/month":
		return b.handleMonth(ctx, user.ID)
	case strings.HasPrefix(text, "/add "):
		return b.handleAdd(ctx, user.ID, strings.TrimSpace(text[5:]))
	default:
		return "Unknown command. Send /help."
	}
}

func (b *Bot) handleBalance(ctx context.Context, userID int64) string {
	wallets, err := b.store.Wallets(ctx, userID)
	if err != nil {
		slog.Error("Failed to list wallets", "error", err, "user_id", userID)
		return "Could not load wallets."
	}
	if len(wallets) == 0 {
		return "No wallets yet."
	}

	var lines []string
	lines = append(lines, "*Wallets*")
	for _, w := range wallets {
		lines = append(lines, fmt.Sprintf("- %s: %s", w.Name, w.Balance.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) handleMonth(ctx context.Context, userID int64) string {
	summary, err := b.store.Dashboard(ctx, userID)
	if err != nil {
		slog.Error("Failed to build dashboard", "error", err, "user_id", userID)
		return "Could not load the monthly summary."
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("*Summary for %s*", summary.Month))
	lines = append(lines, fmt.Sprintf("Income: %s", summary.IncomeThisMonth.StringFixed(2)))
	lines = append(lines, fmt.Sprintf("Expenses: %s", summary.ExpenseThisMonth.StringFixed(2)))
	lines = append(lines, fmt.Sprintf("Net worth: %s", summary.NetWorth.StringFixed(2)))
	if len(summary.ExpenseByCategory) > 0 {
		lines = append(lines, "", "*By category*")
		for _, ca := range summary.ExpenseByCategory {
			lines = append(lines, fmt.Sprintf("- %s: %s", ca.Category, ca.Amount.StringFixed(2)))
		}
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) handleAdd(ctx context.Context, userID int64, input string) string {
	cmd, err := ParseAdd(input)
	if err != nil {
		return "Error: " + err.Error()
	}

	wallet, err := b.store.WalletByName(ctx, userID, cmd.WalletName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("No wallet named %q.", cmd.WalletName)
		}
		slog.Error("Wallet lookup failed", "error", err, "user_id", userID)
		return "Something went wrong, try again later."
	}

	tx := domain.Transaction{
		WalletID: wallet.ID,
		Amount:   cmd.Amount,
		Type:     domain.Expense,
		Date:     time.Now().Truncate(24 * time.Hour),
	}
	if cmd.Income {
		tx.Type = domain.Income
	}
	if cmd.CategoryName != "" {
		category, err := b.store.EnsureCategory(ctx, userID, cmd.CategoryName)
		if err != nil {
			slog.Error("Failed to ensure category", "error", err, "user_id", userID)
			return "Could not record the transaction."
		}
		tx.CategoryID = &category.ID
	}

	created, err := b.store.CreateTransaction(ctx, userID, tx)
	if err != nil {
		slog.Error("Failed to create transaction", "error", err, "user_id", userID)
		return "Could not record the transaction."
	}

	verb := "Spent"
	if created.Type == domain.Income {
		verb = "Received"
	}
	return fmt.Sprintf("Recorded. %s %s via %s.", verb, created.Amount.StringFixed(2), wallet.Name)
}
