package bot

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/bensin/internal/fuel"
	"github.com/shrimpsizemoose/bensin/internal/models"
)

const helpText = `Available commands:
/login <code> - Link your reviewer account by its 4-digit code
/standings - Group standings with fuel totals
/pending - Pending task requests
/approve <id> - Approve a request
/reject <id> [reason] - Reject a request
/help - Show this message`

type commandHandler func(*tgbotapi.Message) error

// links maps telegram account ids to reviewer user ids for the bot's
// lifetime. Reviewers re-link with /login after a restart.
var (
	linksMu sync.Mutex
	links   = map[int64]int64{}
)

func (b *Bot) routeCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":     b.handleStart,
		"help":      b.handleHelp,
		"login":     b.handleLogin,
		"standings": b.handleStandings,
		"pending":   b.handlePending,
		"approve":   b.handleApprove,
		"reject":    b.handleReject,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, "Send /help for the list of commands.")
		return
	}

	if !b.admins[msg.From.ID] {
		b.sendMessage(msg.Chat.ID, "This bot is for supervisors only.")
		return
	}

	if handler, ok := b.routeCommands(msg.Command()); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	b.sendMessage(msg.Chat.ID, "Unknown command. Send /help for the list.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	return b.sendMessage(msg.Chat.ID,
		"Hi! I track the fuel tanks.\n\nLink your reviewer account with /login <code>, then /help for the rest.")
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendMessage(msg.Chat.ID, helpText)
}

func (b *Bot) handleLogin(msg *tgbotapi.Message) error {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		return fmt.Errorf("usage: /login <code>")
	}

	user, err := b.service.Store.GetUserByCode(code)
	if err != nil {
		return err
	}
	if user == nil || user.Role == models.RoleStudent {
		return fmt.Errorf("no reviewer account with that code")
	}

	linksMu.Lock()
	links[msg.From.ID] = user.ID
	linksMu.Unlock()

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("Linked to %s (%s). You can review requests now.", user.Name, user.Role))
}

func (b *Bot) reviewerID(telegramID int64) (int64, error) {
	linksMu.Lock()
	id, ok := links[telegramID]
	linksMu.Unlock()
	if !ok {
		return 0, fmt.Errorf("link your account first: /login <code>")
	}
	return id, nil
}

func (b *Bot) handleStandings(msg *tgbotapi.Message) error {
	groups, err := b.service.Store.ListGroupSummaries()
	if err != nil {
		return fmt.Errorf("failed to fetch standings: %v", err)
	}

	if len(groups) == 0 {
		return b.sendMessage(msg.Chat.ID, "No groups yet")
	}

	var text strings.Builder
	text.WriteString("Group standings:\n\n")
	for _, g := range groups {
		tanks := fuel.Quantize(g.TotalPoints)
		text.WriteString(fmt.Sprintf("🏁 %s: %d pts (%d member + %d direct), %d L\n",
			g.Name,
			g.TotalPoints,
			g.MembersPoints,
			g.DirectPoints,
			tanks.Liters(),
		))
	}

	return b.sendMessage(msg.Chat.ID, text.String())
}

func (b *Bot) handlePending(msg *tgbotapi.Message) error {
	requests, err := b.service.Store.ListRequests(models.RequestPending)
	if err != nil {
		return fmt.Errorf("failed to fetch pending requests: %v", err)
	}

	if len(requests) == 0 {
		return b.sendMessage(msg.Chat.ID, "No pending requests 🎉")
	}

	var text strings.Builder
	text.WriteString("Pending requests:\n\n")
	for _, req := range requests {
		name := "?"
		if req.StudentName != nil {
			name = *req.StudentName
		}
		grade, _ := fuel.GradeForPoints(req.Points)
		text.WriteString(fmt.Sprintf("#%d %s — %s, %d pts %s\n%s\n\n",
			req.ID,
			name,
			req.Committee,
			req.Points,
			grade.Emoji,
			req.Description,
		))
	}
	text.WriteString("Use /approve <id> or /reject <id> [reason]")

	return b.sendMessage(msg.Chat.ID, text.String())
}

func (b *Bot) handleApprove(msg *tgbotapi.Message) error {
	requestID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		return fmt.Errorf("usage: /approve <id>")
	}

	reviewerID, err := b.reviewerID(msg.From.ID)
	if err != nil {
		return err
	}

	req, err := b.service.ApproveRequest(requestID, reviewerID)
	if err != nil {
		return err
	}

	grade, _ := fuel.GradeForPoints(req.Points)
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Request #%d approved: %d pts of %s %s", req.ID, req.Points, grade.Name, grade.Emoji))
}

func (b *Bot) handleReject(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		return fmt.Errorf("usage: /reject <id> [reason]")
	}
	requestID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("usage: /reject <id> [reason]")
	}
	reason := strings.Join(args[1:], " ")

	reviewerID, err := b.reviewerID(msg.From.ID)
	if err != nil {
		return err
	}

	req, err := b.service.RejectRequest(requestID, reviewerID, reason)
	if err != nil {
		return err
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("❌ Request #%d rejected", req.ID))
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
