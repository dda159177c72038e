// Package bot is a Telegram front end for the task service.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"todo-api/internal/logger"
	"todo-api/internal/manager"
	"todo-api/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// TaskService is the subset of the task manager the bot talks to.
type TaskService interface {
	AddTodo(todo models.Todo) (models.Todo, error)
	GetTodoByID(id int) (models.Todo, error)
	GetTodos() ([]models.Todo, error)
	DeleteTodoByID(id int) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api     *tgbotapi.BotAPI
	sender  sender
	service TaskService
	now     func() time.Time
}

func NewBot(token string, svc TaskService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info(context.Background(), "telegram bot authorized", "username", api.Self.UserName)

	b := newBot(api, svc)
	b.api = api
	return b, nil
}

func newBot(s sender, svc TaskService) *Bot {
	return &Bot{
		sender:  s,
		service: svc,
		now:     time.Now,
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot has no telegram connection")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	logger.Info(ctx, "telegram bot is listening")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			b.HandleText(ctx, update.Message.Chat.ID, update.Message.Text)
		}
	}
}

// HandleText runs one chat message and replies in the same chat.
func (b *Bot) HandleText(ctx context.Context, chatID int64, text string) {
	logger.Debug(ctx, "telegram message received", "chat", chatID, "text", text)

	command, args := parseCommand(text)
	switch command {
	case "start", "help":
		b.reply(ctx, chatID, helpText)
	case "add":
		b.reply(ctx, chatID, b.add(args))
	case "list":
		b.reply(ctx, chatID, b.list())
	case "get":
		b.reply(ctx, chatID, b.get(args))
	case "delete":
		b.reply(ctx, chatID, b.delete(args))
	case "":
		b.reply(ctx, chatID, "Send a command, for example /add 1 2026-12-31 Buy milk. See /help.")
	default:
		b.reply(ctx, chatID, "Unknown command. Use /help for the list of commands.")
	}
}

const helpText = `Commands:
/add <id> <due> <name> - add a todo, due is YYYY-MM-DD or RFC 3339
/list - show all todos
/get <id> - show one todo
/delete <id> - delete every todo with this id
/help - this message`

// parseCommand splits "/cmd@botname a b" into "cmd" and "a b".
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	command, args, _ := strings.Cut(text[1:], " ")
	if i := strings.Index(command, "@"); i != -1 {
		command = command[:i]
	}
	return strings.ToLower(command), strings.TrimSpace(args)
}

func (b *Bot) add(args string) string {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return "Usage: /add <id> <due> <name>"
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return "Todo id must be a number"
	}

	due, err := parseDue(fields[1])
	if err != nil {
		return "Due date must be YYYY-MM-DD or RFC 3339"
	}

	todo := models.Todo{
		ID:      id,
		Name:    strings.Join(fields[2:], " "),
		DueDate: due,
	}

	if errs := models.ValidateNew(todo, b.now()); errs != nil {
		return formatValidation(errs)
	}

	if _, err := b.service.AddTodo(todo); err != nil {
		logger.Error(context.Background(), err, "bot failed to add todo", "id", id)
		return "Failed to add todo"
	}

	return fmt.Sprintf("Added #%d: %s (due %s)", todo.ID, todo.Name, formatDue(todo.DueDate))
}

func (b *Bot) list() string {
	todos, err := b.service.GetTodos()
	if err != nil {
		logger.Error(context.Background(), err, "bot failed to list todos")
		return "Failed to list todos"
	}

	if len(todos) == 0 {
		return "No todos yet"
	}

	var response strings.Builder
	response.WriteString("Todos:\n")
	for _, todo := range todos {
		response.WriteString(formatTodo(todo))
		response.WriteString("\n")
	}
	return strings.TrimRight(response.String(), "\n")
}

func (b *Bot) get(args string) string {
	id, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return "Usage: /get <id>"
	}

	todo, err := b.service.GetTodoByID(id)
	if errors.Is(err, manager.ErrTodoNotFound) {
		return fmt.Sprintf("Todo #%d not found", id)
	}
	if err != nil {
		logger.Error(context.Background(), err, "bot failed to get todo", "id", id)
		return "Failed to get todo"
	}
	return formatTodo(todo)
}

func (b *Bot) delete(args string) string {
	id, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return "Usage: /delete <id>"
	}

	if err := b.service.DeleteTodoByID(id); err != nil {
		logger.Error(context.Background(), err, "bot failed to delete todo", "id", id)
		return "Failed to delete todo"
	}
	return fmt.Sprintf("Deleted #%d", id)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		logger.Error(ctx, err, "failed to send telegram message", "chat", chatID)
	}
}

func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	// a bare date means the end of that day in UTC
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Nanosecond), nil
}

func formatDue(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func formatTodo(todo models.Todo) string {
	status := "[ ]"
	if todo.IsCompleted {
		status = "[x]"
	}
	return fmt.Sprintf("%s #%d: %s (due %s)", status, todo.ID, todo.Name, formatDue(todo.DueDate))
}

func formatValidation(errs models.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var lines []string
	for _, field := range fields {
		lines = append(lines, errs[field]...)
	}
	return strings.Join(lines, "\n")
}
