package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"todo-api/internal/manager"
	"todo-api/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no message was sent")
	}
	return f.sent[len(f.sent)-1]
}

var botNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestBot() (*Bot, *fakeSender, *manager.TaskManager) {
	s := &fakeSender{}
	tm := manager.NewTaskManager()
	b := newBot(s, tm)
	b.now = func() time.Time { return botNow }
	return b, s, tm
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantCmd  string
		wantArgs string
	}{
		{"/add 1 2026-12-31 Buy milk", "add", "1 2026-12-31 Buy milk"},
		{"/list", "list", ""},
		{"/LIST@todo_bot", "list", ""},
		{"  /get   5 ", "get", "5"},
		{"hello", "", "hello"},
	}

	for _, tt := range tests {
		cmd, args := parseCommand(tt.in)
		if cmd != tt.wantCmd || args != tt.wantArgs {
			t.Errorf("parseCommand(%q) = %q, %q, want %q, %q", tt.in, cmd, args, tt.wantCmd, tt.wantArgs)
		}
	}
}

func TestAddListGetDelete(t *testing.T) {
	b, s, tm := newTestBot()
	ctx := context.Background()

	b.HandleText(ctx, 42, "/add 1 2026-12-31 Buy milk")
	if msg := s.last(t); msg.ChatID != 42 || msg.Text != "Added #1: Buy milk (due 2026-12-31)" {
		t.Fatalf("add reply = %d %q", msg.ChatID, msg.Text)
	}

	todo, err := tm.GetTodoByID(1)
	if err != nil {
		t.Fatalf("GetTodoByID() err = %v", err)
	}
	if todo.Name != "Buy milk" || todo.IsCompleted {
		t.Fatalf("stored todo = %+v", todo)
	}

	b.HandleText(ctx, 42, "/list")
	if got := s.last(t).Text; !strings.Contains(got, "[ ] #1: Buy milk (due 2026-12-31)") {
		t.Fatalf("list reply = %q", got)
	}

	b.HandleText(ctx, 42, "/get 1")
	if got := s.last(t).Text; got != "[ ] #1: Buy milk (due 2026-12-31)" {
		t.Fatalf("get reply = %q", got)
	}

	b.HandleText(ctx, 42, "/delete 1")
	if got := s.last(t).Text; got != "Deleted #1" {
		t.Fatalf("delete reply = %q", got)
	}

	b.HandleText(ctx, 42, "/get 1")
	if got := s.last(t).Text; got != "Todo #1 not found" {
		t.Fatalf("get after delete reply = %q", got)
	}
}

func TestAdd_Validation(t *testing.T) {
	b, s, tm := newTestBot()

	b.HandleText(context.Background(), 1, "/add 2 2020-01-01 Old news")

	if got := s.last(t).Text; got != models.MsgDueDateInPast {
		t.Fatalf("reply = %q, want %q", got, models.MsgDueDateInPast)
	}
	if todos, _ := tm.GetTodos(); len(todos) != 0 {
		t.Fatalf("invalid todo was stored: %+v", todos)
	}
}

func TestAdd_BadInput(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/add", "Usage: /add <id> <due> <name>"},
		{"/add x 2026-12-31 name", "Todo id must be a number"},
		{"/add 1 someday name", "Due date must be YYYY-MM-DD or RFC 3339"},
		{"/get", "Usage: /get <id>"},
		{"/delete one", "Usage: /delete <id>"},
		{"/frobnicate", "Unknown command. Use /help for the list of commands."},
	}

	for _, tt := range tests {
		b, s, _ := newTestBot()
		b.HandleText(context.Background(), 1, tt.text)
		if got := s.last(t).Text; got != tt.want {
			t.Errorf("%q reply = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestList_Empty(t *testing.T) {
	b, s, _ := newTestBot()

	b.HandleText(context.Background(), 1, "/list")

	if got := s.last(t).Text; got != "No todos yet" {
		t.Fatalf("reply = %q", got)
	}
}

func TestParseDue(t *testing.T) {
	got, err := parseDue("2026-12-31")
	if err != nil {
		t.Fatalf("parseDue() err = %v", err)
	}
	if want := time.Date(2026, 12, 31, 23, 59, 59, 999999999, time.UTC); !got.Equal(want) {
		t.Fatalf("parseDue() = %v, want %v", got, want)
	}

	got, err = parseDue("2026-12-31T08:00:00+02:00")
	if err != nil {
		t.Fatalf("parseDue() err = %v", err)
	}
	if want := time.Date(2026, 12, 31, 6, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("parseDue() = %v, want %v", got, want)
	}
}

func TestSendErrorIsSwallowed(t *testing.T) {
	b, s, _ := newTestBot()
	s.err = errors.New("network down")

	b.HandleText(context.Background(), 1, "/help")

	if len(s.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(s.sent))
	}
}

func TestStart_WithoutConnection(t *testing.T) {
	b, _, _ := newTestBot()
	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start() err = nil, want error without a telegram connection")
	}
}
