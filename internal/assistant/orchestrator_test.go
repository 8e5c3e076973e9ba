package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/conversation"
	"github.com/dvloznov/finance-assistant/internal/finance"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	store        *fakeRecordStore
	resolver     *fakeResolver
	generator    *fakeGenerator
	turns        conversation.Store
}

func newFixture(turns conversation.Store) *orchestratorFixture {
	if turns == nil {
		turns = conversation.NewMemoryStore()
	}
	store := &fakeRecordStore{
		accounts: []finance.Account{
			{Name: "Main", Type: finance.AccountTypeCurrent, Balance: dec("500.00"), IsDefault: true},
		},
		monthExpenses: []finance.Transaction{
			{Amount: dec("42.00"), Type: finance.TransactionTypeExpense, Category: "Dining", Date: time.Now()},
		},
	}
	resolver := &fakeResolver{users: map[string]string{"ext-1": "u-1"}}
	generator := &fakeGenerator{reply: "You spent $42.00 on dining this month."}

	aggregator := NewAggregator(store, zerolog.Nop())
	orchestrator := NewOrchestrator(resolver, aggregator, turns, generator, zerolog.Nop())

	return &orchestratorFixture{
		orchestrator: orchestrator,
		store:        store,
		resolver:     resolver,
		generator:    generator,
		turns:        turns,
	}
}

func mustHistory(t *testing.T, store conversation.Store, userID string) []conversation.Turn {
	t.Helper()
	turns, err := store.History(context.Background(), userID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	return turns
}

func TestSendMessageHappyPath(t *testing.T) {
	f := newFixture(nil)

	reply, err := f.orchestrator.SendMessage(context.Background(), "ext-1", "How much did I spend on dining?")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if reply != f.generator.reply {
		t.Errorf("reply = %q, want %q", reply, f.generator.reply)
	}

	// The rendered context reaches the model as the system prompt, the user
	// message verbatim.
	if !strings.Contains(f.generator.lastPrompt, "- Dining: $42.00") {
		t.Errorf("system prompt is missing the dining spend:\n%s", f.generator.lastPrompt)
	}
	if f.generator.lastMessage != "How much did I spend on dining?" {
		t.Errorf("user message = %q", f.generator.lastMessage)
	}

	turns := mustHistory(t, f.turns, "u-1")
	if len(turns) != 2 {
		t.Fatalf("persisted %d turns, want 2", len(turns))
	}
	if turns[0].Role != conversation.RoleUser || turns[0].Content != "How much did I spend on dining?" {
		t.Errorf("first turn = %s %q", turns[0].Role, turns[0].Content)
	}
	if turns[1].Role != conversation.RoleAssistant || turns[1].Content != f.generator.reply {
		t.Errorf("second turn = %s %q", turns[1].Role, turns[1].Content)
	}
}

func TestSendMessageValidation(t *testing.T) {
	tests := []struct {
		name       string
		externalID string
		message    string
		wantErr    error
	}{
		{"missing identity", "", "hello", ErrUnauthorized},
		{"empty message", "ext-1", "", ErrEmptyMessage},
		{"whitespace message", "ext-1", "   \n\t ", ErrEmptyMessage},
		{"too long", "ext-1", strings.Repeat("a", MaxMessageLength+1), ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)

			_, err := f.orchestrator.SendMessage(context.Background(), tt.externalID, tt.message)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SendMessage() error = %v, want %v", err, tt.wantErr)
			}

			// A rejected message persists nothing and never reaches the model.
			if f.generator.calls != 0 {
				t.Errorf("generator called %d times, want 0", f.generator.calls)
			}
			if turns := mustHistory(t, f.turns, "u-1"); len(turns) != 0 {
				t.Errorf("persisted %d turns, want 0", len(turns))
			}
		})
	}
}

func TestSendMessageMaxLengthBoundary(t *testing.T) {
	f := newFixture(nil)

	// Exactly MaxMessageLength characters is accepted. Multi-byte runes
	// count as one character each.
	message := strings.Repeat("é", MaxMessageLength)
	if _, err := f.orchestrator.SendMessage(context.Background(), "ext-1", message); err != nil {
		t.Errorf("SendMessage() error = %v, want nil", err)
	}
}

func TestSendMessageUnknownUser(t *testing.T) {
	f := newFixture(nil)

	_, err := f.orchestrator.SendMessage(context.Background(), "ext-unknown", "hello")
	if !errors.Is(err, ErrContextUnavailable) {
		t.Errorf("SendMessage() error = %v, want ErrContextUnavailable", err)
	}
	if f.generator.calls != 0 {
		t.Errorf("generator called %d times, want 0", f.generator.calls)
	}
}

func TestSendMessageContextUnavailable(t *testing.T) {
	f := newFixture(nil)
	f.store.accountsErr = errors.New("backend down")

	_, err := f.orchestrator.SendMessage(context.Background(), "ext-1", "hello")
	if !errors.Is(err, ErrContextUnavailable) {
		t.Errorf("SendMessage() error = %v, want ErrContextUnavailable", err)
	}

	// No partial snapshot reaches the model and no turn is persisted.
	if f.generator.calls != 0 {
		t.Errorf("generator called %d times, want 0", f.generator.calls)
	}
	if turns := mustHistory(t, f.turns, "u-1"); len(turns) != 0 {
		t.Errorf("persisted %d turns, want 0", len(turns))
	}
}

func TestSendMessageFallbackReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"generation error", "", errors.New("model unavailable")},
		{"empty text", "", nil},
		{"whitespace text", "  \n ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			f.generator.reply = tt.reply
			f.generator.err = tt.err

			reply, err := f.orchestrator.SendMessage(context.Background(), "ext-1", "hello")
			if err != nil {
				t.Fatalf("SendMessage() error = %v", err)
			}
			if reply != FallbackReply {
				t.Errorf("reply = %q, want fallback", reply)
			}

			// The fallback is persisted like any assistant turn.
			turns := mustHistory(t, f.turns, "u-1")
			if len(turns) != 2 || turns[1].Content != FallbackReply {
				t.Errorf("persisted turns = %+v, want user turn plus fallback", turns)
			}
		})
	}
}

func TestSendMessagePersistFailuresNonFatal(t *testing.T) {
	inner := conversation.NewMemoryStore()
	f := newFixture(&failingStore{inner: inner, failAppendRole: conversation.RoleAssistant})

	reply, err := f.orchestrator.SendMessage(context.Background(), "ext-1", "hello")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if reply != f.generator.reply {
		t.Errorf("reply = %q, want %q", reply, f.generator.reply)
	}

	// Only the user turn made it to the store.
	turns := mustHistory(t, inner, "u-1")
	if len(turns) != 1 || turns[0].Role != conversation.RoleUser {
		t.Errorf("persisted turns = %+v, want just the user turn", turns)
	}
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	panic("generator bug")
}

func TestSendMessageRecoversPanic(t *testing.T) {
	f := newFixture(nil)
	f.orchestrator.generator = panickingGenerator{}

	_, err := f.orchestrator.SendMessage(context.Background(), "ext-1", "hello")
	if !errors.Is(err, ErrSendFailed) {
		t.Errorf("SendMessage() error = %v, want ErrSendFailed", err)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	if _, err := f.orchestrator.SendMessage(ctx, "ext-1", "first"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	turns := f.orchestrator.History(ctx, "ext-1")
	if len(turns) != 2 {
		t.Fatalf("History() returned %d turns, want 2", len(turns))
	}

	// Failures degrade to an empty list, never an error surface.
	if got := f.orchestrator.History(ctx, ""); len(got) != 0 {
		t.Errorf("History(\"\") returned %d turns, want 0", len(got))
	}
	if got := f.orchestrator.History(ctx, "ext-unknown"); len(got) != 0 {
		t.Errorf("History(unknown) returned %d turns, want 0", len(got))
	}

	f.orchestrator.conversations = &failingStore{inner: conversation.NewMemoryStore(), failHistory: true}
	if got := f.orchestrator.History(ctx, "ext-1"); len(got) != 0 {
		t.Errorf("History() with failing store returned %d turns, want 0", len(got))
	}
}

func TestClearHistory(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	if _, err := f.orchestrator.SendMessage(ctx, "ext-1", "first"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if err := f.orchestrator.ClearHistory(ctx, "ext-1"); err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	if turns := mustHistory(t, f.turns, "u-1"); len(turns) != 0 {
		t.Errorf("history has %d turns after clear, want 0", len(turns))
	}

	if err := f.orchestrator.ClearHistory(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ClearHistory(\"\") error = %v, want ErrUnauthorized", err)
	}
	if err := f.orchestrator.ClearHistory(ctx, "ext-unknown"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ClearHistory(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestClearHistoryArchivesFirst(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	archiver := &fakeArchiver{}
	f.orchestrator.SetArchiver(archiver)

	if _, err := f.orchestrator.SendMessage(ctx, "ext-1", "keep a copy of this"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if err := f.orchestrator.ClearHistory(ctx, "ext-1"); err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	if archiver.calls != 1 {
		t.Fatalf("archiver called %d times, want 1", archiver.calls)
	}
	if archiver.lastUserID != "u-1" || len(archiver.lastTurns) != 2 {
		t.Errorf("archived %d turns for %q, want 2 for u-1", len(archiver.lastTurns), archiver.lastUserID)
	}
	if turns := mustHistory(t, f.turns, "u-1"); len(turns) != 0 {
		t.Errorf("history has %d turns after clear, want 0", len(turns))
	}
}

func TestClearHistoryArchiveFailureDoesNotBlock(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	f.orchestrator.SetArchiver(&fakeArchiver{err: errors.New("bucket gone")})

	if _, err := f.orchestrator.SendMessage(ctx, "ext-1", "hello"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if err := f.orchestrator.ClearHistory(ctx, "ext-1"); err != nil {
		t.Errorf("ClearHistory() error = %v, want nil despite archive failure", err)
	}
	if turns := mustHistory(t, f.turns, "u-1"); len(turns) != 0 {
		t.Errorf("history has %d turns after clear, want 0", len(turns))
	}
}

func TestInsights(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	insights, err := f.orchestrator.Insights(ctx, "ext-1")
	if err != nil {
		t.Fatalf("Insights() error = %v", err)
	}
	if len(insights) == 0 {
		t.Error("Insights() returned no insights for a populated snapshot")
	}

	if _, err := f.orchestrator.Insights(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Insights(\"\") error = %v, want ErrUnauthorized", err)
	}
	if _, err := f.orchestrator.Insights(ctx, "ext-unknown"); !errors.Is(err, ErrContextUnavailable) {
		t.Errorf("Insights(unknown) error = %v, want ErrContextUnavailable", err)
	}

	f.store.budgetErr = errors.New("backend down")
	if _, err := f.orchestrator.Insights(ctx, "ext-1"); !errors.Is(err, ErrContextUnavailable) {
		t.Errorf("Insights() with failing store error = %v, want ErrContextUnavailable", err)
	}
}
