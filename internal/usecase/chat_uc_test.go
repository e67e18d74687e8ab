package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/domain"
	"github.com/webb-rtk/shintek/internal/domain/model"
	"github.com/webb-rtk/shintek/internal/domain/ports/adapter"
	"github.com/webb-rtk/shintek/internal/infra/roles"
)

// ---- Fakes ----

type fakeAI struct {
	reply      string
	err        error
	lastModel  string
	lastPrompt []adapter.Message
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"gemini-2.0-flash"}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return len(messages), nil
}

func (f *fakeAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := f.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (f *fakeAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	f.lastModel = model
	f.lastPrompt = messages
	if f.err != nil {
		return "", adapter.Usage{}, f.err
	}
	return f.reply, adapter.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}, nil
}

func newTestChatUC(t *testing.T) (*chatUC, *sessionUC, *roleUC, *fakeAI) {
	t.Helper()
	logger := zerolog.Nop()
	store := roles.NewFileStore(filepath.Join(t.TempDir(), "roles.json"), "gemini-2.0-flash")
	roleUC := NewRoleUseCase(store, &logger)
	sessionUC := NewSessionUseCase(time.Hour, &logger)
	ai := &fakeAI{reply: "hello there"}
	return NewChatUseCase(sessionUC, roleUC, ai, &logger), sessionUC, roleUC, ai
}

func TestHandleTextSeedsNewSession(t *testing.T) {
	chatUC, sessionUC, _, ai := newTestChatUC(t)
	ident := Identity{UserID: "u1", BotID: "bot"}

	reply, err := chatUC.HandleText(context.Background(), ident, "hi")
	if err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("unexpected reply %q", reply)
	}

	// Seed pair + user turn were sent to the backend.
	if len(ai.lastPrompt) != 3 {
		t.Fatalf("expected 3 prompt messages (seed pair + user), got %d", len(ai.lastPrompt))
	}
	if ai.lastPrompt[0].Role != model.RoleUser || ai.lastPrompt[1].Role != model.RoleAssistant {
		t.Fatalf("seed pair roles wrong: %+v", ai.lastPrompt[:2])
	}
	if ai.lastPrompt[2].Content != "hi" {
		t.Fatalf("user turn missing, got %+v", ai.lastPrompt[2])
	}
	if ai.lastModel != "gemini-2.0-flash" {
		t.Fatalf("profile model not forwarded, got %q", ai.lastModel)
	}

	// Assistant reply was persisted.
	if st := sessionUC.Stats(); st.Total != 1 {
		t.Fatalf("expected 1 session, got %d", st.Total)
	}
}

func TestHandleTextContinuesExistingSession(t *testing.T) {
	chatUC, sessionUC, _, ai := newTestChatUC(t)
	ident := Identity{UserID: "u1"}
	ctx := context.Background()

	if _, err := chatUC.HandleText(ctx, ident, "first"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if _, err := chatUC.HandleText(ctx, ident, "second"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}

	// seed pair + first + reply + second
	if len(ai.lastPrompt) != 5 {
		t.Fatalf("expected 5 prompt messages, got %d", len(ai.lastPrompt))
	}
	if st := sessionUC.Stats(); st.Total != 1 {
		t.Fatalf("expected the same session to be reused, total=%d", st.Total)
	}
}

func TestRoleChangeSupersedesSession(t *testing.T) {
	chatUC, sessionUC, roleUC, ai := newTestChatUC(t)
	ident := Identity{UserID: "u1"}
	ctx := context.Background()

	if _, err := chatUC.HandleText(ctx, ident, "hi"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}

	err := roleUC.CreateRole(ctx, "pirate", &model.RoleProfile{
		Name:  "Pirate",
		Model: "gemini-2.0-flash",
		SystemPrompt: model.SeedPrompt{
			User:  "Talk like a pirate.",
			Model: "Arr.",
		},
	})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if err := roleUC.SetUserRole(ctx, "u1", "pirate"); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}

	if _, err := chatUC.HandleText(ctx, ident, "ahoy"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}

	// The old transcript was discarded, not extended: fresh seed + one turn.
	if len(ai.lastPrompt) != 3 {
		t.Fatalf("expected a fresh seeded transcript, got %d messages", len(ai.lastPrompt))
	}
	if ai.lastPrompt[0].Content != "Talk like a pirate." {
		t.Fatalf("new persona seed missing, got %+v", ai.lastPrompt[0])
	}
	// The superseded session was deleted from the store.
	if st := sessionUC.Stats(); st.Total != 1 {
		t.Fatalf("expected old session to be dropped, total=%d", st.Total)
	}
}

func TestAIFailureSubstitutesApology(t *testing.T) {
	chatUC, _, _, ai := newTestChatUC(t)
	ai.err = errors.New("provider down")

	reply, err := chatUC.HandleText(context.Background(), Identity{UserID: "u1"}, "hi")
	if err != nil {
		t.Fatalf("AI failure must not propagate: %v", err)
	}
	if reply != ApologyReply {
		t.Fatalf("expected apology, got %q", reply)
	}
}

func TestHandleTextRejectsEmpty(t *testing.T) {
	chatUC, _, _, _ := newTestChatUC(t)
	if _, err := chatUC.HandleText(context.Background(), Identity{UserID: "u1"}, "   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestHandleSticker(t *testing.T) {
	chatUC, _, roleUC, _ := newTestChatUC(t)
	ctx := context.Background()

	reply, err := chatUC.HandleSticker(ctx, Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("HandleSticker: %v", err)
	}
	if reply == "" {
		t.Fatal("sticker reply must never be empty")
	}

	err = roleUC.CreateRole(ctx, "quiet", &model.RoleProfile{
		Name:         "Quiet",
		Model:        "gemini-2.0-flash",
		StickerReply: "( sticker noted )",
	})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if err := roleUC.SetUserRole(ctx, "u1", "quiet"); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	reply, err = chatUC.HandleSticker(ctx, Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("HandleSticker: %v", err)
	}
	if reply != "( sticker noted )" {
		t.Fatalf("expected canned sticker reply, got %q", reply)
	}
}

func TestResetSession(t *testing.T) {
	chatUC, sessionUC, _, _ := newTestChatUC(t)
	ident := Identity{UserID: "u1"}
	ctx := context.Background()

	if chatUC.ResetSession(ident) {
		t.Fatal("reset with no session should report false")
	}
	if _, err := chatUC.HandleText(ctx, ident, "hi"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if !chatUC.ResetSession(ident) {
		t.Fatal("reset should drop the active session")
	}
	if st := sessionUC.Stats(); st.Total != 0 {
		t.Fatalf("session should be deleted, total=%d", st.Total)
	}
}

func TestGroupChatsShareOneSession(t *testing.T) {
	chatUC, sessionUC, _, _ := newTestChatUC(t)
	ctx := context.Background()

	if _, err := chatUC.HandleText(ctx, Identity{UserID: "u1", GroupID: "g1"}, "hi"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if _, err := chatUC.HandleText(ctx, Identity{UserID: "u2", GroupID: "g1"}, "hello"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if st := sessionUC.Stats(); st.Total != 1 {
		t.Fatalf("group members must share one session, total=%d", st.Total)
	}
}
