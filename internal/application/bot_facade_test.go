package application

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/domain/model"
	"github.com/webb-rtk/shintek/internal/infra/adapters/ai"
	"github.com/webb-rtk/shintek/internal/infra/roles"
	"github.com/webb-rtk/shintek/internal/usecase"
)

func newTestFacade(t *testing.T) (*BotFacade, usecase.RoleUseCase) {
	t.Helper()
	logger := zerolog.Nop()
	store := roles.NewFileStore(filepath.Join(t.TempDir(), "roles.json"), "gemini-2.0-flash")
	roleUC := usecase.NewRoleUseCase(store, &logger)
	sessionUC := usecase.NewSessionUseCase(time.Hour, &logger)
	chatUC := usecase.NewChatUseCase(sessionUC, roleUC, ai.NewNoopAIAdapter(), &logger)
	return NewBotFacade(chatUC, roleUC), roleUC
}

func TestHandleStartMentionsPersona(t *testing.T) {
	f, _ := newTestFacade(t)
	out, err := f.HandleStart(context.Background(), usecase.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	if !strings.Contains(out, "Assistant") {
		t.Fatalf("greeting should name the default persona, got %q", out)
	}
}

func TestHandleSetRoleValidation(t *testing.T) {
	f, roleUC := newTestFacade(t)
	ctx := context.Background()
	ident := usecase.Identity{UserID: "u1"}

	out, err := f.HandleSetRole(ctx, ident, "")
	if err != nil {
		t.Fatalf("HandleSetRole: %v", err)
	}
	if !strings.Contains(out, "Usage") {
		t.Fatalf("expected usage hint, got %q", out)
	}

	out, err = f.HandleSetRole(ctx, ident, "ghost")
	if err != nil {
		t.Fatalf("HandleSetRole: %v", err)
	}
	if !strings.Contains(out, "Unknown role") {
		t.Fatalf("expected unknown-role message, got %q", out)
	}

	err = roleUC.CreateRole(ctx, "pirate", &model.RoleProfile{Name: "Pirate", Model: "gemini-2.0-flash"})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	out, err = f.HandleSetRole(ctx, ident, "pirate")
	if err != nil {
		t.Fatalf("HandleSetRole: %v", err)
	}
	if !strings.Contains(out, "pirate") {
		t.Fatalf("expected confirmation, got %q", out)
	}

	who, err := f.HandleWhoAmI(ctx, ident)
	if err != nil {
		t.Fatalf("HandleWhoAmI: %v", err)
	}
	if !strings.Contains(who, "Pirate") {
		t.Fatalf("expected resolved persona in %q", who)
	}
}

func TestHandleRolesListsAll(t *testing.T) {
	f, roleUC := newTestFacade(t)
	ctx := context.Background()
	err := roleUC.CreateRole(ctx, "pirate", &model.RoleProfile{Name: "Pirate", Model: "gemini-2.0-flash"})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	out, err := f.HandleRoles(ctx)
	if err != nil {
		t.Fatalf("HandleRoles: %v", err)
	}
	if !strings.Contains(out, "default") || !strings.Contains(out, "pirate") {
		t.Fatalf("expected both personas listed, got %q", out)
	}
}

func TestHandleResetRoundTrip(t *testing.T) {
	f, _ := newTestFacade(t)
	ctx := context.Background()
	ident := usecase.Identity{UserID: "u1"}

	if out := f.HandleReset(ident); !strings.Contains(out, "Nothing") {
		t.Fatalf("expected nothing-to-reset, got %q", out)
	}
	if _, err := f.HandleText(ctx, ident, "hi"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if out := f.HandleReset(ident); !strings.Contains(out, "reset") {
		t.Fatalf("expected reset confirmation, got %q", out)
	}
}
