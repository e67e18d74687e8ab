package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/domain"
	"github.com/webb-rtk/shintek/internal/domain/model"
	"github.com/webb-rtk/shintek/internal/infra/roles"
)

func newTestRoleUC(t *testing.T) *roleUC {
	t.Helper()
	store := roles.NewFileStore(filepath.Join(t.TempDir(), "roles.json"), "gemini-2.0-flash")
	logger := zerolog.Nop()
	return NewRoleUseCase(store, &logger)
}

func mustCreateRole(t *testing.T, uc *roleUC, id, name string) {
	t.Helper()
	err := uc.CreateRole(context.Background(), id, &model.RoleProfile{
		Name:  name,
		Model: "gemini-2.0-flash",
		SystemPrompt: model.SeedPrompt{
			User:  "You are " + name + ".",
			Model: "Understood.",
		},
	})
	if err != nil {
		t.Fatalf("CreateRole(%s): %v", id, err)
	}
}

func TestResolvePrecedenceBotOverUserOverGroup(t *testing.T) {
	uc := newTestRoleUC(t)
	ctx := context.Background()
	mustCreateRole(t, uc, "a", "RoleA")
	mustCreateRole(t, uc, "b", "RoleB")
	mustCreateRole(t, uc, "g", "RoleG")

	if err := uc.SetUserRole(ctx, "u1", "a"); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	if err := uc.SetGroupRole(ctx, "grp1", "g"); err != nil {
		t.Fatalf("SetGroupRole: %v", err)
	}
	if err := uc.SetBotRole(ctx, "bot1", "b"); err != nil {
		t.Fatalf("SetBotRole: %v", err)
	}

	// Bot mapping wins over user and group.
	p, err := uc.ResolveRole(ctx, "u1", "grp1", "bot1")
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}
	if p.ID != "b" {
		t.Fatalf("expected bot mapping to win, got %q", p.ID)
	}

	// Remove the bot mapping: user mapping wins next.
	if err := uc.RemoveBotRole(ctx, "bot1"); err != nil {
		t.Fatalf("RemoveBotRole: %v", err)
	}
	p, err = uc.ResolveRole(ctx, "u1", "grp1", "bot1")
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}
	if p.ID != "a" {
		t.Fatalf("expected user mapping to win, got %q", p.ID)
	}

	// Then the group mapping, then the default.
	if err := uc.RemoveUserRole(ctx, "u1"); err != nil {
		t.Fatalf("RemoveUserRole: %v", err)
	}
	p, _ = uc.ResolveRole(ctx, "u1", "grp1", "bot1")
	if p.ID != "g" {
		t.Fatalf("expected group mapping to win, got %q", p.ID)
	}
	if err := uc.RemoveGroupRole(ctx, "grp1"); err != nil {
		t.Fatalf("RemoveGroupRole: %v", err)
	}
	p, _ = uc.ResolveRole(ctx, "u1", "grp1", "bot1")
	if p.ID != "default" {
		t.Fatalf("expected default role, got %q", p.ID)
	}
}

func TestDeleteRolePurgesMappingsAndResolutionFallsBack(t *testing.T) {
	uc := newTestRoleUC(t)
	ctx := context.Background()
	mustCreateRole(t, uc, "a", "RoleA")

	if err := uc.SetUserRole(ctx, "u1", "a"); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	if err := uc.DeleteRole(ctx, "a"); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}

	// The mapping was purged with the role, so resolution lands on the
	// default without taking the fallback path.
	p, err := uc.ResolveRole(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("ResolveRole after delete: %v", err)
	}
	if p.ID != "default" {
		t.Fatalf("expected default role, got %q", p.ID)
	}
}

func TestDefaultRoleCannotBeDeleted(t *testing.T) {
	uc := newTestRoleUC(t)
	ctx := context.Background()

	err := uc.DeleteRole(ctx, "default")
	if !errors.Is(err, domain.ErrDefaultRoleProtected) {
		t.Fatalf("expected ErrDefaultRoleProtected, got %v", err)
	}
	// Table unchanged.
	if _, err := uc.GetRole(ctx, "default"); err != nil {
		t.Fatalf("default role must survive: %v", err)
	}
}

func TestRoleCRUDStrictness(t *testing.T) {
	uc := newTestRoleUC(t)
	ctx := context.Background()
	mustCreateRole(t, uc, "a", "RoleA")

	err := uc.CreateRole(ctx, "a", &model.RoleProfile{Name: "Again", Model: "m"})
	if !errors.Is(err, domain.ErrRoleAlreadyExists) {
		t.Fatalf("expected ErrRoleAlreadyExists, got %v", err)
	}
	err = uc.UpdateRole(ctx, "nope", &model.RoleProfile{Name: "X", Model: "m"})
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	err = uc.DeleteRole(ctx, "nope")
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	// Mappings may only reference real roles.
	err = uc.SetUserRole(ctx, "u1", "nope")
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound on mapping, got %v", err)
	}
	// Writes reject malformed profiles.
	err = uc.CreateRole(ctx, "bad", &model.RoleProfile{Name: ""})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSetDefaultRole(t *testing.T) {
	uc := newTestRoleUC(t)
	ctx := context.Background()
	mustCreateRole(t, uc, "a", "RoleA")

	if err := uc.SetDefaultRole(ctx, "nope"); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	if err := uc.SetDefaultRole(ctx, "a"); err != nil {
		t.Fatalf("SetDefaultRole: %v", err)
	}
	p, err := uc.GetDefaultRole(ctx)
	if err != nil {
		t.Fatalf("GetDefaultRole: %v", err)
	}
	if p.ID != "a" {
		t.Fatalf("expected default a, got %q", p.ID)
	}
	// The new default is now protected.
	if err := uc.DeleteRole(ctx, "a"); !errors.Is(err, domain.ErrDefaultRoleProtected) {
		t.Fatalf("expected ErrDefaultRoleProtected, got %v", err)
	}
}

func TestGetRoleFallsBackToDefault(t *testing.T) {
	uc := newTestRoleUC(t)
	p, err := uc.GetRole(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetRole must not fail on unknown id: %v", err)
	}
	if p.ID != "default" {
		t.Fatalf("expected fallback to default, got %q", p.ID)
	}
}
