package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/webb-rtk/shintek/internal/domain"
	"github.com/webb-rtk/shintek/internal/usecase"
)

// BotFacade composes the use cases into high-level bot commands. Methods
// return strings so the Telegram adapter just forwards them to the chat.
type BotFacade struct {
	ChatUC usecase.ChatUseCase
	RoleUC usecase.RoleUseCase
}

func NewBotFacade(chatUC usecase.ChatUseCase, roleUC usecase.RoleUseCase) *BotFacade {
	return &BotFacade{ChatUC: chatUC, RoleUC: roleUC}
}

// HandleStart greets the user with the currently resolved persona.
func (b *BotFacade) HandleStart(ctx context.Context, ident usecase.Identity) (string, error) {
	profile, err := b.RoleUC.ResolveRole(ctx, ident.UserID, ident.GroupID, ident.BotID)
	if err != nil {
		return "", fmt.Errorf("resolve role: %w", err)
	}
	return fmt.Sprintf("Hello! I'm %s.\n%s\nSend me a message to start chatting, or /roles to see other personas.",
		profile.Name, profile.Description), nil
}

// HandleText forwards a conversational turn.
func (b *BotFacade) HandleText(ctx context.Context, ident usecase.Identity, text string) (string, error) {
	return b.ChatUC.HandleText(ctx, ident, text)
}

// HandleSticker returns the persona's canned sticker acknowledgement.
func (b *BotFacade) HandleSticker(ctx context.Context, ident usecase.Identity) (string, error) {
	return b.ChatUC.HandleSticker(ctx, ident)
}

// HandleReset drops the caller's conversation.
func (b *BotFacade) HandleReset(ident usecase.Identity) string {
	if b.ChatUC.ResetSession(ident) {
		return "Conversation reset. The next message starts fresh."
	}
	return "Nothing to reset."
}

// HandleSetRole maps the calling user to a role.
func (b *BotFacade) HandleSetRole(ctx context.Context, ident usecase.Identity, roleID string) (string, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return "Usage: /role <role-id>. See /roles for the list.", nil
	}
	if err := b.RoleUC.SetUserRole(ctx, ident.UserID, roleID); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return fmt.Sprintf("Unknown role %q. See /roles for the list.", roleID), nil
		}
		return "", fmt.Errorf("set user role: %w", err)
	}
	return fmt.Sprintf("Done. Your persona is now %q. The conversation will restart with it.", roleID), nil
}

// HandleRoles lists available personas.
func (b *BotFacade) HandleRoles(ctx context.Context) (string, error) {
	roles, err := b.RoleUC.ListRoles(ctx)
	if err != nil {
		return "", fmt.Errorf("list roles: %w", err)
	}
	if len(roles) == 0 {
		return "No personas configured.", nil
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	sb := strings.Builder{}
	sb.WriteString("Available personas:\n")
	for _, r := range roles {
		sb.WriteString(fmt.Sprintf("- %s: %s (%s)\n", r.ID, r.Name, r.Model))
	}
	sb.WriteString("\nSwitch with: /role <role-id>")
	return sb.String(), nil
}

// HandleWhoAmI reports the persona currently resolved for the caller.
func (b *BotFacade) HandleWhoAmI(ctx context.Context, ident usecase.Identity) (string, error) {
	profile, err := b.RoleUC.ResolveRole(ctx, ident.UserID, ident.GroupID, ident.BotID)
	if err != nil {
		return "", fmt.Errorf("resolve role: %w", err)
	}
	return fmt.Sprintf("Persona: %s (%s)\nModel: %s", profile.Name, profile.ID, profile.Model), nil
}
