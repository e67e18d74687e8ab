package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/domain"
	"github.com/webb-rtk/shintek/internal/domain/model"
	"github.com/webb-rtk/shintek/internal/domain/ports/adapter"
	"github.com/webb-rtk/shintek/internal/infra/metrics"
)

// ApologyReply is sent when the AI backend fails, so the end user is never
// left without a response.
const ApologyReply = "Sorry, I ran into a problem answering that. Please try again in a moment."

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// Identity is the inbound identity tuple. UserID is always set; GroupID is
// set for group chats; BotID names the receiving bot/channel.
type Identity struct {
	UserID  string
	GroupID string
	BotID   string
}

// SessionKey is the stable key for the identity -> session mapping. Group
// chats share one transcript; private chats get one per user.
func (i Identity) SessionKey() string {
	if i.GroupID != "" {
		return "group:" + i.GroupID
	}
	return "user:" + i.UserID
}

// ChatUseCase glues role resolution and the session store into the
// conversation flow: resolve, (re)create the session on role change, seed
// new sessions with the persona prompt, round-trip through the AI backend
// and hand the reply back for delivery.
type ChatUseCase interface {
	// HandleText returns the text to deliver. An AI-backend failure is
	// logged and substituted with ApologyReply rather than propagated, so
	// delivery is still attempted.
	HandleText(ctx context.Context, ident Identity, text string) (string, error)
	// HandleSticker returns the resolved profile's canned sticker reply.
	HandleSticker(ctx context.Context, ident Identity) (string, error)
	// ResetSession drops the identity's session; returns whether one existed.
	ResetSession(ident Identity) bool
}

type chatUC struct {
	sessions SessionUseCase
	roles    RoleUseCase
	ai       adapter.AIServiceAdapter
	log      *zerolog.Logger

	// identity -> session id, owned here, not by the session store
	mu        sync.Mutex
	bySession map[string]string
}

func NewChatUseCase(sessions SessionUseCase, roles RoleUseCase, ai adapter.AIServiceAdapter, logger *zerolog.Logger) *chatUC {
	chatLog := logger.With().Str("component", "ChatUC").Logger()
	return &chatUC{
		sessions:  sessions,
		roles:     roles,
		ai:        ai,
		log:       &chatLog,
		bySession: make(map[string]string),
	}
}

func (c *chatUC) HandleText(ctx context.Context, ident Identity, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrInvalidArgument
	}

	profile, err := c.roles.ResolveRole(ctx, ident.UserID, ident.GroupID, ident.BotID)
	if err != nil {
		return "", err
	}

	sessionID := c.sessionFor(ident.SessionKey(), profile)
	if err := c.sessions.AddMessage(sessionID, model.RoleUser, text); err != nil {
		// Session expired between lookup and append; start over once.
		sessionID = c.recreate(ident.SessionKey(), profile)
		if err := c.sessions.AddMessage(sessionID, model.RoleUser, text); err != nil {
			return "", err
		}
	}

	msgs, err := c.sessions.GetMessages(sessionID)
	if err != nil {
		return "", err
	}
	transcript := make([]adapter.Message, 0, len(msgs))
	for _, m := range msgs {
		transcript = append(transcript, adapter.Message{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	reply, usage, err := c.ai.ChatWithUsage(ctx, profile.Model, transcript)
	metrics.ObserveAICall(profile.Model, time.Since(start), err == nil)
	if err != nil {
		c.log.Error().Err(err).Str("model", profile.Model).Str("session_id", sessionID).Msg("ai call failed")
		return ApologyReply, nil
	}
	metrics.AddAITokens(profile.Model, usage.PromptTokens, usage.CompletionTokens)

	msgs = append(msgs, model.Message{Role: model.RoleAssistant, Content: reply})
	if err := c.sessions.UpdateSession(sessionID, msgs); err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("session vanished before reply was recorded")
	}
	return reply, nil
}

func (c *chatUC) HandleSticker(ctx context.Context, ident Identity) (string, error) {
	profile, err := c.roles.ResolveRole(ctx, ident.UserID, ident.GroupID, ident.BotID)
	if err != nil {
		return "", err
	}
	if profile.StickerReply == "" {
		return "Nice sticker!", nil
	}
	return profile.StickerReply, nil
}

func (c *chatUC) ResetSession(ident Identity) bool {
	key := ident.SessionKey()

	c.mu.Lock()
	sessionID, ok := c.bySession[key]
	delete(c.bySession, key)
	c.mu.Unlock()

	if !ok {
		return false
	}
	return c.sessions.DeleteSession(sessionID)
}

// sessionFor returns the identity's current session id, creating a fresh
// seeded session when none exists, the recorded one expired, or the
// resolved role changed. A role change always supersedes: the assistant
// persona and history must not straddle two personas.
func (c *chatUC) sessionFor(key string, profile *model.RoleProfile) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sessionID, ok := c.bySession[key]; ok {
		sess, err := c.sessions.GetSession(sessionID)
		if err == nil && sess.RoleID == profile.ID {
			return sessionID
		}
		if err == nil {
			c.log.Info().Str("session_id", sessionID).Str("old_role", sess.RoleID).Str("new_role", profile.ID).Msg("role changed, superseding session")
			c.sessions.DeleteSession(sessionID)
		}
	}

	sessionID := c.newSeededSession(profile)
	c.bySession[key] = sessionID
	return sessionID
}

func (c *chatUC) recreate(key string, profile *model.RoleProfile) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	sessionID := c.newSeededSession(profile)
	c.bySession[key] = sessionID
	return sessionID
}

func (c *chatUC) newSeededSession(profile *model.RoleProfile) string {
	sessionID := c.sessions.CreateSession(profile.ID)
	if profile.SystemPrompt.User != "" || profile.SystemPrompt.Model != "" {
		_ = c.sessions.AddMessage(sessionID, model.RoleUser, profile.SystemPrompt.User)
		_ = c.sessions.AddMessage(sessionID, model.RoleAssistant, profile.SystemPrompt.Model)
	}
	return sessionID
}
