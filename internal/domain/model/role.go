package model

import "strings"

// SeedPrompt is the persona-establishing exchange injected as the first two
// turns of every new session created under a role.
type SeedPrompt struct {
	User  string `json:"user"`
	Model string `json:"model"`
}

// RoleProfile is a named behavior bundle: persona seed, target model and
// canned replies for non-text events.
type RoleProfile struct {
	ID           string     `json:"-"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	SystemPrompt SeedPrompt `json:"systemPrompt"`
	Model        string     `json:"model"`
	StickerReply string     `json:"stickerReply,omitempty"`
}

// Validate enforces required fields at the write boundary. Reads stay
// lenient (resolution falls back to the default role instead of failing).
func (p *RoleProfile) Validate() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Model) != ""
}

// RoleConfig is the whole durable configuration document: the profile table,
// the three identity mapping tables and the default role id. It is reloaded
// from disk on every resolver operation and replaced atomically on writes.
type RoleConfig struct {
	Roles       map[string]*RoleProfile `json:"roles"`
	UserRoles   map[string]string       `json:"userRoles"`
	GroupRoles  map[string]string       `json:"groupRoles"`
	BotRoles    map[string]string       `json:"botRoles"`
	DefaultRole string                  `json:"defaultRole"`
}

// Normalize fills nil tables so callers can index without checks.
func (c *RoleConfig) Normalize() {
	if c.Roles == nil {
		c.Roles = map[string]*RoleProfile{}
	}
	if c.UserRoles == nil {
		c.UserRoles = map[string]string{}
	}
	if c.GroupRoles == nil {
		c.GroupRoles = map[string]string{}
	}
	if c.BotRoles == nil {
		c.BotRoles = map[string]string{}
	}
	for id, p := range c.Roles {
		if p != nil {
			p.ID = id
		}
	}
}
