package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/domain"
	"github.com/webb-rtk/shintek/internal/domain/model"
	"github.com/webb-rtk/shintek/internal/domain/ports/repository"
	"github.com/webb-rtk/shintek/internal/infra/metrics"
)

// Compile-time check
var _ RoleUseCase = (*roleUC)(nil)

// RoleUseCase deterministically maps an inbound identity to a behavior
// profile and provides CRUD over profiles and mappings. Every operation
// reloads the configuration document so out-of-band edits take effect
// immediately.
type RoleUseCase interface {
	// ResolveRole applies the precedence chain bot -> user -> group -> default.
	// It never fails the caller on a stale mapping: an unknown role id falls
	// back to the default role with a warning.
	ResolveRole(ctx context.Context, userID, groupID, botID string) (*model.RoleProfile, error)
	GetRole(ctx context.Context, roleID string) (*model.RoleProfile, error)
	ListRoles(ctx context.Context) ([]*model.RoleProfile, error)
	CreateRole(ctx context.Context, roleID string, p *model.RoleProfile) error
	UpdateRole(ctx context.Context, roleID string, p *model.RoleProfile) error
	DeleteRole(ctx context.Context, roleID string) error

	SetUserRole(ctx context.Context, userID, roleID string) error
	RemoveUserRole(ctx context.Context, userID string) error
	SetGroupRole(ctx context.Context, groupID, roleID string) error
	RemoveGroupRole(ctx context.Context, groupID string) error
	SetBotRole(ctx context.Context, botID, roleID string) error
	RemoveBotRole(ctx context.Context, botID string) error

	GetDefaultRole(ctx context.Context) (*model.RoleProfile, error)
	SetDefaultRole(ctx context.Context, roleID string) error
}

type roleUC struct {
	store repository.RoleConfigStore
	log   *zerolog.Logger
}

func NewRoleUseCase(store repository.RoleConfigStore, logger *zerolog.Logger) *roleUC {
	roleLog := logger.With().Str("component", "RoleUC").Logger()
	return &roleUC{store: store, log: &roleLog}
}

func (r *roleUC) ResolveRole(ctx context.Context, userID, groupID, botID string) (*model.RoleProfile, error) {
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load role config: %w", err)
	}

	roleID, source := cfg.DefaultRole, "default"
	if groupID != "" {
		if id, ok := cfg.GroupRoles[groupID]; ok {
			roleID, source = id, "group"
		}
	}
	if userID != "" {
		if id, ok := cfg.UserRoles[userID]; ok {
			roleID, source = id, "user"
		}
	}
	if botID != "" {
		if id, ok := cfg.BotRoles[botID]; ok {
			roleID, source = id, "bot"
		}
	}
	metrics.IncRoleResolutions(source)

	return r.profileOrDefault(cfg, roleID), nil
}

func (r *roleUC) GetRole(ctx context.Context, roleID string) (*model.RoleProfile, error) {
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load role config: %w", err)
	}
	return r.profileOrDefault(cfg, roleID), nil
}

func (r *roleUC) ListRoles(ctx context.Context) ([]*model.RoleProfile, error) {
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load role config: %w", err)
	}
	out := make([]*model.RoleProfile, 0, len(cfg.Roles))
	for _, p := range cfg.Roles {
		out = append(out, p)
	}
	return out, nil
}

func (r *roleUC) CreateRole(ctx context.Context, roleID string, p *model.RoleProfile) error {
	if roleID == "" || p == nil || !p.Validate() {
		return domain.ErrInvalidArgument
	}
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := cfg.Roles[roleID]; ok {
		return domain.ErrRoleAlreadyExists
	}
	p.ID = roleID
	cfg.Roles[roleID] = p
	return r.store.Save(ctx, cfg)
}

func (r *roleUC) UpdateRole(ctx context.Context, roleID string, p *model.RoleProfile) error {
	if roleID == "" || p == nil || !p.Validate() {
		return domain.ErrInvalidArgument
	}
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := cfg.Roles[roleID]; !ok {
		return domain.ErrRoleNotFound
	}
	p.ID = roleID
	cfg.Roles[roleID] = p
	return r.store.Save(ctx, cfg)
}

// DeleteRole removes a profile and purges every mapping that references it,
// so no dangling mapping is left to trip the fallback path later.
func (r *roleUC) DeleteRole(ctx context.Context, roleID string) error {
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if roleID == cfg.DefaultRole {
		return domain.ErrDefaultRoleProtected
	}
	if _, ok := cfg.Roles[roleID]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(cfg.Roles, roleID)
	purge(cfg.UserRoles, roleID)
	purge(cfg.GroupRoles, roleID)
	purge(cfg.BotRoles, roleID)
	return r.store.Save(ctx, cfg)
}

func (r *roleUC) SetUserRole(ctx context.Context, userID, roleID string) error {
	return r.setMapping(ctx, func(cfg *model.RoleConfig) map[string]string { return cfg.UserRoles }, userID, roleID)
}

func (r *roleUC) RemoveUserRole(ctx context.Context, userID string) error {
	return r.removeMapping(ctx, func(cfg *model.RoleConfig) map[string]string { return cfg.UserRoles }, userID)
}

func (r *roleUC) SetGroupRole(ctx context.Context, groupID, roleID string) error {
	return r.setMapping(ctx, func(cfg *model.RoleConfig) map[string]string { return cfg.GroupRoles }, groupID, roleID)
}

func (r *roleUC) RemoveGroupRole(ctx context.Context, groupID string) error {
	return r.removeMapping(ctx, func(cfg *model.RoleConfig) map[string]string { return cfg.GroupRoles }, groupID)
}

func (r *roleUC) SetBotRole(ctx context.Context, botID, roleID string) error {
	return r.setMapping(ctx, func(cfg *model.RoleConfig) map[string]string { return cfg.BotRoles }, botID, roleID)
}

func (r *roleUC) RemoveBotRole(ctx context.Context, botID string) error {
	return r.removeMapping(ctx, func(cfg *model.RoleConfig) map[string]string { return cfg.BotRoles }, botID)
}

func (r *roleUC) GetDefaultRole(ctx context.Context) (*model.RoleProfile, error) {
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return r.profileOrDefault(cfg, cfg.DefaultRole), nil
}

func (r *roleUC) SetDefaultRole(ctx context.Context, roleID string) error {
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := cfg.Roles[roleID]; !ok {
		return domain.ErrRoleNotFound
	}
	cfg.DefaultRole = roleID
	return r.store.Save(ctx, cfg)
}

// setMapping assigns identity -> roleID in one of the three tables.
// Assignments may only reference real roles, even though resolution is
// tolerant of drift caused by later deletion.
func (r *roleUC) setMapping(ctx context.Context, table func(*model.RoleConfig) map[string]string, key, roleID string) error {
	if key == "" {
		return domain.ErrInvalidArgument
	}
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := cfg.Roles[roleID]; !ok {
		return domain.ErrRoleNotFound
	}
	table(cfg)[key] = roleID
	return r.store.Save(ctx, cfg)
}

func (r *roleUC) removeMapping(ctx context.Context, table func(*model.RoleConfig) map[string]string, key string) error {
	cfg, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	delete(table(cfg), key)
	return r.store.Save(ctx, cfg)
}

// profileOrDefault returns the profile for roleID, degrading to the default
// role when the id points at nothing (stale mapping, deleted role).
// Resolution warns and counts instead of failing.
func (r *roleUC) profileOrDefault(cfg *model.RoleConfig, roleID string) *model.RoleProfile {
	if p, ok := cfg.Roles[roleID]; ok && p != nil {
		return p
	}
	r.log.Warn().Str("role_id", roleID).Str("default", cfg.DefaultRole).Msg("unknown role id, falling back to default")
	metrics.IncRoleFallback()
	if p, ok := cfg.Roles[cfg.DefaultRole]; ok && p != nil {
		return p
	}
	// Config with a missing default role is malformed; synthesize a bare
	// profile so callers still get something usable.
	return &model.RoleProfile{ID: cfg.DefaultRole, Name: "Assistant", Model: ""}
}

func purge(table map[string]string, roleID string) {
	for k, v := range table {
		if v == roleID {
			delete(table, k)
		}
	}
}
