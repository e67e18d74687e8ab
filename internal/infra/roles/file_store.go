package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/webb-rtk/shintek/internal/domain/model"
	"github.com/webb-rtk/shintek/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.RoleConfigStore = (*FileStore)(nil)

// FileStore persists the role configuration as a single human-editable JSON
// document. There is no caching: Load reads the file every time so edits
// made out of band (an admin editing the file directly) take effect on the
// next resolution without a restart.
type FileStore struct {
	path         string
	defaultModel string
}

func NewFileStore(path, defaultModel string) *FileStore {
	return &FileStore{path: path, defaultModel: defaultModel}
}

func (f *FileStore) Load(ctx context.Context) (*model.RoleConfig, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		// First run: seed the document so the default role always exists.
		cfg := f.seed()
		if err := f.Save(ctx, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read role config: %w", err)
	}
	var cfg model.RoleConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse role config %s: %w", f.path, err)
	}
	cfg.Normalize()
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = "default"
	}
	return &cfg, nil
}

// Save replaces the whole document atomically: write to a temp file in the
// same directory, then rename over the target. A crash mid-write never
// leaves a half-written config behind.
func (f *FileStore) Save(ctx context.Context, cfg *model.RoleConfig) error {
	cfg.Normalize()
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode role config: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp role config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp role config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace role config: %w", err)
	}
	return nil
}

func (f *FileStore) seed() *model.RoleConfig {
	cfg := &model.RoleConfig{
		Roles: map[string]*model.RoleProfile{
			"default": {
				ID:          "default",
				Name:        "Assistant",
				Description: "General-purpose assistant persona",
				SystemPrompt: model.SeedPrompt{
					User:  "You are a helpful assistant. Keep replies concise.",
					Model: "Understood. I'm ready to help.",
				},
				Model:        f.defaultModel,
				StickerReply: "Nice sticker!",
			},
		},
		DefaultRole: "default",
	}
	cfg.Normalize()
	return cfg
}
