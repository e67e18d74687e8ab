package repository

import (
	"context"

	"github.com/webb-rtk/shintek/internal/domain/model"
)

// RoleConfigStore is the durable, human-editable configuration document
// behind the role resolver. Load returns the whole document; Save replaces
// it atomically so an interrupted write never corrupts the file.
type RoleConfigStore interface {
	Load(ctx context.Context) (*model.RoleConfig, error)
	Save(ctx context.Context, cfg *model.RoleConfig) error
}
