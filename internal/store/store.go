package store

import (
	"context"
	"errors"

	"github.com/seantiz/benchd/internal/model"
)

// ErrNotFound is returned when no engine with the given name is registered.
var ErrNotFound = errors.New("engine not found")

// ErrExists is returned when registering an engine name that is already taken.
var ErrExists = errors.New("engine already registered")

// Store defines the persistence operations for the engine registry.
type Store interface {
	CreateEngine(ctx context.Context, e *model.Engine) error
	GetEngine(ctx context.Context, name string) (*model.Engine, error)
	ListEngines(ctx context.Context) ([]*model.Engine, error)
	DeleteEngine(ctx context.Context, name string) error
	Close() error
}
