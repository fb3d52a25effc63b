package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/typox/internal/engine"
)

// SaveFrom writes the current state of store name in e.
func (s *Store) SaveFrom(ctx context.Context, e *engine.Engine, name string) error {
	triples, counter, ok := e.Snapshot(name)
	if !ok {
		return fmt.Errorf("save %s: %w", name, ErrNotFound)
	}
	return s.Save(ctx, name, triples, counter)
}

// RestoreInto loads the snapshot of name into e. A missing snapshot is not
// an error; the engine treats the store as empty.
func (s *Store) RestoreInto(ctx context.Context, e *engine.Engine, name string) error {
	triples, counter, err := s.LoadStore(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return e.Restore(name, triples, counter)
}

// RestoreAll loads every snapshot into e.
func (s *Store) RestoreAll(ctx context.Context, e *engine.Engine) error {
	names, err := s.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.RestoreInto(ctx, e, name); err != nil {
			return err
		}
	}
	return nil
}
