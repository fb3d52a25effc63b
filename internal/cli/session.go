package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/typox/internal/config"
	"github.com/roach88/typox/internal/engine"
	"github.com/roach88/typox/internal/snapshot"
)

// StoreOptions are the flags shared by commands that work on one store.
type StoreOptions struct {
	*RootOptions
	Database string
	Store    string
}

func addStoreFlags(cmd *cobra.Command, opts *StoreOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config: typox.db)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "store name (default from config: memory)")
}

// session is an engine backed by a snapshot database for one command.
type session struct {
	cfg    *config.Config
	db     *snapshot.Store
	engine *engine.Engine
}

// openSession opens cfg.DB and builds an engine from cfg. Unless create is
// set, a missing database file is a command error. Only the named stores
// are restored; none restores every snapshot.
func openSession(ctx context.Context, cfg *config.Config, create bool, stores ...string) (*session, error) {
	db, err := openDatabase(cfg, create)
	if err != nil {
		return nil, err
	}

	opts := append(cfg.EngineOptions(),
		engine.WithDefaultStore(""),
		engine.WithLogger(slog.Default()),
	)
	e := engine.New(opts...)

	if len(stores) == 0 {
		err = db.RestoreAll(ctx, e)
	} else {
		for _, name := range stores {
			if err = db.RestoreInto(ctx, e, name); err != nil {
				break
			}
		}
	}
	if err != nil {
		db.Close()
		return nil, WrapExitError(ExitCommandError, "failed to restore stores", err)
	}

	return &session{cfg: cfg, db: db, engine: e}, nil
}

// openDatabase opens cfg.DB; without create a missing file is a command
// error.
func openDatabase(cfg *config.Config, create bool) (*snapshot.Store, error) {
	if !create {
		if _, err := os.Stat(cfg.DB); errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s (use load --create)", cfg.DB))
		}
	}

	slog.Debug("opening database", "path", cfg.DB)
	db, err := snapshot.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}

func (s *session) save(ctx context.Context, store string) error {
	if err := s.db.SaveFrom(ctx, s.engine, store); err != nil {
		return WrapExitError(ExitFailure, "failed to save store", err)
	}
	slog.Debug("store saved", "store", store, "size", s.engine.Size(store))
	return nil
}

func (s *session) close() {
	if err := s.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
