package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/typox/internal/interop"
	"github.com/roach88/typox/internal/term"
)

// Save replaces the snapshot of name with triples and the blank-node
// counter position, in one transaction.
func (s *Store) Save(ctx context.Context, name string, triples []term.Triple, nextBlank int64) error {
	statements := make([]string, len(triples))
	for i, t := range triples {
		line, err := interop.EncodeNTriples([]term.Triple{t}, interop.EncodeOptions{})
		if err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		statements[i] = strings.TrimSuffix(string(line), "\n")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: begin: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stores (name, next_blank, size) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET next_blank = excluded.next_blank, size = excluded.size
	`, name, nextBlank, len(triples)); err != nil {
		return fmt.Errorf("save %s: upsert store: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM triples WHERE store = ?`, name); err != nil {
		return fmt.Errorf("save %s: delete triples: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO triples (store, seq, statement) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save %s: prepare: %w", name, err)
	}
	defer stmt.Close()

	for i, line := range statements {
		if _, err := stmt.ExecContext(ctx, name, i, line); err != nil {
			return fmt.Errorf("save %s: insert triple %d: %w", name, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %s: commit: %w", name, err)
	}
	return nil
}

// LoadStore returns the triples of name in insertion order and its counter
// position. It returns ErrNotFound for an unknown name.
func (s *Store) LoadStore(ctx context.Context, name string) ([]term.Triple, int64, error) {
	var nextBlank int64
	err := s.db.QueryRowContext(ctx, `SELECT next_blank FROM stores WHERE name = ?`, name).Scan(&nextBlank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("load %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT statement FROM triples WHERE store = ? ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: query triples: %w", name, err)
	}
	defer rows.Close()

	var doc strings.Builder
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, 0, fmt.Errorf("load %s: scan: %w", name, err)
		}
		doc.WriteString(line)
		doc.WriteByte('\n')
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("load %s: iterate triples: %w", name, err)
	}

	triples, err := interop.DecodeNTriples(doc.String(), interop.DecodeOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", name, err)
	}
	return triples, nextBlank, nil
}

// Size returns the triple count recorded for name. It returns ErrNotFound
// for an unknown name.
func (s *Store) Size(ctx context.Context, name string) (int, error) {
	var size int
	err := s.db.QueryRowContext(ctx, `SELECT size FROM stores WHERE name = ?`, name).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("size %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", name, err)
	}
	return size, nil
}

// Names returns the snapshot names in byte order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM stores ORDER BY name COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return names, nil
}

// Delete removes the snapshot of name. It returns false if there was none.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stores WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	return n > 0, nil
}
