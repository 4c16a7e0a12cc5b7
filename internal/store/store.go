// Package store keeps entity versions per block in sqlite.
//
// Every write of an entity opens a new version starting at the writing
// block and closes the previous one. A version is visible at block b when
// block_from <= b < block_to; an open version has no block_to.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hanpama/blockql/internal/blockptr"
	"github.com/hanpama/blockql/internal/eventbus"
	"github.com/hanpama/blockql/internal/events"
)

// ErrBlockOrder is returned when a block does not extend the chain head.
var ErrBlockOrder = errors.New("block does not extend the chain head")

// Store is the entity store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	bus    *eventbus.Bus
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithEventBus publishes a StoreQuery event for every read.
func WithEventBus(b *eventbus.Bus) Option { return func(s *Store) { s.bus = b } }

// Open opens or creates the store database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS blocks (
			number INTEGER PRIMARY KEY,
			hash BLOB NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS entities (
			entity TEXT NOT NULL,
			id TEXT NOT NULL,
			block_from INTEGER NOT NULL,
			block_to INTEGER,
			data TEXT NOT NULL,
			PRIMARY KEY (entity, id, block_from)
		);
		CREATE INDEX IF NOT EXISTS entities_range ON entities (entity, block_from, block_to);
	`)
	if err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	return nil
}

// Change is one entity write in a block. Remove deletes the entity as of
// the block; otherwise Data replaces its fields.
type Change struct {
	Entity string
	ID     string
	Data   map[string]any
	Remove bool
}

// AppendBlock records block and its entity changes atomically. The block
// number must be greater than the current head.
func (s *Store) AppendBlock(ctx context.Context, block blockptr.Ptr, changes []Change) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append block %s: %w", block, err)
	}
	defer tx.Rollback()

	var head sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(number) FROM blocks`).Scan(&head); err != nil {
		return fmt.Errorf("append block %s: %w", block, err)
	}
	if head.Valid && block.Number <= uint64(head.Int64) {
		return fmt.Errorf("append block %s after #%d: %w", block, head.Int64, ErrBlockOrder)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO blocks (number, hash) VALUES (?, ?)`, int64(block.Number), block.Hash[:]); err != nil {
		return fmt.Errorf("append block %s: %w", block, err)
	}

	for _, c := range changes {
		if c.Entity == "" || c.ID == "" {
			return fmt.Errorf("append block %s: change without entity or id", block)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entities WHERE entity = ? AND id = ? AND block_from = ?`,
			c.Entity, c.ID, int64(block.Number)); err != nil {
			return fmt.Errorf("write %s %s: %w", c.Entity, c.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE entities SET block_to = ? WHERE entity = ? AND id = ? AND block_to IS NULL`,
			int64(block.Number), c.Entity, c.ID); err != nil {
			return fmt.Errorf("write %s %s: %w", c.Entity, c.ID, err)
		}
		if c.Remove {
			continue
		}
		data := make(map[string]any, len(c.Data)+1)
		for k, v := range c.Data {
			data[k] = v
		}
		data["id"] = c.ID
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", c.Entity, c.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entities (entity, id, block_from, block_to, data) VALUES (?, ?, ?, NULL, ?)`,
			c.Entity, c.ID, int64(block.Number), string(raw)); err != nil {
			return fmt.Errorf("write %s %s: %w", c.Entity, c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append block %s: %w", block, err)
	}
	s.logger.Debug("block appended", "block", block.Number, "changes", len(changes))
	eventbus.Publish(ctx, s.bus, events.BlockAppended{Block: block, Entities: len(changes)})
	return nil
}

// ChainHead returns the most recent block.
func (s *Store) ChainHead(ctx context.Context) (blockptr.Ptr, bool, error) {
	return s.block(ctx, `SELECT number, hash FROM blocks ORDER BY number DESC LIMIT 1`)
}

func (s *Store) BlockByNumber(ctx context.Context, number uint64) (blockptr.Ptr, bool, error) {
	return s.block(ctx, `SELECT number, hash FROM blocks WHERE number = ?`, int64(number))
}

func (s *Store) BlockByHash(ctx context.Context, hash blockptr.Hash) (blockptr.Ptr, bool, error) {
	return s.block(ctx, `SELECT number, hash FROM blocks WHERE hash = ?`, hash[:])
}

func (s *Store) block(ctx context.Context, query string, args ...any) (blockptr.Ptr, bool, error) {
	var (
		ptr    blockptr.Ptr
		number int64
		hash   []byte
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&number, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ptr, false, nil
	}
	if err != nil {
		return ptr, false, fmt.Errorf("load block: %w", err)
	}
	ptr.Number = uint64(number)
	copy(ptr.Hash[:], hash)
	return ptr, true, nil
}

func (s *Store) observe(ctx context.Context, entity string, block uint64, start time.Time, rows int, err error) {
	eventbus.Publish(ctx, s.bus, events.StoreQuery{
		Entity:   entity,
		Block:    block,
		Rows:     rows,
		Err:      err,
		Start:    start,
		Duration: time.Since(start),
	})
}
