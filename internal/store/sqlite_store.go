package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/kittclouds/arbor/pkg/script"
	"github.com/kittclouds/arbor/pkg/tree"
)

// SQLiteStore persists stories in SQLite via the ncruces database/sql
// driver. Node and edge rows carry their link-array entries alongside the
// payload columns, index-aligned by the idx column.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS stories (
    name TEXT PRIMARY KEY,
    uid  INTEGER NOT NULL,
    text TEXT NOT NULL
);

-- One row per node, index-aligned with the in-memory arrays.
-- head is the first outgoing edge; hashes and indices are stored as
-- signed integers and cast back on load.
CREATE TABLE IF NOT EXISTS story_nodes (
    story     TEXT NOT NULL,
    idx       INTEGER NOT NULL,
    head      INTEGER NOT NULL,
    sec_start INTEGER NOT NULL,
    sec_end   INTEGER NOT NULL,
    sec_hash  INTEGER NOT NULL,
    pos_x     REAL NOT NULL,
    pos_y     REAL NOT NULL,
    PRIMARY KEY (story, idx)
);

-- One row per edge; next is the edge's link-array entry.
CREATE TABLE IF NOT EXISTS story_edges (
    story     TEXT NOT NULL,
    idx       INTEGER NOT NULL,
    next      INTEGER NOT NULL,
    source    INTEGER NOT NULL,
    target    INTEGER NOT NULL,
    sec_start INTEGER NOT NULL,
    sec_end   INTEGER NOT NULL,
    sec_hash  INTEGER NOT NULL,
    req_kind  INTEGER NOT NULL,
    req_key   TEXT NOT NULL,
    req_val   INTEGER NOT NULL,
    req_name  TEXT NOT NULL,
    eff_kind  INTEGER NOT NULL,
    eff_key   TEXT NOT NULL,
    eff_val   INTEGER NOT NULL,
    eff_name  TEXT NOT NULL,
    PRIMARY KEY (story, idx)
);

CREATE TABLE IF NOT EXISTS story_names (
    story TEXT NOT NULL,
    key   TEXT NOT NULL,
    name  TEXT NOT NULL,
    PRIMARY KEY (story, key)
);

CREATE TABLE IF NOT EXISTS story_values (
    story TEXT NOT NULL,
    key   TEXT NOT NULL,
    val   INTEGER NOT NULL,
    PRIMARY KEY (story, key)
);
`

// NewSQLiteStore creates an in-memory store, used in tests and demos.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveStory writes the story in one transaction, replacing any prior rows
// under its name.
func (s *SQLiteStore) SaveStory(ctx context.Context, story *script.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if err := deleteStoryTx(ctx, tx, story.Name); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stories (name, uid, text) VALUES (?, ?, ?)`,
		story.Name, int64(story.UID), story.Text); err != nil {
		return fmt.Errorf("failed to insert story: %w", err)
	}

	heads := story.Tree.Heads()
	for i, node := range story.Tree.Nodes() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO story_nodes (story, idx, head, sec_start, sec_end, sec_hash, pos_x, pos_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			story.Name, i, int64(heads[i]),
			node.Section.Start, node.Section.End, int64(node.Section.Hash),
			node.Pos.X, node.Pos.Y); err != nil {
			return fmt.Errorf("failed to insert node %d: %w", i, err)
		}
	}

	links := story.Tree.Links()
	sources := story.Tree.Sources()
	targets := story.Tree.Targets()
	for i, edge := range story.Tree.Edges() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO story_edges (story, idx, next, source, target,
				sec_start, sec_end, sec_hash,
				req_kind, req_key, req_val, req_name,
				eff_kind, eff_key, eff_val, eff_name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			story.Name, i, int64(links[i]), int64(sources[i]), int64(targets[i]),
			edge.Section.Start, edge.Section.End, int64(edge.Section.Hash),
			edge.Requirement.Kind, edge.Requirement.Key, edge.Requirement.Val, edge.Requirement.Name,
			edge.Effect.Kind, edge.Effect.Key, edge.Effect.Val, edge.Effect.Name); err != nil {
			return fmt.Errorf("failed to insert edge %d: %w", i, err)
		}
	}

	for key, name := range story.Names {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO story_names (story, key, name) VALUES (?, ?, ?)`,
			story.Name, key, name); err != nil {
			return fmt.Errorf("failed to insert name %q: %w", key, err)
		}
	}
	for key, val := range story.Vals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO story_values (story, key, val) VALUES (?, ?, ?)`,
			story.Name, key, val); err != nil {
			return fmt.Errorf("failed to insert value %q: %w", key, err)
		}
	}

	return tx.Commit()
}

// LoadStory reads a story back, reconstructing the tree from its
// index-ordered rows.
func (s *SQLiteStore) LoadStory(ctx context.Context, name string) (*script.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored storedStory
	var uid int64
	err := s.db.QueryRowContext(ctx,
		`SELECT name, uid, text FROM stories WHERE name = ?`, name).
		Scan(&stored.Name, &uid, &stored.Text)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query story: %w", err)
	}
	stored.UID = uint64(uid)

	rows, err := s.db.QueryContext(ctx, `
		SELECT head, sec_start, sec_end, sec_hash, pos_x, pos_y
		FROM story_nodes WHERE story = ? ORDER BY idx`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var head, hash int64
		var node script.Dialogue
		if err := rows.Scan(&head, &node.Section.Start, &node.Section.End, &hash,
			&node.Pos.X, &node.Pos.Y); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		node.Section.Hash = uint64(hash)
		stored.Nodes = append(stored.Nodes, node)
		stored.Heads = append(stored.Heads, tree.EdgeIndex(head))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading nodes: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT next, source, target, sec_start, sec_end, sec_hash,
			req_kind, req_key, req_val, req_name,
			eff_kind, eff_key, eff_val, eff_name
		FROM story_edges WHERE story = ? ORDER BY idx`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var next, source, target, hash int64
		var edge script.Choice
		if err := edgeRows.Scan(&next, &source, &target,
			&edge.Section.Start, &edge.Section.End, &hash,
			&edge.Requirement.Kind, &edge.Requirement.Key, &edge.Requirement.Val, &edge.Requirement.Name,
			&edge.Effect.Kind, &edge.Effect.Key, &edge.Effect.Val, &edge.Effect.Name); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edge.Section.Hash = uint64(hash)
		stored.Edges = append(stored.Edges, edge)
		stored.Links = append(stored.Links, tree.EdgeIndex(next))
		stored.Sources = append(stored.Sources, tree.NodeIndex(source))
		stored.Targets = append(stored.Targets, tree.NodeIndex(target))
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading edges: %w", err)
	}

	stored.Names = script.NameTable{}
	nameRows, err := s.db.QueryContext(ctx,
		`SELECT key, name FROM story_names WHERE story = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query names: %w", err)
	}
	defer nameRows.Close()
	for nameRows.Next() {
		var key, val string
		if err := nameRows.Scan(&key, &val); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		stored.Names[key] = val
	}
	if err := nameRows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading names: %w", err)
	}

	stored.Vals = script.ValueTable{}
	valRows, err := s.db.QueryContext(ctx,
		`SELECT key, val FROM story_values WHERE story = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	defer valRows.Close()
	for valRows.Next() {
		var key string
		var val uint32
		if err := valRows.Scan(&key, &val); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		stored.Vals[key] = val
	}
	if err := valRows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading values: %w", err)
	}

	return decodeStory(stored)
}

// ListStories returns saved story names in lexical order.
func (s *SQLiteStore) ListStories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM stories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan story name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteStory removes a story and all of its rows.
func (s *SQLiteStore) DeleteStory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stories WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check story: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()
	if err := deleteStoryTx(ctx, tx, name); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteStoryTx(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to clear stories: %w", err)
	}
	for _, table := range []string{"story_nodes", "story_edges", "story_names", "story_values"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE story = ?`, name); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
