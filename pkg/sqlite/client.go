// Package sqlite opens a local SQLite results database with the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/postgres"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

type Client struct {
	DB *sql.DB
}

// Open opens or creates the database at path. Parent directories are
// created as needed.
func Open(ctx context.Context, path string) (*Client, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	// A second connection to :memory: would see a different database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &Client{DB: db}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// Placeholder returns the n-th (1-based) bind parameter.
func (c *Client) Placeholder(n int) string {
	return fmt.Sprintf("?%d", n)
}

func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return postgres.InTx(ctx, c.DB, fn)
}
