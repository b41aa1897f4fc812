package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate applies the embedded schema files in name order, each in its own
// transaction. The statements are idempotent, so every service may call it
// on startup.
func (c *Client) Migrate(ctx context.Context) error {
	names, err := SchemaFiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if err := c.InTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, string(data))
			return err
		}); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
		slog.Debug("schema applied", "component", "postgres", "file", name)
	}
	return nil
}

// SchemaFiles lists the embedded migration files in the order Migrate
// applies them.
func SchemaFiles() ([]string, error) {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return nil, fmt.Errorf("reading schema dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
