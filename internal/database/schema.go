package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// EnsureSchema creates the schema and both tables if they are missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{r.tables.Schema}.Sanitize()),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				idx            INTEGER PRIMARY KEY,
				order_number   BIGINT NOT NULL UNIQUE,
				cost           BIGINT NOT NULL CHECK (cost >= 0),
				deadline       DATE NOT NULL,
				cost_converted NUMERIC(14,2)
			)`, r.qt(r.tables.Orders)),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT PRIMARY KEY
			)`, r.qt(r.tables.Subscribers)),
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return storeErr("ensure schema", err)
		}
	}
	return nil
}
