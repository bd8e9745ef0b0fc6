package accounts

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// EnsureSchema creates the users table when it does not exist yet. Meant for
// local development and tests; production deployments run migrations.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}
