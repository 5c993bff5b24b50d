// Package repomanager vends PostgreSQL repositories bound to a dbx.DBTX and
// applies the embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/kbcenter/internal/dbx"
	"github.com/dmitrijs2005/kbcenter/internal/server/migrations"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/replies"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Entries(db dbx.DBTX) entries.Repository
	Replies(db dbx.DBTX) replies.Repository
}

// PostgresRepositoryManager is the RepositoryManager used in production.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Entries(db dbx.DBTX) entries.Repository {
	return entries.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Replies(db dbx.DBTX) replies.Repository {
	return replies.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies every pending embedded migration.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
