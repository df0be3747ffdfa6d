// Package repomanager vends the repositories of the secret store behind a
// single handle, with transactions, health checks and schema migrations.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/clipher/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/leases"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/logintokens"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/users"
)

type RepositoryManager interface {
	Leases() leases.Repository
	Users() users.Repository
	LoginTokens() logintokens.Repository
	AccessTokens() accesstokens.Repository

	// WithTx runs fn against a manager whose repositories share one
	// transaction. fn's error rolls the transaction back.
	WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error

	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context) error
	Close() error
}
