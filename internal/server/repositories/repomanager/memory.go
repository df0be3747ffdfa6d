package repomanager

import (
	"context"

	"github.com/dmitrijs2005/clipher/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/leases"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/logintokens"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps every record in process memory. Each
// repository operation is atomic on its own; WithTx does not roll back.
type InMemoryRepositoryManager struct {
	leases       *leases.MemoryRepository
	users        *users.MemoryRepository
	loginTokens  *logintokens.MemoryRepository
	accessTokens *accesstokens.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		leases:       leases.NewMemoryRepository(),
		users:        users.NewMemoryRepository(),
		loginTokens:  logintokens.NewMemoryRepository(),
		accessTokens: accesstokens.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Leases() leases.Repository             { return m.leases }
func (m *InMemoryRepositoryManager) Users() users.Repository               { return m.users }
func (m *InMemoryRepositoryManager) LoginTokens() logintokens.Repository   { return m.loginTokens }
func (m *InMemoryRepositoryManager) AccessTokens() accesstokens.Repository { return m.accessTokens }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	return fn(ctx, m)
}

func (m *InMemoryRepositoryManager) Ping(context.Context) error          { return nil }
func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *InMemoryRepositoryManager) Close() error                        { return nil }
