package leases

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/server/models"
)

type MemoryRepository struct {
	mu     sync.Mutex
	leases map[string]models.Lease
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{leases: make(map[string]models.Lease)}
}

func (r *MemoryRepository) Get(_ context.Context, userName string) (*models.Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leases[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &l, nil
}

func (r *MemoryRepository) Add(_ context.Context, lease *models.Lease, now time.Time) (*models.Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.leases[lease.UserName]; ok && !existing.Expired(now) {
		if existing.IP != lease.IP {
			return nil, common.ErrorConflict
		}
		return &existing, nil
	}

	r.leases[lease.UserName] = *lease
	stored := *lease
	return &stored, nil
}

func (r *MemoryRepository) Remove(_ context.Context, userName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leases[userName]; !ok {
		return false, nil
	}
	delete(r.leases, userName)
	return true, nil
}

func (r *MemoryRepository) Exists(_ context.Context, userName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.leases[userName]
	return ok, nil
}

func (r *MemoryRepository) ListExpired(_ context.Context, now time.Time) ([]models.Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Lease
	for _, l := range r.leases {
		if l.Expired(now) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, l := range r.leases {
		if l.Expired(now) {
			delete(r.leases, k)
			n++
		}
	}
	return n, nil
}
