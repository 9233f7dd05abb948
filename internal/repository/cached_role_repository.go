package repository

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/teamforge/teamforge-api/internal/models"
)

// CachedRoleRepository wraps a RoleRepository with an LRU cache on the
// by-name read path. The catalog is small and rarely mutated, so the cache
// is only invalidated on Create; callers that mutate roles out of band must
// construct a fresh repository.
type CachedRoleRepository struct {
	inner RoleRepository
	cache *lru.Cache[string, *models.Role]
}

// NewCachedRoleRepository wraps inner with a by-name cache of the given size.
func NewCachedRoleRepository(inner RoleRepository, size int) (*CachedRoleRepository, error) {
	cache, err := lru.New[string, *models.Role](size)
	if err != nil {
		return nil, err
	}
	return &CachedRoleRepository{inner: inner, cache: cache}, nil
}

// Create inserts a role and invalidates any cached entry under its name.
func (r *CachedRoleRepository) Create(role *models.Role) error {
	if err := r.inner.Create(role); err != nil {
		return err
	}
	r.cache.Remove(role.Name)
	return nil
}

// FindByName returns the cached role when present, otherwise loads and caches it.
func (r *CachedRoleRepository) FindByName(name string) (*models.Role, error) {
	if role, ok := r.cache.Get(name); ok {
		return role, nil
	}
	role, err := r.inner.FindByName(name)
	if err != nil {
		return nil, err
	}
	r.cache.Add(name, role)
	return role, nil
}

// List always hits the store; it is not on the per-check hot path.
func (r *CachedRoleRepository) List() ([]models.Role, error) {
	return r.inner.List()
}
