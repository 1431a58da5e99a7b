// Package models contains database model definitions and the process wide model registry.
package models

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// ModelRegistry maps record type names to their gorm models.
// Registration is idempotent: the first model registered under a name wins.
type ModelRegistry struct {
	mu     sync.RWMutex
	models map[string]any
	order  []string
}

var registry = newRegistry() //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	registry.Register(UserModelName, &User{})
	registry.Register(StorageEntryModelName, &StorageEntry{})
}

func newRegistry() *ModelRegistry {
	return &ModelRegistry{models: make(map[string]any)}
}

// Registry returns the process wide model registry.
func Registry() *ModelRegistry {
	return registry
}

// Register adds model under name. It reports false and keeps the existing
// model if name is already registered.
func (r *ModelRegistry) Register(name string, model any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[name]; ok {
		return false
	}

	r.models[name] = model
	r.order = append(r.order, name)

	return true
}

// Lookup returns the model registered under name.
func (r *ModelRegistry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]

	return m, ok
}

// Names returns the registered names in registration order.
func (r *ModelRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)

	return out
}

// Migrate auto migrates every registered model in registration order.
func (r *ModelRegistry) Migrate(db *gorm.DB) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if err := db.AutoMigrate(r.models[name]); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", name, err)
		}
	}

	return nil
}
