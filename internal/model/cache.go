package model

import (
	"context"
	"sync"

	"github.com/ironsheep/card-regions-mcp/internal/layout"
)

// Model describes a loaded detection model.
type Model struct {
	ID string `json:"id"`

	// ClassMap maps the model's class ids to element labels.
	ClassMap layout.ClassMap `json:"class_map"`
}

// Loader loads the model with the given resolved id.
type Loader func(ctx context.Context, id string) (*Model, error)

// Cache holds loaded models keyed by resolved model id.
//
// A model is loaded at most once per id for the lifetime of the cache;
// concurrent requests for the same id wait for the first load. Failed loads
// are not cached.
type Cache struct {
	mu     sync.Mutex
	models map[string]*Model
	load   Loader
}

// NewCache creates an empty cache backed by load.
func NewCache(load Loader) *Cache {
	return &Cache{
		models: make(map[string]*Model),
		load:   load,
	}
}

// Get returns the model for variant, loading it on first use.
func (c *Cache) Get(ctx context.Context, variant string) (*Model, error) {
	id := ResolveModelID(variant)

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[id]; ok {
		return m, nil
	}
	m, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.models[id] = m
	return m, nil
}

// Len returns the number of loaded models.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.models)
}
