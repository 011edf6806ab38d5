package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryCatalog is an in-memory Catalog seeded with baseline
// frameworks. Used for tests and single-node deployments.
type MemoryCatalog struct {
	mu         sync.RWMutex
	frameworks map[string]Framework
	controls   map[string][]Control // by framework key
}

// NewMemoryCatalog creates a catalog seeded with the baseline SOC2 and
// ISO 27001 control sets.
func NewMemoryCatalog() *MemoryCatalog {
	c := &MemoryCatalog{
		frameworks: make(map[string]Framework),
		controls:   make(map[string][]Control),
	}
	c.seed()
	return c
}

// NewEmptyCatalog creates a catalog with no seeded data.
func NewEmptyCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		frameworks: make(map[string]Framework),
		controls:   make(map[string][]Control),
	}
}

// AddFramework registers a framework.
func (c *MemoryCatalog) AddFramework(fw Framework) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameworks[fw.Key] = fw
}

// AddControl registers a control under its framework.
func (c *MemoryCatalog) AddControl(ctl Control) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctl.ID == "" {
		ctl.ID = fmt.Sprintf("%s-%s", ctl.FrameworkKey, ctl.Code)
	}
	c.controls[ctl.FrameworkKey] = append(c.controls[ctl.FrameworkKey], ctl)
}

// ListFrameworks returns all frameworks ordered by key.
func (c *MemoryCatalog) ListFrameworks(ctx context.Context) ([]Framework, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Framework, 0, len(c.frameworks))
	for _, fw := range c.frameworks {
		result = append(result, fw)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// GetFramework returns a framework by key.
func (c *MemoryCatalog) GetFramework(ctx context.Context, key string) (*Framework, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fw, ok := c.frameworks[key]
	if !ok {
		return nil, fmt.Errorf("framework %s: %w", key, ErrNotFound)
	}
	return &fw, nil
}

// ListControls returns controls for a framework in seeded order, or
// all controls grouped by framework key when frameworkKey is empty.
func (c *MemoryCatalog) ListControls(ctx context.Context, frameworkKey string) ([]Control, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if frameworkKey != "" {
		if _, ok := c.frameworks[frameworkKey]; !ok {
			return nil, fmt.Errorf("framework %s: %w", frameworkKey, ErrNotFound)
		}
		return append([]Control(nil), c.controls[frameworkKey]...), nil
	}

	keys := make([]string, 0, len(c.controls))
	for k := range c.controls {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var all []Control
	for _, k := range keys {
		all = append(all, c.controls[k]...)
	}
	return all, nil
}
