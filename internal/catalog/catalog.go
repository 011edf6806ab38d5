package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a framework or control key is unknown.
var ErrNotFound = errors.New("not found")

// Framework is a compliance framework (e.g. SOC2, ISO 27001).
// Reference data: loaded at startup or seeded, rarely mutated.
type Framework struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Control is a single requirement clause belonging to one framework.
type Control struct {
	ID           string `json:"id"`
	FrameworkKey string `json:"frameworkKey"`
	Code         string `json:"code"` // e.g. "CC6.1"
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"` // groups controls for reporting
	Guidance     string `json:"guidance"`
}

// Catalog provides read access to frameworks and their controls.
type Catalog interface {
	ListFrameworks(ctx context.Context) ([]Framework, error)
	GetFramework(ctx context.Context, key string) (*Framework, error)
	// ListControls returns controls for a framework, or all controls
	// when frameworkKey is empty.
	ListControls(ctx context.Context, frameworkKey string) ([]Control, error)
}
