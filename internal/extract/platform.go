package extract

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Definition is a Platform validated against a static catalog whose datasets only depend on the
// validated category. Platforms needing more embed it and override the relevant methods.
type Definition struct {
	PlatformID  string
	DisplayName string
	Catalog     []validate.Category
	// Datasets returns the sub extractors for a validated package.
	Datasets func(result validate.Result) []Sub
}

// ID implements Platform.
func (d Definition) ID() string { return d.PlatformID }

// Categories implements Categorized.
func (d Definition) Categories() []validate.Category { return d.Catalog }

// Name implements Platform.
func (d Definition) Name() string { return d.DisplayName }

// Validate implements Platform by classifying the archive member names.
func (d Definition) Validate(log *slog.Logger, path string) validate.Result {
	return validate.ValidateZip(log, d.Catalog, path)
}

// Choice implements Platform. Definitions ask nothing.
func (d Definition) Choice(*slog.Logger, string, validate.Result) *Choice { return nil }

// Extract implements Platform.
func (d Definition) Extract(log *slog.Logger, path string, result validate.Result, selection string) []table.ExtractedTable {
	if d.Datasets == nil {
		return []table.ExtractedTable{}
	}
	return Run(NewSource(log, path, result, selection), d.Datasets(result))
}

// Registry holds the available platforms in registration order.
type Registry struct {
	platforms []Platform
}

// NewRegistry returns a Registry holding platforms.
// It panics on a duplicated id, which is a programming error.
func NewRegistry(platforms ...Platform) *Registry {
	r := &Registry{}
	for _, p := range platforms {
		if _, err := r.Lookup(p.ID()); err == nil {
			panic(fmt.Sprintf("platform %q registered twice", p.ID()))
		}
		r.platforms = append(r.platforms, p)
	}
	return r
}

// Lookup returns the platform registered under id.
func (r *Registry) Lookup(id string) (Platform, error) {
	i := slices.IndexFunc(r.platforms, func(p Platform) bool { return p.ID() == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, id)
	}
	return r.platforms[i], nil
}

// All returns every platform in registration order.
func (r *Registry) All() []Platform {
	return slices.Clone(r.platforms)
}

// IDs returns the id of every platform in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.platforms))
	for _, p := range r.platforms {
		ids = append(ids, p.ID())
	}
	return ids
}
