// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agrisense/internal/predict"
)

// PathStatus reports which expected files exist on disk.
type PathStatus struct {
	Model    bool `json:"model"`
	Standard bool `json:"standard"`
	MinMax   bool `json:"minmax"`
	Dir      bool `json:"dir"`
}

// Status describes one domain after loading.
type Status struct {
	Domain string `json:"domain"`
	predict.ModelStatus

	Ready    bool   `json:"ready"`
	Degraded bool   `json:"degraded"`
	Source   string `json:"source"`
	Dir      string `json:"dir,omitempty"`

	// Version is set when artifacts came from a bundle.
	Version int `json:"version,omitempty"`

	Paths  PathStatus        `json:"paths"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Loaded is one domain's decoded artifacts and how they were obtained.
type Loaded struct {
	Domain    predict.Domain
	Artifacts predict.Artifacts
	Documents Documents
	Status    Status
}

// Options control Load.
type Options struct {
	// Root is the models root searched by Resolve.
	Root string

	// Dirs holds explicit per-domain directories, keyed by domain name.
	Dirs map[string]string

	// Store, when set, is consulted before the directory layout.
	Store *Store

	Logger zerolog.Logger
}

// Registry is the immutable set of loaded domains.
type Registry struct {
	domains map[string]Loaded
}

// NewRegistry indexes already loaded domains.
func NewRegistry(loaded ...Loaded) *Registry {
	r := &Registry{domains: make(map[string]Loaded, len(loaded))}
	for _, l := range loaded {
		r.domains[l.Domain.Name] = l
	}
	return r
}

// Load resolves and decodes every domain. It never fails: problems are
// recorded in each domain's Status.
func Load(ctx context.Context, opts Options, domains ...predict.Domain) *Registry {
	loaded := make([]Loaded, 0, len(domains))
	for _, d := range domains {
		l := LoadDomain(ctx, opts, d)
		logLoaded(opts.Logger, l)
		loaded = append(loaded, l)
	}
	return NewRegistry(loaded...)
}

// LoadDomain loads one domain, preferring the newest bundle in opts.Store.
func LoadDomain(ctx context.Context, opts Options, domain predict.Domain) Loaded {
	layout, ok := LayoutFor(domain.Name)
	if !ok {
		st := Status{Domain: domain.Name, Source: "none", Errors: map[string]string{RoleModel: "no artifact layout for domain"}}
		return Loaded{Domain: domain, Status: st}
	}

	dir := Resolve(opts.Root, opts.Dirs[domain.Name], layout)
	paths := layout.PathsIn(dir)
	st := Status{
		Domain: domain.Name,
		Dir:    dir,
		Paths: PathStatus{
			Model:    fileExists(paths.Model),
			Standard: fileExists(paths.Standard),
			MinMax:   fileExists(paths.MinMax),
			Dir:      dirExists(dir),
		},
	}

	var (
		docs    Documents
		errs    map[string]error
		fromBun bool
	)
	if opts.Store != nil {
		if _, has := opts.Store.LatestVersion(domain.Name); has {
			bdocs, meta, err := opts.Store.Load(ctx, domain.Name, 0)
			if err != nil {
				opts.Logger.Warn().Err(err).Str("domain", domain.Name).Msg("bundle unreadable, falling back to directory")
			} else {
				docs, fromBun = bdocs, true
				errs = make(map[string]error)
				st.Source = "bundle"
				st.Version = meta.Version
				for _, role := range []string{RoleModel, RoleMinMax, RoleStandard} {
					if !containsRole(meta.Roles, role) {
						errs[role] = fmt.Errorf("%w: bundle v%d has no %s", ErrMissing, meta.Version, role)
					}
				}
			}
		}
	}
	if !fromBun {
		docs, errs = ReadDocuments(paths)
		st.Source = "directory"
	}

	arts, decodeErrs := Decode(domain, docs)
	for role, err := range decodeErrs {
		errs[role] = err
		docs = docs.without(role)
	}

	st.ModelStatus = predict.ModelStatus{
		ModelLoaded:          arts.Classifier != nil,
		StandardScalerLoaded: arts.Scalers.Standard != nil,
		MinMaxScalerLoaded:   arts.Scalers.MinMax != nil,
	}
	st.Ready = arts.Classifier != nil
	st.Degraded = st.Ready && !arts.Scalers.Complete()
	if len(errs) > 0 {
		st.Errors = make(map[string]string, len(errs))
		for role, err := range errs {
			st.Errors[role] = err.Error()
		}
	}

	return Loaded{Domain: domain, Artifacts: arts, Documents: docs, Status: st}
}

func logLoaded(logger zerolog.Logger, l Loaded) {
	st := l.Status
	event := logger.Info()
	if !st.Ready {
		event = logger.Warn()
	}
	event = event.
		Str("domain", st.Domain).
		Str("source", st.Source).
		Str("dir", st.Dir).
		Bool("model_loaded", st.ModelLoaded).
		Bool("minmax_scaler_loaded", st.MinMaxScalerLoaded).
		Bool("standard_scaler_loaded", st.StandardScalerLoaded)
	for role, msg := range st.Errors {
		event = event.Str(role+"_error", msg)
	}
	event.Msg("artifacts loaded")

	if l.Artifacts.Classifier == nil {
		return
	}
	if c, ok := l.Artifacts.Classifier.(interface{ Classes() []int }); ok {
		for _, id := range c.Classes() {
			if _, known := l.Domain.Labels.Lookup(id); !known {
				logger.Warn().Str("domain", st.Domain).Int("class_id", id).
					Msg("classifier emits a class with no label; it will decode as unknown")
			}
		}
	}
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Get returns a loaded domain.
func (r *Registry) Get(domain string) (Loaded, bool) {
	l, ok := r.domains[domain]
	return l, ok
}

// Artifacts returns a domain's decoded artifacts; the zero value when the
// domain is unknown.
func (r *Registry) Artifacts(domain string) predict.Artifacts {
	return r.domains[domain].Artifacts
}

// Status returns every domain's status ordered by name.
func (r *Registry) Status() []Status {
	out := make([]Status, 0, len(r.domains))
	for _, l := range r.domains {
		out = append(out, l.Status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// Ready reports whether every domain has a classifier.
func (r *Registry) Ready() bool {
	if len(r.domains) == 0 {
		return false
	}
	for _, l := range r.domains {
		if !l.Status.Ready {
			return false
		}
	}
	return true
}

// Pack copies a loaded domain's documents into store as a new bundle.
func (r *Registry) Pack(ctx context.Context, store *Store, domain string) (BundleMetadata, error) {
	l, ok := r.domains[domain]
	if !ok {
		return BundleMetadata{}, fmt.Errorf("unknown domain %q", domain)
	}
	if l.Artifacts.Classifier == nil {
		return BundleMetadata{}, errors.New(l.Domain.UnavailableReason() + "; refusing to pack")
	}
	return store.Save(ctx, domain, l.Documents, l.Status.Dir)
}
