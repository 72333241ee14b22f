// Package registry holds the static per-run catalog of depots and tracks.
package registry

import (
	"fmt"
	"sort"

	"github.com/kilianp07/depotplan/core/model"
)

// Registry is the immutable depot catalog for a run. Tracks are kept sorted
// by ascending number so allocation order is deterministic.
type Registry struct {
	depots map[string]model.Depot
	names  []string
}

// New builds a registry from the given depots. Depot names and track numbers
// within a depot must be unique, and every track needs a positive capacity.
func New(depots []model.Depot) (*Registry, error) {
	r := &Registry{depots: make(map[string]model.Depot, len(depots))}
	for _, d := range depots {
		if d.Name == "" {
			return nil, fmt.Errorf("registry: depot with empty name")
		}
		if _, ok := r.depots[d.Name]; ok {
			return nil, fmt.Errorf("registry: duplicate depot %q", d.Name)
		}
		if len(d.Tracks) == 0 {
			return nil, fmt.Errorf("registry: depot %q has no tracks", d.Name)
		}
		seen := make(map[int]bool, len(d.Tracks))
		tracks := make([]model.Track, len(d.Tracks))
		copy(tracks, d.Tracks)
		for i := range tracks {
			tracks[i].Depot = d.Name
			if tracks[i].LengthM <= 0 {
				return nil, fmt.Errorf("registry: depot %q track %d has non-positive length", d.Name, tracks[i].Number)
			}
			if seen[tracks[i].Number] {
				return nil, fmt.Errorf("registry: depot %q has duplicate track %d", d.Name, tracks[i].Number)
			}
			seen[tracks[i].Number] = true
		}
		sort.Slice(tracks, func(i, j int) bool { return tracks[i].Number < tracks[j].Number })
		d.Tracks = tracks
		r.depots[d.Name] = d
		r.names = append(r.names, d.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Depot returns the catalog entry for name.
func (r *Registry) Depot(name string) (model.Depot, bool) {
	d, ok := r.depots[name]
	return d, ok
}

// Names returns all depot names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Depots returns all depots sorted by name.
func (r *Registry) Depots() []model.Depot {
	out := make([]model.Depot, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.depots[n])
	}
	return out
}

// Suggest lists depots other than the vehicle's own that could hold the
// vehicle in principle: at least one track long enough and, when the vehicle
// needs electrification, electrified. Timing is deliberately ignored; the
// result guides manual re-routing when a vehicle ends up waiting.
func (r *Registry) Suggest(v model.Vehicle) []string {
	length := v.EffectiveLength()
	var out []string
	for _, n := range r.names {
		if n == v.Depot {
			continue
		}
		for _, t := range r.depots[n].Tracks {
			if t.LengthM >= length && (!v.Electric || t.Electrified) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}
