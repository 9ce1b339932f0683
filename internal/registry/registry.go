package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/gircore/girbind/internal/config"
	"github.com/gircore/girbind/internal/diagnostics"
	"github.com/gircore/girbind/internal/gir"
	"github.com/gircore/girbind/internal/model"
)

var log = commonlog.GetLogger("girbind.registry")

// State of a module group: Discovered → Grouped → one of the three
// terminal states.
type State int

const (
	Discovered State = iota
	Grouped
	Resolved
	Conflicting
	Failed
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case Grouped:
		return "grouped"
	case Resolved:
		return "resolved"
	case Conflicting:
		return "conflicting"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Discovery is one (namespace, version) repository found on disk.
type Discovery struct {
	Namespace string
	Version   string
	Path      string
	Includes  []model.Dependency
}

// Unit returns the namespace-version form used by patterns and the
// ignore list, e.g. "Gtk-4.0".
func (d Discovery) Unit() string {
	return d.Namespace + "-" + d.Version
}

// Group buckets every discovered version of one namespace.
type Group struct {
	Namespace string
	Versions  []Discovery
	State     State
	Selected  *Discovery // set when State is Resolved
	Reason    string     // human-readable cause for Conflicting/Failed
}

// HasConflict reports whether more than one version survived filtering
// without a disambiguation outcome.
func (g *Group) HasConflict() bool {
	return g.State == Conflicting
}

// Registry discovers repositories and computes the load order.
type Registry struct {
	cfg   *Config
	cache *Cache
	diags *diagnostics.Collector
}

func New(cfg *Config, diags *diagnostics.Collector) (*Registry, error) {
	r := &Registry{cfg: cfg, diags: diags}
	if cfg.CachePath != "" {
		cache, err := OpenCache(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("opening discovery cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Close releases the discovery cache, when one is open.
func (r *Registry) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

// Discover scans the configured search paths for repository files
// matching the requested patterns, after ignore-list filtering. Header
// facts come from the cache when it is warm.
func (r *Registry) Discover() ([]Discovery, error) {
	var found []Discovery
	seen := make(map[string]bool) // unit → already found on an earlier path
	for _, dir := range r.cfg.SearchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			// A missing search location is not an error; the next one
			// may carry everything requested.
			log.Infof("search path %s skipped: %s", dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), config.RepositoryFileExt) {
				continue
			}
			name, version, ok := splitUnit(strings.TrimSuffix(entry.Name(), config.RepositoryFileExt))
			if !ok {
				continue
			}
			unit := name + "-" + version
			if seen[unit] || r.ignored(unit) || !r.requested(name, unit) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			d, err := r.readHeader(path, name, version)
			if err != nil {
				log.Warningf("repository %s unreadable: %s", path, err)
				continue
			}
			seen[unit] = true
			found = append(found, d)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Unit() < found[j].Unit() })
	log.Infof("discovered %d repositories across %d search paths", len(found), len(r.cfg.SearchPaths))
	return found, nil
}

// splitUnit parses "Name-Version" file stems; the version is the part
// after the last dash.
func splitUnit(stem string) (name, version string, ok bool) {
	i := strings.LastIndex(stem, "-")
	if i <= 0 || i == len(stem)-1 {
		return "", "", false
	}
	return stem[:i], stem[i+1:], true
}

func (r *Registry) ignored(unit string) bool {
	for _, pattern := range r.cfg.Ignore {
		if matched, _ := filepath.Match(pattern, unit); matched {
			return true
		}
	}
	return false
}

func (r *Registry) requested(name, unit string) bool {
	for _, pattern := range r.cfg.Modules {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, unit); matched {
			return true
		}
	}
	return false
}

func (r *Registry) readHeader(path, name, version string) (Discovery, error) {
	d := Discovery{Namespace: name, Version: version, Path: path}
	if r.cache != nil {
		if facts, ok := r.cache.Lookup(path); ok {
			d.Includes = facts.Includes
			return d, nil
		}
	}
	repo, err := gir.DecodeFile(path)
	if err != nil {
		return Discovery{}, err
	}
	for _, inc := range repo.Includes {
		d.Includes = append(d.Includes, model.Dependency{Name: inc.Name, Version: inc.Version})
	}
	if r.cache != nil {
		if err := r.cache.Store(path, HeaderFacts{
			Namespace: repo.Namespace.Name,
			Version:   repo.Namespace.Version,
			Includes:  d.Includes,
		}); err != nil {
			log.Warningf("cache store for %s failed: %s", path, err)
		}
	}
	return d, nil
}

// GroupAll buckets discoveries by namespace and applies the version
// policy. Requested patterns with no discovery at all become Failed
// groups so nothing is silently dropped.
func (r *Registry) GroupAll(discoveries []Discovery) []*Group {
	byName := make(map[string]*Group)
	var order []string
	for _, d := range discoveries {
		g, ok := byName[d.Namespace]
		if !ok {
			g = &Group{Namespace: d.Namespace, State: Grouped}
			byName[d.Namespace] = g
			order = append(order, d.Namespace)
		}
		g.Versions = append(g.Versions, d)
	}

	for _, pattern := range r.cfg.Modules {
		if strings.ContainsAny(pattern, "*?[") {
			continue // a glob with no matches is not a failure by itself
		}
		name := pattern
		if n, _, ok := splitUnit(pattern); ok {
			name = n
		}
		if _, ok := byName[name]; !ok {
			g := &Group{Namespace: name, State: Failed, Reason: "no version discovered"}
			byName[name] = g
			order = append(order, name)
			r.diags.Errorf(diagnostics.CodeModuleFailed, name, "",
				"requested module %q matched no discovered repository", pattern)
		}
	}

	sort.Strings(order)
	groups := make([]*Group, 0, len(order))
	for _, name := range order {
		g := byName[name]
		if g.State == Grouped {
			r.resolveGroup(g)
		}
		groups = append(groups, g)
	}
	return groups
}

func (r *Registry) resolveGroup(g *Group) {
	if pin, ok := r.cfg.Pins[g.Namespace]; ok {
		for i := range g.Versions {
			if g.Versions[i].Version == pin {
				g.State = Resolved
				g.Selected = &g.Versions[i]
				return
			}
		}
		g.State = Failed
		g.Reason = fmt.Sprintf("pinned version %s not discovered", pin)
		r.diags.Errorf(diagnostics.CodeModuleFailed, g.Namespace, "",
			"pinned version %s of %s was not discovered", pin, g.Namespace)
		return
	}

	if len(g.Versions) == 1 {
		g.State = Resolved
		g.Selected = &g.Versions[0]
		return
	}

	switch r.cfg.VersionPolicy {
	case PolicyHighest:
		best := 0
		for i := 1; i < len(g.Versions); i++ {
			if versionLess(g.Versions[best].Version, g.Versions[i].Version) {
				best = i
			}
		}
		g.State = Resolved
		g.Selected = &g.Versions[best]
		log.Infof("namespace %s: picked %s among %d versions", g.Namespace, g.Selected.Version, len(g.Versions))
	default:
		g.State = Conflicting
		g.Reason = fmt.Sprintf("%d versions discovered, no disambiguation policy", len(g.Versions))
		units := make([]string, len(g.Versions))
		for i, v := range g.Versions {
			units[i] = v.Unit()
		}
		r.diags.Errorf(diagnostics.CodeModuleConflict, g.Namespace, "",
			"multiple versions discovered (%s) and version_policy is %q", strings.Join(units, ", "), PolicyFail)
	}
}

// versionLess compares dotted numeric versions segment-wise, so that
// 10.0 sorts above 9.0.
func versionLess(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			return av < bv
		}
	}
	return false
}

// LoadOrder orders the resolved groups so dependencies load before
// dependents. A group whose declared dependency is not resolved is
// demoted to Failed; a dependency cycle is a fatal configuration
// error.
func (r *Registry) LoadOrder(groups []*Group) ([]Discovery, error) {
	resolved := make(map[string]*Group)
	for _, g := range groups {
		if g.State == Resolved {
			resolved[g.Namespace] = g
		}
	}

	// Demote dependents of unresolved namespaces to a fixed point:
	// failing one namespace may strand the ones including it.
	for changed := true; changed; {
		changed = false
		for _, g := range groups {
			if g.State != Resolved {
				continue
			}
			for _, dep := range g.Selected.Includes {
				if _, ok := resolved[dep.Name]; ok {
					continue
				}
				g.State = Failed
				g.Reason = fmt.Sprintf("dependency %s unresolved", dep.Name)
				delete(resolved, g.Namespace)
				r.diags.Errorf(diagnostics.CodeModuleFailed, g.Namespace, "",
					"dependency %s of %s could not be resolved", dep.Name, g.Namespace)
				changed = true
				break
			}
		}
	}

	// Kahn's algorithm over the remaining groups, smallest name first
	// for a deterministic order.
	indegree := make(map[string]int, len(resolved))
	dependents := make(map[string][]string, len(resolved))
	for name, g := range resolved {
		if _, ok := indegree[name]; !ok {
			indegree[name] = 0
		}
		for _, dep := range g.Selected.Includes {
			indegree[name]++
			dependents[dep.Name] = append(dependents[dep.Name], name)
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var order []Discovery
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, *resolved[name].Selected)
		next := dependents[name]
		sort.Strings(next)
		for _, dependent := range next {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
	}

	if len(order) != len(resolved) {
		var stuck []string
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("dependency cycle among namespaces: %s", strings.Join(stuck, ", "))
	}
	return order, nil
}
