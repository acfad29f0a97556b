// Package reflection is the class metadata facility consumed by the
// generators. A Registry answers the questions PHP's runtime reflection would:
// which classes exist, which methods they expose, and how they relate.
package reflection

import (
	"sort"
	"strings"
	"sync"

	"github.com/cmmoran/phptestgen/internal/model"
)

// Reflector is the read side of the facility.
type Reflector interface {
	// Class looks up a class-like type by fully-qualified name, case-insensitively.
	Class(name string) (*model.Class, bool)
	// Exists reports whether a class, interface or trait is known.
	Exists(name string) bool
	// Methods enumerates the methods of class in reflection order: own
	// methods, trait methods, then inherited ones from parents and interfaces.
	Methods(class *model.Class) []*model.Method
	// Ancestors lists the parent chain followed by every used trait.
	Ancestors(class *model.Class) []string
	// Prototype finds the interface or parent method that method overrides.
	Prototype(method *model.Method) (*model.Method, bool)
	// MissingTraits lists the traits class uses that are not known.
	MissingTraits(class *model.Class) []string
}

// Registry is an in-memory Reflector keyed by lower-cased class name.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*model.Class
}

var _ Reflector = (*Registry)(nil)

// NewRegistry creates a registry holding classes.
func NewRegistry(classes ...*model.Class) *Registry {
	r := &Registry{classes: make(map[string]*model.Class, len(classes))}
	r.Add(classes...)
	return r
}

func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}

// Add registers classes; a later definition of the same name replaces an
// earlier one unless the earlier is a user class and the later a builtin.
func (r *Registry) Add(classes ...*model.Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range classes {
		if c == nil || c.Name == "" {
			continue
		}
		k := key(c.Name)
		if prev, ok := r.classes[k]; ok && !prev.Builtin && c.Builtin {
			continue
		}
		r.classes[k] = c
	}
}

func (r *Registry) Class(name string) (*model.Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[key(name)]
	return c, ok
}

func (r *Registry) Exists(name string) bool {
	_, ok := r.Class(name)
	return ok
}

// Classes returns every registered class sorted by name.
func (r *Registry) Classes() []*model.Class {
	r.mu.RLock()
	out := make([]*model.Class, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// FindByShortName returns the classes whose unqualified name matches.
func (r *Registry) FindByShortName(short string) []*model.Class {
	var out []*model.Class
	for _, c := range r.Classes() {
		if strings.EqualFold(c.ShortName(), short) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) Methods(class *model.Class) []*model.Method {
	if class == nil {
		return nil
	}
	var (
		out  []*model.Method
		seen = map[string]bool{}
	)
	add := func(m *model.Method) {
		k := strings.ToLower(m.Name)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, m)
	}

	visited := map[string]bool{}
	for c := class; c != nil; {
		if visited[key(c.Name)] {
			break
		}
		visited[key(c.Name)] = true
		for _, m := range c.Methods {
			add(m)
		}
		for _, m := range r.traitMethods(c, map[string]bool{}) {
			add(m)
		}
		if c.Parent == "" {
			break
		}
		next, _ := r.Class(c.Parent)
		c = next
	}
	for _, iface := range r.interfaces(class) {
		for _, m := range iface.Methods {
			add(m)
		}
	}
	return out
}

// traitMethods returns the methods imported from the traits used by c, with
// the using class as declaring class.
func (r *Registry) traitMethods(c *model.Class, visited map[string]bool) []*model.Method {
	var out []*model.Method
	for _, name := range c.Traits {
		if visited[key(name)] {
			continue
		}
		visited[key(name)] = true
		trait, ok := r.Class(name)
		if !ok {
			continue
		}
		for _, m := range trait.Methods {
			cp := m.Clone()
			cp.Class = c.Name
			cp.Origin = trait.Name
			out = append(out, cp)
		}
		for _, m := range r.traitMethods(trait, visited) {
			cp := m.Clone()
			cp.Class = c.Name
			out = append(out, cp)
		}
	}
	return out
}

// interfaces lists every interface implemented by class, directly, through
// its parents or by interface inheritance, in discovery order.
func (r *Registry) interfaces(class *model.Class) []*model.Class {
	var (
		out     []*model.Class
		visited = map[string]bool{}
		visit   func(names []string)
	)
	visit = func(names []string) {
		for _, name := range names {
			if visited[key(name)] {
				continue
			}
			visited[key(name)] = true
			iface, ok := r.Class(name)
			if !ok {
				continue
			}
			out = append(out, iface)
			visit(iface.Interfaces)
		}
	}
	seen := map[string]bool{}
	for c := class; c != nil && !seen[key(c.Name)]; {
		seen[key(c.Name)] = true
		visit(c.Interfaces)
		if c.Parent == "" {
			break
		}
		c, _ = r.Class(c.Parent)
	}
	return out
}

func (r *Registry) Ancestors(class *model.Class) []string {
	if class == nil {
		return nil
	}
	var (
		parents []string
		traits  []string
		seen    = map[string]bool{key(class.Name): true}
	)
	var addTraits func(c *model.Class)
	addTraits = func(c *model.Class) {
		for _, t := range c.Traits {
			if seen[key(t)] {
				continue
			}
			seen[key(t)] = true
			traits = append(traits, t)
			if tc, ok := r.Class(t); ok {
				addTraits(tc)
			}
		}
	}
	addTraits(class)
	for c := class; c.Parent != ""; {
		if seen[key(c.Parent)] {
			break
		}
		seen[key(c.Parent)] = true
		parents = append(parents, c.Parent)
		next, ok := r.Class(c.Parent)
		if !ok {
			break
		}
		addTraits(next)
		c = next
	}
	return append(parents, traits...)
}

// MissingTraits lists the traits used by class, or any of its ancestors,
// that are not registered.
func (r *Registry) MissingTraits(class *model.Class) []string {
	var (
		missing []string
		seen    = map[string]bool{}
		check   func(c *model.Class)
	)
	check = func(c *model.Class) {
		for _, t := range c.Traits {
			if seen[key(t)] {
				continue
			}
			seen[key(t)] = true
			tc, ok := r.Class(t)
			if !ok {
				missing = append(missing, t)
				continue
			}
			check(tc)
		}
	}
	for c := class; c != nil && !seen[key(c.Name)]; {
		seen[key(c.Name)] = true
		check(c)
		if c.Parent == "" {
			break
		}
		c, _ = r.Class(c.Parent)
	}
	return missing
}

func (r *Registry) Prototype(method *model.Method) (*model.Method, bool) {
	if method == nil {
		return nil, false
	}
	class, ok := r.Class(method.Class)
	if !ok {
		return nil, false
	}
	for _, iface := range r.interfaces(class) {
		if m := iface.DeclaredMethod(method.Name); m != nil {
			return m, true
		}
	}
	seen := map[string]bool{key(class.Name): true}
	for c := class; c.Parent != "" && !seen[key(c.Parent)]; {
		seen[key(c.Parent)] = true
		parent, ok := r.Class(c.Parent)
		if !ok {
			break
		}
		if m := parent.DeclaredMethod(method.Name); m != nil {
			return m, true
		}
		c = parent
	}
	return nil, false
}
