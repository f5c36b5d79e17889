// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package fault

import (
	"strings"

	"github.com/pkg/errors"
)

// A Path addresses a port in a circuit interface model: zero or more
// sub-instance names followed by a port name.
type Path []string

// ParsePath splits a dotted path string, e.g. "alu.carry" into
// Path{"alu", "carry"}.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

func (p Path) String() string { return strings.Join(p, ".") }

// A Model is the circuit interface model: a named tree whose children are
// ports and named sub-instances. A Model is immutable once built; it is the
// addressing scheme used by all recorded actions and is safe for concurrent
// use by multiple lowering cycles.
type Model struct {
	name    string
	ports   []Port
	portIdx map[string]int
	subs    []*Model
	subIdx  map[string]int
}

// A Child is one entry of a model level: either a port or a sub-instance.
type Child struct {
	Name string
	Port *Port  // nil for sub-instances
	Sub  *Model // nil for ports
}

// NewModel builds an immutable circuit interface model from ports and
// sub-instances. Names must be unique within one level.
func NewModel(name string, ports []Port, subs ...*Model) (*Model, error) {
	if name == "" {
		return nil, errors.New("empty model name")
	}
	m := &Model{
		name:    name,
		ports:   append([]Port(nil), ports...),
		portIdx: make(map[string]int, len(ports)),
		subs:    append([]*Model(nil), subs...),
		subIdx:  make(map[string]int, len(subs)),
	}
	for i, p := range m.ports {
		if p.Name == "" {
			return nil, errors.New("empty port name in model " + name)
		}
		if p.Width < 1 || p.Width > MaxWidth {
			return nil, errors.Errorf("port %s.%s: width %d out of range 1..%d", name, p.Name, p.Width, MaxWidth)
		}
		if _, ok := m.portIdx[p.Name]; ok {
			return nil, errors.Errorf("duplicate name %s in model %s", p.Name, name)
		}
		m.portIdx[p.Name] = i
	}
	for i, s := range m.subs {
		if s == nil {
			return nil, errors.New("nil sub-instance in model " + name)
		}
		if _, ok := m.portIdx[s.name]; ok {
			return nil, errors.Errorf("duplicate name %s in model %s", s.name, name)
		}
		if _, ok := m.subIdx[s.name]; ok {
			return nil, errors.Errorf("duplicate name %s in model %s", s.name, name)
		}
		m.subIdx[s.name] = i
	}
	return m, nil
}

// Name returns the circuit name.
func (m *Model) Name() string { return m.name }

// Resolve returns the port addressed by p. It fails with ErrUnknownPath if no
// port exists at that address.
func (m *Model) Resolve(p Path) (Port, error) {
	if len(p) == 0 {
		return Port{}, errors.Wrap(ErrUnknownPath, "empty path")
	}
	cur := m
	for _, elem := range p[:len(p)-1] {
		i, ok := cur.subIdx[elem]
		if !ok {
			return Port{}, errors.Wrapf(ErrUnknownPath, "%s: no sub-instance %s", m.name, p)
		}
		cur = cur.subs[i]
	}
	leaf := p[len(p)-1]
	i, ok := cur.portIdx[leaf]
	if !ok {
		return Port{}, errors.Wrapf(ErrUnknownPath, "%s: no port %s", m.name, p)
	}
	return cur.ports[i], nil
}

// Children returns the ports and sub-instances at path p in declaration
// order. An empty path addresses the root.
func (m *Model) Children(p Path) ([]Child, error) {
	cur := m
	for _, elem := range p {
		i, ok := cur.subIdx[elem]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownPath, "%s: no sub-instance %s", m.name, p)
		}
		cur = cur.subs[i]
	}
	out := make([]Child, 0, len(cur.ports)+len(cur.subs))
	for i := range cur.ports {
		out = append(out, Child{Name: cur.ports[i].Name, Port: &cur.ports[i]})
	}
	for _, s := range cur.subs {
		out = append(out, Child{Name: s.name, Sub: s})
	}
	return out, nil
}

// Leaves returns every path from the root to a leaf port, depth first in
// declaration order, paired with the port it resolves to.
func (m *Model) Leaves() []Leaf {
	var out []Leaf
	m.leaves(nil, &out)
	return out
}

// A Leaf pairs a full path with the port it addresses.
type Leaf struct {
	Path Path
	Port Port
}

func (m *Model) leaves(prefix Path, out *[]Leaf) {
	for _, p := range m.ports {
		path := append(append(Path(nil), prefix...), p.Name)
		*out = append(*out, Leaf{Path: path, Port: p})
	}
	for _, s := range m.subs {
		s.leaves(append(append(Path(nil), prefix...), s.name), out)
	}
}
