// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package fault

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Dir is a port direction. Directions are fixed for the lifetime of a
// model.
type Dir int

// Port directions.
const (
	DirIn Dir = iota
	DirOut
	DirInOut
)

func (d Dir) String() string {
	switch d {
	case DirIn:
		return "input"
	case DirOut:
		return "output"
	case DirInOut:
		return "inout"
	}
	return "dir(" + strconv.Itoa(int(d)) + ")"
}

// Drivable reports whether a port with direction d may be driven by the
// test bench.
func (d Dir) Drivable() bool { return d == DirIn || d == DirInOut }

// A Port describes one named port of a circuit: direction and bit-width.
// Width is in bits, 1 to MaxWidth.
type Port struct {
	Name  string
	Dir   Dir
	Width int
}

// In declares input ports from a port spec string. A spec is a comma
// separated list of names with an optional bit-width, e.g.
//
//	In("a, b, data[16]")
//
// declares two 1-bit ports and one 16-bit port. In panics if the spec is
// malformed; specs are compile-time constants of a test bench.
func In(spec string) []Port { return mustParsePorts(spec, DirIn) }

// Out declares output ports from a port spec string. See In for the syntax.
func Out(spec string) []Port { return mustParsePorts(spec, DirOut) }

// InOut declares bidirectional ports from a port spec string. See In for the
// syntax.
func InOut(spec string) []Port { return mustParsePorts(spec, DirInOut) }

// Ports concatenates port groups, preserving declaration order.
func Ports(groups ...[]Port) []Port {
	var out []Port
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func mustParsePorts(spec string, d Dir) []Port {
	ps, err := ParsePorts(spec, d)
	if err != nil {
		panic(err)
	}
	return ps
}

// ParsePorts parses a port spec string into ports of the given direction.
func ParsePorts(spec string, d Dir) ([]Port, error) {
	var out []Port
	for _, f := range strings.Split(spec, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		name, width := f, 1
		if i := strings.IndexRune(f, '['); i >= 0 {
			if !strings.HasSuffix(f, "]") {
				return nil, errors.Errorf("no terminating ] in port spec %q", f)
			}
			name = strings.TrimSpace(f[:i])
			w, err := strconv.Atoi(strings.TrimSpace(f[i+1 : len(f)-1]))
			if err != nil {
				return nil, errors.Wrapf(err, "bad width in port spec %q", f)
			}
			width = w
		}
		if name == "" {
			return nil, errors.Errorf("empty port name in spec %q", f)
		}
		if width < 1 || width > MaxWidth {
			return nil, errors.Errorf("port %s: width %d out of range 1..%d", name, width, MaxWidth)
		}
		out = append(out, Port{Name: name, Dir: d, Width: width})
	}
	return out, nil
}
