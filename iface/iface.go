// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package iface imports circuit interface models and action scripts from YAML
descriptions, so tests can be driven from data files as well as from Go
code. A model description mirrors the model tree:

	name: sum
	ports:
	  - {name: a, dir: in, width: 4}
	  - {name: b, dir: in, width: 4}
	  - {name: o, dir: out, width: 5}
	subs:
	  - name: alu
	    ports:
	      - {name: carry, dir: out, width: 1}
*/
package iface

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/makaimann/fault"
)

// A Description is the YAML form of a circuit interface model.
type Description struct {
	Name  string        `yaml:"name"`
	Ports []PortDecl    `yaml:"ports"`
	Subs  []Description `yaml:"subs"`
}

// A PortDecl is the YAML form of one port.
type PortDecl struct {
	Name  string `yaml:"name"`
	Dir   string `yaml:"dir"`
	Width int    `yaml:"width"`
}

// LoadModel reads a model description from a YAML file.
func LoadModel(path string) (*fault.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read interface description")
	}
	return DecodeModel(data)
}

// DecodeModel builds a model from YAML-encoded description data.
func DecodeModel(data []byte) (*fault.Model, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "decode interface description")
	}
	return d.Model()
}

// Model builds the circuit interface model the description denotes.
func (d *Description) Model() (*fault.Model, error) {
	ports := make([]fault.Port, len(d.Ports))
	for i, pd := range d.Ports {
		dir, err := parseDir(pd.Dir)
		if err != nil {
			return nil, errors.Wrapf(err, "port %s.%s", d.Name, pd.Name)
		}
		w := pd.Width
		if w == 0 {
			w = 1
		}
		ports[i] = fault.Port{Name: pd.Name, Dir: dir, Width: w}
	}
	subs := make([]*fault.Model, len(d.Subs))
	for i := range d.Subs {
		sub, err := d.Subs[i].Model()
		if err != nil {
			return nil, err
		}
		subs[i] = sub
	}
	return fault.NewModel(d.Name, ports, subs...)
}

func parseDir(s string) (fault.Dir, error) {
	switch s {
	case "in", "":
		return fault.DirIn, nil
	case "out":
		return fault.DirOut, nil
	case "inout":
		return fault.DirInOut, nil
	}
	return 0, errors.Errorf("unknown port direction %q", s)
}
