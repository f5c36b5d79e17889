// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package bench provides small reference devices: for each device a circuit
interface model, a functional evaluator for the in-process engines and
matching Verilog source for the external ones. They are the devices the
framework's own tests run against and double as examples of the Evaluator
contract.
*/
package bench

import (
	"fmt"

	"github.com/makaimann/fault"
)

// Passthrough is a wire: output O follows input I combinationally.
type Passthrough struct {
	Width int // default 1
}

func (p *Passthrough) width() int {
	if p.Width == 0 {
		return 1
	}
	return p.Width
}

// Model returns the device's circuit interface model.
func (p *Passthrough) Model() *fault.Model {
	w := p.width()
	m, err := fault.NewModel("passthrough", fault.Ports(
		fault.In(fmt.Sprintf("I[%d]", w)),
		fault.Out(fmt.Sprintf("O[%d]", w)),
	))
	if err != nil {
		panic(err)
	}
	return m
}

// Reset implements the evaluator contract. Passthrough has no state.
func (p *Passthrough) Reset() {}

// Eval implements the evaluator contract.
func (p *Passthrough) Eval(in map[string]uint64) map[string]uint64 {
	return map[string]uint64{"O": in["I"] & fault.Mask(p.width())}
}

// Edge implements the evaluator contract. Passthrough has no clock.
func (p *Passthrough) Edge(clock string, in map[string]uint64) {}

// Verilog returns synthesizable source for the device.
func (p *Passthrough) Verilog() string {
	w := p.width()
	return fmt.Sprintf(`module passthrough(input [%d:0] I, output [%d:0] O);
  assign O = I;
endmodule
`, w-1, w-1)
}

// And2 is a 1-bit and gate with inputs a, b and output o.
type And2 struct{}

// Model returns the device's circuit interface model.
func (And2) Model() *fault.Model {
	m, err := fault.NewModel("and2", fault.Ports(fault.In("a, b"), fault.Out("o")))
	if err != nil {
		panic(err)
	}
	return m
}

// Reset implements the evaluator contract.
func (And2) Reset() {}

// Eval implements the evaluator contract.
func (And2) Eval(in map[string]uint64) map[string]uint64 {
	return map[string]uint64{"o": in["a"] & in["b"] & 1}
}

// Edge implements the evaluator contract.
func (And2) Edge(clock string, in map[string]uint64) {}

// Verilog returns synthesizable source for the device.
func (And2) Verilog() string {
	return `module and2(input a, input b, output o);
  assign o = a & b;
endmodule
`
}

// Adder adds two Width-bit inputs a and b into the Width+1-bit output o, so
// the carry is part of the result.
type Adder struct {
	Width int // input width, default 4
}

func (a *Adder) width() int {
	if a.Width == 0 {
		return 4
	}
	return a.Width
}

// Model returns the device's circuit interface model.
func (a *Adder) Model() *fault.Model {
	w := a.width()
	m, err := fault.NewModel("adder", fault.Ports(
		fault.In(fmt.Sprintf("a[%d], b[%d]", w, w)),
		fault.Out(fmt.Sprintf("o[%d]", w+1)),
	))
	if err != nil {
		panic(err)
	}
	return m
}

// Reset implements the evaluator contract.
func (a *Adder) Reset() {}

// Eval implements the evaluator contract.
func (a *Adder) Eval(in map[string]uint64) map[string]uint64 {
	w := a.width()
	sum := (in["a"] & fault.Mask(w)) + (in["b"] & fault.Mask(w))
	return map[string]uint64{"o": sum & fault.Mask(w+1)}
}

// Edge implements the evaluator contract.
func (a *Adder) Edge(clock string, in map[string]uint64) {}

// Verilog returns synthesizable source for the device.
func (a *Adder) Verilog() string {
	w := a.width()
	return fmt.Sprintf(`module adder(input [%d:0] a, input [%d:0] b, output [%d:0] o);
  assign o = a + b;
endmodule
`, w-1, w-1, w)
}

// ToggleFF is a toggle flip-flop: output O inverts on every rising edge of
// CLK, starting at 0.
type ToggleFF struct {
	state uint64
}

// Model returns the device's circuit interface model.
func (*ToggleFF) Model() *fault.Model {
	m, err := fault.NewModel("toggle", fault.Ports(fault.In("CLK"), fault.Out("O")))
	if err != nil {
		panic(err)
	}
	return m
}

// Reset implements the evaluator contract.
func (t *ToggleFF) Reset() { t.state = 0 }

// Eval implements the evaluator contract.
func (t *ToggleFF) Eval(in map[string]uint64) map[string]uint64 {
	return map[string]uint64{"O": t.state}
}

// Edge implements the evaluator contract.
func (t *ToggleFF) Edge(clock string, in map[string]uint64) {
	if clock == "CLK" {
		t.state ^= 1
	}
}

// Verilog returns synthesizable source for the device.
func (*ToggleFF) Verilog() string {
	return `module toggle(input CLK, output reg O);
  initial O = 0;
  always @(posedge CLK) O <= ~O;
endmodule
`
}
