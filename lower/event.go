// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package lower

import (
	"fmt"
	"strings"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
)

// renderTestbenchSV renders the program as a SystemVerilog testbench for an
// event-driven simulator. Evaluation is implicit: each set is followed by a
// unit delay, and active guarantee monitors are checked after every set.
// Nested paths are driven through hierarchical force statements.
func renderTestbenchSV(m *fault.Model, prog []Op, opts Options) ([]byte, error) {
	var b strings.Builder
	dut := m.Name()

	fmt.Fprintf(&b, "// generated by fault for circuit %s; do not edit\n", dut)
	b.WriteString("`timescale 1ns/1ns\n\n")
	fmt.Fprintf(&b, "module %s_tb;\n", dut)

	// declarations and DUT instantiation cover the top-level ports
	var conns []string
	for _, c := range topChildren(m) {
		if c.Port == nil {
			continue
		}
		// anything the testbench may drive procedurally must be a reg
		kind := "wire"
		if c.Port.Dir.Drivable() {
			kind = "reg"
		}
		if c.Port.Width > 1 {
			fmt.Fprintf(&b, "    %s [%d:0] %s;\n", kind, c.Port.Width-1, c.Name)
		} else {
			fmt.Fprintf(&b, "    %s %s;\n", kind, c.Name)
		}
		conns = append(conns, fmt.Sprintf(".%s(%s)", c.Name, c.Name))
	}
	b.WriteString("    integer checks = 0;\n")
	b.WriteString("    integer failures = 0;\n\n")
	fmt.Fprintf(&b, "    %s dut (%s);\n\n", dut, strings.Join(conns, ", "))

	b.WriteString("    initial begin\n")

	var guards []GuardOp
	emitGuards := func() error {
		for _, g := range guards {
			cond, err := expr.Render(expr.Rename(g.Pred, svRef), expr.DialectVerilog)
			if err != nil {
				return err
			}
			b.WriteString("        checks = checks + 1;\n")
			fmt.Fprintf(&b, "        if (!%s) begin\n", cond)
			fmt.Fprintf(&b, "            $display(\"%s action=%d\");\n", MarkGuard, g.Action)
			b.WriteString("            failures = failures + 1;\n")
			if opts.StopOnFail {
				emitDone(&b, "            ")
				b.WriteString("            $finish;\n")
			}
			b.WriteString("        end\n")
		}
		return nil
	}

	for _, op := range prog {
		switch op := op.(type) {
		case SetOp:
			ref := svRef(op.Path)
			assign := "%s = %s;"
			if strings.HasPrefix(ref, "dut.") {
				assign = "force %s = %s;"
			}
			fmt.Fprintf(&b, "        "+assign+" // action %d\n", ref, op.Value.String(), op.Action)
			b.WriteString("        #1;\n")
			if err := emitGuards(); err != nil {
				return nil, err
			}
		case CheckOp:
			ref := svRef(op.Path)
			b.WriteString("        checks = checks + 1;\n")
			fmt.Fprintf(&b, "        if (%s !== %s) begin\n", ref, op.Want.String())
			fmt.Fprintf(&b, "            $display(\"%s action=%d path=%s expect=%d actual=%%0d\", %s);\n",
				MarkFail, op.Action, op.Path, op.Want.Bits(), ref)
			b.WriteString("            failures = failures + 1;\n")
			if opts.StopOnFail {
				emitDone(&b, "            ")
				b.WriteString("            $finish;\n")
			}
			b.WriteString("        end\n")
		case GuardOp:
			guards = append(guards, op)
		case EvalOp:
			// not emitted for the event target; kept for safety
			b.WriteString("        #1;\n")
			if err := emitGuards(); err != nil {
				return nil, err
			}
		}
	}

	emitDone(&b, "        ")
	b.WriteString("        #10 $finish;\n")
	b.WriteString("    end\n")
	b.WriteString("endmodule\n")
	return []byte(b.String()), nil
}

func emitDone(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%s$display(\"%s checks=%%0d failures=%%0d\", checks, failures);\n", indent, MarkDone)
}

// svRef maps a model path to a testbench reference: top-level ports are
// local nets, nested paths are hierarchical references into the DUT.
func svRef(path string) string {
	if strings.ContainsRune(path, '.') {
		return "dut." + path
	}
	return path
}

func topChildren(m *fault.Model) []fault.Child {
	cs, err := m.Children(nil)
	if err != nil {
		// the root always resolves
		panic(err)
	}
	return cs
}
